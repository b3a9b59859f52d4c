package roster

type Roster struct {
	ClassName string   `json:"className"`
	Students  []string `json:"students"`
}

type CreateRosterRequest struct {
	ClassName string   `json:"className" binding:"required"`
	Students  []string `json:"students"  binding:"required"`
}

type UpdateRosterRequest struct {
	Students []string `json:"students" binding:"required"`
}
