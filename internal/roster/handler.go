package roster

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ROLLCALL-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("", h.CreateRoster)
	r.GET("", h.ListRosters)
	r.GET("/:class", h.GetRoster)
	r.PUT("/:class", h.UpdateRoster)
	r.DELETE("/:class", h.DeleteRoster)
}

// @Summary  List rosters
// @Tags     rosters
// @Produce  json
// @Success  200  {array}  Roster
// @Router   /rosters [get]
func (h *Handler) ListRosters(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary  Get one roster
// @Tags     rosters
// @Produce  json
// @Param    class  path  string  true  "class name"
// @Success  200  {object}  Roster
// @Router   /rosters/{class} [get]
func (h *Handler) GetRoster(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("class"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary  Create a roster
// @Tags     rosters
// @Accept   json
// @Produce  json
// @Param    body  body  CreateRosterRequest  true  "roster"
// @Success  201  {object}  Roster
// @Failure  409  {object}  map[string]any
// @Router   /rosters [post]
func (h *Handler) CreateRoster(c *gin.Context) {
	var req CreateRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/api/rosters/"+resp.ClassName)
	c.JSON(http.StatusCreated, resp)
}

// @Summary  Replace the students of a roster
// @Tags     rosters
// @Accept   json
// @Produce  json
// @Param    class  path  string               true  "class name"
// @Param    body   body  UpdateRosterRequest  true  "students"
// @Success  200  {object}  Roster
// @Router   /rosters/{class} [put]
func (h *Handler) UpdateRoster(c *gin.Context) {
	var req UpdateRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), c.Param("class"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary  Delete a roster
// @Tags     rosters
// @Param    class  path  string  true  "class name"
// @Success  204
// @Router   /rosters/{class} [delete]
func (h *Handler) DeleteRoster(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("class")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(apperr.HTTPStatus(err), apperr.BodyFrom(err))
}
