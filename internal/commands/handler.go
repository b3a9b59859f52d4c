package commands

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ROLLCALL-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	// POST /api/attendance/voice
	r.POST("/voice", h.Voice)
	// POST /api/attendance/query
	r.POST("/query", h.Query)
	// POST /api/attendance/confirm
	r.POST("/confirm", h.Confirm)
}

// Voice godoc
// @Summary  Interpret and run a spoken attendance command
// @Tags     attendance
// @Accept   json
// @Produce  json
// @Param    body  body  CommandRequest  true  "transcript"
// @Success  200  {object}  Response  "executed, or confirmation required"
// @Success  201  {object}  Response  "record created"
// @Failure  400  {object}  map[string]any
// @Failure  404  {object}  map[string]any
// @Failure  422  {object}  map[string]any
// @Failure  502  {object}  map[string]any
// @Router   /attendance/voice [post]
func (h *Handler) Voice(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Transcript) == "" {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "Transcript is required"))
		return
	}
	res, err := h.svc.Command(c.Request.Context(), req)
	respond(c, res, err)
}

// Query godoc
// @Summary  Answer a spoken attendance question
// @Tags     attendance
// @Accept   json
// @Produce  json
// @Param    body  body  QueryRequest  true  "transcript"
// @Success  200  {object}  Response
// @Failure  422  {object}  map[string]any
// @Router   /attendance/query [post]
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Transcript) == "" {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "Transcript is required"))
		return
	}
	res, err := h.svc.Query(c.Request.Context(), req)
	respond(c, res, err)
}

// Confirm godoc
// @Summary  Execute a destructive command proposed earlier
// @Tags     attendance
// @Accept   json
// @Produce  json
// @Param    body  body  ConfirmRequest  true  "confirmation token"
// @Success  200  {object}  Response
// @Failure  400  {object}  map[string]any
// @Failure  404  {object}  map[string]any
// @Router   /attendance/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "token is required"))
		return
	}
	res, err := h.svc.Confirm(c.Request.Context(), req)
	respond(c, res, err)
}

func respond(c *gin.Context, res Response, err error) {
	if err != nil {
		_ = c.Error(err)
		c.JSON(apperr.HTTPStatus(err), apperr.BodyFrom(err))
		return
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, res)
}
