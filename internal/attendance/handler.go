package attendance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ROLLCALL-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	// GET /api/attendance
	r.GET("", h.ListRecords)
	// GET /api/attendance/report
	r.GET("/report", h.Report)
}

// ListRecords godoc
// @Summary  List attendance records, most recent date first
// @Tags     attendance
// @Produce  json
// @Success  200  {array}   RecordResponse
// @Failure  500  {object}  map[string]any
// @Router   /attendance [get]
func (h *Handler) ListRecords(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Report godoc
// @Summary  Total absences per stored class name
// @Tags     attendance
// @Produce  json
// @Success  200  {object}  ReportResponse
// @Router   /attendance/report [get]
func (h *Handler) Report(c *gin.Context) {
	res, err := h.svc.Report(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(apperr.HTTPStatus(err), apperr.BodyFrom(err))
}
