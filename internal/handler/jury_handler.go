package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/middleware"
	"github.com/campuslab/project-jury-api/internal/service"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// JuryHandler exposes jury assignment endpoints.
type JuryHandler struct {
	jury    *service.JuryService
	metrics *service.MetricsService
}

// NewJuryHandler constructs handler.
func NewJuryHandler(jury *service.JuryService, metrics *service.MetricsService) *JuryHandler {
	return &JuryHandler{jury: jury, metrics: metrics}
}

type reassignPayload struct {
	Count int `json:"count"`
}

// Reassign godoc
// @Summary Draw additional jurors for a deliverable
// @Tags Jury
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Param payload body handler.reassignPayload true "Draw payload"
// @Success 201 {object} response.Envelope
// @Router /deliverables/{id}/jury/reassign [post]
func (h *JuryHandler) Reassign(c *gin.Context) {
	// An absent body means "use the default count"; only malformed JSON
	// is rejected.
	var req reassignPayload
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignments, err := h.jury.Reassign(c.Request.Context(), c.Param("id"), req.Count)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordJuryAssignments(len(assignments))
	}
	response.Created(c, assignments)
}

// List godoc
// @Summary List jurors assigned to a deliverable
// @Tags Jury
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id}/jury [get]
func (h *JuryHandler) List(c *gin.Context) {
	assignments, err := h.jury.ListByDeliverable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Tasks godoc
// @Summary List the caller's jury tasks
// @Tags Jury
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/jury-tasks [get]
func (h *JuryHandler) Tasks(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	tasks, err := h.jury.ListForJuror(c.Request.Context(), requester.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}
