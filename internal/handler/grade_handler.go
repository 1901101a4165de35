package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/middleware"
	"github.com/campuslab/project-jury-api/internal/service"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// GradeHandler exposes grade submission and final grade endpoints.
type GradeHandler struct {
	grades  *service.GradeService
	metrics *service.MetricsService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService, metrics *service.MetricsService) *GradeHandler {
	return &GradeHandler{grades: grades, metrics: metrics}
}

type submitGradePayload struct {
	Score   float64 `json:"score" binding:"required"`
	Comment *string `json:"comment"`
}

// Submit godoc
// @Summary Submit a grade as an assigned juror
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Param payload body handler.submitGradePayload true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /deliverables/{id}/grades [post]
func (h *GradeHandler) Submit(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req submitGradePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Submit(c.Request.Context(), requester.ID, service.SubmitGradeRequest{
		DeliverableID: c.Param("id"),
		Score:         req.Score,
		Comment:       req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordGradeSubmitted()
	}
	response.Created(c, grade)
}

// List godoc
// @Summary List anonymized grades of a deliverable
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id}/grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	grades, err := h.grades.ListForDeliverable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Recalculate godoc
// @Summary Recompute the final score of a deliverable
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id}/recalculate [post]
func (h *GradeHandler) Recalculate(c *gin.Context) {
	final, err := h.grades.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, final, nil)
}

// Mine godoc
// @Summary List the caller's submitted grades
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/grades [get]
func (h *GradeHandler) Mine(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grades, err := h.grades.ListForJuror(c.Request.Context(), requester.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}
