package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/middleware"
	"github.com/campuslab/project-jury-api/internal/service"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// ProjectHandler exposes project and membership endpoints.
type ProjectHandler struct {
	projects     *service.ProjectService
	deliverables *service.DeliverableService
	grades       *service.GradeService
}

// NewProjectHandler constructs handler.
func NewProjectHandler(projects *service.ProjectService, deliverables *service.DeliverableService, grades *service.GradeService) *ProjectHandler {
	return &ProjectHandler{projects: projects, deliverables: deliverables, grades: grades}
}

type projectMemberPayload struct {
	UserID   string `json:"user_id" binding:"required"`
	IsLeader bool   `json:"is_leader"`
}

type leadershipPayload struct {
	IsLeader bool `json:"is_leader"`
}

// Create godoc
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.projects.Create(c.Request.Context(), requester, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Get godoc
// @Summary Get project with members
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project id"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	detail, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AddMember godoc
// @Summary Add member to project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project id"
// @Param payload body handler.projectMemberPayload true "Member payload"
// @Success 204 "No Content"
// @Router /projects/{id}/members [post]
func (h *ProjectHandler) AddMember(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req projectMemberPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.projects.AddMember(c.Request.Context(), requester, c.Param("id"), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	if req.IsLeader {
		if err := h.projects.UpdateLeadership(c.Request.Context(), requester, c.Param("id"), req.UserID, true); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.NoContent(c)
}

// UpdateLeadership godoc
// @Summary Promote or demote a project member
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project id"
// @Param userId path string true "User id"
// @Param payload body handler.leadershipPayload true "Leadership payload"
// @Success 204 "No Content"
// @Router /projects/{id}/members/{userId} [patch]
func (h *ProjectHandler) UpdateLeadership(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req leadershipPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.projects.UpdateLeadership(c.Request.Context(), requester, c.Param("id"), c.Param("userId"), req.IsLeader); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove member from project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project id"
// @Param userId path string true "User id"
// @Success 204 "No Content"
// @Router /projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.projects.RemoveMember(c.Request.Context(), requester, c.Param("id"), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Deliverables godoc
// @Summary List deliverables of a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project id"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/deliverables [get]
func (h *ProjectHandler) Deliverables(c *gin.Context) {
	items, err := h.deliverables.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// FinalGrades godoc
// @Summary List final grades of a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project id"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/final-grades [get]
func (h *ProjectHandler) FinalGrades(c *gin.Context) {
	finals, err := h.grades.FinalsForProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, finals, nil)
}

// Mine godoc
// @Summary List projects the caller belongs to
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/projects [get]
func (h *ProjectHandler) Mine(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	projects, err := h.projects.ListByMember(c.Request.Context(), requester.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, nil)
}
