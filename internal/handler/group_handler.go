package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/service"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// GroupHandler exposes student group endpoints.
type GroupHandler struct {
	groups   *service.GroupService
	projects *service.ProjectService
}

// NewGroupHandler constructs handler.
func NewGroupHandler(groups *service.GroupService, projects *service.ProjectService) *GroupHandler {
	return &GroupHandler{groups: groups, projects: projects}
}

type groupMemberPayload struct {
	UserID string `json:"user_id" binding:"required"`
}

// Create godoc
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Get godoc
// @Summary Get group with members and offerings
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group id"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	detail, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AddMember godoc
// @Summary Add student to group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group id"
// @Param payload body handler.groupMemberPayload true "Member payload"
// @Success 204 "No Content"
// @Router /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	var req groupMemberPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.groups.AddMember(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove student from group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group id"
// @Param userId path string true "User id"
// @Success 204 "No Content"
// @Router /groups/{id}/members/{userId} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.groups.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LinkOffering godoc
// @Summary Link group to offering
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group id"
// @Param offeringId path string true "Offering id"
// @Success 204 "No Content"
// @Router /groups/{id}/offerings/{offeringId} [post]
func (h *GroupHandler) LinkOffering(c *gin.Context) {
	if err := h.groups.LinkOffering(c.Request.Context(), c.Param("id"), c.Param("offeringId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnlinkOffering godoc
// @Summary Unlink group from offering
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group id"
// @Param offeringId path string true "Offering id"
// @Success 204 "No Content"
// @Router /groups/{id}/offerings/{offeringId} [delete]
func (h *GroupHandler) UnlinkOffering(c *gin.Context) {
	if err := h.groups.UnlinkOffering(c.Request.Context(), c.Param("id"), c.Param("offeringId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Projects godoc
// @Summary List projects attached to a group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group id"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/projects [get]
func (h *GroupHandler) Projects(c *gin.Context) {
	projects, err := h.projects.ListByGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, nil)
}
