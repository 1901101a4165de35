package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/middleware"
	"github.com/campuslab/project-jury-api/internal/service"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// OfferingHandler exposes course offering endpoints, including the cascaded
// delete.
type OfferingHandler struct {
	offerings *service.OfferingService
	groups    *service.GroupService
	projects  *service.ProjectService
}

// NewOfferingHandler constructs handler.
func NewOfferingHandler(offerings *service.OfferingService, groups *service.GroupService, projects *service.ProjectService) *OfferingHandler {
	return &OfferingHandler{offerings: offerings, groups: groups, projects: projects}
}

// Create godoc
// @Summary Create course offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Router /offerings [post]
func (h *OfferingHandler) Create(c *gin.Context) {
	var req service.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering, err := h.offerings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// Get godoc
// @Summary Get offering with course and staff
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering id"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *OfferingHandler) Get(c *gin.Context) {
	detail, err := h.offerings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// UpsertStaff godoc
// @Summary Add or update offering staff
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering id"
// @Param payload body service.UpsertStaffRequest true "Staff payload"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/staff [put]
func (h *OfferingHandler) UpsertStaff(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	staff, err := h.offerings.UpsertStaff(c.Request.Context(), requester, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Delete godoc
// @Summary Delete offering with cascade
// @Description Removes the offering, its staff links and its projects in one transaction. Requires admin or the offering's main professor.
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering id"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [delete]
func (h *OfferingHandler) Delete(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.offerings.DeleteCascade(c.Request.Context(), requester, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Groups godoc
// @Summary List groups linked to an offering
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering id"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/groups [get]
func (h *OfferingHandler) Groups(c *gin.Context) {
	groups, err := h.groups.ListByOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Projects godoc
// @Summary List projects scoped to an offering
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering id"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/projects [get]
func (h *OfferingHandler) Projects(c *gin.Context) {
	projects, err := h.projects.ListByOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, nil)
}

// ListByCourse godoc
// @Summary List offerings of a course
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/offerings [get]
func (h *OfferingHandler) ListByCourse(c *gin.Context) {
	offerings, err := h.offerings.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// Mine godoc
// @Summary List offerings where the caller is main professor
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/offerings [get]
func (h *OfferingHandler) Mine(c *gin.Context) {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	offerings, err := h.offerings.ListByProfessor(c.Request.Context(), requester.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}
