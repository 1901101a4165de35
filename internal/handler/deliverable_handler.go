package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/service"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// DeliverableHandler exposes deliverable endpoints. Creation triggers the
// automatic jury draw.
type DeliverableHandler struct {
	deliverables *service.DeliverableService
}

// NewDeliverableHandler constructs handler.
func NewDeliverableHandler(deliverables *service.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{deliverables: deliverables}
}

// Create godoc
// @Summary Create deliverable and draw its jury
// @Tags Deliverables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateDeliverableRequest true "Deliverable payload"
// @Success 201 {object} response.Envelope
// @Router /deliverables [post]
func (h *DeliverableHandler) Create(c *gin.Context) {
	var req service.CreateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.deliverables.CreateWithJury(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Get deliverable
// @Tags Deliverables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id} [get]
func (h *DeliverableHandler) Get(c *gin.Context) {
	deliverable, err := h.deliverables.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deliverable, nil)
}

// Update godoc
// @Summary Update deliverable metadata
// @Tags Deliverables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Param payload body service.UpdateDeliverableRequest true "Metadata payload"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id} [put]
func (h *DeliverableHandler) Update(c *gin.Context) {
	var req service.UpdateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deliverable, err := h.deliverables.UpdateMetadata(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deliverable, nil)
}

// AddFile godoc
// @Summary Attach file metadata to deliverable
// @Tags Deliverables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Param payload body service.AddDeliverableFileRequest true "File payload"
// @Success 201 {object} response.Envelope
// @Router /deliverables/{id}/files [post]
func (h *DeliverableHandler) AddFile(c *gin.Context) {
	var req service.AddDeliverableFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	file, err := h.deliverables.AddFile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Files godoc
// @Summary List files of a deliverable
// @Tags Deliverables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deliverable id"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id}/files [get]
func (h *DeliverableHandler) Files(c *gin.Context) {
	files, err := h.deliverables.ListFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, nil)
}
