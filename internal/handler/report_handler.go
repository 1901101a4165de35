package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/internal/service"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// ReportHandler exposes offering and project reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// OfferingSummary godoc
// @Summary Summary of an offering's projects and final grades
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering id"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/summary [get]
func (h *ReportHandler) OfferingSummary(c *gin.Context) {
	summary, err := h.reports.OfferingSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export an offering summary as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Offering id"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /offerings/{id}/summary/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := models.ReportFormat(c.DefaultQuery("format", string(models.ReportFormatCSV)))
	data, filename, err := h.reports.ExportOfferingSummary(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// ProjectReport godoc
// @Summary Full report for one project
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project id"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/report [get]
func (h *ReportHandler) ProjectReport(c *gin.Context) {
	report, err := h.reports.ProjectReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
