package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/export"
)

type reportRepo interface {
	ProjectSummaries(ctx context.Context, offeringID string) ([]models.ProjectSummaryRow, error)
}

type reportOfferingReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
}

type reportCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type reportProjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type reportDeliverableLister interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Deliverable, error)
}

type reportFinalLister interface {
	ListByProject(ctx context.Context, projectID string) ([]models.ProjectFinalGrade, error)
}

// ReportService builds offering and project summaries, caches the offering
// view and renders CSV/PDF exports.
type ReportService struct {
	reports      reportRepo
	offerings    reportOfferingReader
	courses      reportCourseReader
	projects     reportProjectReader
	deliverables reportDeliverableLister
	finals       reportFinalLister
	cache        *CacheService
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	exportTitle  string
	logger       *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(reports reportRepo, offerings reportOfferingReader, courses reportCourseReader, projects reportProjectReader, deliverables reportDeliverableLister, finals reportFinalLister, cache *CacheService, cfg config.ReportsConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	title := cfg.ExportTitle
	if title == "" {
		title = "Offering summary"
	}
	return &ReportService{
		reports:      reports,
		offerings:    offerings,
		courses:      courses,
		projects:     projects,
		deliverables: deliverables,
		finals:       finals,
		cache:        cache,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		exportTitle:  title,
		logger:       logger,
	}
}

// OfferingSummary aggregates one offering: per-project deliverable and final
// grade counts, per-project average final score and the average of project
// averages. Reads go through the cache when it is enabled.
func (s *ReportService) OfferingSummary(ctx context.Context, offeringID string) (*models.OfferingSummary, error) {
	key := offeringSummaryKey(offeringID)
	var cached models.OfferingSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	offering, err := s.offerings.FindByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}

	rows, err := s.reports.ProjectSummaries(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate offering projects")
	}

	summary := &models.OfferingSummary{
		Offering: *offering,
		Stats:    buildOfferingStats(rows),
		Projects: rows,
	}
	if course, err := s.courses.FindByID(ctx, offering.CourseID); err == nil {
		summary.Course = course
	}

	s.cache.Set(ctx, key, summary, 0)
	return summary, nil
}

// ProjectReport returns one project's deliverables and final grades.
func (s *ReportService) ProjectReport(ctx context.Context, projectID string) (*models.ProjectReport, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	deliverables, err := s.deliverables.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deliverables")
	}
	finals, err := s.finals.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list final grades")
	}
	return &models.ProjectReport{Project: *project, Deliverables: deliverables, FinalGrades: finals}, nil
}

// ExportOfferingSummary renders the offering summary as CSV or PDF and
// returns the payload with a suggested filename.
func (s *ReportService) ExportOfferingSummary(ctx context.Context, offeringID string, format models.ReportFormat) ([]byte, string, error) {
	summary, err := s.OfferingSummary(ctx, offeringID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Columns: []export.Column{
			{Title: "Project"},
			{Title: "Deliverables", Numeric: true},
			{Title: "Final grades", Numeric: true},
			{Title: "Average score", Numeric: true},
		},
		Footer: fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")),
	}
	for _, row := range summary.Projects {
		avg := ""
		if row.AverageFinalScore != nil {
			avg = strconv.FormatFloat(*row.AverageFinalScore, 'f', 2, 64)
		}
		dataset.Rows = append(dataset.Rows, []string{
			row.Title,
			strconv.Itoa(row.DeliverableCount),
			strconv.Itoa(row.FinalGradesCount),
			avg,
		})
	}

	switch format {
	case models.ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, fmt.Sprintf("offering-%s-summary.csv", offeringID), nil
	case models.ReportFormatPDF:
		title := fmt.Sprintf("%s %s %s", s.exportTitle, summary.Offering.AcademicYear, summary.Offering.Semester)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, fmt.Sprintf("offering-%s-summary.pdf", offeringID), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}

// InvalidateOffering drops every cached report for an offering.
func (s *ReportService) InvalidateOffering(ctx context.Context, offeringID string) error {
	return s.cache.InvalidatePattern(ctx, fmt.Sprintf("report:offering:%s*", offeringID))
}

func buildOfferingStats(rows []models.ProjectSummaryRow) models.OfferingStats {
	stats := models.OfferingStats{ProjectCount: len(rows)}
	sum := 0.0
	for _, row := range rows {
		if row.AverageFinalScore == nil {
			continue
		}
		stats.ProjectsWithFinalGrades++
		sum += *row.AverageFinalScore
	}
	if stats.ProjectsWithFinalGrades > 0 {
		avg := roundScore(sum / float64(stats.ProjectsWithFinalGrades))
		stats.AverageOfProjectAverages = &avg
	}
	return stats
}

func offeringSummaryKey(offeringID string) string {
	return fmt.Sprintf("report:offering:%s:summary", offeringID)
}
