package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type mockReportRepo struct {
	rows []models.ProjectSummaryRow
}

func (m *mockReportRepo) ProjectSummaries(ctx context.Context, offeringID string) ([]models.ProjectSummaryRow, error) {
	return m.rows, nil
}

type mockFinalLister struct{}

func (m *mockFinalLister) ListByProject(ctx context.Context, projectID string) ([]models.ProjectFinalGrade, error) {
	return nil, nil
}

type mockDeliverableLister struct{}

func (m *mockDeliverableLister) ListByProject(ctx context.Context, projectID string) ([]models.Deliverable, error) {
	return nil, nil
}

func floatPtr(v float64) *float64 { return &v }

func testReportService(reports *mockReportRepo, offerings *mockOfferingRepo, courses *mockCourseReader) *ReportService {
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	return NewReportService(reports, offerings, courses, &mockProjectReader{}, &mockDeliverableLister{}, &mockFinalLister{}, cache, config.ReportsConfig{}, zap.NewNop())
}

func TestReportServiceOfferingSummaryStats(t *testing.T) {
	reports := &mockReportRepo{rows: []models.ProjectSummaryRow{
		{ProjectID: "p1", Title: "Alpha", DeliverableCount: 2, FinalGradesCount: 2, AverageFinalScore: floatPtr(7.5)},
		{ProjectID: "p2", Title: "Beta", DeliverableCount: 1, FinalGradesCount: 1, AverageFinalScore: floatPtr(8.0)},
		{ProjectID: "p3", Title: "Gamma", DeliverableCount: 1},
	}}
	svc := testReportService(reports, offeringFixture(), &mockCourseReader{})

	summary, err := svc.OfferingSummary(context.Background(), "off-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Stats.ProjectCount)
	assert.Equal(t, 2, summary.Stats.ProjectsWithFinalGrades)
	require.NotNil(t, summary.Stats.AverageOfProjectAverages)
	assert.Equal(t, 7.75, *summary.Stats.AverageOfProjectAverages)
}

func TestReportServiceOfferingSummaryUnknownOffering(t *testing.T) {
	svc := testReportService(&mockReportRepo{}, offeringFixture(), &mockCourseReader{})

	_, err := svc.OfferingSummary(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportServiceExportCSV(t *testing.T) {
	reports := &mockReportRepo{rows: []models.ProjectSummaryRow{
		{ProjectID: "p1", Title: "Alpha", DeliverableCount: 2, FinalGradesCount: 1, AverageFinalScore: floatPtr(6.33)},
	}}
	svc := testReportService(reports, offeringFixture(), &mockCourseReader{})

	payload, filename, err := svc.ExportOfferingSummary(context.Background(), "off-1", models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "offering-off-1-summary.csv", filename)

	content := string(payload)
	assert.True(t, strings.HasPrefix(content, "Project,Deliverables,Final grades,Average score"))
	assert.Contains(t, content, "Alpha,2,1,6.33")
}

func TestReportServiceExportUnknownFormat(t *testing.T) {
	svc := testReportService(&mockReportRepo{}, offeringFixture(), &mockCourseReader{})

	_, _, err := svc.ExportOfferingSummary(context.Background(), "off-1", models.ReportFormat("xml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestReportServiceProjectReportUnknownProject(t *testing.T) {
	svc := testReportService(&mockReportRepo{}, offeringFixture(), &mockCourseReader{})

	_, err := svc.ProjectReport(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
