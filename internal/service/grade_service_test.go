package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type mockGradeRepo struct {
	grades map[string]models.Grade
}

func gradeKey(deliverableID, jurorID string) string {
	return deliverableID + "/" + jurorID
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]models.Grade)
	}
	key := gradeKey(grade.DeliverableID, grade.JurorID)
	if _, ok := m.grades[key]; ok {
		return appErrors.Clone(appErrors.ErrGradeExists, "")
	}
	grade.CreatedAt = time.Now().UTC()
	m.grades[key] = *grade
	return nil
}

func (m *mockGradeRepo) Exists(ctx context.Context, deliverableID, jurorID string) (bool, error) {
	_, ok := m.grades[gradeKey(deliverableID, jurorID)]
	return ok, nil
}

func (m *mockGradeRepo) ListScores(ctx context.Context, deliverableID string) ([]float64, error) {
	var scores []float64
	for _, g := range m.grades {
		if g.DeliverableID == deliverableID {
			scores = append(scores, g.Score)
		}
	}
	return scores, nil
}

func (m *mockGradeRepo) ListAnonymous(ctx context.Context, deliverableID string) ([]models.AnonymousGrade, error) {
	var grades []models.AnonymousGrade
	for _, g := range m.grades {
		if g.DeliverableID == deliverableID {
			grades = append(grades, models.AnonymousGrade{Score: g.Score, Comment: g.Comment, CreatedAt: g.CreatedAt})
		}
	}
	return grades, nil
}

func (m *mockGradeRepo) ListByJuror(ctx context.Context, jurorID string) ([]models.JurorGrade, error) {
	var grades []models.JurorGrade
	for _, g := range m.grades {
		if g.JurorID == jurorID {
			grades = append(grades, models.JurorGrade{Grade: g})
		}
	}
	return grades, nil
}

type mockJuryChecker struct {
	assigned map[string]bool
}

func (m *mockJuryChecker) Exists(ctx context.Context, deliverableID, jurorID string) (bool, error) {
	return m.assigned[gradeKey(deliverableID, jurorID)], nil
}

type mockFinalRepo struct {
	finals map[string]models.ProjectFinalGrade
}

func finalKey(projectID, deliverableID string) string {
	return projectID + "/" + deliverableID
}

func (m *mockFinalRepo) Upsert(ctx context.Context, final *models.ProjectFinalGrade) error {
	if m.finals == nil {
		m.finals = make(map[string]models.ProjectFinalGrade)
	}
	m.finals[finalKey(final.ProjectID, final.DeliverableID)] = *final
	return nil
}

func (m *mockFinalRepo) FindByDeliverable(ctx context.Context, projectID, deliverableID string) (*models.ProjectFinalGrade, error) {
	final := m.finals[finalKey(projectID, deliverableID)]
	return &final, nil
}

func (m *mockFinalRepo) ListByProject(ctx context.Context, projectID string) ([]models.ProjectFinalGrade, error) {
	var finals []models.ProjectFinalGrade
	for _, f := range m.finals {
		if f.ProjectID == projectID {
			finals = append(finals, f)
		}
	}
	return finals, nil
}

type mockReportInvalidator struct {
	invalidated []string
}

func (m *mockReportInvalidator) InvalidateOffering(ctx context.Context, offeringID string) error {
	m.invalidated = append(m.invalidated, offeringID)
	return nil
}

func testGradeService(grades *mockGradeRepo, jury *mockJuryChecker, deliverables *mockDeliverableReader, finals *mockFinalRepo) *GradeService {
	return NewGradeService(grades, jury, deliverables, finals, nil, nil, config.GradingConfig{TrimThreshold: 3, MinScore: 1, MaxScore: 10}, nil, zap.NewNop())
}

func gradedFixture(scores map[string]float64) (*mockGradeRepo, *mockJuryChecker, *mockDeliverableReader, *mockFinalRepo) {
	grades := &mockGradeRepo{grades: make(map[string]models.Grade)}
	jury := &mockJuryChecker{assigned: make(map[string]bool)}
	for juror, score := range scores {
		jury.assigned[gradeKey("d1", juror)] = true
		grades.grades[gradeKey("d1", juror)] = models.Grade{DeliverableID: "d1", JurorID: juror, Score: score}
	}
	deliverables := &mockDeliverableReader{deliverables: map[string]models.Deliverable{
		"d1": {ID: "d1", ProjectID: strPtr("p1")},
	}}
	return grades, jury, deliverables, &mockFinalRepo{}
}

func TestGradeServiceTrimmedMean(t *testing.T) {
	cases := []struct {
		name   string
		scores map[string]float64
		want   float64
	}{
		{"three scores trims both ends", map[string]float64{"a": 2, "b": 5, "c": 8}, 5.00},
		{"two scores kept untrimmed", map[string]float64{"a": 4, "b": 4}, 4.00},
		{"four scores trims one min one max", map[string]float64{"a": 1, "b": 5, "c": 9, "d": 9}, 7.00},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grades, jury, deliverables, finals := gradedFixture(tc.scores)
			svc := testGradeService(grades, jury, deliverables, finals)

			final, err := svc.Recalculate(context.Background(), "d1")
			require.NoError(t, err)
			require.NotNil(t, final.FinalScore)
			assert.Equal(t, tc.want, *final.FinalScore)
			assert.Equal(t, "p1", final.ProjectID)
		})
	}
}

func TestGradeServiceRecalculateIsIdempotent(t *testing.T) {
	grades, jury, deliverables, finals := gradedFixture(map[string]float64{"a": 2, "b": 5, "c": 8})
	svc := testGradeService(grades, jury, deliverables, finals)

	first, err := svc.Recalculate(context.Background(), "d1")
	require.NoError(t, err)
	second, err := svc.Recalculate(context.Background(), "d1")
	require.NoError(t, err)

	assert.Equal(t, *first.FinalScore, *second.FinalScore)
	assert.NotNil(t, second.CalculatedAt)
	assert.Len(t, finals.finals, 1)
}

func TestGradeServiceRecalculateWithoutGrades(t *testing.T) {
	grades, jury, deliverables, finals := gradedFixture(nil)
	svc := testGradeService(grades, jury, deliverables, finals)

	_, err := svc.Recalculate(context.Background(), "d1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNoGrades)
}

func TestGradeServiceSubmitPreconditionOrder(t *testing.T) {
	grades, jury, deliverables, finals := gradedFixture(nil)
	jury.assigned[gradeKey("d1", "juror-1")] = true
	svc := testGradeService(grades, jury, deliverables, finals)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "juror-1", SubmitGradeRequest{DeliverableID: "missing", Score: 5})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Submit(ctx, "stranger", SubmitGradeRequest{DeliverableID: "d1", Score: 5})
	assert.ErrorIs(t, err, appErrors.ErrNotAJuror)

	_, err = svc.Submit(ctx, "juror-1", SubmitGradeRequest{DeliverableID: "d1", Score: 11})
	assert.ErrorIs(t, err, appErrors.ErrInvalidScore)
	_, err = svc.Submit(ctx, "juror-1", SubmitGradeRequest{DeliverableID: "d1", Score: 0.5})
	assert.ErrorIs(t, err, appErrors.ErrInvalidScore)

	// A zero score reaches the ordered checks instead of failing payload
	// validation: a non-juror still sees NotAJuror, a juror InvalidScore.
	_, err = svc.Submit(ctx, "stranger", SubmitGradeRequest{DeliverableID: "d1", Score: 0})
	assert.ErrorIs(t, err, appErrors.ErrNotAJuror)
	_, err = svc.Submit(ctx, "juror-1", SubmitGradeRequest{DeliverableID: "d1", Score: 0})
	assert.ErrorIs(t, err, appErrors.ErrInvalidScore)

	_, err = svc.Submit(ctx, "juror-1", SubmitGradeRequest{DeliverableID: "d1", Score: 7.5})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "juror-1", SubmitGradeRequest{DeliverableID: "d1", Score: 8})
	assert.ErrorIs(t, err, appErrors.ErrGradeExists)
}

func TestGradeServiceSubmitDoesNotAggregate(t *testing.T) {
	// Aggregation is on demand only. A submit never touches the final
	// grade, so a failing upsert can never leave a grade row behind an
	// error response.
	grades, jury, deliverables, finals := gradedFixture(map[string]float64{"a": 2, "b": 8})
	jury.assigned[gradeKey("d1", "c")] = true
	svc := testGradeService(grades, jury, deliverables, finals)

	grade, err := svc.Submit(context.Background(), "c", SubmitGradeRequest{DeliverableID: "d1", Score: 5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, grade.Score)
	assert.Empty(t, finals.finals)

	final, err := svc.Recalculate(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, final.FinalScore)
	// [2,5,8] trims to [5]
	assert.Equal(t, 5.00, *final.FinalScore)
}

func TestGradeServiceRecalculateDetachedDeliverable(t *testing.T) {
	grades, jury, _, finals := gradedFixture(map[string]float64{"a": 5})
	deliverables := &mockDeliverableReader{deliverables: map[string]models.Deliverable{
		"d1": {ID: "d1"},
	}}
	svc := testGradeService(grades, jury, deliverables, finals)

	_, err := svc.Recalculate(context.Background(), "d1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, finals.finals)
}

func TestGradeServiceRecalculateInvalidatesOfferingReports(t *testing.T) {
	grades, jury, deliverables, finals := gradedFixture(map[string]float64{"a": 4, "b": 6})
	projects := &mockProjectReader{projects: map[string]models.Project{
		"p1": {ID: "p1", Title: "Project", OfferingID: strPtr("off-1")},
	}}
	reports := &mockReportInvalidator{}
	svc := NewGradeService(grades, jury, deliverables, finals, projects, reports,
		config.GradingConfig{TrimThreshold: 3, MinScore: 1, MaxScore: 10}, nil, zap.NewNop())

	_, err := svc.Recalculate(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"off-1"}, reports.invalidated)
}
