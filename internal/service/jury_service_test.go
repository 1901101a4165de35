package service

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type mockJuryRepo struct {
	pool    []string
	created []models.JuryAssignment
}

func (m *mockJuryRepo) EligiblePoolTx(ctx context.Context, tx *sqlx.Tx, projectID, groupID, deliverableID string) ([]string, error) {
	assigned := make(map[string]bool)
	for _, a := range m.created {
		if a.DeliverableID == deliverableID {
			assigned[a.JurorID] = true
		}
	}
	var eligible []string
	for _, id := range m.pool {
		if !assigned[id] {
			eligible = append(eligible, id)
		}
	}
	return eligible, nil
}

func (m *mockJuryRepo) CreateBatchTx(ctx context.Context, tx *sqlx.Tx, assignments []models.JuryAssignment) error {
	m.created = append(m.created, assignments...)
	return nil
}

func (m *mockJuryRepo) ListByDeliverable(ctx context.Context, deliverableID string) ([]models.JuryAssignmentDetail, error) {
	var details []models.JuryAssignmentDetail
	for _, a := range m.created {
		if a.DeliverableID == deliverableID {
			details = append(details, models.JuryAssignmentDetail{JuryAssignment: a})
		}
	}
	return details, nil
}

func (m *mockJuryRepo) ListByJuror(ctx context.Context, jurorID string) ([]models.JurorTask, error) {
	var tasks []models.JurorTask
	for _, a := range m.created {
		if a.JurorID == jurorID {
			tasks = append(tasks, models.JurorTask{JuryAssignment: a})
		}
	}
	return tasks, nil
}

type mockDeliverableReader struct {
	deliverables map[string]models.Deliverable
}

func (m *mockDeliverableReader) FindByID(ctx context.Context, id string) (*models.Deliverable, error) {
	if d, ok := m.deliverables[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

type mockProjectReader struct {
	projects map[string]models.Project
}

func (m *mockProjectReader) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func strPtr(s string) *string { return &s }

func groupedProject(id string) models.Project {
	return models.Project{ID: id, Title: "Project", GroupID: strPtr("group-1"), CreatedAt: time.Now()}
}

func testJuryService(t *testing.T, repo *mockJuryRepo, deliverables *mockDeliverableReader, projects *mockProjectReader, seed int64) (*JuryService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTestDB(t)
	rng := rand.New(rand.NewSource(seed))
	svc := NewJuryService(db, repo, deliverables, projects, rng, config.JuryConfig{DefaultCount: 10}, zap.NewNop())
	return svc, mock
}

func TestJuryServiceSelectTakesMinOfCountAndPool(t *testing.T) {
	repo := &mockJuryRepo{pool: []string{"s1", "s2", "s3", "s4", "s5"}}
	svc, mock := testJuryService(t, repo, &mockDeliverableReader{}, &mockProjectReader{}, 1)

	mock.ExpectBegin()
	db := svc.db
	tx, err := db.Beginx()
	require.NoError(t, err)

	project := groupedProject("p1")
	assignments, err := svc.SelectTx(context.Background(), tx, &project, "d1", 3)
	require.NoError(t, err)
	assert.Len(t, assignments, 3)

	seen := make(map[string]bool)
	for _, a := range assignments {
		assert.Equal(t, "d1", a.DeliverableID)
		assert.Contains(t, repo.pool, a.JurorID)
		assert.False(t, seen[a.JurorID], "juror selected twice")
		seen[a.JurorID] = true
	}
}

func TestJuryServiceSelectCoercesCountToDefault(t *testing.T) {
	repo := &mockJuryRepo{pool: []string{"s1", "s2", "s3", "s4"}}
	svc, mock := testJuryService(t, repo, &mockDeliverableReader{}, &mockProjectReader{}, 1)

	mock.ExpectBegin()
	tx, err := svc.db.Beginx()
	require.NoError(t, err)

	project := groupedProject("p1")
	assignments, err := svc.SelectTx(context.Background(), tx, &project, "d1", 0)
	require.NoError(t, err)
	// default count 10, capped by pool size
	assert.Len(t, assignments, 4)
}

func TestJuryServiceSelectEmptyPoolIsNotAnError(t *testing.T) {
	repo := &mockJuryRepo{}
	svc, mock := testJuryService(t, repo, &mockDeliverableReader{}, &mockProjectReader{}, 1)

	mock.ExpectBegin()
	tx, err := svc.db.Beginx()
	require.NoError(t, err)

	project := groupedProject("p1")
	assignments, err := svc.SelectTx(context.Background(), tx, &project, "d1", 5)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestJuryServiceSelectRequiresGroup(t *testing.T) {
	repo := &mockJuryRepo{pool: []string{"s1"}}
	svc, mock := testJuryService(t, repo, &mockDeliverableReader{}, &mockProjectReader{}, 1)

	mock.ExpectBegin()
	tx, err := svc.db.Beginx()
	require.NoError(t, err)

	project := models.Project{ID: "p1", Title: "Loose"}
	_, err = svc.SelectTx(context.Background(), tx, &project, "d1", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrProjectHasNoGroup)
	assert.Empty(t, repo.created)
}

func TestJuryServiceReassignFailsOnEmptyPool(t *testing.T) {
	repo := &mockJuryRepo{}
	deliverables := &mockDeliverableReader{deliverables: map[string]models.Deliverable{
		"d1": {ID: "d1", ProjectID: strPtr("p1")},
	}}
	projects := &mockProjectReader{projects: map[string]models.Project{"p1": groupedProject("p1")}}
	svc, mock := testJuryService(t, repo, deliverables, projects, 1)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Reassign(context.Background(), "d1", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNoEligibleJurors)
}

func TestJuryServiceReassignUnknownDeliverable(t *testing.T) {
	svc, _ := testJuryService(t, &mockJuryRepo{}, &mockDeliverableReader{}, &mockProjectReader{}, 1)

	_, err := svc.Reassign(context.Background(), "missing", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestJuryServiceReassignDetachedDeliverable(t *testing.T) {
	// A deliverable whose project was cascade-deleted keeps a nil project
	// linkage and can no longer receive jurors.
	deliverables := &mockDeliverableReader{deliverables: map[string]models.Deliverable{
		"d1": {ID: "d1"},
	}}
	svc, _ := testJuryService(t, &mockJuryRepo{}, deliverables, &mockProjectReader{}, 1)

	_, err := svc.Reassign(context.Background(), "d1", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestJuryServiceReassignExcludesPriorSelections(t *testing.T) {
	repo := &mockJuryRepo{pool: []string{"s1", "s2", "s3", "s4"}}
	deliverables := &mockDeliverableReader{deliverables: map[string]models.Deliverable{
		"d1": {ID: "d1", ProjectID: strPtr("p1")},
	}}
	projects := &mockProjectReader{projects: map[string]models.Project{"p1": groupedProject("p1")}}
	svc, mock := testJuryService(t, repo, deliverables, projects, 7)

	mock.ExpectBegin()
	mock.ExpectCommit()
	first, err := svc.Reassign(context.Background(), "d1", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	mock.ExpectBegin()
	mock.ExpectCommit()
	second, err := svc.Reassign(context.Background(), "d1", 2)
	require.NoError(t, err)
	require.Len(t, second, 2)

	pairs := make(map[string]int)
	for _, a := range repo.created {
		pairs[a.DeliverableID+"/"+a.JurorID]++
	}
	for pair, n := range pairs {
		assert.Equal(t, 1, n, "duplicate assignment %s", pair)
	}
}
