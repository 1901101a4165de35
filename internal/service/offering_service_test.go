package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type mockOfferingRepo struct {
	offerings       map[string]models.CourseOffering
	staffCount      int
	projectCount    int
	staffDeleted    bool
	projectsDeleted bool
	gradingDeleted  bool
	offeringDeleted bool
}

func (m *mockOfferingRepo) Create(ctx context.Context, offering *models.CourseOffering) error {
	if m.offerings == nil {
		m.offerings = make(map[string]models.CourseOffering)
	}
	offering.ID = "off-new"
	m.offerings[offering.ID] = *offering
	return nil
}

func (m *mockOfferingRepo) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	if o, ok := m.offerings[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOfferingRepo) ListByCourse(ctx context.Context, courseID string) ([]models.CourseOffering, error) {
	var offerings []models.CourseOffering
	for _, o := range m.offerings {
		if o.CourseID == courseID {
			offerings = append(offerings, o)
		}
	}
	return offerings, nil
}

func (m *mockOfferingRepo) ListByProfessor(ctx context.Context, professorID string) ([]models.CourseOffering, error) {
	var offerings []models.CourseOffering
	for _, o := range m.offerings {
		if o.MainProfessorID == professorID {
			offerings = append(offerings, o)
		}
	}
	return offerings, nil
}

func (m *mockOfferingRepo) ListStaff(ctx context.Context, offeringID string) ([]models.StaffMember, error) {
	return nil, nil
}

func (m *mockOfferingRepo) UpsertStaff(ctx context.Context, staff *models.CourseStaff) error {
	return nil
}

func (m *mockOfferingRepo) DeleteStaffTx(ctx context.Context, tx *sqlx.Tx, offeringID string) (int, error) {
	m.staffDeleted = true
	return m.staffCount, nil
}

func (m *mockOfferingRepo) DeleteProjectsTx(ctx context.Context, tx *sqlx.Tx, offeringID string) (int, error) {
	m.projectsDeleted = true
	return m.projectCount, nil
}

func (m *mockOfferingRepo) DeleteGradingTx(ctx context.Context, tx *sqlx.Tx, offeringID string) error {
	m.gradingDeleted = true
	return nil
}

func (m *mockOfferingRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, offeringID string) error {
	delete(m.offerings, offeringID)
	m.offeringDeleted = true
	return nil
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func offeringFixture() *mockOfferingRepo {
	return &mockOfferingRepo{
		offerings: map[string]models.CourseOffering{
			"off-1": {ID: "off-1", CourseID: "c1", AcademicYear: "2025/2026", Semester: models.SemesterAutumn, MainProfessorID: "prof-1"},
		},
		staffCount:   2,
		projectCount: 3,
	}
}

func TestOfferingServiceDeleteCascadeByAdmin(t *testing.T) {
	repo := offeringFixture()
	db, mock := newTestDB(t)
	svc := NewOfferingService(db, repo, &mockCourseReader{}, &mockUserReader{}, nil, config.OfferingsConfig{}, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.DeleteCascade(context.Background(), models.Requester{ID: "admin-1", Role: models.RoleAdmin}, "off-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedStaffCount)
	assert.Equal(t, 3, result.DeletedProjectsCount)
	assert.True(t, repo.staffDeleted)
	assert.True(t, repo.projectsDeleted)
	assert.True(t, repo.offeringDeleted)
	assert.False(t, repo.gradingDeleted, "deep cascade must stay off by default")
}

func TestOfferingServiceDeleteCascadeByMainProfessor(t *testing.T) {
	repo := offeringFixture()
	db, mock := newTestDB(t)
	svc := NewOfferingService(db, repo, &mockCourseReader{}, &mockUserReader{}, nil, config.OfferingsConfig{}, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.DeleteCascade(context.Background(), models.Requester{ID: "prof-1", Role: models.RoleProfessor}, "off-1")
	require.NoError(t, err)
	assert.True(t, repo.offeringDeleted)
}

func TestOfferingServiceDeleteCascadeForbidden(t *testing.T) {
	repo := offeringFixture()
	db, _ := newTestDB(t)
	svc := NewOfferingService(db, repo, &mockCourseReader{}, &mockUserReader{}, nil, config.OfferingsConfig{}, nil, zap.NewNop())

	_, err := svc.DeleteCascade(context.Background(), models.Requester{ID: "prof-2", Role: models.RoleProfessor}, "off-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.False(t, repo.staffDeleted)
	assert.False(t, repo.projectsDeleted)
	assert.False(t, repo.offeringDeleted)
}

func TestOfferingServiceDeleteCascadeUnknownOffering(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewOfferingService(db, offeringFixture(), &mockCourseReader{}, &mockUserReader{}, nil, config.OfferingsConfig{}, nil, zap.NewNop())

	_, err := svc.DeleteCascade(context.Background(), models.Requester{ID: "admin-1", Role: models.RoleAdmin}, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestOfferingServiceDeleteCascadeDeep(t *testing.T) {
	repo := offeringFixture()
	db, mock := newTestDB(t)
	svc := NewOfferingService(db, repo, &mockCourseReader{}, &mockUserReader{}, nil, config.OfferingsConfig{CascadeDeep: true}, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.DeleteCascade(context.Background(), models.Requester{ID: "admin-1", Role: models.RoleAdmin}, "off-1")
	require.NoError(t, err)
	assert.True(t, repo.gradingDeleted)
}

func TestOfferingServiceCreateValidatesProfessorRole(t *testing.T) {
	db, _ := newTestDB(t)
	courses := &mockCourseReader{courses: map[string]models.Course{"c1": {ID: "c1", Code: "SE101"}}}
	users := &mockUserReader{users: map[string]models.User{
		"stud-1": {ID: "stud-1", Role: models.RoleStudent},
	}}
	svc := NewOfferingService(db, offeringFixture(), courses, users, nil, config.OfferingsConfig{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateOfferingRequest{
		CourseID:        "c1",
		AcademicYear:    "2025/2026",
		Semester:        "autumn",
		MainProfessorID: "stud-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
