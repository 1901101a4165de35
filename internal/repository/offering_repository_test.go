package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuslab/project-jury-api/internal/models"
)

func newOfferingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOfferingRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offerings")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	offering := &models.CourseOffering{
		CourseID:        "course-1",
		AcademicYear:    "2025/2026",
		Semester:        models.SemesterAutumn,
		MainProfessorID: "prof-1",
	}
	require.NoError(t, repo.Create(context.Background(), offering))
	require.NotEmpty(t, offering.ID)

	rows := sqlmock.NewRows([]string{"id", "course_id", "academic_year", "semester", "main_professor_id"}).
		AddRow(offering.ID, "course-1", "2025/2026", "autumn", "prof-1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_offerings WHERE id = $1")).
		WithArgs(offering.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), offering.ID)
	require.NoError(t, err)
	require.Equal(t, "prof-1", found.MainProfessorID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryUpsertStaff(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (offering_id, user_id)")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	staff := &models.CourseStaff{OfferingID: "off-1", UserID: "prof-2", Role: models.StaffRoleAssistant}
	require.NoError(t, repo.UpsertStaff(context.Background(), staff))
	require.NoError(t, mock.ExpectationsWereMet())
}

// The shallow cascade removes staff links, members, final grades and the
// projects themselves; detaching deliverables is the schema's job, so no
// deliverable or grade statement may appear in the sequence.
func TestOfferingRepositoryCascadeDeletes(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_staff WHERE offering_id = $1")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_members WHERE project_id IN")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_final_grades WHERE project_id IN")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE offering_id = $1")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM group_course_offerings WHERE offering_id = $1")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_offerings WHERE id = $1")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	staffCount, err := repo.DeleteStaffTx(context.Background(), tx, "off-1")
	require.NoError(t, err)
	require.Equal(t, 2, staffCount)

	projectCount, err := repo.DeleteProjectsTx(context.Background(), tx, "off-1")
	require.NoError(t, err)
	require.Equal(t, 3, projectCount)

	require.NoError(t, repo.DeleteTx(context.Background(), tx, "off-1"))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryCascadeAbortsOnFailure(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_members WHERE project_id IN")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_final_grades WHERE project_id IN")).
		WithArgs("off-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)

	_, err = repo.DeleteProjectsTx(context.Background(), tx, "off-1")
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryDeepCascade(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)

	mock.ExpectBegin()
	for _, table := range []string{"grades", "jury_assignments", "project_final_grades", "deliverable_files", "deliverables"} {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM " + table)).
			WithArgs("off-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	tx, err := db.Beginx()
	require.NoError(t, err)

	require.NoError(t, repo.DeleteGradingTx(context.Background(), tx, "off-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
