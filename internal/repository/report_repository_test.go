package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryProjectSummaries(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"project_id", "title", "deliverable_count", "final_grades_count", "average_final_score"}).
		AddRow("proj-1", "Compiler", 2, 1, 6.33).
		AddRow("proj-2", "Database", 1, 0, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects p WHERE p.offering_id = $1")).
		WithArgs("off-1").
		WillReturnRows(rows)

	summaries, err := repo.ProjectSummaries(context.Background(), "off-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "Compiler", summaries[0].Title)
	require.NotNil(t, summaries[0].AverageFinalScore)
	require.Equal(t, 6.33, *summaries[0].AverageFinalScore)
	require.Nil(t, summaries[1].AverageFinalScore)
	require.NoError(t, mock.ExpectationsWereMet())
}
