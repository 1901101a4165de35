package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuslab/project-jury-api/internal/models"
)

// ReportRepository aggregates read-only reporting rows.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type projectSummaryRecord struct {
	ProjectID         string   `db:"project_id"`
	Title             string   `db:"title"`
	DeliverableCount  int      `db:"deliverable_count"`
	FinalGradesCount  int      `db:"final_grades_count"`
	AverageFinalScore *float64 `db:"average_final_score"`
}

// ProjectSummaries returns one aggregate row per project of an offering,
// oldest project first. The average covers only finals with a computed
// score.
func (r *ReportRepository) ProjectSummaries(ctx context.Context, offeringID string) ([]models.ProjectSummaryRow, error) {
	const query = `SELECT p.id AS project_id, p.title,
        (SELECT COUNT(*) FROM deliverables d WHERE d.project_id = p.id) AS deliverable_count,
        (SELECT COUNT(*) FROM project_final_grades f WHERE f.project_id = p.id AND f.final_score IS NOT NULL) AS final_grades_count,
        (SELECT ROUND(AVG(f.final_score)::numeric, 2) FROM project_final_grades f
            WHERE f.project_id = p.id AND f.final_score IS NOT NULL) AS average_final_score
        FROM projects p WHERE p.offering_id = $1 ORDER BY p.created_at ASC`
	var records []projectSummaryRecord
	if err := r.db.SelectContext(ctx, &records, query, offeringID); err != nil {
		return nil, fmt.Errorf("project summaries: %w", err)
	}
	rows := make([]models.ProjectSummaryRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.ProjectSummaryRow{
			ProjectID:         rec.ProjectID,
			Title:             rec.Title,
			DeliverableCount:  rec.DeliverableCount,
			FinalGradesCount:  rec.FinalGradesCount,
			AverageFinalScore: rec.AverageFinalScore,
		})
	}
	return rows, nil
}
