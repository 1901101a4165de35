package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslab/project-jury-api/internal/models"
)

// FinalGradeRepository handles persistence of aggregated final scores.
type FinalGradeRepository struct {
	db *sqlx.DB
}

// NewFinalGradeRepository constructs the repository.
func NewFinalGradeRepository(db *sqlx.DB) *FinalGradeRepository {
	return &FinalGradeRepository{db: db}
}

// CreateEmptyTx inserts the placeholder final-grade row for a freshly
// created deliverable, inside the creation transaction. The score stays null
// until the aggregator runs.
func (r *FinalGradeRepository) CreateEmptyTx(ctx context.Context, tx *sqlx.Tx, projectID, deliverableID string) error {
	const query = `INSERT INTO project_final_grades (id, project_id, deliverable_id, final_score, calculated_at)
        VALUES ($1, $2, $3, NULL, NULL)`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), projectID, deliverableID); err != nil {
		return fmt.Errorf("create empty final grade: %w", err)
	}
	return nil
}

// Upsert writes the aggregated score for (project_id, deliverable_id),
// overwriting any previous value and refreshing calculated_at. Recomputation
// with an unchanged grade set stores the same score again.
func (r *FinalGradeRepository) Upsert(ctx context.Context, final *models.ProjectFinalGrade) error {
	if final.ID == "" {
		final.ID = uuid.NewString()
	}
	if final.CalculatedAt == nil {
		now := time.Now().UTC()
		final.CalculatedAt = &now
	}
	const query = `INSERT INTO project_final_grades (id, project_id, deliverable_id, final_score, calculated_at)
        VALUES (:id, :project_id, :deliverable_id, :final_score, :calculated_at)
        ON CONFLICT (project_id, deliverable_id)
        DO UPDATE SET final_score = EXCLUDED.final_score, calculated_at = EXCLUDED.calculated_at`
	if _, err := r.db.NamedExecContext(ctx, query, final); err != nil {
		return fmt.Errorf("upsert final grade: %w", err)
	}
	return nil
}

// FindByDeliverable returns the final-grade row for a deliverable.
func (r *FinalGradeRepository) FindByDeliverable(ctx context.Context, projectID, deliverableID string) (*models.ProjectFinalGrade, error) {
	const query = `SELECT id, project_id, deliverable_id, final_score, calculated_at
        FROM project_final_grades WHERE project_id = $1 AND deliverable_id = $2`
	var final models.ProjectFinalGrade
	if err := r.db.GetContext(ctx, &final, query, projectID, deliverableID); err != nil {
		return nil, err
	}
	return &final, nil
}

// ListByProject returns a project's final grades, most recently calculated
// first.
func (r *FinalGradeRepository) ListByProject(ctx context.Context, projectID string) ([]models.ProjectFinalGrade, error) {
	const query = `SELECT id, project_id, deliverable_id, final_score, calculated_at
        FROM project_final_grades WHERE project_id = $1 ORDER BY calculated_at DESC NULLS LAST`
	var finals []models.ProjectFinalGrade
	if err := r.db.SelectContext(ctx, &finals, query, projectID); err != nil {
		return nil, fmt.Errorf("list project final grades: %w", err)
	}
	return finals, nil
}
