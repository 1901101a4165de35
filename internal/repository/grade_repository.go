package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslab/project-jury-api/internal/models"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

// GradeRepository handles persistence of juror grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Create persists a grade. The unique index on (deliverable_id, juror_id) is
// the authoritative duplicate guard; near-simultaneous submissions from the
// same juror surface as the duplicate-grade conflict here regardless of what
// the pre-check saw.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, deliverable_id, juror_id, score, comment, created_at)
        VALUES (:id, :deliverable_id, :juror_id, :score, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrGradeExists.Code, appErrors.ErrGradeExists.Status, appErrors.ErrGradeExists.Message)
		}
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Exists reports whether a juror already graded a deliverable.
func (r *GradeRepository) Exists(ctx context.Context, deliverableID, jurorID string) (bool, error) {
	const query = `SELECT 1 FROM grades WHERE deliverable_id = $1 AND juror_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, deliverableID, jurorID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check grade: %w", err)
	}
	return true, nil
}

// ListScores returns every score recorded for a deliverable.
func (r *GradeRepository) ListScores(ctx context.Context, deliverableID string) ([]float64, error) {
	const query = `SELECT score FROM grades WHERE deliverable_id = $1`
	var scores []float64
	if err := r.db.SelectContext(ctx, &scores, query, deliverableID); err != nil {
		return nil, fmt.Errorf("list grade scores: %w", err)
	}
	return scores, nil
}

// ListAnonymous returns a deliverable's grades stripped of juror identity,
// oldest first. This is the professor-facing view.
func (r *GradeRepository) ListAnonymous(ctx context.Context, deliverableID string) ([]models.AnonymousGrade, error) {
	const query = `SELECT score, comment, created_at FROM grades WHERE deliverable_id = $1 ORDER BY created_at ASC`
	var grades []models.AnonymousGrade
	if err := r.db.SelectContext(ctx, &grades, query, deliverableID); err != nil {
		return nil, fmt.Errorf("list anonymous grades: %w", err)
	}
	return grades, nil
}

// ListByJuror returns grades submitted by a juror with deliverable and
// project context, newest first.
func (r *GradeRepository) ListByJuror(ctx context.Context, jurorID string) ([]models.JurorGrade, error) {
	const query = `SELECT g.id, g.deliverable_id, g.juror_id, g.score, g.comment, g.created_at,
        d.title AS deliverable_title, p.id AS project_id, p.title AS project_title
        FROM grades g
        JOIN deliverables d ON d.id = g.deliverable_id
        JOIN projects p ON p.id = d.project_id
        WHERE g.juror_id = $1 ORDER BY g.created_at DESC`
	var grades []models.JurorGrade
	if err := r.db.SelectContext(ctx, &grades, query, jurorID); err != nil {
		return nil, fmt.Errorf("list juror grades: %w", err)
	}
	return grades, nil
}
