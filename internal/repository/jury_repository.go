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

// JuryRepository handles persistence of jury assignments.
type JuryRepository struct {
	db *sqlx.DB
}

// NewJuryRepository constructs the repository.
func NewJuryRepository(db *sqlx.DB) *JuryRepository {
	return &JuryRepository{db: db}
}

// EligiblePoolTx returns the IDs of students who may judge the deliverable:
// every user with the student role who is not a member of the project, not a
// member of the project's group, and not already assigned to the
// deliverable. It reads through the operation's transaction so the exclusion
// computation and the subsequent assignment writes see one consistent
// snapshot.
func (r *JuryRepository) EligiblePoolTx(ctx context.Context, tx *sqlx.Tx, projectID, groupID, deliverableID string) ([]string, error) {
	const query = `SELECT u.id FROM users u
        WHERE u.role = $1
          AND NOT EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = $2 AND pm.user_id = u.id)
          AND NOT EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = $3 AND gm.user_id = u.id)
          AND NOT EXISTS (SELECT 1 FROM jury_assignments ja WHERE ja.deliverable_id = $4 AND ja.juror_id = u.id)
        ORDER BY u.id`
	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, models.RoleStudent, projectID, groupID, deliverableID); err != nil {
		return nil, fmt.Errorf("eligible juror pool: %w", err)
	}
	return ids, nil
}

// CreateBatchTx persists one assignment row per selected juror inside the
// given transaction. A duplicate (deliverable_id, juror_id) pair from a
// racing writer surfaces as the assignment conflict error and aborts the
// whole batch.
func (r *JuryRepository) CreateBatchTx(ctx context.Context, tx *sqlx.Tx, assignments []models.JuryAssignment) error {
	const query = `INSERT INTO jury_assignments (id, deliverable_id, juror_id, assigned_at)
        VALUES (:id, :deliverable_id, :juror_id, :assigned_at)`
	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		if assignments[i].AssignedAt.IsZero() {
			assignments[i].AssignedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, assignments[i]); err != nil {
			if isUniqueViolation(err) {
				return appErrors.Wrap(err, appErrors.ErrAssignmentConflict.Code, appErrors.ErrAssignmentConflict.Status, appErrors.ErrAssignmentConflict.Message)
			}
			return fmt.Errorf("create jury assignment: %w", err)
		}
	}
	return nil
}

// Exists reports whether a juror holds an assignment for a deliverable.
func (r *JuryRepository) Exists(ctx context.Context, deliverableID, jurorID string) (bool, error) {
	const query = `SELECT 1 FROM jury_assignments WHERE deliverable_id = $1 AND juror_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, deliverableID, jurorID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check jury assignment: %w", err)
	}
	return true, nil
}

// ListByDeliverable returns assignments joined with juror identity.
func (r *JuryRepository) ListByDeliverable(ctx context.Context, deliverableID string) ([]models.JuryAssignmentDetail, error) {
	const query = `SELECT ja.id, ja.deliverable_id, ja.juror_id, ja.assigned_at,
        u.full_name AS juror_name, u.role AS juror_role
        FROM jury_assignments ja JOIN users u ON u.id = ja.juror_id
        WHERE ja.deliverable_id = $1 ORDER BY ja.assigned_at ASC`
	var details []models.JuryAssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, deliverableID); err != nil {
		return nil, fmt.Errorf("list deliverable assignments: %w", err)
	}
	return details, nil
}

// ListByJuror returns a juror's assignments with deliverable and project
// context, oldest assignment first.
func (r *JuryRepository) ListByJuror(ctx context.Context, jurorID string) ([]models.JurorTask, error) {
	const query = `SELECT ja.id, ja.deliverable_id, ja.juror_id, ja.assigned_at,
        d.title AS deliverable_title, d.due_date, p.id AS project_id, p.title AS project_title
        FROM jury_assignments ja
        JOIN deliverables d ON d.id = ja.deliverable_id
        JOIN projects p ON p.id = d.project_id
        WHERE ja.juror_id = $1 ORDER BY ja.assigned_at ASC`
	var tasks []models.JurorTask
	if err := r.db.SelectContext(ctx, &tasks, query, jurorID); err != nil {
		return nil, fmt.Errorf("list juror assignments: %w", err)
	}
	return tasks, nil
}
