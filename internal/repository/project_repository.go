package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslab/project-jury-api/internal/models"
)

// ProjectRepository handles persistence of projects and their memberships.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateTx persists a project and its initial leader membership inside the
// given transaction.
func (r *ProjectRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO projects (id, title, description, created_by_id, offering_id, group_id, created_at)
        VALUES (:id, :title, :description, :created_by_id, :offering_id, :group_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	const memberQuery = `INSERT INTO project_members (project_id, user_id, is_leader) VALUES ($1, $2, TRUE)`
	if _, err := tx.ExecContext(ctx, memberQuery, project.ID, project.CreatedByID); err != nil {
		return fmt.Errorf("create project leader: %w", err)
	}
	return nil
}

// FindByID returns a project by its ID.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	const query = `SELECT id, title, description, created_by_id, offering_id, group_id, created_at FROM projects WHERE id = $1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByOffering returns projects scoped to an offering, oldest first.
func (r *ProjectRepository) ListByOffering(ctx context.Context, offeringID string) ([]models.Project, error) {
	const query = `SELECT id, title, description, created_by_id, offering_id, group_id, created_at
        FROM projects WHERE offering_id = $1 ORDER BY created_at ASC`
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, offeringID); err != nil {
		return nil, fmt.Errorf("list projects by offering: %w", err)
	}
	return projects, nil
}

// ListByGroup returns projects attached to a group, oldest first.
func (r *ProjectRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Project, error) {
	const query = `SELECT id, title, description, created_by_id, offering_id, group_id, created_at
        FROM projects WHERE group_id = $1 ORDER BY created_at ASC`
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, groupID); err != nil {
		return nil, fmt.Errorf("list projects by group: %w", err)
	}
	return projects, nil
}

// ListByMember returns projects the user belongs to, oldest first.
func (r *ProjectRepository) ListByMember(ctx context.Context, userID string) ([]models.Project, error) {
	const query = `SELECT p.id, p.title, p.description, p.created_by_id, p.offering_id, p.group_id, p.created_at
        FROM projects p JOIN project_members pm ON pm.project_id = p.id
        WHERE pm.user_id = $1 ORDER BY p.created_at ASC`
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, userID); err != nil {
		return nil, fmt.Errorf("list projects by member: %w", err)
	}
	return projects, nil
}

// ListMembers returns membership rows joined with user identity.
func (r *ProjectRepository) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMemberDetail, error) {
	const query = `SELECT pm.user_id, u.full_name, u.email, u.role, pm.is_leader
        FROM project_members pm JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id = $1 ORDER BY u.full_name`
	var members []models.ProjectMemberDetail
	if err := r.db.SelectContext(ctx, &members, query, projectID); err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	return members, nil
}

// FindMember returns the membership row for a user, or sql.ErrNoRows.
func (r *ProjectRepository) FindMember(ctx context.Context, projectID, userID string) (*models.ProjectMember, error) {
	const query = `SELECT project_id, user_id, is_leader FROM project_members WHERE project_id = $1 AND user_id = $2`
	var member models.ProjectMember
	if err := r.db.GetContext(ctx, &member, query, projectID, userID); err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMember links a user to a project.
func (r *ProjectRepository) AddMember(ctx context.Context, member *models.ProjectMember) error {
	const query = `INSERT INTO project_members (project_id, user_id, is_leader) VALUES (:project_id, :user_id, :is_leader)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

// UpdateMemberLeadership flips the leader flag on a membership.
func (r *ProjectRepository) UpdateMemberLeadership(ctx context.Context, projectID, userID string, isLeader bool) error {
	const query = `UPDATE project_members SET is_leader = $3 WHERE project_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, projectID, userID, isLeader); err != nil {
		return fmt.Errorf("update member leadership: %w", err)
	}
	return nil
}

// RemoveMember unlinks a user from a project.
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID); err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	return nil
}

// CountLeaders returns how many members of a project hold the leader flag,
// excluding the given user.
func (r *ProjectRepository) CountLeaders(ctx context.Context, projectID, excludeUserID string) (int, error) {
	const query = `SELECT COUNT(*) FROM project_members WHERE project_id = $1 AND is_leader = TRUE AND user_id <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, projectID, excludeUserID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count project leaders: %w", err)
	}
	return count, nil
}
