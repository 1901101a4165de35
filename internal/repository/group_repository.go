package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslab/project-jury-api/internal/models"
)

// GroupRepository handles persistence of groups and their memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create persists a new group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	const query = `INSERT INTO groups (id, name, description) VALUES (:id, :name, :description)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// FindByID returns a group by its ID.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, name, description FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListMembers returns the users belonging to a group.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.User, error) {
	const query = `SELECT u.id, u.email, u.password_hash, u.full_name, u.role, u.created_at
        FROM group_members gm JOIN users u ON u.id = gm.user_id
        WHERE gm.group_id = $1 ORDER BY u.full_name`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return users, nil
}

// MemberExists reports whether a user is already a member of a group.
func (r *GroupRepository) MemberExists(ctx context.Context, groupID, userID string) (bool, error) {
	const query = `SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, groupID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return true, nil
}

// AddMember links a user to a group.
func (r *GroupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	const query = `INSERT INTO group_members (group_id, user_id) VALUES (:group_id, :user_id)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

// RemoveMember unlinks a user from a group, reporting whether a row existed.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("remove group member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByOffering returns groups linked to a course offering.
func (r *GroupRepository) ListByOffering(ctx context.Context, offeringID string) ([]models.Group, error) {
	const query = `SELECT g.id, g.name, g.description
        FROM groups g JOIN group_course_offerings gco ON gco.group_id = g.id
        WHERE gco.offering_id = $1 ORDER BY g.name`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, offeringID); err != nil {
		return nil, fmt.Errorf("list groups by offering: %w", err)
	}
	return groups, nil
}

// ListOfferings returns the offerings a group is linked to.
func (r *GroupRepository) ListOfferings(ctx context.Context, groupID string) ([]models.CourseOffering, error) {
	const query = `SELECT co.id, co.course_id, co.academic_year, co.semester, co.main_professor_id
        FROM course_offerings co JOIN group_course_offerings gco ON gco.offering_id = co.id
        WHERE gco.group_id = $1 ORDER BY co.academic_year DESC`
	var offerings []models.CourseOffering
	if err := r.db.SelectContext(ctx, &offerings, query, groupID); err != nil {
		return nil, fmt.Errorf("list group offerings: %w", err)
	}
	return offerings, nil
}

// LinkOffering connects a group to an offering, idempotently.
func (r *GroupRepository) LinkOffering(ctx context.Context, groupID, offeringID string) error {
	const query = `INSERT INTO group_course_offerings (group_id, offering_id) VALUES ($1, $2)
        ON CONFLICT (group_id, offering_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, groupID, offeringID); err != nil {
		return fmt.Errorf("link group to offering: %w", err)
	}
	return nil
}

// UnlinkOffering removes a group/offering link, reporting whether it existed.
func (r *GroupRepository) UnlinkOffering(ctx context.Context, groupID, offeringID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_course_offerings WHERE group_id = $1 AND offering_id = $2`, groupID, offeringID)
	if err != nil {
		return false, fmt.Errorf("unlink group from offering: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
