package models

import "time"

// Project is a piece of student work, optionally attached to a group and a
// course offering. GroupID is nil for free-standing projects; juror
// assignment refuses to run on those.
type Project struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedByID string    `db:"created_by_id" json:"created_by_id"`
	OfferingID  *string   `db:"offering_id" json:"offering_id,omitempty"`
	GroupID     *string   `db:"group_id" json:"group_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProjectMember links a user to a project. The (project_id, user_id) pair is
// unique; members are ineligible as jurors for the project's deliverables.
type ProjectMember struct {
	ProjectID string `db:"project_id" json:"project_id"`
	UserID    string `db:"user_id" json:"user_id"`
	IsLeader  bool   `db:"is_leader" json:"is_leader"`
}

// ProjectMemberDetail is a membership row joined with user identity.
type ProjectMemberDetail struct {
	UserID   string   `db:"user_id" json:"user_id"`
	FullName string   `db:"full_name" json:"full_name"`
	Email    string   `db:"email" json:"email"`
	Role     UserRole `db:"role" json:"role"`
	IsLeader bool     `db:"is_leader" json:"is_leader"`
}

// ProjectDetail combines a project with its members.
type ProjectDetail struct {
	Project
	Members []ProjectMemberDetail `json:"members,omitempty"`
}
