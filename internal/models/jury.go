package models

import "time"

// JuryAssignment records that a student must grade a deliverable. The
// (deliverable_id, juror_id) pair carries a unique index; it is the backstop
// against double-assignment under concurrent writers.
type JuryAssignment struct {
	ID            string    `db:"id" json:"id"`
	DeliverableID string    `db:"deliverable_id" json:"deliverable_id"`
	JurorID       string    `db:"juror_id" json:"juror_id"`
	AssignedAt    time.Time `db:"assigned_at" json:"assigned_at"`
}

// JuryAssignmentDetail is an assignment joined with juror identity.
type JuryAssignmentDetail struct {
	JuryAssignment
	JurorName string `db:"juror_name" json:"juror_name"`
	JurorRole string `db:"juror_role" json:"juror_role"`
}

// JurorTask is an assignment seen from the juror's side.
type JurorTask struct {
	JuryAssignment
	DeliverableTitle string    `db:"deliverable_title" json:"deliverable_title"`
	DueDate          time.Time `db:"due_date" json:"due_date"`
	ProjectID        string    `db:"project_id" json:"project_id"`
	ProjectTitle     string    `db:"project_title" json:"project_title"`
}
