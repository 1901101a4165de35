package models

import "time"

// Grade is a single juror's score for a deliverable. One row per
// (deliverable_id, juror_id), enforced by a unique index; rows are never
// mutated or deleted once written.
type Grade struct {
	ID            string    `db:"id" json:"id"`
	DeliverableID string    `db:"deliverable_id" json:"deliverable_id"`
	JurorID       string    `db:"juror_id" json:"juror_id"`
	Score         float64   `db:"score" json:"score"`
	Comment       *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AnonymousGrade is the professor-facing view of a grade, stripped of the
// juror's identity.
type AnonymousGrade struct {
	Score     float64   `db:"score" json:"score"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// JurorGrade is a grade seen from the submitting juror's side.
type JurorGrade struct {
	Grade
	DeliverableTitle string `db:"deliverable_title" json:"deliverable_title"`
	ProjectID        string `db:"project_id" json:"project_id"`
	ProjectTitle     string `db:"project_title" json:"project_title"`
}

// ProjectFinalGrade caches the aggregated score of a deliverable. It is
// derived from the current Grade rows at computation time, never a source of
// truth; recomputation upserts in place keyed by (project_id,
// deliverable_id).
type ProjectFinalGrade struct {
	ID            string     `db:"id" json:"id"`
	ProjectID     string     `db:"project_id" json:"project_id"`
	DeliverableID string     `db:"deliverable_id" json:"deliverable_id"`
	FinalScore    *float64   `db:"final_score" json:"final_score,omitempty"`
	CalculatedAt  *time.Time `db:"calculated_at" json:"calculated_at,omitempty"`
}
