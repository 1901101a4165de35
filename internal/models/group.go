package models

// Group is a student cohort.
type Group struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// GroupMember links a student to a group. The (group_id, user_id) pair is
// unique.
type GroupMember struct {
	GroupID string `db:"group_id" json:"group_id"`
	UserID  string `db:"user_id" json:"user_id"`
}

// GroupDetail combines a group with its members and linked offerings.
type GroupDetail struct {
	Group
	Members   []User           `json:"members,omitempty"`
	Offerings []CourseOffering `json:"offerings,omitempty"`
}
