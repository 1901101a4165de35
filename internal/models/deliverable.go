package models

import "time"

// FileType enumerates the kinds of files attached to a deliverable.
type FileType string

const (
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"
	FileTypeArchive  FileType = "archive"
	FileTypeImage    FileType = "image"
	FileTypeOther    FileType = "other"
)

// Deliverable is a graded artifact owned by a project. The linkage is
// immutable after creation but becomes nil once the owning project is
// removed by an offering cascade; title, description and links are mutable.
type Deliverable struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   *string   `db:"project_id" json:"project_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	VideoURL    *string   `db:"video_url" json:"video_url,omitempty"`
	ServerURL   *string   `db:"server_url" json:"server_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DeliverableFile is attachment metadata for a deliverable.
type DeliverableFile struct {
	ID            string    `db:"id" json:"id"`
	DeliverableID string    `db:"deliverable_id" json:"deliverable_id"`
	FileName      string    `db:"file_name" json:"file_name"`
	FileURL       *string   `db:"file_url" json:"file_url,omitempty"`
	FileType      FileType  `db:"file_type" json:"file_type"`
	IsPrimary     bool      `db:"is_primary" json:"is_primary"`
	UploadedAt    time.Time `db:"uploaded_at" json:"uploaded_at"`
}
