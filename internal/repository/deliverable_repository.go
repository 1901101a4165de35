package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslab/project-jury-api/internal/models"
)

// DeliverableRepository handles persistence of deliverables and their files.
type DeliverableRepository struct {
	db *sqlx.DB
}

// NewDeliverableRepository constructs the repository.
func NewDeliverableRepository(db *sqlx.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

// CreateTx persists a deliverable inside the given transaction so the jury
// assignment batch created alongside it commits or rolls back with it.
func (r *DeliverableRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, deliverable *models.Deliverable) error {
	if deliverable.ID == "" {
		deliverable.ID = uuid.NewString()
	}
	if deliverable.CreatedAt.IsZero() {
		deliverable.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO deliverables (id, project_id, title, description, due_date, video_url, server_url, created_at)
        VALUES (:id, :project_id, :title, :description, :due_date, :video_url, :server_url, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, deliverable); err != nil {
		return fmt.Errorf("create deliverable: %w", err)
	}
	return nil
}

// FindByID returns a deliverable by its ID.
func (r *DeliverableRepository) FindByID(ctx context.Context, id string) (*models.Deliverable, error) {
	const query = `SELECT id, project_id, title, description, due_date, video_url, server_url, created_at
        FROM deliverables WHERE id = $1`
	var deliverable models.Deliverable
	if err := r.db.GetContext(ctx, &deliverable, query, id); err != nil {
		return nil, err
	}
	return &deliverable, nil
}

// ListByProject returns a project's deliverables ordered by due date.
func (r *DeliverableRepository) ListByProject(ctx context.Context, projectID string) ([]models.Deliverable, error) {
	const query = `SELECT id, project_id, title, description, due_date, video_url, server_url, created_at
        FROM deliverables WHERE project_id = $1 ORDER BY due_date ASC`
	var deliverables []models.Deliverable
	if err := r.db.SelectContext(ctx, &deliverables, query, projectID); err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	return deliverables, nil
}

// UpdateMetadata overwrites the mutable fields of a deliverable. The project
// linkage never changes.
func (r *DeliverableRepository) UpdateMetadata(ctx context.Context, deliverable *models.Deliverable) error {
	const query = `UPDATE deliverables SET title = :title, description = :description, due_date = :due_date,
        video_url = :video_url, server_url = :server_url WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, deliverable); err != nil {
		return fmt.Errorf("update deliverable: %w", err)
	}
	return nil
}

// AddFile persists attachment metadata for a deliverable.
func (r *DeliverableRepository) AddFile(ctx context.Context, file *models.DeliverableFile) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO deliverable_files (id, deliverable_id, file_name, file_url, file_type, is_primary, uploaded_at)
        VALUES (:id, :deliverable_id, :file_name, :file_url, :file_type, :is_primary, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("add deliverable file: %w", err)
	}
	return nil
}

// ListFiles returns a deliverable's files in upload order.
func (r *DeliverableRepository) ListFiles(ctx context.Context, deliverableID string) ([]models.DeliverableFile, error) {
	const query = `SELECT id, deliverable_id, file_name, file_url, file_type, is_primary, uploaded_at
        FROM deliverable_files WHERE deliverable_id = $1 ORDER BY uploaded_at ASC`
	var files []models.DeliverableFile
	if err := r.db.SelectContext(ctx, &files, query, deliverableID); err != nil {
		return nil, fmt.Errorf("list deliverable files: %w", err)
	}
	return files, nil
}
