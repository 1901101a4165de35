package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/database"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type deliverableRepo interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, deliverable *models.Deliverable) error
	FindByID(ctx context.Context, id string) (*models.Deliverable, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Deliverable, error)
	UpdateMetadata(ctx context.Context, deliverable *models.Deliverable) error
	AddFile(ctx context.Context, file *models.DeliverableFile) error
	ListFiles(ctx context.Context, deliverableID string) ([]models.DeliverableFile, error)
}

type deliverableProjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type finalGradeCreator interface {
	CreateEmptyTx(ctx context.Context, tx *sqlx.Tx, projectID, deliverableID string) error
}

type jurorSelector interface {
	SelectTx(ctx context.Context, tx *sqlx.Tx, project *models.Project, deliverableID string, count int) ([]models.JuryAssignment, error)
}

// CreateDeliverableRequest is the payload for creating a deliverable.
type CreateDeliverableRequest struct {
	ProjectID   string    `json:"project_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	VideoURL    *string   `json:"video_url"`
	ServerURL   *string   `json:"server_url"`
	JuryCount   int       `json:"jury_count"`
}

// UpdateDeliverableRequest overwrites a deliverable's mutable metadata.
type UpdateDeliverableRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	VideoURL    *string   `json:"video_url"`
	ServerURL   *string   `json:"server_url"`
}

// AddDeliverableFileRequest attaches file metadata to a deliverable.
type AddDeliverableFileRequest struct {
	FileName  string  `json:"file_name" validate:"required"`
	FileURL   *string `json:"file_url"`
	FileType  string  `json:"file_type" validate:"omitempty,oneof=video document archive image other"`
	IsPrimary bool    `json:"is_primary"`
}

// CreateDeliverableResult is the outcome of the creation flow.
type CreateDeliverableResult struct {
	Deliverable       models.Deliverable `json:"deliverable"`
	JuryAssignedCount int                `json:"jury_assigned_count"`
}

// DeliverableService manages deliverables and drives the jury hook on
// creation.
type DeliverableService struct {
	db           *sqlx.DB
	deliverables deliverableRepo
	projects     deliverableProjectReader
	finals       finalGradeCreator
	jury         jurorSelector
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewDeliverableService constructs DeliverableService.
func NewDeliverableService(db *sqlx.DB, deliverables deliverableRepo, projects deliverableProjectReader, finals finalGradeCreator, jury jurorSelector, validate *validator.Validate, logger *zap.Logger) *DeliverableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliverableService{
		db:           db,
		deliverables: deliverables,
		projects:     projects,
		finals:       finals,
		jury:         jury,
		validator:    validate,
		logger:       logger,
	}
}

// CreateWithJury creates a deliverable, its empty final-grade row and its
// randomly selected jury in one transaction. An empty eligible pool leaves
// the deliverable without jurors; a project without a group aborts the whole
// creation.
func (s *DeliverableService) CreateWithJury(ctx context.Context, req CreateDeliverableRequest) (*CreateDeliverableResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deliverable payload")
	}

	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	deliverable := &models.Deliverable{
		ProjectID:   &req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		VideoURL:    req.VideoURL,
		ServerURL:   req.ServerURL,
	}

	var assignedCount int
	err = database.Transact(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.deliverables.CreateTx(ctx, tx, deliverable); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deliverable")
		}
		if err := s.finals.CreateEmptyTx(ctx, tx, project.ID, deliverable.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create final grade row")
		}
		assignments, err := s.jury.SelectTx(ctx, tx, project, deliverable.ID, req.JuryCount)
		if err != nil {
			return err
		}
		assignedCount = len(assignments)
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	s.logger.Info("deliverable created",
		zap.String("deliverable_id", deliverable.ID),
		zap.String("project_id", project.ID),
		zap.Int("jury_assigned", assignedCount))
	return &CreateDeliverableResult{Deliverable: *deliverable, JuryAssignedCount: assignedCount}, nil
}

// Get returns a deliverable by id.
func (s *DeliverableService) Get(ctx context.Context, id string) (*models.Deliverable, error) {
	deliverable, err := s.deliverables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deliverable")
	}
	return deliverable, nil
}

// ListByProject returns a project's deliverables ordered by due date.
func (s *DeliverableService) ListByProject(ctx context.Context, projectID string) ([]models.Deliverable, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	deliverables, err := s.deliverables.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deliverables")
	}
	return deliverables, nil
}

// UpdateMetadata updates a deliverable's mutable fields. The project linkage
// never changes.
func (s *DeliverableService) UpdateMetadata(ctx context.Context, id string, req UpdateDeliverableRequest) (*models.Deliverable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deliverable payload")
	}
	deliverable, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	deliverable.Title = req.Title
	deliverable.Description = req.Description
	deliverable.DueDate = req.DueDate
	deliverable.VideoURL = req.VideoURL
	deliverable.ServerURL = req.ServerURL
	if err := s.deliverables.UpdateMetadata(ctx, deliverable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deliverable")
	}
	return deliverable, nil
}

// AddFile records attachment metadata on a deliverable.
func (s *DeliverableService) AddFile(ctx context.Context, deliverableID string, req AddDeliverableFileRequest) (*models.DeliverableFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid file payload")
	}
	if _, err := s.Get(ctx, deliverableID); err != nil {
		return nil, err
	}
	fileType := models.FileType(req.FileType)
	if fileType == "" {
		fileType = models.FileTypeOther
	}
	file := &models.DeliverableFile{
		DeliverableID: deliverableID,
		FileName:      req.FileName,
		FileURL:       req.FileURL,
		FileType:      fileType,
		IsPrimary:     req.IsPrimary,
	}
	if err := s.deliverables.AddFile(ctx, file); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add deliverable file")
	}
	return file, nil
}

// ListFiles returns a deliverable's files in upload order.
func (s *DeliverableService) ListFiles(ctx context.Context, deliverableID string) ([]models.DeliverableFile, error) {
	if _, err := s.Get(ctx, deliverableID); err != nil {
		return nil, err
	}
	files, err := s.deliverables.ListFiles(ctx, deliverableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deliverable files")
	}
	return files, nil
}
