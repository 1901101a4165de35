package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	"github.com/campuslab/project-jury-api/pkg/database"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type juryRepo interface {
	EligiblePoolTx(ctx context.Context, tx *sqlx.Tx, projectID, groupID, deliverableID string) ([]string, error)
	CreateBatchTx(ctx context.Context, tx *sqlx.Tx, assignments []models.JuryAssignment) error
	ListByDeliverable(ctx context.Context, deliverableID string) ([]models.JuryAssignmentDetail, error)
	ListByJuror(ctx context.Context, jurorID string) ([]models.JurorTask, error)
}

type juryDeliverableReader interface {
	FindByID(ctx context.Context, id string) (*models.Deliverable, error)
}

type juryProjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

// JuryService selects and persists jurors for deliverables. Selection reads
// the eligible pool and writes the assignment rows inside one transaction so
// the exclusion computation cannot race against its own writes.
type JuryService struct {
	db           *sqlx.DB
	assignments  juryRepo
	deliverables juryDeliverableReader
	projects     juryProjectReader
	defaultCount int
	logger       *zap.Logger

	// rng is not safe for concurrent use.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewJuryService constructs JuryService. A nil rng is seeded from the clock;
// tests inject a deterministic source.
func NewJuryService(db *sqlx.DB, assignments juryRepo, deliverables juryDeliverableReader, projects juryProjectReader, rng *rand.Rand, cfg config.JuryConfig, logger *zap.Logger) *JuryService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultCount := cfg.DefaultCount
	if defaultCount <= 0 {
		defaultCount = 10
	}
	return &JuryService{
		db:           db,
		assignments:  assignments,
		deliverables: deliverables,
		projects:     projects,
		defaultCount: defaultCount,
		logger:       logger,
		rng:          rng,
	}
}

// SelectTx draws min(count, pool size) jurors uniformly at random from the
// eligible pool and persists one assignment per pick, all inside the given
// transaction. An empty pool yields an empty result, not an error; the
// project must have a group because group-member exclusion is mandatory.
func (s *JuryService) SelectTx(ctx context.Context, tx *sqlx.Tx, project *models.Project, deliverableID string, count int) ([]models.JuryAssignment, error) {
	if project.GroupID == nil {
		return nil, appErrors.Clone(appErrors.ErrProjectHasNoGroup, "project has no group, jurors cannot be assigned")
	}

	pool, err := s.assignments.EligiblePoolTx(ctx, tx, project.ID, *project.GroupID, deliverableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve eligible jurors")
	}

	selected := s.pick(pool, count)
	if len(selected) == 0 {
		return []models.JuryAssignment{}, nil
	}

	assignments := make([]models.JuryAssignment, 0, len(selected))
	now := time.Now().UTC()
	for _, jurorID := range selected {
		assignments = append(assignments, models.JuryAssignment{
			DeliverableID: deliverableID,
			JurorID:       jurorID,
			AssignedAt:    now,
		})
	}
	if err := s.assignments.CreateBatchTx(ctx, tx, assignments); err != nil {
		if errors.Is(err, appErrors.ErrAssignmentConflict) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist jury assignments")
	}

	s.logger.Info("jurors assigned",
		zap.String("deliverable_id", deliverableID),
		zap.Int("pool_size", len(pool)),
		zap.Int("assigned", len(assignments)))
	return assignments, nil
}

// Reassign draws additional jurors for an existing deliverable. The pool is
// recomputed inside a fresh transaction, so jurors assigned earlier are
// excluded; an empty pool is an error on this path.
func (s *JuryService) Reassign(ctx context.Context, deliverableID string, count int) ([]models.JuryAssignment, error) {
	deliverable, err := s.deliverables.FindByID(ctx, deliverableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deliverable")
	}
	if deliverable.ProjectID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
	}
	project, err := s.projects.FindByID(ctx, *deliverable.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	var created []models.JuryAssignment
	err = database.Transact(ctx, s.db, func(tx *sqlx.Tx) error {
		assignments, err := s.SelectTx(ctx, tx, project, deliverableID, count)
		if err != nil {
			return err
		}
		if len(assignments) == 0 {
			return appErrors.Clone(appErrors.ErrNoEligibleJurors, "no eligible jurors available for this deliverable")
		}
		created = assignments
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return created, nil
}

// ListByDeliverable returns a deliverable's assignments with juror identity.
func (s *JuryService) ListByDeliverable(ctx context.Context, deliverableID string) ([]models.JuryAssignmentDetail, error) {
	if _, err := s.deliverables.FindByID(ctx, deliverableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deliverable")
	}
	details, err := s.assignments.ListByDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jury assignments")
	}
	return details, nil
}

// ListForJuror returns the grading tasks assigned to a juror.
func (s *JuryService) ListForJuror(ctx context.Context, jurorID string) ([]models.JurorTask, error) {
	tasks, err := s.assignments.ListByJuror(ctx, jurorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list juror tasks")
	}
	return tasks, nil
}

// pick shuffles a copy of the pool and takes the first n entries. Requested
// counts that are zero or negative fall back to the configured default.
func (s *JuryService) pick(pool []string, count int) []string {
	if count <= 0 {
		count = s.defaultCount
	}
	if count > len(pool) {
		count = len(pool)
	}
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)

	s.mu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	return shuffled[:count]
}
