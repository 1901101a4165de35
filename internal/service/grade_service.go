package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type gradeRepo interface {
	Create(ctx context.Context, grade *models.Grade) error
	Exists(ctx context.Context, deliverableID, jurorID string) (bool, error)
	ListScores(ctx context.Context, deliverableID string) ([]float64, error)
	ListAnonymous(ctx context.Context, deliverableID string) ([]models.AnonymousGrade, error)
	ListByJuror(ctx context.Context, jurorID string) ([]models.JurorGrade, error)
}

type juryChecker interface {
	Exists(ctx context.Context, deliverableID, jurorID string) (bool, error)
}

type gradeDeliverableReader interface {
	FindByID(ctx context.Context, id string) (*models.Deliverable, error)
}

type finalGradeRepo interface {
	Upsert(ctx context.Context, final *models.ProjectFinalGrade) error
	FindByDeliverable(ctx context.Context, projectID, deliverableID string) (*models.ProjectFinalGrade, error)
	ListByProject(ctx context.Context, projectID string) ([]models.ProjectFinalGrade, error)
}

type gradeProjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

// SubmitGradeRequest is a juror's score for a deliverable. Score bounds are
// checked after the existence and assignment lookups, not by the validator,
// so a zero score still reports InvalidScore rather than a payload error.
type SubmitGradeRequest struct {
	DeliverableID string  `json:"deliverable_id" validate:"required"`
	Score         float64 `json:"score"`
	Comment       *string `json:"comment"`
}

// GradeService validates grade intake and aggregates final scores.
type GradeService struct {
	grades        gradeRepo
	jury          juryChecker
	deliverables  gradeDeliverableReader
	finals        finalGradeRepo
	projects      gradeProjectReader
	reports       reportInvalidator
	trimThreshold int
	minScore      float64
	maxScore      float64
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewGradeService constructs GradeService. A nil reports invalidator leaves
// cached offering summaries to expire on their own TTL.
func NewGradeService(grades gradeRepo, jury juryChecker, deliverables gradeDeliverableReader, finals finalGradeRepo, projects gradeProjectReader, reports reportInvalidator, cfg config.GradingConfig, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	trimThreshold := cfg.TrimThreshold
	if trimThreshold <= 0 {
		trimThreshold = 3
	}
	minScore, maxScore := cfg.MinScore, cfg.MaxScore
	if maxScore <= minScore {
		minScore, maxScore = 1, 10
	}
	return &GradeService{
		grades:        grades,
		jury:          jury,
		deliverables:  deliverables,
		finals:        finals,
		projects:      projects,
		reports:       reports,
		trimThreshold: trimThreshold,
		minScore:      minScore,
		maxScore:      maxScore,
		validator:     validate,
		logger:        logger,
	}
}

// Submit records a juror's grade after the ordered precondition checks: the
// deliverable exists, the submitter holds an assignment, no grade exists yet
// for the pair, and the score lies in range. The duplicate pre-check is a
// fast path; the unique index in the store is the authoritative guard, so a
// losing racer still gets the duplicate conflict. Aggregation is not
// triggered here; final scores are recomputed on demand via Recalculate.
func (s *GradeService) Submit(ctx context.Context, jurorID string, req SubmitGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	_, err := s.deliverables.FindByID(ctx, req.DeliverableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deliverable")
	}

	assigned, err := s.jury.Exists(ctx, req.DeliverableID, jurorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check jury assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrNotAJuror, "")
	}

	exists, err := s.grades.Exists(ctx, req.DeliverableID, jurorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing grade")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrGradeExists, "")
	}

	if math.IsNaN(req.Score) || math.IsInf(req.Score, 0) || req.Score < s.minScore || req.Score > s.maxScore {
		return nil, appErrors.Clone(appErrors.ErrInvalidScore, "score must lie between 1 and 10")
	}

	grade := &models.Grade{
		DeliverableID: req.DeliverableID,
		JurorID:       jurorID,
		Score:         req.Score,
		Comment:       req.Comment,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		if errors.Is(err, appErrors.ErrGradeExists) {
			return nil, appErrors.Clone(appErrors.ErrGradeExists, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist grade")
	}
	return grade, nil
}

// Recalculate recomputes the aggregated score of a deliverable from the
// current grade set.
func (s *GradeService) Recalculate(ctx context.Context, deliverableID string) (*models.ProjectFinalGrade, error) {
	deliverable, err := s.deliverables.FindByID(ctx, deliverableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deliverable")
	}
	return s.recalculate(ctx, deliverable)
}

// ListForDeliverable returns a deliverable's grades with juror identity
// stripped. This is the professor-facing view.
func (s *GradeService) ListForDeliverable(ctx context.Context, deliverableID string) ([]models.AnonymousGrade, error) {
	if _, err := s.deliverables.FindByID(ctx, deliverableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deliverable")
	}
	grades, err := s.grades.ListAnonymous(ctx, deliverableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListForJuror returns the grades a juror has submitted.
func (s *GradeService) ListForJuror(ctx context.Context, jurorID string) ([]models.JurorGrade, error) {
	grades, err := s.grades.ListByJuror(ctx, jurorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list juror grades")
	}
	return grades, nil
}

// FinalsForProject returns a project's aggregated final grades.
func (s *GradeService) FinalsForProject(ctx context.Context, projectID string) ([]models.ProjectFinalGrade, error) {
	finals, err := s.finals.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list final grades")
	}
	return finals, nil
}

func (s *GradeService) recalculate(ctx context.Context, deliverable *models.Deliverable) (*models.ProjectFinalGrade, error) {
	if deliverable.ProjectID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
	}
	scores, err := s.grades.ListScores(ctx, deliverable.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grade scores")
	}
	if len(scores) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoGrades, "")
	}

	score := s.trimmedMean(scores)
	now := time.Now().UTC()
	final := &models.ProjectFinalGrade{
		ProjectID:     *deliverable.ProjectID,
		DeliverableID: deliverable.ID,
		FinalScore:    &score,
		CalculatedAt:  &now,
	}
	if err := s.finals.Upsert(ctx, final); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert final grade")
	}
	s.invalidateReports(ctx, final.ProjectID)

	s.logger.Info("final grade recalculated",
		zap.String("deliverable_id", deliverable.ID),
		zap.Int("grade_count", len(scores)),
		zap.Float64("final_score", score))
	return final, nil
}

// invalidateReports drops the cached offering summary touched by a fresh
// final grade. On failure the stale entry simply expires on its TTL.
func (s *GradeService) invalidateReports(ctx context.Context, projectID string) {
	if s.reports == nil || s.projects == nil {
		return
	}
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil || project.OfferingID == nil {
		return
	}
	if err := s.reports.InvalidateOffering(ctx, *project.OfferingID); err != nil {
		s.logger.Warn("failed to invalidate offering reports",
			zap.String("offering_id", *project.OfferingID),
			zap.Error(err))
	}
}

// trimmedMean sorts the scores, drops the single lowest and single highest
// when at least trimThreshold grades exist, and averages the rest.
func (s *GradeService) trimmedMean(scores []float64) float64 {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	retained := sorted
	if len(sorted) >= s.trimThreshold {
		retained = sorted[1 : len(sorted)-1]
	}

	sum := 0.0
	for _, v := range retained {
		sum += v
	}
	return roundScore(sum / float64(len(retained)))
}

// roundScore rounds half-up to two decimals.
func roundScore(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
