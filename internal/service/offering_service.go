package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	"github.com/campuslab/project-jury-api/pkg/database"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type offeringRepo interface {
	Create(ctx context.Context, offering *models.CourseOffering) error
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseOffering, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.CourseOffering, error)
	ListStaff(ctx context.Context, offeringID string) ([]models.StaffMember, error)
	UpsertStaff(ctx context.Context, staff *models.CourseStaff) error
	DeleteStaffTx(ctx context.Context, tx *sqlx.Tx, offeringID string) (int, error)
	DeleteProjectsTx(ctx context.Context, tx *sqlx.Tx, offeringID string) (int, error)
	DeleteGradingTx(ctx context.Context, tx *sqlx.Tx, offeringID string) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, offeringID string) error
}

type offeringCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type offeringUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type reportInvalidator interface {
	InvalidateOffering(ctx context.Context, offeringID string) error
}

// CreateOfferingRequest is the payload for creating a course offering.
type CreateOfferingRequest struct {
	CourseID        string `json:"course_id" validate:"required"`
	AcademicYear    string `json:"academic_year" validate:"required"`
	Semester        string `json:"semester" validate:"required,oneof=autumn spring summer"`
	MainProfessorID string `json:"main_professor_id" validate:"required"`
}

// UpsertStaffRequest adds or updates a staff link on an offering.
type UpsertStaffRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=lecturer assistant lab other"`
}

// OfferingService manages course offerings, their staff and their cascaded
// retirement.
type OfferingService struct {
	db          *sqlx.DB
	offerings   offeringRepo
	courses     offeringCourseReader
	users       offeringUserReader
	reports     reportInvalidator
	cascadeDeep bool
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewOfferingService constructs OfferingService. reports may be nil when no
// report cache is configured.
func NewOfferingService(db *sqlx.DB, offerings offeringRepo, courses offeringCourseReader, users offeringUserReader, reports reportInvalidator, cfg config.OfferingsConfig, validate *validator.Validate, logger *zap.Logger) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferingService{
		db:          db,
		offerings:   offerings,
		courses:     courses,
		users:       users,
		reports:     reports,
		cascadeDeep: cfg.CascadeDeep,
		validator:   validate,
		logger:      logger,
	}
}

// Create registers a new run of a course. The main professor must hold the
// professor role.
func (s *OfferingService) Create(ctx context.Context, req CreateOfferingRequest) (*models.CourseOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	professor, err := s.users.FindByID(ctx, req.MainProfessorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "main professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load main professor")
	}
	if professor.Role != models.RoleProfessor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "main professor must hold the professor role")
	}

	offering := &models.CourseOffering{
		CourseID:        req.CourseID,
		AcademicYear:    req.AcademicYear,
		Semester:        models.Semester(req.Semester),
		MainProfessorID: req.MainProfessorID,
	}
	if err := s.offerings.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return offering, nil
}

// Get returns an offering with its course and staff.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.OfferingDetail, error) {
	offering, err := s.findOffering(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.OfferingDetail{CourseOffering: *offering}
	if course, err := s.courses.FindByID(ctx, offering.CourseID); err == nil {
		detail.Course = course
	}
	staff, err := s.offerings.ListStaff(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offering staff")
	}
	detail.Staff = staff
	return detail, nil
}

// ListByCourse returns the offerings of a course.
func (s *OfferingService) ListByCourse(ctx context.Context, courseID string) ([]models.CourseOffering, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	offerings, err := s.offerings.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, nil
}

// ListByProfessor returns the offerings where the user is main professor.
func (s *OfferingService) ListByProfessor(ctx context.Context, professorID string) ([]models.CourseOffering, error) {
	offerings, err := s.offerings.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, nil
}

// UpsertStaff adds or updates a staff member on an offering. Only an admin
// or the offering's main professor may manage staff.
func (s *OfferingService) UpsertStaff(ctx context.Context, requester models.Requester, offeringID string, req UpsertStaffRequest) (*models.CourseStaff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}
	offering, err := s.findOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(requester, offering); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	staff := &models.CourseStaff{
		OfferingID: offeringID,
		UserID:     req.UserID,
		Role:       models.StaffRole(req.Role),
	}
	if err := s.offerings.UpsertStaff(ctx, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert staff")
	}
	return staff, nil
}

// DeleteCascade retires an offering: staff links, projects and the offering
// row go in one transaction, so a failure anywhere leaves everything in
// place. Deliverables, assignments and grades of the offering's projects are
// retained unless deep cascade is configured.
func (s *OfferingService) DeleteCascade(ctx context.Context, requester models.Requester, offeringID string) (*models.CascadeResult, error) {
	offering, err := s.findOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(requester, offering); err != nil {
		return nil, err
	}

	result := &models.CascadeResult{}
	err = database.Transact(ctx, s.db, func(tx *sqlx.Tx) error {
		staffCount, err := s.offerings.DeleteStaffTx(ctx, tx, offeringID)
		if err != nil {
			return fmt.Errorf("cascade staff: %w", err)
		}
		if s.cascadeDeep {
			if err := s.offerings.DeleteGradingTx(ctx, tx, offeringID); err != nil {
				return fmt.Errorf("cascade grading: %w", err)
			}
		}
		projectCount, err := s.offerings.DeleteProjectsTx(ctx, tx, offeringID)
		if err != nil {
			return fmt.Errorf("cascade projects: %w", err)
		}
		if err := s.offerings.DeleteTx(ctx, tx, offeringID); err != nil {
			return fmt.Errorf("cascade offering: %w", err)
		}
		result.DeletedStaffCount = staffCount
		result.DeletedProjectsCount = projectCount
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete offering")
	}

	if s.reports != nil {
		if err := s.reports.InvalidateOffering(ctx, offeringID); err != nil {
			s.logger.Warn("failed to invalidate offering reports", zap.String("offering_id", offeringID), zap.Error(err))
		}
	}

	s.logger.Info("offering deleted",
		zap.String("offering_id", offeringID),
		zap.String("requester_id", requester.ID),
		zap.Int("deleted_staff", result.DeletedStaffCount),
		zap.Int("deleted_projects", result.DeletedProjectsCount),
		zap.Bool("deep_cascade", s.cascadeDeep))
	return result, nil
}

func (s *OfferingService) findOffering(ctx context.Context, id string) (*models.CourseOffering, error) {
	offering, err := s.offerings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

func (s *OfferingService) authorize(requester models.Requester, offering *models.CourseOffering) error {
	if requester.Role == models.RoleAdmin || requester.ID == offering.MainProfessorID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only an admin or the main professor may manage this offering")
}
