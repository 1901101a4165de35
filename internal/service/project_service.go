package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/database"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type projectRepo interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	ListByOffering(ctx context.Context, offeringID string) ([]models.Project, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Project, error)
	ListByMember(ctx context.Context, userID string) ([]models.Project, error)
	ListMembers(ctx context.Context, projectID string) ([]models.ProjectMemberDetail, error)
	FindMember(ctx context.Context, projectID, userID string) (*models.ProjectMember, error)
	AddMember(ctx context.Context, member *models.ProjectMember) error
	UpdateMemberLeadership(ctx context.Context, projectID, userID string, isLeader bool) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	CountLeaders(ctx context.Context, projectID, excludeUserID string) (int, error)
}

type projectOfferingReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
}

type projectGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type projectUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	OfferingID  *string `json:"offering_id"`
	GroupID     *string `json:"group_id"`
}

// ProjectService manages projects and their memberships.
type ProjectService struct {
	db        *sqlx.DB
	projects  projectRepo
	offerings projectOfferingReader
	groups    projectGroupReader
	users     projectUserReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs ProjectService.
func NewProjectService(db *sqlx.DB, projects projectRepo, offerings projectOfferingReader, groups projectGroupReader, users projectUserReader, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		db:        db,
		projects:  projects,
		offerings: offerings,
		groups:    groups,
		users:     users,
		validator: validate,
		logger:    logger,
	}
}

// Create registers a project; the creator becomes its first leader member.
func (s *ProjectService) Create(ctx context.Context, creator models.Requester, req CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if req.OfferingID != nil {
		if _, err := s.offerings.FindByID(ctx, *req.OfferingID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
		}
	}
	if req.GroupID != nil {
		if _, err := s.groups.FindByID(ctx, *req.GroupID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
	}

	project := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		CreatedByID: creator.ID,
		OfferingID:  req.OfferingID,
		GroupID:     req.GroupID,
	}
	err := database.Transact(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.projects.CreateTx(ctx, tx, project)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return project, nil
}

// Get returns a project with its members.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.ProjectDetail, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.projects.ListMembers(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list project members")
	}
	return &models.ProjectDetail{Project: *project, Members: members}, nil
}

// ListByOffering returns projects scoped to an offering.
func (s *ProjectService) ListByOffering(ctx context.Context, offeringID string) ([]models.Project, error) {
	projects, err := s.projects.ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, nil
}

// ListByGroup returns projects attached to a group.
func (s *ProjectService) ListByGroup(ctx context.Context, groupID string) ([]models.Project, error) {
	projects, err := s.projects.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, nil
}

// ListByMember returns the projects a user belongs to.
func (s *ProjectService) ListByMember(ctx context.Context, userID string) ([]models.Project, error) {
	projects, err := s.projects.ListByMember(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, nil
}

// AddMember links a user to a project. Requires a project leader, a
// professor or an admin.
func (s *ProjectService) AddMember(ctx context.Context, requester models.Requester, projectID, userID string) error {
	if _, err := s.findProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.authorizeManagement(ctx, requester, projectID); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if _, err := s.projects.FindMember(ctx, projectID, userID); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "user is already a project member")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	member := &models.ProjectMember{ProjectID: projectID, UserID: userID, IsLeader: false}
	if err := s.projects.AddMember(ctx, member); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add project member")
	}
	return nil
}

// UpdateLeadership grants or revokes the leader flag on a membership. A
// project always keeps at least one leader.
func (s *ProjectService) UpdateLeadership(ctx context.Context, requester models.Requester, projectID, userID string, isLeader bool) error {
	if _, err := s.findProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.authorizeManagement(ctx, requester, projectID); err != nil {
		return err
	}
	member, err := s.findMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if member.IsLeader && !isLeader {
		others, err := s.projects.CountLeaders(ctx, projectID, userID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count leaders")
		}
		if others == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "project must keep at least one leader")
		}
	}
	if err := s.projects.UpdateMemberLeadership(ctx, projectID, userID, isLeader); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leadership")
	}
	return nil
}

// RemoveMember unlinks a user from a project. The only leader cannot be
// removed.
func (s *ProjectService) RemoveMember(ctx context.Context, requester models.Requester, projectID, userID string) error {
	if _, err := s.findProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.authorizeManagement(ctx, requester, projectID); err != nil {
		return err
	}
	member, err := s.findMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if member.IsLeader {
		others, err := s.projects.CountLeaders(ctx, projectID, userID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count leaders")
		}
		if others == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "cannot remove the only project leader")
		}
	}
	if err := s.projects.RemoveMember(ctx, projectID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove project member")
	}
	return nil
}

func (s *ProjectService) findProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

func (s *ProjectService) findMember(ctx context.Context, projectID, userID string) (*models.ProjectMember, error) {
	member, err := s.projects.FindMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user is not a project member")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load membership")
	}
	return member, nil
}

func (s *ProjectService) authorizeManagement(ctx context.Context, requester models.Requester, projectID string) error {
	if requester.Role == models.RoleAdmin || requester.Role == models.RoleProfessor {
		return nil
	}
	member, err := s.projects.FindMember(ctx, projectID, requester.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "only a project leader or staff may manage members")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if !member.IsLeader {
		return appErrors.Clone(appErrors.ErrForbidden, "only a project leader or staff may manage members")
	}
	return nil
}
