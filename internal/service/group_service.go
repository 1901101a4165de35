package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type groupRepo interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]models.User, error)
	MemberExists(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID string) (bool, error)
	ListByOffering(ctx context.Context, offeringID string) ([]models.Group, error)
	ListOfferings(ctx context.Context, groupID string) ([]models.CourseOffering, error)
	LinkOffering(ctx context.Context, groupID, offeringID string) error
	UnlinkOffering(ctx context.Context, groupID, offeringID string) (bool, error)
}

type groupUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type groupOfferingReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
}

// CreateGroupRequest is the payload for creating a student group.
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// GroupService manages student groups, their members and their offering
// links.
type GroupService struct {
	groups    groupRepo
	users     groupUserReader
	offerings groupOfferingReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(groups groupRepo, users groupUserReader, offerings groupOfferingReader, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{groups: groups, users: users, offerings: offerings, validator: validate, logger: logger}
}

// Create registers a new group.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	group := &models.Group{Name: req.Name, Description: req.Description}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

// Get returns a group with its members and linked offerings.
func (s *GroupService) Get(ctx context.Context, id string) (*models.GroupDetail, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group members")
	}
	offerings, err := s.groups.ListOfferings(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group offerings")
	}
	return &models.GroupDetail{Group: *group, Members: members, Offerings: offerings}, nil
}

// ListByOffering returns the groups linked to an offering.
func (s *GroupService) ListByOffering(ctx context.Context, offeringID string) ([]models.Group, error) {
	if _, err := s.offerings.FindByID(ctx, offeringID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	groups, err := s.groups.ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// AddMember links a student to a group. Only accounts with the student role
// can join.
func (s *GroupService) AddMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "only students can join groups")
	}
	exists, err := s.groups.MemberExists(ctx, groupID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group membership")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "user is already a member of this group")
	}
	if err := s.groups.AddMember(ctx, &models.GroupMember{GroupID: groupID, UserID: userID}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add group member")
	}
	return nil
}

// RemoveMember unlinks a student from a group.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return err
	}
	removed, err := s.groups.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove group member")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "user is not a member of this group")
	}
	return nil
}

// LinkOffering connects a group to a course offering, idempotently.
func (s *GroupService) LinkOffering(ctx context.Context, groupID, offeringID string) error {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.offerings.FindByID(ctx, offeringID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if err := s.groups.LinkOffering(ctx, groupID, offeringID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link group to offering")
	}
	return nil
}

// UnlinkOffering removes a group/offering link.
func (s *GroupService) UnlinkOffering(ctx context.Context, groupID, offeringID string) error {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return err
	}
	removed, err := s.groups.UnlinkOffering(ctx, groupID, offeringID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink group from offering")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "group is not linked to this offering")
	}
	return nil
}

func (s *GroupService) findGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}
