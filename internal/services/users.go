package services

import (
	"context"
	"strings"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=50"`
	LastName    *string `json:"last_name" validate:"omitempty,max=50"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
}

type UserService interface {
	Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, caller *models.User) ([]models.User, error)
	UpdateProfile(ctx context.Context, caller *models.User, id uuid.UUID, req UpdateProfileRequest) (*models.User, error)
	AssignRole(ctx context.Context, caller *models.User, userID uuid.UUID, role string) (*models.User, error)
}

type UserServiceImpl struct {
	users  repositories.UserStore
	policy *AccessPolicy
}

func NewUserService(users repositories.UserStore, policy *AccessPolicy) *UserServiceImpl {
	return &UserServiceImpl{users: users, policy: policy}
}

func (s *UserServiceImpl) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.User, error) {
	return s.load(ctx, caller, id, ActionRead)
}

func (s *UserServiceImpl) List(ctx context.Context, caller *models.User) ([]models.User, error) {
	if err := s.policy.AuthorizeAdmin(ctx, caller, ResourceUser, ActionList); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// UpdateProfile is self-service only; admins cannot edit other profiles.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, caller *models.User, id uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, caller, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserServiceImpl) AssignRole(ctx context.Context, caller *models.User, userID uuid.UUID, role string) (*models.User, error) {
	if err := s.policy.AuthorizeAdmin(ctx, caller, ResourceUser, ActionUpdate); err != nil {
		return nil, err
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperrors.Validation("role must be one of user, admin")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.users.AssignRole(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserServiceImpl) load(ctx context.Context, caller *models.User, id uuid.UUID, action Action) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	res := Resource{Type: ResourceUser, ID: id, Found: user != nil}
	if user != nil {
		res.OwnerID = user.ID
	}
	if err := s.policy.Authorize(ctx, caller, res, action); err != nil {
		return nil, err
	}
	return user, nil
}
