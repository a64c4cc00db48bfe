package services

import (
	"context"
	"strings"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

const msgLabelExists = "Label with this name already exists"

type CreateLabelRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Description string `json:"description" validate:"max=200"`
}

type UpdateLabelRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

type LabelService interface {
	Create(ctx context.Context, caller *models.User, req CreateLabelRequest) (*models.Label, error)
	Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Label, error)
	ListOwn(ctx context.Context, caller *models.User) ([]models.Label, error)
	ListForUser(ctx context.Context, caller *models.User, userID uuid.UUID) ([]models.Label, error)
	ListAll(ctx context.Context, caller *models.User) ([]models.Label, error)
	Update(ctx context.Context, caller *models.User, id uuid.UUID, req UpdateLabelRequest) (*models.Label, error)
	Delete(ctx context.Context, caller *models.User, id uuid.UUID) error
}

type LabelServiceImpl struct {
	labels repositories.LabelStore
	policy *AccessPolicy
}

func NewLabelService(labels repositories.LabelStore, policy *AccessPolicy) *LabelServiceImpl {
	return &LabelServiceImpl{labels: labels, policy: policy}
}

// Create checks (owner, name) up front for a friendly error; the unique index settles
// concurrent creates.
func (s *LabelServiceImpl) Create(ctx context.Context, caller *models.User, req CreateLabelRequest) (*models.Label, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Color = strings.TrimSpace(req.Color)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, caller.ID, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	label := &models.Label{
		UserID:      caller.ID,
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
	}
	if err := s.labels.Create(ctx, label); err != nil {
		return nil, labelConflict(err)
	}
	return label, nil
}

func (s *LabelServiceImpl) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Label, error) {
	return s.load(ctx, caller, id, ActionRead)
}

func (s *LabelServiceImpl) ListOwn(ctx context.Context, caller *models.User) ([]models.Label, error) {
	return s.labels.Find(ctx, repositories.LabelFilter{UserID: &caller.ID})
}

func (s *LabelServiceImpl) ListForUser(ctx context.Context, caller *models.User, userID uuid.UUID) ([]models.Label, error) {
	res := Resource{Type: ResourceLabel, OwnerID: userID, Found: true}
	if err := s.policy.Authorize(ctx, caller, res, ActionList); err != nil {
		return nil, err
	}
	return s.labels.Find(ctx, repositories.LabelFilter{UserID: &userID})
}

func (s *LabelServiceImpl) ListAll(ctx context.Context, caller *models.User) ([]models.Label, error) {
	if err := s.policy.AuthorizeAdmin(ctx, caller, ResourceLabel, ActionList); err != nil {
		return nil, err
	}
	return s.labels.Find(ctx, repositories.LabelFilter{})
}

func (s *LabelServiceImpl) Update(ctx context.Context, caller *models.User, id uuid.UUID, req UpdateLabelRequest) (*models.Label, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation("name is required")
		}
		req.Name = &name
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	label, err := s.load(ctx, caller, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != label.Name {
		if err := s.ensureNameFree(ctx, label.UserID, *req.Name, label.ID); err != nil {
			return nil, err
		}
		label.Name = *req.Name
	}
	if req.Color != nil {
		label.Color = strings.TrimSpace(*req.Color)
	}
	if req.Description != nil {
		label.Description = *req.Description
	}

	if err := s.labels.Save(ctx, label); err != nil {
		return nil, labelConflict(err)
	}
	return label, nil
}

// Delete leaves tasks that reference the label untouched.
func (s *LabelServiceImpl) Delete(ctx context.Context, caller *models.User, id uuid.UUID) error {
	if _, err := s.load(ctx, caller, id, ActionDelete); err != nil {
		return err
	}
	return s.labels.Delete(ctx, id)
}

func (s *LabelServiceImpl) load(ctx context.Context, caller *models.User, id uuid.UUID, action Action) (*models.Label, error) {
	label, err := s.labels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := Resource{Type: ResourceLabel, ID: id, Found: label != nil}
	if label != nil {
		res.OwnerID = label.UserID
	}
	if err := s.policy.Authorize(ctx, caller, res, action); err != nil {
		return nil, err
	}
	return label, nil
}

func (s *LabelServiceImpl) ensureNameFree(ctx context.Context, ownerID uuid.UUID, name string, self uuid.UUID) error {
	existing, err := s.labels.FindByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return apperrors.Conflict(msgLabelExists)
	}
	return nil
}

func labelConflict(err error) error {
	if apperrors.IsCode(err, apperrors.CodeConflict) {
		return apperrors.Wrap(apperrors.CodeConflict, msgLabelExists, err)
	}
	return err
}
