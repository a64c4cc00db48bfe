// Package repositories is the persistence layer. Every store is backed by gorm and
// translates driver errors into apperrors kinds.
package repositories

import (
	"context"
	"errors"
	"time"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByRefreshToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	StartSession(ctx context.Context, userID uuid.UUID, token string, expiresAt, loginAt time.Time) error
	RotateRefreshToken(ctx context.Context, ownerID uuid.UUID, oldToken, newToken string, newExpiry, now time.Time) (*models.User, error)
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
	ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error
	EnsureRoles(ctx context.Context, names ...string) ([]models.Role, error)
}

// TaskFilter is an equality predicate; zero fields match everything.
type TaskFilter struct {
	UserID   *uuid.UUID
	Status   models.TaskStatus
	Priority models.Priority
}

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Find(ctx context.Context, filter TaskFilter) ([]models.Task, error)
}

type LabelFilter struct {
	UserID *uuid.UUID
}

type LabelStore interface {
	Create(ctx context.Context, label *models.Label) error
	Save(ctx context.Context, label *models.Label) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Label, error)
	Find(ctx context.Context, filter LabelFilter) ([]models.Label, error)
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Label, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Label, error)
}

type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// translate maps gorm errors onto apperrors. what names the record for messages.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.CodeConflict, what+" already exists", err)
	default:
		return apperrors.Persistence("failed to access "+what, err)
	}
}

// firstOrNil runs query into dest and returns (nil, nil) when no row matches.
func firstOrNil[T any](query *gorm.DB, what string) (*T, error) {
	var dest T
	err := query.First(&dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, what)
	}
	return &dest, nil
}
