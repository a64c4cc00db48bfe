package repositories

import (
	"context"
	"time"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and links the roles already attached to it. The roles must
// exist; they are not upserted.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Omit("Roles.*").Create(user).Error
	return translate(err, "user")
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := firstOrNil[models.User](r.db.WithContext(ctx).Preload("Roles").Where("id = ?", id), "user")
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return firstOrNil[models.User](r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email), "user")
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return firstOrNil[models.User](r.db.WithContext(ctx).Preload("Roles").Where("username = ?", username), "user")
}

// FindByRefreshToken matches only a stored token that has not expired at now.
func (r *UserRepository) FindByRefreshToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	query := r.db.WithContext(ctx).Preload("Roles").
		Where("refresh_token = ? AND refresh_token_expires_at > ?", token, now.UTC())
	return firstOrNil[models.User](query, "user")
}

// StartSession stores a fresh refresh token and stamps the login time, replacing any
// previous session.
func (r *UserRepository) StartSession(ctx context.Context, userID uuid.UUID, token string, expiresAt, loginAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"refresh_token":            token,
		"refresh_token_expires_at": expiresAt.UTC(),
		"last_login_at":            loginAt.UTC(),
	})
	if result.Error != nil {
		return translate(result.Error, "user")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// RotateRefreshToken replaces oldToken with newToken in a single conditional UPDATE. At
// most one caller presenting the same oldToken can win; every other caller, and any caller
// presenting an expired or unknown token or one held by an inactive account, gets
// (nil, nil). A non-nil ownerID also requires the token to belong to that user.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, ownerID uuid.UUID, oldToken, newToken string, newExpiry, now time.Time) (*models.User, error) {
	var rotated *models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.User{}).
			Where("refresh_token = ? AND refresh_token_expires_at > ? AND is_active = ?", oldToken, now.UTC(), true)
		if ownerID != uuid.Nil {
			query = query.Where("id = ?", ownerID)
		}
		result := query.Updates(map[string]interface{}{
				"refresh_token":            newToken,
				"refresh_token_expires_at": newExpiry.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var user models.User
		if err := tx.Preload("Roles").Where("refresh_token = ?", newToken).First(&user).Error; err != nil {
			return err
		}
		rotated = &user
		return nil
	})
	if err != nil {
		return nil, translate(err, "user")
	}
	return rotated, nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"refresh_token":            nil,
		"refresh_token_expires_at": nil,
	}).Error
	return translate(err, "user")
}

// ClearExpiredSessions drops refresh tokens whose expiry is at or before now and reports
// how many sessions were closed.
func (r *UserRepository) ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("refresh_token IS NOT NULL AND refresh_token_expires_at <= ?", now.UTC()).
		Updates(map[string]interface{}{
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
		})
	if result.Error != nil {
		return 0, translate(result.Error, "user")
	}
	return result.RowsAffected, nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("created_at ASC").Find(&users).Error
	if err != nil {
		return nil, translate(err, "user")
	}
	return users, nil
}

// UpdateProfile writes only the optional profile columns.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"phone_number": user.PhoneNumber,
	})
	if result.Error != nil {
		return translate(result.Error, "user")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

func (r *UserRepository) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	db := r.db.WithContext(ctx)

	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return translate(err, "role")
	}

	user := models.User{ID: userID}
	if err := db.Model(&user).Association("Roles").Append(&role); err != nil {
		return translate(err, "user role")
	}
	return nil
}

// EnsureRoles returns the named roles in the order given, creating any that are missing.
func (r *UserRepository) EnsureRoles(ctx context.Context, names ...string) ([]models.Role, error) {
	db := r.db.WithContext(ctx)
	roles := make([]models.Role, 0, len(names))
	for _, name := range names {
		role := models.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return nil, translate(err, "role")
		}
		roles = append(roles, role)
	}
	return roles, nil
}
