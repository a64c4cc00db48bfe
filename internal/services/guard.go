package services

import (
	"context"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
)

// Guard resolves callers from access tokens.
type Guard struct {
	tokens *TokenService
	users  repositories.UserStore
}

func NewGuard(tokens *TokenService, users repositories.UserStore) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// CurrentUser validates token and loads its subject with roles. A valid token whose user
// has since disappeared fails exactly like an invalid one. Deactivated accounts are
// refused with an authorization error.
func (g *Guard) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	username, err := g.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.InvalidCredentials()
	}
	if !user.IsActive {
		return nil, apperrors.Authorization(msgInactiveUser)
	}
	return user, nil
}

func (g *Guard) RequireRole(user *models.User, role string) error {
	if user == nil || !user.HasRole(role) {
		if role == models.RoleAdmin {
			return apperrors.Authorization("Admin access required")
		}
		return apperrors.Authorization("insufficient role")
	}
	return nil
}
