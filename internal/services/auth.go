package services

import (
	"context"
	"log"
	"strings"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/config"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/security"

	"github.com/gofrs/uuid"
)

const (
	msgIncorrectLogin       = "Incorrect username or password"
	msgInvalidRefreshToken  = "Invalid or expired refresh token"
	msgEmailRegistered      = "Email already registered"
	msgInactiveUser         = "Inactive user"
	msgUsernameTaken        = "Username already taken"
	msgRegistrationConflict = "Email or username already registered"
)

type RegisterRequest struct {
	Email       string `json:"email" form:"email" validate:"required,email,max=254"`
	Username    string `json:"username" form:"username" validate:"required,min=3,max=50"`
	Password    string `json:"password" form:"password" validate:"required,min=8,max=72"`
	FirstName   string `json:"first_name" form:"first_name" validate:"max=50"`
	LastName    string `json:"last_name" form:"last_name" validate:"max=50"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"max=32"`
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"-"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, caller *models.User, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, user *models.User) error
}

type AuthServiceImpl struct {
	users  repositories.UserStore
	hasher *security.PasswordHasher
	tokens *TokenService
	cfg    config.AuthConfig
}

func NewAuthService(users repositories.UserStore, hasher *security.PasswordHasher, tokens *TokenService, cfg config.AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, hasher: hasher, tokens: tokens, cfg: cfg}
}

// Register creates an active, unverified account with the user role. The lookups are a
// fast path for friendly messages; the unique indexes decide races.
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict(msgEmailRegistered)
	}

	existing, err = s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict(msgUsernameTaken)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "failed to hash password", err)
	}

	roleNames := []string{models.RoleUser}
	if s.cfg.IsAdminUsername(req.Username) {
		roleNames = append(roleNames, models.RoleAdmin)
	}
	roles, err := s.users.EnsureRoles(ctx, roleNames...)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: digest,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		IsActive:     true,
		IsVerified:   false,
		Roles:        roles,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return nil, apperrors.Wrap(apperrors.CodeConflict, msgRegistrationConflict, err)
		}
		return nil, err
	}

	log.Printf("Registered user %s (%s)", user.Username, user.ID)
	return user, nil
}

// Login verifies credentials and starts a new session, replacing any previous refresh
// token. Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.VerifyNothing(password)
		return nil, apperrors.Authentication(msgIncorrectLogin)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.Authentication(msgIncorrectLogin)
	}
	if !user.IsActive {
		return nil, apperrors.Authorization(msgInactiveUser)
	}

	refreshToken, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "failed to issue refresh token", err)
	}

	now := s.tokens.Now()
	expiresAt := now.Add(s.tokens.RefreshTTL())
	if err := s.users.StartSession(ctx, user.ID, refreshToken, expiresAt, now); err != nil {
		return nil, err
	}
	user.RefreshToken = &refreshToken
	user.RefreshTokenExpiresAt = &expiresAt
	user.LastLoginAt = &now

	return s.pair(user, refreshToken)
}

// Refresh rotates refreshToken. The old value stops working the moment the swap commits,
// so replaying it, or racing another caller with it, fails. When caller is set the token
// must be caller's own; a token held by anyone else is rejected and left untouched.
func (s *AuthServiceImpl) Refresh(ctx context.Context, caller *models.User, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.Authentication(msgInvalidRefreshToken)
	}

	next, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "failed to issue refresh token", err)
	}

	ownerID := uuid.Nil
	if caller != nil {
		ownerID = caller.ID
	}

	now := s.tokens.Now()
	user, err := s.users.RotateRefreshToken(ctx, ownerID, refreshToken, next, now.Add(s.tokens.RefreshTTL()), now)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Authentication(msgInvalidRefreshToken)
	}

	return s.pair(user, next)
}

// Logout clears the session. Calling it without a session is not an error.
func (s *AuthServiceImpl) Logout(ctx context.Context, user *models.User) error {
	if err := s.users.ClearRefreshToken(ctx, user.ID); err != nil {
		return err
	}
	user.RefreshToken = nil
	user.RefreshTokenExpiresAt = nil
	return nil
}

func (s *AuthServiceImpl) pair(user *models.User, refreshToken string) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "failed to issue access token", err)
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user,
	}, nil
}
