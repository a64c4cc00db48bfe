package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`

	FirstName   string `json:"first_name" gorm:"size:50"`
	LastName    string `json:"last_name" gorm:"size:50"`
	PhoneNumber string `json:"phone_number" gorm:"size:32"`
	IsActive    bool   `json:"is_active" gorm:"not null;default:true"`
	IsVerified  bool   `json:"is_verified" gorm:"not null;default:false"`

	// A NULL refresh token means the user has no session.
	RefreshToken          *string    `json:"-" gorm:"uniqueIndex"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	LastLoginAt           *time.Time `json:"last_login"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Roles []Role `json:"-" gorm:"many2many:user_roles;"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		u.ID = id
	}
	return nil
}

func (u *User) HasRole(roleName string) bool {
	for _, role := range u.Roles {
		if role.Name == roleName {
			return true
		}
	}
	return false
}

func (u *User) GetRoleNames() []string {
	roleNames := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roleNames = append(roleNames, role.Name)
	}
	return roleNames
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// HasActiveSession reports whether a refresh token is stored and unexpired at now.
func (u *User) HasActiveSession(now time.Time) bool {
	return u.RefreshToken != nil && u.RefreshTokenExpiresAt != nil && u.RefreshTokenExpiresAt.After(now)
}
