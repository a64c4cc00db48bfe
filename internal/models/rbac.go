package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		r.ID = id
	}
	return nil
}

// DefaultRoles are seeded by the migration.
var DefaultRoles = []Role{
	{Name: RoleUser, Description: "Regular user role"},
	{Name: RoleAdmin, Description: "Administrator role"},
}

const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

type AuditLog struct {
	ID            uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action        string    `json:"action" gorm:"not null"`
	Resource      string    `json:"resource" gorm:"not null"`
	ResourceID    uuid.UUID `json:"resource_id" gorm:"type:uuid"`
	Decision      string    `json:"decision" gorm:"not null"`
	Reason        string    `json:"reason"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	RequestMethod string    `json:"request_method"`
	RequestPath   string    `json:"request_path"`
	Timestamp     time.Time `json:"timestamp" gorm:"index"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		a.ID = id
	}
	return nil
}
