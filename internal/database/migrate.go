package database

import (
	"fmt"

	"todo-app/backend/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema, including the unique indexes that back
// email, username, refresh token and per-owner label name uniqueness, and seeds the
// default roles.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Task{},
		&models.Label{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, role := range models.DefaultRoles {
		role := role
		if err := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
	}

	return nil
}
