package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/minddump/auditd/internal/models"
)

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.AuditLog{},
		&models.CacheEntry{},
	); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}
