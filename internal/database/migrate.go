package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/mealbrowser/internal/models"
)

// RunMigrations creates or updates the search history schema
func RunMigrations(db *gorm.DB) error {
	logrus.Infof("Running GORM auto-migration for %s", db.Dialector.Name())
	if err := db.AutoMigrate(&models.SearchLog{}); err != nil {
		return fmt.Errorf("failed to migrate search history: %w", err)
	}
	return nil
}
