package main

import (
	"github.com/sirupsen/logrus"

	"github.com/pageza/mealbrowser/config"
	"github.com/pageza/mealbrowser/internal/database"
	"github.com/pageza/mealbrowser/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Debug)

	db, err := database.New(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.Fatalf("failed to apply migrations: %v", err)
	}
	logrus.Info("All migrations applied successfully.")
}
