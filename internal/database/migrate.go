package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	"github.com/thornlink/thorn/backend/internal/models"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const rollbackSuffix = "_rollback.sql"

// Migrations lists the forward migration names in apply order
func Migrations() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, rollbackSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations brings the schema up to date. SQLite is only used for local
// runs and tests, so it gets gorm's auto-migration instead of the SQL files.
func RunMigrations(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		log.Printf("Using GORM auto-migration for SQLite")
		return db.AutoMigrate(&models.Profile{})
	}

	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	names, err := Migrations()
	if err != nil {
		return err
	}

	for _, name := range names {
		var count int64
		if err := db.Table("migrations").Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Printf("Skipping migration %s (already applied)", name)
			continue
		}

		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			if err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", name).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Printf("Applied migration %s", name)
	}

	return nil
}

// RollbackLast reverts the most recently applied migration and returns its
// name, or "" when nothing has been applied.
func RollbackLast(db *gorm.DB) (string, error) {
	if db.Dialector.Name() == "sqlite" {
		return "", fmt.Errorf("rollback is not supported for sqlite")
	}
	if err := ensureMigrationsTable(db); err != nil {
		return "", err
	}

	var name string
	res := db.Table("migrations").Select("name").Order("id DESC").Limit(1).Scan(&name)
	if res.Error != nil {
		return "", fmt.Errorf("failed to find last migration: %w", res.Error)
	}
	if name == "" {
		return "", nil
	}

	rollback := strings.TrimSuffix(name, ".sql") + rollbackSuffix
	content, err := migrationFiles.ReadFile("migrations/" + rollback)
	if err != nil {
		return "", fmt.Errorf("no rollback for migration %s: %w", name, err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to roll back %s: %w", name, err)
		}
		return tx.Exec("DELETE FROM migrations WHERE name = ?", name).Error
	})
	if err != nil {
		return "", err
	}

	log.Printf("Rolled back migration %s", name)
	return name, nil
}

func ensureMigrationsTable(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}
