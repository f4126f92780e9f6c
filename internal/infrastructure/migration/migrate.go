// Package migration runs the embedded goose migrations that install the
// access schema: grant tables, the authorization SQL functions and the
// row-level-security policies the RPC oracle depends on.
package migration

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed scripts/*.sql
var scripts embed.FS

const scriptsDir = "scripts"

func setup(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	goose.SetBaseFS(scripts)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return sqlDB, nil
}

// Up applies all pending migrations.
func Up(db *gorm.DB) error {
	sqlDB, err := setup(db)
	if err != nil {
		return err
	}
	if err := goose.Up(sqlDB, scriptsDir); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func Down(db *gorm.DB) error {
	sqlDB, err := setup(db)
	if err != nil {
		return err
	}
	if err := goose.Down(sqlDB, scriptsDir); err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Status prints the migration status.
func Status(db *gorm.DB) error {
	sqlDB, err := setup(db)
	if err != nil {
		return err
	}
	if err := goose.Status(sqlDB, scriptsDir); err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	return nil
}

// Version returns the current migration version.
func Version(db *gorm.DB) (int64, error) {
	sqlDB, err := setup(db)
	if err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, nil
}
