package annotations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"trendgraph/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate moves the annotation schema of db to targetVersion.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to that version.
func Migrate(db *sql.DB, driverName string, targetVersion int) error {
	log := logger.Component("migrate")

	var driver database.Driver
	var err error
	switch driverName {
	case DriverSQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case DriverMySQL:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case DriverPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported SQL driver: %s", driverName)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migrate driver: %w", driverName, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "trendgraph", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debug("Annotation schema is up to date", logger.Fields{"version": current})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate annotation schema: %w", err)
	}

	version, _, _ := m.Version()
	log.Info("Annotation schema migrated", logger.Fields{"from": current, "to": version})
	return nil
}
