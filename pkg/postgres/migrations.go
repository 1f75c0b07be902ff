package postgres

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const filePrefix = "file://"

func (db *DB) newMigrator(migrationsPath string) (*migrate.Migrate, error) {
	m, err := migrate.New(filePrefix+migrationsPath, db.DSN)
	if err != nil {
		db.log.ErrorF("postgres: create migrator for %s: %v", maskDSN(db.DSN), err)
		return nil, err
	}
	return m, nil
}

// MigrateUp applies all pending up migrations.
func (db *DB) MigrateUp(migrationsPath string) error {
	m, err := db.newMigrator(migrationsPath)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.log.Info("postgres: no new migrations to apply")
			return nil
		}
		db.log.ErrorF("postgres: up migrations failed: %v", err)
		return err
	}
	db.log.Info("postgres: up migrations applied")
	return nil
}

// MigrateDown rolls back all migrations.
func (db *DB) MigrateDown(migrationsPath string) error {
	m, err := db.newMigrator(migrationsPath)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.log.Info("postgres: no migrations to roll back")
			return nil
		}
		db.log.ErrorF("postgres: down migrations failed: %v", err)
		return err
	}
	db.log.Info("postgres: down migrations applied")
	return nil
}

// MigrateSteps applies n up (or -n down) migration steps.
func (db *DB) MigrateSteps(migrationsPath string, steps int) error {
	m, err := db.newMigrator(migrationsPath)
	if err != nil {
		return err
	}
	if err := m.Steps(steps); err != nil {
		db.log.ErrorF("postgres: migration steps failed: %v", err)
		return err
	}
	db.log.InfoF("postgres: %d migration step(s) applied", steps)
	return nil
}

// MigrationVersion returns the current migration version and dirty flag.
func (db *DB) MigrationVersion(migrationsPath string) (uint, bool, error) {
	m, err := db.newMigrator(migrationsPath)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if err != nil {
		db.log.ErrorF("postgres: read migration version: %v", err)
		return 0, false, err
	}
	return version, dirty, nil
}
