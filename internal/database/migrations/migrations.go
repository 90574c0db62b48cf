// Package migrations owns the Postgres schema of the snapshot store. The SQL
// files are embedded so the binary needs nothing on disk.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"park-ops/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/uptrace/bun"
)

//go:embed sql/*.sql
var files embed.FS

// Runner applies the embedded migrations to one database.
type Runner struct {
	bunDB    *bun.DB
	logger   *logger.Logger
	migrator *migrate.Migrate
}

func NewRunner(bunDB *bun.DB, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{bunDB: bunDB, logger: log}
}

// open builds the migrator on first use.
func (r *Runner) open() (*migrate.Migrate, error) {
	if r.migrator != nil {
		return r.migrator, nil
	}
	driver, err := postgres.WithInstance(r.bunDB.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres migration driver: %w", err)
	}
	source, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	r.migrator = m
	return m, nil
}

// Status reports the applied version. A fresh database is version 0.
func (r *Runner) Status() (version uint, dirty bool, err error) {
	m, err := r.open()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// RunMigrations is the startup path: clear a dirty flag left by a crashed
// run, then apply everything pending.
func (r *Runner) RunMigrations() error {
	version, dirty, err := r.Status()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		r.logger.Warn("MIGRATE", fmt.Sprintf("Snapshot schema dirty at version %d, forcing", version))
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("failed to fix dirty migration: %w", err)
		}
	}

	if err := r.MigrateUp(); err != nil {
		return err
	}
	if version, _, err = r.Status(); err == nil {
		r.logger.Info("MIGRATE", fmt.Sprintf("Snapshot schema at version %d", version))
	}
	return err
}

func (r *Runner) MigrateUp() error {
	return r.apply("up", func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown drops the snapshot table and everything in it.
func (r *Runner) MigrateDown() error {
	return r.apply("down", func(m *migrate.Migrate) error { return m.Down() })
}

func (r *Runner) MigrateTo(version uint) error {
	return r.apply(fmt.Sprintf("to version %d", version), func(m *migrate.Migrate) error { return m.Migrate(version) })
}

func (r *Runner) apply(name string, fn func(*migrate.Migrate) error) error {
	m, err := r.open()
	if err != nil {
		return err
	}
	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration %s failed: %w", name, err)
	}
	return nil
}

// Close releases the migrator, and with it the database handle.
func (r *Runner) Close() error {
	if r.migrator == nil {
		return nil
	}
	sourceErr, databaseErr := r.migrator.Close()
	return errors.Join(sourceErr, databaseErr)
}
