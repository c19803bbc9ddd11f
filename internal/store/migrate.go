package store

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"backfill/internal/dsn"
)

//go:embed migrations/*.sql migrations/sqlserver/*.sql
var migrationsFS embed.FS

const (
	migrationsDir          = "migrations"
	sqlServerMigrationsDir = "migrations/sqlserver"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func gooseDialect(driver string) (string, error) {
	switch driver {
	case dsn.DriverSQLite:
		return "sqlite3", nil
	case dsn.DriverPostgres:
		return "postgres", nil
	case dsn.DriverSQLServer:
		return "mssql", nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driver)
	}
}

// migrationSet picks the embedded directory written for the store's dialect.
func (s *Store) migrationSet() string {
	if s.descriptor.Driver == dsn.DriverSQLServer {
		return sqlServerMigrationsDir
	}
	return migrationsDir
}

func (s *Store) withGoose(fn func() error) error {
	dialect, err := gooseDialect(s.descriptor.Driver)
	if err != nil {
		return err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	return fn()
}

// Migrate applies every pending embedded migration.
func (s *Store) Migrate(ctx context.Context) error {
	return s.withGoose(func() error {
		if err := goose.UpContext(ctx, s.db.DB, s.migrationSet()); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// MigrationStatus describes the schema version of the connected database.
type MigrationStatus struct {
	Current int64
	Latest  int64
	Pending []int64
}

// PendingMigrations compares the database version with the embedded set.
func (s *Store) PendingMigrations(ctx context.Context) (MigrationStatus, error) {
	var status MigrationStatus
	err := s.withGoose(func() error {
		current, err := goose.GetDBVersionContext(ctx, s.db.DB)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		migrations, err := goose.CollectMigrations(s.migrationSet(), 0, goose.MaxVersion)
		if err != nil {
			return fmt.Errorf("collect migrations: %w", err)
		}
		status.Current = current
		for _, m := range migrations {
			if m.Version > status.Latest {
				status.Latest = m.Version
			}
			if m.Version > current {
				status.Pending = append(status.Pending, m.Version)
			}
		}
		return nil
	})
	return status, err
}
