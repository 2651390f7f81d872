// Package repomanager selects the SQL dialect of the identity store: it
// opens the database, applies the embedded goose migrations and vends
// repositories bound to a connection or transaction.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tuidosync/internal/dbx"
	"github.com/dmitrijs2005/tuidosync/internal/server/migrations"
	"github.com/dmitrijs2005/tuidosync/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type RepositoryManager interface {
	// Driver is the database/sql driver name to open connections with.
	Driver() string
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

// New returns the manager for a configured driver name.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverPostgres, "pgx":
		return NewPostgresRepositoryManager(), nil
	case DriverSQLite:
		return NewSQLiteRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to dsn with the manager's driver and verifies the connection.
func Open(ctx context.Context, m RepositoryManager, dsn string) (*sql.DB, error) {
	db, err := sql.Open(m.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", m.Driver(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", m.Driver(), err)
	}
	return db, nil
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}
