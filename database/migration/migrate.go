// Package migration applies the versioned SQL files of a Postgres schema
// with golang-migrate. Files follow its VERSION_name.up.sql and
// VERSION_name.down.sql naming and are read from an fs.FS, normally an
// embed.FS.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// DriverFunc wraps an open pool in a golang-migrate database driver.
type DriverFunc func(*sql.DB) (migratedb.Driver, error)

// Postgres tracks applied versions in schema_migrations.
func Postgres(db *sql.DB) (migratedb.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{})
}

// Migrator moves one schema between versions. It borrows the pool and
// never closes it.
type Migrator struct {
	m *migrate.Migrate
}

// New reads migrations from dir inside fsys.
func New(db *sql.DB, fsys fs.FS, dir string, driver DriverFunc) (*Migrator, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migration source %s: %w", dir, err)
	}
	drv, err := driver(db)
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "database", drv)
	if err != nil {
		return nil, fmt.Errorf("migrator: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. Being current is not an error.
func (g *Migrator) Up() error {
	return ignoreNoChange(g.m.Up(), "up")
}

// Down reverts every applied migration.
func (g *Migrator) Down() error {
	return ignoreNoChange(g.m.Down(), "down")
}

// Version is the last applied version. ok is false on an empty schema.
func (g *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	return version, dirty, err == nil, err
}

func ignoreNoChange(err error, dir string) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return fmt.Errorf("migrate %s: %w", dir, err)
}
