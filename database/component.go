package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/database/migration"
	"github.com/kbukum/todoapi/logger"
)

// Component opens the database on Start and brings the schema up to date.
type Component struct {
	cfg    Config
	log    *logger.Logger
	db     *DB
	models []any

	migrations fs.FS
	migDir     string
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent returns an unstarted database component.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.WithComponent("database")}
}

// WithModels adds the models GORM auto-migrates.
func (c *Component) WithModels(models ...any) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithMigrations sets the versioned SQL files used on Postgres.
func (c *Component) WithMigrations(fsys fs.FS, dir string) *Component {
	c.migrations, c.migDir = fsys, dir
	return c
}

// DB is nil until Start succeeds.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	if err := c.migrate(db); err != nil {
		_ = db.Close()
		return err
	}
	c.db = db
	return nil
}

// versioned reports whether the SQL files, not GORM, own the schema.
func (c *Component) versioned() bool {
	return c.cfg.Driver == DriverPostgres && !c.cfg.AutoMigrate && c.migrations != nil
}

func (c *Component) migrate(db *DB) error {
	if !c.versioned() {
		if len(c.models) == 0 {
			return nil
		}
		return db.AutoMigrate(c.models...)
	}

	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, c.migrations, c.migDir, migration.Postgres)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		return err
	}
	version, dirty, _, err := m.Version()
	if err != nil {
		return err
	}
	c.log.Info("Schema migrated", logger.Fields("version", version, "dirty", dirty))
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the pool and reports how many connections are busy.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.db == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not connected"
	case c.db.Ping(ctx) != nil:
		h.Status, h.Message = component.StatusUnhealthy, "ping failed"
	default:
		s := c.db.Stats()
		h.Message = fmt.Sprintf("%d/%d connections in use", s.InUse, s.OpenConnections)
	}
	return h
}

func (c *Component) Describe() component.Description {
	schema := "auto-migrate"
	if c.versioned() {
		schema = "versioned"
	}
	return component.Description{
		Name:    "Database",
		Type:    "database",
		Details: fmt.Sprintf("%s pool=%d/%d schema=%s", c.cfg.Driver, c.cfg.Pool.MaxOpen, c.cfg.Pool.MaxIdle, schema),
	}
}
