package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/resilience"
)

// DB is an open GORM handle plus the settings it was opened with.
type DB struct {
	gorm   *gorm.DB
	driver string
	log    *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open connects, retrying up to cfg.ConnectAttempts times, and sizes the pool.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.WithComponent("database")
	}

	policy := resilience.ConnectPolicy()
	policy.Attempts = cfg.ConnectAttempts
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Warn("Database not reachable yet", logger.Fields(
			"attempt", attempt,
			"wait", wait.String(),
			logger.FieldError, err.Error(),
		))
	}

	gdb, err := resilience.Retry(ctx, policy, func() (*gorm.DB, error) {
		return connect(ctx, cfg, log)
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s after %d attempts: %w", cfg.Driver, cfg.ConnectAttempts, err)
	}
	log.Info("Database connected", logger.Fields("driver", cfg.Driver, "max_open", cfg.Pool.MaxOpen))
	return &DB{gorm: gdb, driver: cfg.Driver, log: log}, nil
}

func connect(ctx context.Context, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(d, &gorm.Config{
		Logger:         newQueryLogger(log, cfg.SlowQuery, gormLevels[cfg.LogLevel]),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)
	return gdb, nil
}

// Driver is DriverPostgres or DriverSQLite.
func (d *DB) Driver() string { return d.driver }

// Gorm exposes the handle for migrations and tests.
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// WithContext returns a session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

// SQL returns the pool under the GORM handle.
func (d *DB) SQL() (*sql.DB, error) { return d.gorm.DB() }

// Ping checks that a connection can be taken from the pool.
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats reports the pool counters, zero when the pool is gone.
func (d *DB) Stats() sql.DBStats {
	sqlDB, err := d.SQL()
	if err != nil {
		return sql.DBStats{}
	}
	return sqlDB.Stats()
}

// Close releases the pool. Later calls return the first result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		sqlDB, err := d.SQL()
		if err != nil {
			d.closeErr = err
			return
		}
		d.log.Info("Closing database connection")
		d.closeErr = sqlDB.Close()
	})
	return d.closeErr
}

// sqliteNow renders the SQLite clock in a layout time.Parse accepts.
const (
	sqliteNow       = "SELECT strftime('%Y-%m-%dT%H:%M:%fZ', 'now')"
	sqliteNowLayout = "2006-01-02T15:04:05.000Z"
)

// Now asks the database for its clock. It proves a full query round trip,
// which a pool ping does not.
func (d *DB) Now(ctx context.Context) (time.Time, error) {
	q := d.WithContext(ctx)
	if d.driver != DriverSQLite {
		var now time.Time
		err := q.Raw("SELECT NOW()").Scan(&now).Error
		return now, err
	}
	var raw string
	if err := q.Raw(sqliteNow).Scan(&raw).Error; err != nil {
		return time.Time{}, err
	}
	return time.Parse(sqliteNowLayout, raw)
}

// AutoMigrate creates or alters the tables for models.
func (d *DB) AutoMigrate(models ...any) error {
	begin := time.Now()
	g := d.gorm.Session(&gorm.Session{Logger: schemaLogger(d.gorm.Logger)})
	for _, m := range models {
		if err := g.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate %T: %w", m, err)
		}
	}
	d.log.Info("Auto-migration done", logger.Fields("models", len(models), logger.FieldDuration, time.Since(begin).Milliseconds()))
	return nil
}

// Transaction runs fn in a transaction that commits when fn returns nil.
func (d *DB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.WithContext(ctx).Transaction(fn)
}
