package database_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/database/testutil"
	apperrors "github.com/kbukum/todoapi/errors"
)

type widget struct {
	database.Model
	Name string `gorm:"uniqueIndex;not null"`
}

func TestConfigDefaults(t *testing.T) {
	var cfg database.Config
	cfg.ApplyDefaults()
	if cfg.Driver != database.DriverPostgres || cfg.URL != database.DefaultURL {
		t.Errorf("driver/url = %q %q", cfg.Driver, cfg.URL)
	}
	if cfg.Pool.MaxOpen != 15 || cfg.Pool.MaxIdle != 5 || cfg.Pool.MaxLifetime != time.Hour {
		t.Errorf("pool = %+v", cfg.Pool)
	}
	if cfg.SlowQuery != 200*time.Millisecond || cfg.ConnectAttempts != 5 {
		t.Errorf("slow_query = %v, connect_attempts = %d", cfg.SlowQuery, cfg.ConnectAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*database.Config)
	}{
		{"unknown driver", func(c *database.Config) { c.Driver = "mysql" }},
		{"sqlite without url", func(c *database.Config) { c.Driver = database.DriverSQLite; c.URL = "" }},
		{"idle above open", func(c *database.Config) { c.Pool.MaxIdle = 50 }},
		{"negative lifetime", func(c *database.Config) { c.Pool.MaxLifetime = -time.Second }},
		{"unknown log level", func(c *database.Config) { c.LogLevel = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg database.Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestComponentLifecycle(t *testing.T) {
	ctx := context.Background()
	c := database.NewComponent(testutil.Config()).WithModels(&widget{})

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %s (%s)", h.Status, h.Message)
	}
	if !c.DB().Gorm().Migrator().HasTable(&widget{}) {
		t.Error("widget table was not migrated")
	}
	if h := c.Health(ctx); h.Message == "" {
		t.Error("expected pool usage in health message")
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := c.DB().Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestDuplicateIsTranslated(t *testing.T) {
	db := testutil.Open(t, &widget{})
	ctx := context.Background()

	if err := db.WithContext(ctx).Create(&widget{Name: "a"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err := db.WithContext(ctx).Create(&widget{Name: "a"}).Error
	if !database.IsDuplicateError(err) {
		t.Fatalf("err = %v, want duplicate", err)
	}
	if appErr := database.FromDatabase(err, "Widget", 0); appErr.HTTPStatus != http.StatusConflict {
		t.Errorf("status = %d, want 409", appErr.HTTPStatus)
	}
}

func TestNowRoundTrip(t *testing.T) {
	db := testutil.Open(t)
	now, err := db.Now(context.Background())
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	if d := time.Since(now); d < -time.Minute || d > time.Minute {
		t.Errorf("database clock %v is far from local clock", now)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	db := testutil.Open(t, &widget{})
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "tx"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var count int64
	db.WithContext(ctx).Model(&widget{}).Count(&count)
	if count != 0 {
		t.Errorf("count = %d after rollback", count)
	}
}

func TestFromDatabase(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"pq unique", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), http.StatusConflict, apperrors.ErrCodeConflict},
		{"connection", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, apperrors.ErrCodeServiceUnavailable},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), http.StatusServiceUnavailable, apperrors.ErrCodeServiceUnavailable},
		{"other", errors.New("syntax error"), http.StatusInternalServerError, apperrors.ErrCodeDatabaseError},
		{"app error passes through", apperrors.Forbidden(""), http.StatusForbidden, apperrors.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := database.FromDatabase(tt.err, "Widget", 3)
			if got.HTTPStatus != tt.status || got.Code != tt.code {
				t.Errorf("got %d %s, want %d %s", got.HTTPStatus, got.Code, tt.status, tt.code)
			}
		})
	}
	if database.FromDatabase(nil, "Widget", 1) != nil {
		t.Error("nil error mapped to non-nil")
	}
	if msg := database.FromDatabase(gorm.ErrRecordNotFound, "Widget", 3).Message; msg != "Widget with ID 3 not found" {
		t.Errorf("message = %q", msg)
	}
}

func TestOpenFailsFast(t *testing.T) {
	cfg := database.Config{Driver: database.DriverSQLite, URL: "file:/nonexistent/dir/x.db?mode=ro", ConnectAttempts: 1}
	if _, err := database.Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error opening an unreachable database")
	}
}
