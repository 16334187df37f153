// Package testutil opens throwaway SQLite databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/todoapi/database"
)

// URL names a fresh in-memory SQLite database with foreign keys on, so
// parallel tests never share state.
func URL() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
}

// Config is a quiet single-attempt SQLite config on a fresh URL.
func Config() database.Config {
	return database.Config{
		Driver:          database.DriverSQLite,
		URL:             URL(),
		Pool:            database.Pool{MaxOpen: 4, MaxIdle: 4},
		ConnectAttempts: 1,
		LogLevel:        "silent",
	}
}

// Open starts a database with models migrated and stops it with the test.
func Open(t testing.TB, models ...any) *database.DB {
	t.Helper()
	c := database.NewComponent(Config()).WithModels(models...)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start test database: %v", err)
	}
	t.Cleanup(func() { _ = c.Stop(context.Background()) })
	return c.DB()
}
