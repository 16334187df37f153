// Package store persists users and todos with GORM.
//
// UserStore and TodoStore return *errors.AppError values built by
// database.FromDatabase, so handlers can render them directly. UserStore
// also implements the authentication gate's principal lookup; CachedLookup
// puts a short-lived Redis cache in front of it.
//
// Postgres deployments run the versioned SQL files in Migrations; SQLite
// (tests, local runs) auto-migrates Models().
package store

import "embed"

// Migrations holds the versioned Postgres schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the files.
const MigrationsDir = "migrations"
