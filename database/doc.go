// Package database owns the relational store behind the API.
//
// Open connects through GORM with retry and pool sizing, and routes query
// logs to the service logger without bound values. On Postgres the schema is
// moved by the versioned SQL files in package migration; SQLite, used for
// local runs and tests, is auto-migrated from the models.
//
//	db := database.NewComponent(cfg).
//	    WithModels(store.Models()...).
//	    WithMigrations(store.Migrations, store.MigrationsDir)
//
// FromDatabase turns driver and GORM errors into API errors.
package database
