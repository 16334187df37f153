// Command todoapi serves the todo REST API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/kbukum/todoapi/api"
	"github.com/kbukum/todoapi/auth"
	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/auth/password"
	"github.com/kbukum/todoapi/bootstrap"
	"github.com/kbukum/todoapi/config"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/redis"
	"github.com/kbukum/todoapi/server"
	"github.com/kbukum/todoapi/server/endpoint"
	"github.com/kbukum/todoapi/store"
	"github.com/kbukum/todoapi/version"
)

func main() {
	configFile := pflag.String("config", "", "path to config.yml (searched for when empty)")
	envFile := pflag.String("env-file", "", "path to a .env file (searched for when empty)")
	showVersion := pflag.Bool("version", false, "print the build version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	if err := run(*configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "todoapi: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, envFile string) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
	); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	app.Logger.Info("Build", logger.Fields("build", version.Get().String()))
	if err := register(app); err != nil {
		return err
	}
	return app.Run(context.Background())
}

// register adds the components in start order: storage first, the HTTP
// server last so routes see started dependencies.
func register(app *bootstrap.App[*Config]) error {
	cfg := app.Cfg

	db := database.NewComponent(cfg.Database).
		WithModels(store.Models()...).
		WithMigrations(store.Migrations, store.MigrationsDir)

	var cache *redis.Component
	if cfg.Redis.Enabled {
		cache = redis.NewComponent(cfg.Redis)
	}

	provider := jwt.NewProvider(jwt.FromConfig(cfg.JWT, os.LookupEnv))
	tokens := jwt.NewComponent(provider, cfg.JWT)
	telemetry := observability.NewComponent(cfg.Observability, cfg.serviceInfo())

	srv := server.New(cfg.Server, app.Logger, server.WithQuietPaths(api.Prefix+"/health", api.Prefix+"/health/live"))
	routes := func(engine *gin.Engine) error {
		h, err := newHandler(cfg, db.DB(), cache, provider, app.Components.HealthAll)
		if err != nil {
			return err
		}
		return h.Mount(engine)
	}

	if err := app.RegisterComponent(db); err != nil {
		return err
	}
	if cache != nil {
		if err := app.RegisterComponent(cache); err != nil {
			return err
		}
	}
	if err := app.RegisterComponent(tokens); err != nil {
		return err
	}
	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv, routes)); err != nil {
		return err
	}
	app.OnReady(func(context.Context) error {
		app.Logger.Info("Serving", logger.Fields("addr", srv.Addr(), "prefix", api.Prefix))
		return nil
	})
	return nil
}

// newHandler builds the API on started components.
func newHandler(cfg *Config, db *database.DB, cache *redis.Component, provider *jwt.Provider, health endpoint.HealthChecker) (*api.Handler, error) {
	metrics, err := observability.DefaultMetrics()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	users := store.NewUserStore(db)
	deps := api.Deps{
		Users:     users,
		Todos:     store.NewTodoStore(db),
		Passwords: password.NewPool(password.NewHasher(cfg.Password), cfg.Password, password.WithMetrics(metrics)),
		Tokens:    provider,
		Metrics:   metrics,
		LoginTTL:  cfg.JWT.LoginTokenTTL,
		Info:      endpoint.ServiceInfo{Name: cfg.Name, Version: cfg.Version, Environment: cfg.Environment},
		DBProbe:   db.Now,
		Health:    health,
	}

	var lookup auth.Lookup[*store.User] = users
	if cache != nil {
		cached := store.NewCachedLookup(users, cache.Client(), cache.Config().PrincipalTTL)
		lookup = cached
		deps.Cache = cached
		logger.WithComponent("principal-cache").Info("Principal cache enabled", logger.Fields(
			"ttl", cache.Config().PrincipalTTL.String(),
		))
	}
	deps.Gate = auth.NewGate[*store.User](auth.ProviderVerifier(provider), lookup, auth.WithMetrics(metrics))

	return api.New(deps), nil
}
