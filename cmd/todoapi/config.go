package main

import (
	"fmt"

	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/auth/password"
	"github.com/kbukum/todoapi/config"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/redis"
	"github.com/kbukum/todoapi/server"
	"github.com/kbukum/todoapi/version"
)

const serviceName = "todoapi"

// Config is the todoapi service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	JWT           jwt.Config           `yaml:"jwt" mapstructure:"jwt"`
	Password      password.Config      `yaml:"password" mapstructure:"password"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"server", &c.Server},
		{"database", &c.Database},
		{"redis", &c.Redis},
		{"jwt", &c.JWT},
		{"password", &c.Password},
		{"observability", &c.Observability},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}
	// Production schema changes go through the versioned migrations only.
	if c.IsProduction() && c.Database.AutoMigrate {
		return fmt.Errorf("config.database: auto_migrate is not allowed in production")
	}
	return nil
}

func (c *Config) serviceInfo() observability.Service {
	return observability.Service{Name: c.Name, Version: c.Version, Environment: c.Environment}
}
