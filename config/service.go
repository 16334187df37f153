package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/todoapi/logger"
)

// Deployment environments.
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Environments lists the values Validate accepts.
var Environments = []string{Development, Staging, Production}

// ServiceConfig is the part of every service config that bootstrap reads.
// Embed it with `mapstructure:",squash"`.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig lets bootstrap reach the embedded section.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults runs in development unless told otherwise. Development
// turns debug on. The logger takes the service name when it has none.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Development
	}
	c.Debug = c.Debug || c.Environment == Development
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("config.name is required")
	case !slices.Contains(Environments, c.Environment):
		return fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

func (c *ServiceConfig) IsProduction() bool { return c.Environment == Production }
