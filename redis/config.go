package redis

import (
	"errors"
	"fmt"
	"time"
)

// Config is the redis section. Redis only backs the principal cache, so it
// stays off unless enabled.
type Config struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	PoolSize int    `yaml:"pool_size" mapstructure:"pool_size"`

	// Timeout applies to dialing, reads and writes alike.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// KeyPrefix namespaces every key this service writes.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
	// PrincipalTTL is how long a resolved user stays cached.
	PrincipalTTL time.Duration `yaml:"principal_ttl" mapstructure:"principal_ttl"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "todoapi"
	}
	if c.PrincipalTTL == 0 {
		c.PrincipalTTL = 30 * time.Second
	}
}

// Validate checks an enabled section. A disabled one is always valid.
func (c *Config) Validate() error {
	switch {
	case !c.Enabled:
		return nil
	case c.Addr == "":
		return errors.New("addr is required")
	case c.DB < 0:
		return fmt.Errorf("db must not be negative (got %d)", c.DB)
	case c.PrincipalTTL < time.Second:
		return fmt.Errorf("principal_ttl must be at least 1s (got %s)", c.PrincipalTTL)
	}
	return nil
}
