package password

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config is the password section.
type Config struct {
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	// MaxConcurrent caps hashes in flight; zero means GOMAXPROCS.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait is how long a request queues for a hashing slot.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// ApplyDefaults uses DefaultCost and a five second queue.
func (c *Config) ApplyDefaults() {
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultCost
	}
	if c.MaxWait == 0 {
		c.MaxWait = 5 * time.Second
	}
}

// Validate keeps the cost inside what bcrypt accepts.
func (c *Config) Validate() error {
	switch {
	case c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost:
		return fmt.Errorf("bcrypt_cost must be between %d and %d (got %d)", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	case c.MaxConcurrent < 0:
		return fmt.Errorf("max_concurrent must not be negative (got %d)", c.MaxConcurrent)
	case c.MaxWait < 0:
		return fmt.Errorf("max_wait must not be negative (got %s)", c.MaxWait)
	}
	return nil
}

// NewHasher returns the bcrypt hasher for cfg.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	return NewBcryptHasher(WithCost(cfg.BcryptCost))
}
