package jwt

import (
	"context"
	"fmt"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/logger"
)

// Component forces the Provider during startup so that an unreadable or
// undecryptable key stops the process before it serves traffic.
type Component struct {
	provider *Provider
	cfg      Config
	log      *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the token component.
func NewComponent(provider *Provider, cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{provider: provider, cfg: cfg, log: logger.WithComponent("tokens")}
}

// Name implements component.Component.
func (c *Component) Name() string { return "tokens" }

// Start implements component.Component.
func (c *Component) Start(_ context.Context) error {
	m, err := c.provider.Manager()
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}
	c.log.Info("Signing keys loaded", logger.Fields(
		"public_key", c.cfg.PublicKeyPath,
		"ttl", m.TTL().String(),
	))
	return nil
}

// Stop implements component.Component.
func (c *Component) Stop(_ context.Context) error { return nil }

// Health implements component.Component.
func (c *Component) Health(_ context.Context) component.Health {
	if _, err := c.provider.Manager(); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Token Manager",
		Type:    "auth",
		Details: fmt.Sprintf("RS256 ttl=%s login_ttl=%s", c.cfg.AccessTokenTTL, c.cfg.LoginTokenTTL),
	}
}
