package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/resilience"
)

// Component connects to redis on Start. Losing the server later degrades
// the service rather than failing it, because lookups fall back to the
// database.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent returns an unstarted redis component.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.WithComponent("redis")}
}

// Client is nil until Start succeeds.
func (c *Component) Client() *Client { return c.client }

// Config returns the section with defaults applied.
func (c *Component) Config() Config { return c.cfg }

func (c *Component) Name() string { return "redis" }

func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return err
	}
	policy := resilience.ConnectPolicy()
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Warn("Redis not reachable yet", logger.Fields("attempt", attempt, "wait", wait.String(), logger.FieldError, err.Error()))
	}
	if err := resilience.RetryFunc(ctx, policy, func() error { return client.Check(ctx) }); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping %s: %w", c.cfg.Addr, err)
	}
	c.client = client
	c.log.Info("Redis connected", logger.Fields("addr", c.cfg.Addr, "db", c.cfg.DB))
	return nil
}

func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.client == nil {
		h.Status, h.Message = component.StatusUnhealthy, "not connected"
		return h
	}
	begin := time.Now()
	if err := c.client.Check(ctx); err != nil {
		h.Status, h.Message = component.StatusDegraded, "ping failed: "+err.Error()
		return h
	}
	h.Message = fmt.Sprintf("ping %dms", time.Since(begin).Milliseconds())
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Redis",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d prefix=%s principal_ttl=%s", c.cfg.Addr, c.cfg.DB, c.cfg.KeyPrefix, c.cfg.PrincipalTTL),
	}
}
