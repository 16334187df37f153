package redis

import (
	"context"
	"errors"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/todoapi/logger"
)

// ErrDisabled is returned by New for a disabled section.
var ErrDisabled = errors.New("redis is disabled")

// Client is a go-redis client that knows its key namespace.
type Client struct {
	*goredis.Client
	prefix string
	log    *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// New builds a client for cfg. It does not dial; call Ping to check the
// server.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.WithComponent("redis")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	return &Client{Client: rdb, prefix: cfg.KeyPrefix, log: log}, nil
}

// Key joins parts under the client's prefix with colons.
func (c *Client) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Check pings the server.
func (c *Client) Check(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the pool once; later calls return the first result.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.log.Info("Closing redis connection")
		c.closeErr = c.Client.Close()
	})
	return c.closeErr
}
