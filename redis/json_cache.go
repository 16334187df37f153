package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// JSONCache stores values of one type as JSON under a common key namespace,
// each with the same TTL.
type JSONCache[T any] struct {
	client *Client
	space  string
	ttl    time.Duration
}

// NewJSONCache keeps values under client.Key(space, id) for ttl. A zero ttl
// never expires.
func NewJSONCache[T any](client *Client, space string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{client: client, space: space, ttl: ttl}
}

func (c *JSONCache[T]) key(id string) string { return c.client.Key(c.space, id) }

// Get returns the value for id. ok is false on a miss.
func (c *JSONCache[T]) Get(ctx context.Context, id string) (v T, ok bool, err error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return v, false, nil
	case err != nil:
		return v, false, fmt.Errorf("cache get %s: %w", c.key(id), err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("cache decode %s: %w", c.key(id), err)
	}
	return v, true, nil
}

// Put stores v for id, replacing what was there.
func (c *JSONCache[T]) Put(ctx context.Context, id string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.key(id), err)
	}
	if err := c.client.Set(ctx, c.key(id), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", c.key(id), err)
	}
	return nil
}

// Forget removes the entries for ids. Missing entries are not an error.
func (c *JSONCache[T]) Forget(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache forget: %w", err)
	}
	return nil
}
