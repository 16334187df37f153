package store

import (
	"context"
	"strconv"
	"time"

	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/redis"
)

// CachedPrincipal is the cached form of a user. It never carries the
// password hash.
type CachedPrincipal struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func cachedFrom(u *User) CachedPrincipal {
	return CachedPrincipal{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c *CachedPrincipal) user() *User {
	u := &User{
		Email:    c.Email,
		Username: c.Username,
		FullName: c.FullName,
		IsActive: c.IsActive,
	}
	u.ID = c.ID
	u.CreatedAt = c.CreatedAt
	u.UpdatedAt = c.UpdatedAt
	return u
}

// PrincipalLookup is the store side of the cache.
type PrincipalLookup interface {
	LookupPrincipal(ctx context.Context, subject string) (*User, bool, error)
}

// CachedLookup is a read-through Redis cache in front of a PrincipalLookup.
// Cache failures are logged and the store is asked instead; store failures
// propagate unchanged. Missing users are not cached.
type CachedLookup struct {
	next  PrincipalLookup
	cache *redis.JSONCache[CachedPrincipal]
	log   *logger.Logger
}

// NewCachedLookup wraps next with a cache on client. Entries live under
// client.Key("principal", id) for ttl.
func NewCachedLookup(next PrincipalLookup, client *redis.Client, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:  next,
		cache: redis.NewJSONCache[CachedPrincipal](client, "principal", ttl),
		log:   logger.WithComponent("principal-cache"),
	}
}

// LookupPrincipal implements auth.Lookup.
func (c *CachedLookup) LookupPrincipal(ctx context.Context, subject string) (*User, bool, error) {
	cached, hit, err := c.cache.Get(ctx, subject)
	if err != nil {
		c.log.Warn("principal cache read failed", logger.Fields(
			logger.FieldUserID, subject,
			logger.FieldError, err.Error(),
		))
	} else if hit {
		return cached.user(), true, nil
	}

	u, ok, err := c.next.LookupPrincipal(ctx, subject)
	if err != nil || !ok {
		return u, ok, err
	}
	fresh := cachedFrom(u)
	if err := c.cache.Put(ctx, subject, fresh); err != nil {
		c.log.Warn("principal cache write failed", logger.Fields(
			logger.FieldUserID, subject,
			logger.FieldError, err.Error(),
		))
	}
	// Hit or miss, the principal has the same shape and never a hash.
	return fresh.user(), true, nil
}

// Invalidate drops the cached entry for user id. Callers invoke it after
// changing or deleting a user.
func (c *CachedLookup) Invalidate(ctx context.Context, id uint) {
	if c == nil {
		return
	}
	subject := strconv.FormatUint(uint64(id), 10)
	if err := c.cache.Forget(ctx, subject); err != nil {
		c.log.Warn("principal cache invalidate failed", logger.Fields(
			logger.FieldUserID, subject,
			logger.FieldError, err.Error(),
		))
	}
}
