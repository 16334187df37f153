package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/todoapi/component"
)

type session struct {
	UserID uint     `json:"user_id"`
	Scopes []string `json:"scopes,omitempty"`
}

func newTestClient(t *testing.T, prefix string) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := New(Config{Enabled: true, Addr: mini.Addr(), KeyPrefix: prefix}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{"todoapi", []string{"principal", "42"}, "todoapi:principal:42"},
		{"", []string{"principal", "42"}, "principal:42"},
	}
	for _, tc := range tests {
		c := &Client{prefix: tc.prefix}
		if got := c.Key(tc.parts...); got != tc.want {
			t.Errorf("Key(%q, %v) = %q, want %q", tc.prefix, tc.parts, got, tc.want)
		}
	}
}

func TestNewDisabled(t *testing.T) {
	if _, err := New(Config{}, nil); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestJSONCacheRoundTrip(t *testing.T) {
	client, mini := newTestClient(t, "todoapi")
	cache := NewJSONCache[session](client, "session", 0)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "7"); ok || err != nil {
		t.Fatalf("Get on empty cache = %v, %v", ok, err)
	}
	if err := cache.Put(ctx, "7", session{UserID: 7, Scopes: []string{"todos"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !mini.Exists("todoapi:session:7") {
		t.Fatalf("expected namespaced key, have %v", mini.Keys())
	}
	got, ok, err := cache.Get(ctx, "7")
	if err != nil || !ok || got.UserID != 7 || len(got.Scopes) != 1 {
		t.Fatalf("Get = %+v, %v, %v", got, ok, err)
	}

	if err := cache.Put(ctx, "7", session{UserID: 8}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _, _ := cache.Get(ctx, "7"); got.UserID != 8 {
		t.Fatalf("after overwrite = %+v", got)
	}

	if err := cache.Forget(ctx, "7", "missing"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "7"); ok {
		t.Fatal("entry survived Forget")
	}
}

func TestJSONCacheExpires(t *testing.T) {
	client, mini := newTestClient(t, "todoapi")
	cache := NewJSONCache[session](client, "session", 2*time.Second)
	ctx := context.Background()

	if err := cache.Put(ctx, "1", session{UserID: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := mini.TTL("todoapi:session:1"); ttl != 2*time.Second {
		t.Fatalf("TTL = %v", ttl)
	}
	mini.FastForward(3 * time.Second)
	if _, ok, err := cache.Get(ctx, "1"); ok || err != nil {
		t.Fatalf("Get after expiry = %v, %v", ok, err)
	}
}

func TestJSONCacheBadPayload(t *testing.T) {
	client, mini := newTestClient(t, "")
	cache := NewJSONCache[session](client, "session", 0)
	if err := mini.Set(client.Key("session", "1"), "not json"); err != nil {
		t.Fatal(err)
	}
	_, ok, err := cache.Get(context.Background(), "1")
	if err == nil || ok || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("Get = %v, %v; want decode error", ok, err)
	}
}

func TestComponentLifecycle(t *testing.T) {
	mini := miniredis.RunT(t)
	c := NewComponent(Config{Enabled: true, Addr: mini.Addr()})
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Fatalf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Fatalf("health = %s (%s)", h.Status, h.Message)
	}

	mini.Close()
	if h := c.Health(ctx); h.Status != component.StatusDegraded {
		t.Fatalf("health after server loss = %s", h.Status)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestComponentDisabledFailsToStart(t *testing.T) {
	if err := NewComponent(Config{}).Start(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()
	if cfg.PrincipalTTL != 30*time.Second || cfg.KeyPrefix != "todoapi" || cfg.Timeout != 3*time.Second {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cfg.PrincipalTTL = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sub-second principal_ttl")
	}
	if err := (&Config{PrincipalTTL: time.Millisecond}).Validate(); err != nil {
		t.Fatalf("disabled section should validate: %v", err)
	}
}
