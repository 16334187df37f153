package jwt

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/todoapi/auth/keys"
	"github.com/kbukum/todoapi/component"
)

var (
	pairsOnce sync.Once
	pairA     *keys.KeyPair
	pairB     *keys.KeyPair
	pairsErr  error
)

func testPairs(t *testing.T) (*keys.KeyPair, *keys.KeyPair) {
	t.Helper()
	pairsOnce.Do(func() {
		if pairA, pairsErr = keys.GenerateKeyPair(keys.DefaultBits); pairsErr != nil {
			return
		}
		pairB, pairsErr = keys.GenerateKeyPair(keys.DefaultBits)
	})
	if pairsErr != nil {
		t.Fatalf("GenerateKeyPair: %v", pairsErr)
	}
	return pairA, pairB
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	a, _ := testPairs(t)
	m, err := NewManager(a, opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := newManager(t)
	token, issued, err := m.Issue("42", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not a compact JWS", token)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "42" {
		t.Errorf("sub = %q, want 42", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt, issued.ExpiresAt)
	}

	want := time.Now().Add(DefaultAccessTokenTTL)
	if diff := claims.ExpiresAt.Sub(want); diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("exp %v is not within 5s of now+15m", claims.ExpiresAt)
	}
}

func TestIssueCustomTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newManager(t, WithClock(clock.Now), WithTTL(time.Minute))

	_, claims, err := m.Issue("7", 24*time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 24*time.Hour {
		t.Errorf("lifetime = %v, want 24h", got)
	}
	_, claims, _ = m.Issue("7", -time.Second)
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != time.Minute {
		t.Errorf("default lifetime = %v, want 1m", got)
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	if _, _, err := newManager(t).Issue("", 0); err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestVerifyExpired(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newManager(t, WithClock(clock.Now))

	token, _, err := m.Issue("42", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clock.Advance(59 * time.Second)
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("Verify before exp: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := m.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify at exp: err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	a, b := testPairs(t)
	m := newManager(t)
	foreign, _ := NewManager(b)

	valid, _, _ := m.Issue("42", 0)
	foreignToken, _, _ := foreign.Issue("42", 0)

	hmacToken, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	noExp, _ := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.RegisteredClaims{
		Subject: "42",
	}).SignedString(a.Private)

	noSub, _ := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(a.Private)

	unsigned, _ := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"foreign key pair", foreignToken},
		{"truncated", valid[:len(valid)-10]},
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"hmac alg", hmacToken},
		{"alg none", unsigned},
		{"missing exp", noExp},
		{"missing sub", noSub},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("err = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestVerifyIssuer(t *testing.T) {
	a, _ := testPairs(t)
	withIss, _ := NewManager(a, WithIssuer("todoapi"))
	other, _ := NewManager(a, WithIssuer("someone-else"))

	token, _, _ := other.Issue("42", 0)
	if _, err := withIss.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}

	token, _, _ = withIss.Issue("42", 0)
	claims, err := withIss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Issuer != "todoapi" {
		t.Errorf("iss = %q", claims.Issuer)
	}
}

func TestProviderLoadsOnce(t *testing.T) {
	a, _ := testPairs(t)
	var calls atomic.Int32
	p := NewProvider(func() (*Manager, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return NewManager(a)
	})

	var wg sync.WaitGroup
	managers := make([]*Manager, 8)
	for i := range managers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			managers[i], _ = p.Manager()
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("loader called %d times, want 1", calls.Load())
	}
	for _, m := range managers {
		if m == nil || m != managers[0] {
			t.Fatal("goroutines saw different managers")
		}
	}
}

func TestProviderFailureIsSticky(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	p := NewProvider(func() (*Manager, error) {
		calls.Add(1)
		return nil, boom
	})
	for i := 0; i < 3; i++ {
		if _, err := p.Manager(); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("loader called %d times, want 1", calls.Load())
	}
}

func TestFromConfig(t *testing.T) {
	a, _ := testPairs(t)
	dir := t.TempDir()
	paths, err := keys.WriteKeyPair(dir, a, []byte("key-pass"))
	if err != nil {
		t.Fatalf("WriteKeyPair: %v", err)
	}
	cfg := Config{PrivateKeyPath: paths.PrivateKey, PublicKeyPath: paths.PublicKey}

	env := func(string) (string, bool) { return "key-pass", true }
	m, err := FromConfig(cfg, env)()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.TTL() != DefaultAccessTokenTTL {
		t.Errorf("ttl = %v", m.TTL())
	}

	noEnv := func(string) (string, bool) { return "", false }
	if _, err := FromConfig(cfg, noEnv)(); !errors.Is(err, keys.ErrMissingPassphrase) {
		t.Errorf("err = %v, want ErrMissingPassphrase", err)
	}
}

func TestComponentFailsOnMissingKey(t *testing.T) {
	cfg := Config{
		PrivateKeyPath:     filepath.Join(t.TempDir(), "missing.pem"),
		PublicKeyPath:      filepath.Join(t.TempDir(), "missing.pub"),
		PrivateKeyPassword: "x",
	}
	c := NewComponent(NewProvider(FromConfig(cfg, nil)), cfg)

	err := c.Start(context.Background())
	if !errors.Is(err, keys.ErrKeyNotFound) {
		t.Fatalf("Start err = %v, want ErrKeyNotFound", err)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("health = %s, want unhealthy", h.Status)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.LoginTokenTTL != 24*time.Hour || cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("ttls = %v / %v", cfg.AccessTokenTTL, cfg.LoginTokenTTL)
	}
	if cfg.PrivateKeyPath != DefaultPrivateKeyPath {
		t.Errorf("private key path = %q", cfg.PrivateKeyPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
