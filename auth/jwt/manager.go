// Package jwt issues and verifies RS256 access tokens.
//
// A Manager holds an immutable key pair and is safe for concurrent use.
// Tokens carry only sub, iat and exp (plus iss when configured). Issued
// tokens cannot be revoked before they expire.
//
// Usage:
//
//	m, err := jwt.NewManager(pair, jwt.WithTTL(15*time.Minute))
//	token, claims, err := m.Issue("42", 0)
//	claims, err = m.Verify(token)
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/todoapi/auth/keys"
)

var (
	// ErrTokenExpired means the token was well formed and correctly signed
	// but its exp is not in the future.
	ErrTokenExpired = errors.New("jwt: token has expired")

	// ErrTokenInvalid covers every other verification failure.
	ErrTokenInvalid = errors.New("jwt: invalid token")
)

var signingMethod = gojwt.SigningMethodRS256

// Claims are the verified claims of a token.
type Claims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager signs and verifies tokens with one RSA key pair.
type Manager struct {
	pair   *keys.KeyPair
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the lifetime used when Issue is called with ttl <= 0.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIssuer sets the iss claim on issued tokens and requires it on
// verified ones.
func WithIssuer(issuer string) Option {
	return func(m *Manager) { m.issuer = issuer }
}

// NewManager creates a Manager. The public key defaults to the private
// key's public half.
func NewManager(pair *keys.KeyPair, opts ...Option) (*Manager, error) {
	if pair == nil || pair.Private == nil {
		return nil, errors.New("jwt: private key is required")
	}
	if pair.Public == nil {
		pair = &keys.KeyPair{Private: pair.Private, Public: &pair.Private.PublicKey}
	}
	m := &Manager{
		pair: pair,
		ttl:  DefaultAccessTokenTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the default token lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for subject valid for ttl (the default when ttl <= 0).
func (m *Manager) Issue(subject string, ttl time.Duration) (string, Claims, error) {
	if subject == "" {
		return "", Claims{}, errors.New("jwt: subject is required")
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := m.now()
	registered := gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := gojwt.NewWithClaims(signingMethod, registered).SignedString(m.pair.Private)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, toClaims(&registered), nil
}

// Verify checks the signature, the algorithm and the expiry of token.
// It returns ErrTokenExpired when expiry is the only failure and
// ErrTokenInvalid otherwise.
func (m *Manager) Verify(token string) (*Claims, error) {
	registered := &gojwt.RegisteredClaims{}
	parsed, err := gojwt.ParseWithClaims(token, registered, m.keyFunc, m.parserOptions()...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) && !errors.Is(err, gojwt.ErrTokenInvalidIssuer) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if registered.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrTokenInvalid)
	}
	claims := toClaims(registered)
	return &claims, nil
}

// keyFunc is the jwt.Keyfunc used during token parsing.
func (m *Manager) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != signingMethod.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return m.pair.Public, nil
}

func (m *Manager) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{signingMethod.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(m.issuer))
	}
	return opts
}

func toClaims(rc *gojwt.RegisteredClaims) Claims {
	c := Claims{Subject: rc.Subject, Issuer: rc.Issuer}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c
}
