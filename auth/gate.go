package auth

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
)

// Principal is an authenticated identity.
type Principal interface {
	Active() bool
}

// Lookup resolves a token subject. A missing principal is (zero, false, nil);
// any non-nil error is treated as an infrastructure failure.
type Lookup[P Principal] interface {
	LookupPrincipal(ctx context.Context, subject string) (P, bool, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc[P Principal] func(ctx context.Context, subject string) (P, bool, error)

// LookupPrincipal implements Lookup.
func (f LookupFunc[P]) LookupPrincipal(ctx context.Context, subject string) (P, bool, error) {
	return f(ctx, subject)
}

// Verifier checks a raw token. jwt.ErrTokenExpired and jwt.ErrTokenInvalid
// are authentication failures; any other error is returned as is.
type Verifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// ProviderVerifier verifies with the Manager held by p, building it on first
// use.
func ProviderVerifier(p *jwt.Provider) Verifier {
	return providerVerifier{p}
}

type providerVerifier struct{ p *jwt.Provider }

func (v providerVerifier) Verify(token string) (*jwt.Claims, error) {
	m, err := v.p.Manager()
	if err != nil {
		return nil, err
	}
	return m.Verify(token)
}

// Gate authenticates requests.
type Gate[P Principal] struct {
	verifier Verifier
	lookup   Lookup[P]
	metrics  *observability.Metrics
	log      *logger.Logger
}

// GateOption configures a Gate.
type GateOption func(*gateOptions)

type gateOptions struct {
	metrics *observability.Metrics
}

// WithMetrics counts failures by reason.
func WithMetrics(m *observability.Metrics) GateOption {
	return func(o *gateOptions) { o.metrics = m }
}

// NewGate creates a Gate. The gate reaches storage only through lookup.
func NewGate[P Principal](verifier Verifier, lookup Lookup[P], opts ...GateOption) *Gate[P] {
	var o gateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Gate[P]{
		verifier: verifier,
		lookup:   lookup,
		metrics:  o.metrics,
		log:      logger.WithComponent("auth"),
	}
}

// Authenticate resolves the principal behind an Authorization header value.
func (g *Gate[P]) Authenticate(ctx context.Context, header string) (P, error) {
	p, _, err := g.AuthenticateWithClaims(ctx, header)
	return p, err
}

// AuthenticateWithClaims is Authenticate that also returns the verified
// claims.
func (g *Gate[P]) AuthenticateWithClaims(ctx context.Context, header string) (P, *jwt.Claims, error) {
	var zero P
	ctx, span := observability.StartSpan(ctx, observability.SpanAuthenticate)
	defer span.End()

	token, reason := BearerToken(header)
	if reason != "" {
		return zero, nil, g.fail(ctx, span, reason, "", nil)
	}

	claims, err := g.verifier.Verify(token)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return zero, nil, g.fail(ctx, span, ReasonExpired, "", err)
	case errors.Is(err, jwt.ErrTokenInvalid):
		return zero, nil, g.fail(ctx, span, ReasonInvalid, "", err)
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		return zero, nil, err
	}
	if claims.Subject == "" {
		return zero, nil, g.fail(ctx, span, ReasonMissingSubject, "", nil)
	}

	principal, found, err := g.lookup.LookupPrincipal(ctx, claims.Subject)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		g.log.WithContext(ctx).Error("Principal lookup failed", logger.Fields(
			logger.FieldUserID, claims.Subject,
			logger.FieldError, err.Error(),
		))
		return zero, nil, &LookupError{Subject: claims.Subject, Err: err}
	}
	if !found {
		return zero, nil, g.fail(ctx, span, ReasonUserNotFound, claims.Subject, nil)
	}
	if !principal.Active() {
		return zero, nil, g.fail(ctx, span, ReasonInactive, claims.Subject, nil)
	}

	span.SetAttributes(attribute.String(observability.AttrUserID, claims.Subject))
	return principal, claims, nil
}

func (g *Gate[P]) fail(ctx context.Context, span trace.Span, reason Reason, subject string, cause error) error {
	span.SetAttributes(attribute.String(observability.AttrAuthReason, string(reason)))
	g.metrics.RecordAuthFailure(ctx, string(reason))

	fields := logger.Fields(logger.FieldReason, string(reason))
	if subject != "" {
		fields[logger.FieldUserID] = subject
	}
	g.log.WithContext(ctx).Warn("Authentication failed", fields)

	return &AuthError{Reason: reason, Err: cause}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively. A non-empty reason means no token.
func BearerToken(header string) (string, Reason) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ReasonMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ReasonMalformedHeader
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ReasonMalformedHeader
	}
	return token, ""
}
