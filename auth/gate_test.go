package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/auth/keys"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/observability"
)

type testUser struct {
	id     string
	active bool
}

func (u *testUser) Active() bool { return u.active }

type mapLookup struct {
	users map[string]*testUser
	err   error
	calls int
}

func (l *mapLookup) LookupPrincipal(_ context.Context, subject string) (*testUser, bool, error) {
	l.calls++
	if l.err != nil {
		return nil, false, l.err
	}
	u, ok := l.users[subject]
	return u, ok, nil
}

var (
	gatePairOnce sync.Once
	gatePair     *keys.KeyPair
	gatePairErr  error
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestGate(t *testing.T, lookup Lookup[*testUser], opts ...GateOption) (*Gate[*testUser], *jwt.Manager, *clock) {
	t.Helper()
	gatePairOnce.Do(func() { gatePair, gatePairErr = keys.GenerateKeyPair(keys.DefaultBits) })
	if gatePairErr != nil {
		t.Fatalf("GenerateKeyPair: %v", gatePairErr)
	}
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	m, err := jwt.NewManager(gatePair, jwt.WithClock(c.Now))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewGate[*testUser](ProviderVerifier(jwt.NewStaticProvider(m)), lookup, opts...), m, c
}

func bearer(t *testing.T, m *jwt.Manager, sub string) string {
	t.Helper()
	token, _, err := m.Issue(sub, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + token
}

func TestAuthenticateSuccess(t *testing.T) {
	lookup := &mapLookup{users: map[string]*testUser{"42": {id: "42", active: true}}}
	gate, m, _ := newTestGate(t, lookup)

	u, claims, err := gate.AuthenticateWithClaims(context.Background(), bearer(t, m, "42"))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.id != "42" || claims.Subject != "42" {
		t.Errorf("got user %q claims %q", u.id, claims.Subject)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	lookup := &mapLookup{users: map[string]*testUser{
		"1": {id: "1", active: true},
		"2": {id: "2", active: false},
	}}
	gate, m, _ := newTestGate(t, lookup)

	tests := []struct {
		name   string
		header string
		reason Reason
	}{
		{"no header", "", ReasonMissingToken},
		{"basic scheme", "Basic dXNlcjpwYXNz", ReasonMalformedHeader},
		{"bearer without token", "Bearer ", ReasonMalformedHeader},
		{"bare token", "abc.def.ghi", ReasonMalformedHeader},
		{"garbage token", "Bearer abc.def.ghi", ReasonInvalid},
		{"unknown subject", bearer(t, m, "99"), ReasonUserNotFound},
		{"inactive user", bearer(t, m, "2"), ReasonInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Authenticate(context.Background(), tt.header)
			if !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("err = %v, want ErrUnauthenticated", err)
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) || authErr.Reason != tt.reason {
				t.Fatalf("reason = %v, want %s", err, tt.reason)
			}
		})
	}
}

func TestAuthenticateExpired(t *testing.T) {
	lookup := &mapLookup{users: map[string]*testUser{"1": {id: "1", active: true}}}
	gate, m, c := newTestGate(t, lookup)

	header := bearer(t, m, "1")
	c.now = c.now.Add(2 * time.Minute)

	_, err := gate.Authenticate(context.Background(), header)
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != ReasonExpired {
		t.Fatalf("err = %v, want expired AuthError", err)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Error("AuthError does not unwrap to jwt.ErrTokenExpired")
	}
	if lookup.calls != 0 {
		t.Errorf("lookup called %d times for an expired token", lookup.calls)
	}
	if got := HTTPError(err); got.Message != "Token has expired" || got.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("HTTPError = %d %q", got.HTTPStatus, got.Message)
	}
}

func TestAuthenticateLookupFailureIsServerError(t *testing.T) {
	dbErr := errors.New("connection refused")
	gate, m, _ := newTestGate(t, &mapLookup{err: dbErr})

	_, err := gate.Authenticate(context.Background(), bearer(t, m, "1"))
	if errors.Is(err, ErrUnauthenticated) {
		t.Fatal("lookup failure reported as an authentication failure")
	}
	if !errors.Is(err, ErrLookupFailed) || !errors.Is(err, dbErr) {
		t.Fatalf("err = %v, want LookupError wrapping the cause", err)
	}
	if got := HTTPError(err); got.HTTPStatus != http.StatusInternalServerError || got.Code != apperrors.ErrCodeDatabaseError {
		t.Errorf("HTTPError = %d %s", got.HTTPStatus, got.Code)
	}
}

func TestAuthenticateVerifierUnavailable(t *testing.T) {
	loadErr := keys.ErrKeyNotFound
	gate := NewGate[*testUser](
		ProviderVerifier(jwt.NewProvider(func() (*jwt.Manager, error) { return nil, loadErr })),
		&mapLookup{},
	)
	_, err := gate.Authenticate(context.Background(), "Bearer a.b.c")
	if errors.Is(err, ErrUnauthenticated) || !errors.Is(err, loadErr) {
		t.Fatalf("err = %v, want key load error passed through", err)
	}
}

func TestUniformOutwardMessage(t *testing.T) {
	want := apperrors.InvalidToken().Message
	for _, r := range []Reason{ReasonInvalid, ReasonUserNotFound, ReasonInactive, ReasonMissingSubject, ReasonMalformedHeader} {
		if got := HTTPError(&AuthError{Reason: r}).Message; got != want {
			t.Errorf("%s: message %q, want %q", r, got, want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		reason Reason
	}{
		{"Bearer abc", "abc", ""},
		{"bearer abc", "abc", ""},
		{"  Bearer   abc  ", "abc", ""},
		{"", "", ReasonMissingToken},
		{"Bearer", "", ReasonMalformedHeader},
		{"Bearer a b", "", ReasonMalformedHeader},
		{"Token abc", "", ReasonMalformedHeader},
	}
	for _, tt := range tests {
		token, reason := BearerToken(tt.header)
		if token != tt.token || reason != tt.reason {
			t.Errorf("BearerToken(%q) = %q, %q; want %q, %q", tt.header, token, reason, tt.token, tt.reason)
		}
	}
}

func TestFailuresAreCounted(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	gate, _, _ := newTestGate(t, &mapLookup{}, WithMetrics(metrics))

	ctx := context.Background()
	_, _ = gate.Authenticate(ctx, "")
	_, _ = gate.Authenticate(ctx, "Bearer nope")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "auth.failures" {
				continue
			}
			for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("reason"))
				counts[v.AsString()] = dp.Value
			}
		}
	}
	if counts[string(ReasonMissingToken)] != 1 || counts[string(ReasonInvalid)] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
