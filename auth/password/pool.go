package password

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/resilience"
)

// Pool runs hash and verify calls under a bulkhead so CPU-bound bcrypt work
// is bounded and never holds a lock shared with token handling.
type Pool struct {
	hasher   Hasher
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	log      *logger.Logger

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithMetrics records hashing durations and rejections.
func WithMetrics(m *observability.Metrics) PoolOption {
	return func(p *Pool) { p.metrics = m }
}

// NewPool wraps hasher with the concurrency limits from cfg.
func NewPool(hasher Hasher, cfg Config, opts ...PoolOption) *Pool {
	cfg.ApplyDefaults()
	p := &Pool{
		hasher: hasher,
		log:    logger.WithComponent("password"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "password",
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.MaxWait,
	})
	if _, ok := hasher.(*BcryptHasher); ok {
		p.prepareDummy()
	}
	return p
}

const dummyPassword = "todoapi-dummy-password"

func (p *Pool) prepareDummy() {
	p.dummyOnce.Do(func() {
		p.dummyHash, p.dummyErr = p.hasher.Hash(dummyPassword)
	})
}

// Hash hashes password once a slot is free.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPasswordHash)
	defer span.End()

	start := time.Now()
	hash, err := resilience.Do(ctx, p.bulkhead, func() (string, error) {
		return p.hasher.Hash(password)
	})
	if err != nil {
		if resilience.Rejected(err) {
			p.reject(ctx, "hash", err)
		}
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("password: %w", err)
	}
	p.metrics.RecordPassword(ctx, "hash", time.Since(start))
	return hash, nil
}

// Verify reports whether password matches hash. The error is non-nil only
// when no slot could be acquired.
func (p *Pool) Verify(ctx context.Context, password, hash string) (bool, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPasswordVerify)
	defer span.End()

	start := time.Now()
	ok, err := resilience.Do(ctx, p.bulkhead, func() (bool, error) {
		return p.hasher.Verify(password, hash), nil
	})
	if err != nil {
		p.reject(ctx, "verify", err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("password: %w", err)
	}
	p.metrics.RecordPassword(ctx, "verify", time.Since(start))
	return ok, nil
}

// VerifyDummy spends the same work as Verify against a fixed hash. Login
// calls it for unknown users so response time does not reveal which
// usernames exist. A bcrypt pool has the dummy hash from NewPool; any
// other hasher builds it on first use, in the same slot as the verify.
func (p *Pool) VerifyDummy(ctx context.Context, password string) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanPasswordVerify)
	defer span.End()

	start := time.Now()
	_, err := resilience.Do(ctx, p.bulkhead, func() (bool, error) {
		p.prepareDummy()
		if p.dummyErr != nil {
			return false, fmt.Errorf("dummy hash: %w", p.dummyErr)
		}
		return p.hasher.Verify(password, p.dummyHash), nil
	})
	if err != nil {
		if resilience.Rejected(err) {
			p.reject(ctx, "verify", err)
		}
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("password: %w", err)
	}
	p.metrics.RecordPassword(ctx, "verify", time.Since(start))
	return nil
}

// InUse returns the number of calls currently running.
func (p *Pool) InUse() int { return p.bulkhead.InUse() }

func (p *Pool) reject(ctx context.Context, op string, err error) {
	p.metrics.RecordPasswordRejected(ctx, op)
	p.log.WithContext(ctx).Warn("Password operation rejected", logger.Fields(
		logger.FieldOperation, op,
		logger.FieldReason, err.Error(),
	))
}
