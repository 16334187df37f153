package resilience

import (
	"context"
	"errors"
	"runtime"
	"time"
)

var (
	// ErrBulkheadFull is returned when no slot is free and waiting is off.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout is returned when MaxWait passes without a free slot.
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig sizes a Bulkhead.
type BulkheadConfig struct {
	Name string
	// MaxConcurrent defaults to GOMAXPROCS.
	MaxConcurrent int
	// MaxWait of zero rejects immediately when every slot is taken.
	MaxWait time.Duration
}

// Bulkhead caps how many calls run at once.
type Bulkhead struct {
	name    string
	maxWait time.Duration
	slots   chan struct{}
}

// NewBulkhead returns a Bulkhead sized by cfg.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Bulkhead{name: cfg.Name, maxWait: cfg.MaxWait, slots: make(chan struct{}, n)}
}

// Acquire takes a slot and returns the func that gives it back. A done ctx
// always fails, even when a slot is free.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	release = func() { <-b.slots }

	select {
	case b.slots <- struct{}{}:
		return release, nil
	default:
	}
	if b.maxWait <= 0 {
		return nil, ErrBulkheadFull
	}

	wait := time.NewTimer(b.maxWait)
	defer wait.Stop()
	select {
	case b.slots <- struct{}{}:
		return release, nil
	case <-wait.C:
		return nil, ErrBulkheadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Execute runs fn in a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	_, err := Do(ctx, b, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// Do runs fn in a slot of b and hands back its result.
func Do[T any](ctx context.Context, b *Bulkhead, fn func() (T, error)) (T, error) {
	release, err := b.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()
	return fn()
}

// Name identifies the bulkhead in logs.
func (b *Bulkhead) Name() string { return b.name }

// InUse is the number of slots held right now.
func (b *Bulkhead) InUse() int { return len(b.slots) }

// MaxConcurrent is the slot count.
func (b *Bulkhead) MaxConcurrent() int { return cap(b.slots) }

// Rejected reports whether err came from a failed Acquire rather than from
// the guarded call.
func Rejected(err error) bool {
	return errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrBulkheadTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
