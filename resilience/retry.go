package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Policy says how often and how patiently a failing call is re-attempted.
type Policy struct {
	Attempts int           // total calls, the first included
	Base     time.Duration // wait after the first failure
	Cap      time.Duration
	Factor   float64
	Jitter   float64 // fraction of the wait, 0 to 1

	// Retryable defaults to "anything but context errors".
	Retryable func(error) bool
	OnRetry   func(attempt int, err error, wait time.Duration)
}

// ConnectPolicy is used for the first connection to the database and redis.
func ConnectPolicy() Policy {
	return Policy{
		Attempts: 3,
		Base:     500 * time.Millisecond,
		Cap:      5 * time.Second,
		Factor:   2,
		Jitter:   0.1,
	}
}

func notContextErr(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Base <= 0 {
		p.Base = 100 * time.Millisecond
	}
	if p.Cap <= 0 {
		p.Cap = 10 * time.Second
	}
	if p.Factor <= 0 {
		p.Factor = 2
	}
	if p.Retryable == nil {
		p.Retryable = notContextErr
	}
	return p
}

// Delay is the wait before attempt+1: Base*Factor^(attempt-1) with jitter,
// never above Cap.
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.Base) * math.Pow(p.Factor, float64(attempt-1))
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	switch {
	case d > float64(p.Cap):
		return p.Cap
	case d < 0:
		return p.Base
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, fails with a non-retryable error, runs
// out of attempts or ctx ends. The last error from fn is returned.
func Retry[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	p = p.normalized()
	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if attempt >= p.Attempts || !p.Retryable(err) {
			return zero, err
		}

		wait := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}

// RetryFunc is Retry for calls without a result.
func RetryFunc(ctx context.Context, p Policy, fn func() error) error {
	_, err := Retry(ctx, p, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
