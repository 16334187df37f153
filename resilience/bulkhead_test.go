package resilience

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// occupy holds every slot of b until the returned func runs.
func occupy(t *testing.T, b *Bulkhead) func() {
	t.Helper()
	var releases []func()
	for range b.MaxConcurrent() {
		release, err := b.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		releases = append(releases, release)
	}
	return func() {
		for _, r := range releases {
			r()
		}
	}
}

func TestNewBulkheadSizing(t *testing.T) {
	if got := NewBulkhead(BulkheadConfig{}).MaxConcurrent(); got != runtime.GOMAXPROCS(0) {
		t.Errorf("default MaxConcurrent = %d, want GOMAXPROCS %d", got, runtime.GOMAXPROCS(0))
	}
	b := NewBulkhead(BulkheadConfig{Name: "password", MaxConcurrent: 3})
	if b.MaxConcurrent() != 3 || b.Name() != "password" {
		t.Errorf("got %q with %d slots", b.Name(), b.MaxConcurrent())
	}
}

func TestBulkheadBoundsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2, MaxWait: time.Second})

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				n := running.Add(1)
				for p := peak.Load(); n > p && !peak.CompareAndSwap(p, n); p = peak.Load() {
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("Execute: %v", err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency %d, want <= 2", p)
	}
	if b.InUse() != 0 {
		t.Errorf("InUse = %d after all calls returned", b.InUse())
	}
}

func TestBulkheadRejections(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		maxWait time.Duration
		ctx     func() (context.Context, context.CancelFunc)
		want    error
	}{
		{"full without wait", 0, nil, ErrBulkheadFull},
		{"wait runs out", 10 * time.Millisecond, nil, ErrBulkheadTimeout},
		{"context ends first", time.Second, func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 10*time.Millisecond)
		}, context.DeadlineExceeded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: tc.maxWait})
			defer occupy(t, b)()

			ctx, stop := context.Background(), func() {}
			if tc.ctx != nil {
				ctx, stop = tc.ctx()
			}
			defer stop()

			ran := false
			err := b.Execute(ctx, func() error { ran = true; return nil })
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if ran || !Rejected(err) {
				t.Errorf("ran = %v, Rejected = %v", ran, Rejected(err))
			}
		})
	}

	t.Run("canceled context with free slot", func(t *testing.T) {
		b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
		if _, err := b.Acquire(canceled); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}

func TestBulkheadWaitsForRelease(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	time.AfterFunc(10*time.Millisecond, occupy(t, b))

	got, err := Do(context.Background(), b, func() (string, error) { return "hash", nil })
	if err != nil || got != "hash" {
		t.Fatalf("Do = %q, %v", got, err)
	}
}

func TestRejectedIgnoresCallErrors(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	boom := errors.New("boom")
	err := b.Execute(context.Background(), func() error { return boom })
	if !errors.Is(err, boom) || Rejected(err) {
		t.Fatalf("err = %v, Rejected = %v", err, Rejected(err))
	}
}
