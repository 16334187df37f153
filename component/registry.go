package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/todoapi/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

type entry struct {
	c       Component
	started bool
}

// Registry starts components in registration order and stops them in
// reverse. Start and Stop run without the registry lock held, so health
// checks keep answering while the HTTP server drains.
type Registry struct {
	lifecycle sync.Mutex // serializes StartAll and StopAll

	mu      sync.RWMutex
	entries []*entry
	byName  map[string]*entry

	stopTimeout time.Duration
	log         *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:      make(map[string]*entry),
		stopTimeout: DefaultStopTimeout,
		log:         logger.WithComponent("registry"),
	}
}

// Register appends c. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{c: c}
	r.entries = append(r.entries, e)
	r.byName[name] = e
	r.log.Debug("Component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

func (r *Registry) snapshot() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entry(nil), r.entries...)
}

func (r *Registry) setStarted(e *entry, v bool) {
	r.mu.Lock()
	e.started = v
	r.mu.Unlock()
}

func (r *Registry) isStarted(e *entry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return e.started
}

// StartAll starts every component. When one fails, those already started
// are stopped again and the error names the failing component.
func (r *Registry) StartAll(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	entries := r.snapshot()
	r.log.Info("Starting components", logger.Fields("count", len(entries)))
	for _, e := range entries {
		name := e.c.Name()
		begin := time.Now()
		if err := e.c.Start(ctx); err != nil {
			r.log.Error("Component start failed", logger.Fields(
				logger.FieldComponent, name,
				logger.FieldError, err.Error(),
			))
			r.stopStarted(context.WithoutCancel(ctx))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		r.setStarted(e, true)

		fields := logger.Fields(logger.FieldComponent, name, logger.FieldDuration, time.Since(begin).Milliseconds())
		if d, ok := e.c.(Describable); ok {
			desc := d.Describe()
			fields["type"], fields["details"] = desc.Type, desc.Details
		}
		r.log.Info("Component started", fields)
	}
	return nil
}

// StopAll stops started components in reverse order and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if err := r.stopStarted(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// stopStarted requires r.lifecycle.
func (r *Registry) stopStarted(ctx context.Context) error {
	entries := r.snapshot()
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !r.isStarted(e) {
			continue
		}
		name := e.c.Name()
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := e.c.Stop(stopCtx)
		cancel()
		r.setStarted(e, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			r.log.Error("Component stop failed", logger.Fields(
				logger.FieldComponent, name,
				logger.FieldError, err.Error(),
			))
			continue
		}
		r.log.Info("Component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll asks every component for its health concurrently. Reports come
// back in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	entries := r.snapshot()
	out := make([]Health, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = e.c.Health(ctx)
		}()
	}
	wg.Wait()
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byName[name]; ok {
		return e.c
	}
	return nil
}
