package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Backend owns the canvas budget. It is safe for concurrent use.
type Backend struct {
	opts Options
	sem  *semaphore.Weighted
	pool sync.Pool // *surface

	mu     sync.Mutex
	closed bool
	active atomic.Int64
}

// NewBackend creates a backend. Zero option fields take their defaults.
func NewBackend(opts Options) *Backend {
	opts = opts.withDefaults()
	b := &Backend{
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.MaxSurfaces)),
	}
	b.pool.New = func() any {
		return newSurface(opts.Width*opts.Supersample, opts.Height*opts.Supersample)
	}
	return b
}

// Options returns the effective options.
func (b *Backend) Options() Options {
	return b.opts
}

// Active returns the number of surfaces currently held by contexts.
func (b *Backend) Active() int {
	return int(b.active.Load())
}

// Acquire reserves up to n surfaces (at least one, at most MaxSurfaces) and
// returns a Context owning them. The caller must Release it. Acquisition
// fails with ErrRenderUnavailable when the backend is closed or no surface
// frees up before ctx ends or AcquireTimeout elapses.
func (b *Backend) Acquire(ctx context.Context, n int) (*Context, error) {
	n = min(max(n, 1), b.opts.MaxSurfaces)

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, &UnavailableError{Cause: errors.New("backend closed")}
	}

	waitCtx := ctx
	if b.opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, b.opts.AcquireTimeout)
		defer cancel()
	}
	if err := b.sem.Acquire(waitCtx, int64(n)); err != nil {
		return nil, &UnavailableError{Cause: err}
	}

	c := &Context{backend: b, surfaces: make([]*surface, n)}
	for i := range c.surfaces {
		c.surfaces[i] = b.pool.Get().(*surface)
	}
	b.active.Add(int64(n))
	return c, nil
}

func (b *Backend) release(surfaces []*surface) {
	for _, s := range surfaces {
		b.pool.Put(s)
	}
	b.active.Add(-int64(len(surfaces)))
	b.sem.Release(int64(len(surfaces)))
}

// Close stops handing out new contexts. Contexts already acquired stay valid
// until released.
func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Process-wide handle
// ---------------------------------------------------------------------------

// lazyBackend initializes its backend on first use, exactly once.
type lazyBackend struct {
	once sync.Once
	opts Options
	b    *Backend
}

func (l *lazyBackend) get() *Backend {
	l.once.Do(func() {
		l.b = NewBackend(l.opts)
	})
	return l.b
}

var current atomic.Pointer[lazyBackend]

func init() {
	current.Store(&lazyBackend{opts: DefaultOptions()})
}

// Default returns the process-wide backend, creating it on first call. The
// handle is read-only after initialization and safe for concurrent callers.
func Default() *Backend {
	return current.Load().get()
}

// Configure replaces the process-wide handle with one that will lazily
// initialize with opts. A previously initialized backend is closed; its
// outstanding contexts remain valid until released.
func Configure(opts Options) {
	old := current.Swap(&lazyBackend{opts: opts})
	old.shutdown()
}

// Shutdown closes the process-wide backend and resets the handle to
// defaults. Intended for tests and process teardown.
func Shutdown() {
	Configure(DefaultOptions())
}

func (l *lazyBackend) shutdown() {
	// Force the once so a concurrent first get cannot initialize after
	// shutdown.
	l.once.Do(func() {})
	if l.b != nil {
		l.b.Close()
	}
}
