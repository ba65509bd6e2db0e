// Package listview implements the generic collection controller: fetch a
// server-side collection, expose it with loading/error state, and re-fetch
// whenever the refresh key or the session identity changes.
package listview

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Session is the slice of the session store the controller depends on.
type Session interface {
	// Token returns the current bearer token, or "" when logged out.
	Token() string
	// Subscribe registers fn to run on every session identity change.
	Subscribe(fn func())
}

// Fetch retrieves the collection. Implementations wrap an api.Client call,
// so returned errors already carry normalized messages.
type Fetch[T any] func(ctx context.Context) ([]T, error)

// Controller caches one server-side collection. On a failed load the
// previous items stay visible and only the error message changes; the user
// retries manually. Overlapping loads are resolved by a generation counter:
// only the newest load's outcome is applied.
type Controller[T any] struct {
	mu         sync.Mutex
	fetch      Fetch[T]
	log        *zap.Logger
	session    Session
	items      []T
	loading    bool
	errMsg     string
	refreshKey int
	gen        int
	closed     bool
}

// New constructs a Controller and subscribes it to session changes, so a
// login or logout re-runs the load. Call Close when the owning view goes
// away.
func New[T any](sess Session, fetch Fetch[T], log *zap.Logger) *Controller[T] {
	c := &Controller[T]{fetch: fetch, log: log, session: sess}
	sess.Subscribe(func() { c.RequestRefresh() })
	return c
}

// Load fetches the collection. Without a session token it is a guarded
// no-op. On success the items are replaced wholesale; on failure the items
// are left as they were and the error message is set.
func (c *Controller[T]) Load(ctx context.Context) {
	if c.session.Token() == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.errMsg = ""
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		// A newer load superseded this one; its outcome wins.
		return
	}
	c.loading = false
	if err != nil {
		c.log.Debug("collection load failed", zap.Error(err))
		c.errMsg = err.Error()
		return
	}
	c.items = items
}

// RequestRefresh bumps the refresh key and re-runs the load. Rapid repeated
// calls settle on a single final state: the generation counter discards
// every outcome but the newest.
func (c *Controller[T]) RequestRefresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.refreshKey++
	c.mu.Unlock()

	go c.Load(context.Background())
}

// Items returns the cached collection.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// IsLoading reports whether a load is in flight.
func (c *Controller[T]) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ErrorMessage returns the message from the most recent failed load, or ""
// after a successful one.
func (c *Controller[T]) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// RefreshKey returns the monotonically increasing refresh counter.
func (c *Controller[T]) RefreshKey() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshKey
}

// Filter returns the cached items matching pred. Pure: no mutation, no
// re-fetch.
func (c *Controller[T]) Filter(pred func(T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []T
	for _, it := range c.items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Close detaches the controller; subsequent loads and session wakeups do
// nothing.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
