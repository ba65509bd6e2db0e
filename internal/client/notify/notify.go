// Package notify implements the process-wide queue of ephemeral user-facing
// messages. Every notification expires on its own timer; manual dismissal
// removes it immediately and cancels the pending expiry.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification for presentation.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 5 * time.Second

// Notification is one transient user-facing message.
type Notification struct {
	ID        string
	Message   string
	Kind      Kind
	CreatedAt time.Time
}

// Channel collects notifications and expires them. It cannot fail; it only
// manages an in-memory queue.
type Channel struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  []Notification
	timers map[string]*time.Timer
	subs   []func(Notification)
}

// New returns a Channel with the default expiry.
func New() *Channel {
	return NewWithTTL(DefaultTTL)
}

// NewWithTTL returns a Channel whose notifications expire after ttl.
func NewWithTTL(ttl time.Duration) *Channel {
	return &Channel{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Notify appends a message to the queue and schedules its removal.
// Fire-and-forget: the caller keeps no handle to the notification.
func (c *Channel) Notify(message string, kind Kind) {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	c.timers[n.ID] = time.AfterFunc(c.ttl, func() { c.Dismiss(n.ID) })
	subs := make([]func(Notification), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Dismiss removes the notification with the given id, if present, and
// cancels its pending expiry. Dismissing an already-removed id is a no-op.
func (c *Channel) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Snapshot returns the currently visible notifications in arrival order.
func (c *Channel) Snapshot() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Subscribe registers fn to run for every new notification.
func (c *Channel) Subscribe(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}
