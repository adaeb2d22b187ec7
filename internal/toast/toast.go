// Package toast queues short-lived user notifications. Toasts expire
// on their own so callers never have to dismiss them explicitly.
package toast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"brewcart/internal/timeutil"
)

// DefaultTTL is how long a toast stays visible unless overridden.
const DefaultTTL = 5 * time.Second

// Severity styles a toast.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Toast is a single notification.
type Toast struct {
	ID        string
	Severity  Severity
	Title     string
	Body      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Notifier owns the active toast list.
type Notifier struct {
	clock timeutil.Clock
	ttl   time.Duration

	mu     sync.Mutex
	toasts []Toast
	subs   map[int]func(Toast)
	next   int
}

func NewNotifier(clock timeutil.Clock, ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{clock: clock, ttl: ttl, subs: make(map[int]func(Toast))}
}

// Publish queues a toast and returns its id.
func (n *Notifier) Publish(severity Severity, title, body string) string {
	now := n.clock.Now()
	t := Toast{
		ID:        uuid.New().String(),
		Severity:  severity,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}

	n.mu.Lock()
	n.toasts = append(n.toasts, t)
	listeners := make([]func(Toast), 0, len(n.subs))
	for _, fn := range n.subs {
		listeners = append(listeners, fn)
	}
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
	return t.ID
}

func (n *Notifier) Success(title, body string) string { return n.Publish(SeveritySuccess, title, body) }
func (n *Notifier) Error(title, body string) string   { return n.Publish(SeverityError, title, body) }
func (n *Notifier) Warning(title, body string) string { return n.Publish(SeverityWarning, title, body) }
func (n *Notifier) Info(title, body string) string    { return n.Publish(SeverityInfo, title, body) }

// Subscribe registers a listener for newly published toasts and
// returns its unsubscribe function.
func (n *Notifier) Subscribe(fn func(Toast)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Active returns the toasts that have not yet expired, oldest first.
// Expired toasts are swept as a side effect.
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock.Now()
	kept := n.toasts[:0]
	for _, t := range n.toasts {
		if t.ExpiresAt.After(now) {
			kept = append(kept, t)
		}
	}
	n.toasts = kept

	out := make([]Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

// Dismiss removes a toast before its expiry.
func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			return
		}
	}
}

// StartSweeper drops expired toasts periodically until ctx is
// cancelled. Useful when nothing polls Active.
func (n *Notifier) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.Active()
			}
		}
	}()
}
