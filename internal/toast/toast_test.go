package toast

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestNotifier() (*Notifier, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewNotifier(clock, DefaultTTL), clock
}

func TestPublishAndActive(t *testing.T) {
	n, _ := newTestNotifier()

	first := n.Success("Added to cart", "Espresso Blend")
	second := n.Error("Login failed", "An error occurred. Please try again.")

	active := n.Active()
	if len(active) != 2 {
		t.Fatalf("len(Active()) = %d, want 2", len(active))
	}
	if active[0].ID != first || active[1].ID != second {
		t.Error("Active() not in publish order")
	}
	if active[0].Severity != SeveritySuccess || active[1].Severity != SeverityError {
		t.Error("severities not preserved")
	}
	if first == second {
		t.Error("toast ids are not unique")
	}
}

func TestToastsExpire(t *testing.T) {
	n, clock := newTestNotifier()

	n.Info("Code sent", "Check your inbox")
	clock.Advance(DefaultTTL / 2)
	n.Warning("Session expiring", "Sign in again soon")

	clock.Advance(DefaultTTL/2 + time.Millisecond)

	active := n.Active()
	if len(active) != 1 {
		t.Fatalf("len(Active()) = %d, want 1", len(active))
	}
	if active[0].Severity != SeverityWarning {
		t.Errorf("surviving toast severity = %q, want warning", active[0].Severity)
	}

	clock.Advance(DefaultTTL)
	if got := len(n.Active()); got != 0 {
		t.Errorf("len(Active()) = %d after full expiry, want 0", got)
	}
}

func TestDismiss(t *testing.T) {
	n, _ := newTestNotifier()

	keep := n.Info("a", "")
	drop := n.Info("b", "")
	n.Dismiss(drop)
	n.Dismiss("missing") // no-op

	active := n.Active()
	if len(active) != 1 || active[0].ID != keep {
		t.Errorf("Active() = %+v, want only %s", active, keep)
	}
}

func TestSweeperDropsExpiredToasts(t *testing.T) {
	n, clock := newTestNotifier()
	n.Info("stale", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n.StartSweeper(ctx, time.Millisecond)

	clock.Advance(DefaultTTL + time.Second)

	// The sweeper runs on its own goroutine, so poll the internal list
	// rather than calling Active, which would sweep as a side effect.
	deadline := time.After(time.Second)
	for {
		n.mu.Lock()
		remaining := len(n.toasts)
		n.mu.Unlock()
		if remaining == 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("%d expired toasts still queued after sweeping", remaining)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSubscribe(t *testing.T) {
	n, _ := newTestNotifier()

	var seen []Toast
	unsubscribe := n.Subscribe(func(toast Toast) { seen = append(seen, toast) })

	n.Success("one", "")
	if len(seen) != 1 || seen[0].Title != "one" {
		t.Fatalf("seen = %+v, want the published toast", seen)
	}

	unsubscribe()
	n.Success("two", "")
	if len(seen) != 1 {
		t.Error("listener still notified after unsubscribe")
	}
}
