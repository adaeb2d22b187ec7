// Package verify drives the six digit code entry used for email
// verification and password reset confirmation. It owns the digit
// buffer, attempt counting, the failure lockout, and the resend
// cooldown.
package verify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"brewcart/internal/api"
	"brewcart/internal/timeutil"
	"brewcart/internal/validation"
)

const (
	// CodeLength is the number of digits in a confirmation code.
	CodeLength = 6
	// MaxAttempts is how many wrong codes are tolerated before the
	// flow locks.
	MaxAttempts = 3
	// LockDuration is how long the flow stays locked after the last
	// tolerated failure.
	LockDuration = 300 * time.Second
	// ResendCooldown is the minimum spacing between resend requests.
	ResendCooldown = 60 * time.Second
)

var (
	// ErrLocked rejects submissions and resends while the lockout is
	// active.
	ErrLocked = errors.New("too many failed attempts, try again later")
	// ErrIncompleteCode rejects submission of fewer than six digits.
	ErrIncompleteCode = errors.New("enter the full 6-digit code")
	// ErrMalformedPaste rejects pasted text that is not exactly six
	// digits.
	ErrMalformedPaste = errors.New("pasted text is not a 6-digit code")
)

// Phase is where the flow currently stands.
type Phase int

const (
	// Entering accepts digits.
	Entering Phase = iota
	// Submitting has a verification request in flight.
	Submitting
	// Succeeded means the code was accepted. The flow is finished.
	Succeeded
)

// API is the remote surface the flow drives. Email verification and
// reset code confirmation both satisfy it.
type API interface {
	Verify(ctx context.Context, email, code string) (token string, err error)
	Resend(ctx context.Context, email string) error
}

// Flow is a single code entry session for one email address.
type Flow struct {
	api   API
	email string
	clock timeutil.Clock

	mu            sync.Mutex
	digits        []byte
	phase         Phase
	failures      int
	lockedUntil   time.Time
	resendReadyAt time.Time
	token         string
}

// NewFlow starts a flow for the given address. A code was just sent
// when the flow begins, so the resend cooldown starts immediately.
func NewFlow(remote API, email string, clock timeutil.Clock) *Flow {
	return &Flow{
		api:           remote,
		email:         email,
		clock:         clock,
		resendReadyAt: clock.Now().Add(ResendCooldown),
	}
}

// EnterDigit appends one digit to the buffer. Entering the sixth digit
// submits the code automatically, so the returned error may come from
// the remote verification call.
func (f *Flow) EnterDigit(ctx context.Context, digit rune) error {
	f.mu.Lock()

	if err := f.acceptingLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if digit < '0' || digit > '9' {
		f.mu.Unlock()
		return fmt.Errorf("not a digit: %q", digit)
	}
	if len(f.digits) >= CodeLength {
		f.mu.Unlock()
		return nil
	}

	f.digits = append(f.digits, byte(digit))
	if len(f.digits) < CodeLength {
		f.mu.Unlock()
		return nil
	}
	return f.submitLocked(ctx)
}

// Backspace removes the last digit, if any.
func (f *Flow) Backspace() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase != Entering || len(f.digits) == 0 {
		return
	}
	f.digits = f.digits[:len(f.digits)-1]
}

// Paste replaces the buffer with pasted text and submits. Anything
// other than exactly six digits is rejected without touching the
// buffer.
func (f *Flow) Paste(ctx context.Context, text string) error {
	f.mu.Lock()

	if err := f.acceptingLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if err := validation.ValidateCode(text); err != nil {
		f.mu.Unlock()
		return ErrMalformedPaste
	}

	f.digits = []byte(text)
	return f.submitLocked(ctx)
}

// Submit sends the buffered code to the remote. Callers normally never
// need it because entering or pasting the sixth digit submits, but it
// covers explicit submit affordances.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()

	if err := f.acceptingLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if len(f.digits) < CodeLength {
		f.mu.Unlock()
		return ErrIncompleteCode
	}
	return f.submitLocked(ctx)
}

// acceptingLocked reports whether the flow can take input right now.
func (f *Flow) acceptingLocked() error {
	f.expireLockLocked()
	switch {
	case f.phase == Succeeded:
		return errors.New("code already verified")
	case f.phase == Submitting:
		return errors.New("verification already in progress")
	case f.lockedUntil.After(f.clock.Now()):
		return ErrLocked
	}
	return nil
}

// submitLocked performs the remote call. It is entered holding the
// mutex and releases it around the network round trip so readers stay
// responsive.
func (f *Flow) submitLocked(ctx context.Context) error {
	code := string(f.digits)
	f.phase = Submitting
	f.mu.Unlock()

	token, err := f.api.Verify(ctx, f.email, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = Entering

	switch {
	case err == nil:
		f.phase = Succeeded
		f.token = token
		return nil

	case errors.Is(err, api.ErrVerificationFailed):
		// A wrong code clears the buffer and burns an attempt. The
		// third failure starts the lockout.
		f.digits = nil
		f.failures++
		if f.failures >= MaxAttempts {
			f.lockedUntil = f.clock.Now().Add(LockDuration)
			return fmt.Errorf("%w: %w", ErrLocked, err)
		}
		return err

	default:
		// Network and server trouble are not the user's fault. The
		// buffer stays so the same code can be retried.
		return err
	}
}

// Resend asks the remote to send a fresh code. Inside the cooldown it
// is a silent no-op: no network call and sent=false.
func (f *Flow) Resend(ctx context.Context) (sent bool, err error) {
	f.mu.Lock()
	f.expireLockLocked()

	now := f.clock.Now()
	if f.lockedUntil.After(now) {
		f.mu.Unlock()
		return false, ErrLocked
	}
	if now.Before(f.resendReadyAt) {
		f.mu.Unlock()
		return false, nil
	}
	f.mu.Unlock()

	if err := f.api.Resend(ctx, f.email); err != nil {
		return false, err
	}

	f.mu.Lock()
	f.resendReadyAt = f.clock.Now().Add(ResendCooldown)
	f.mu.Unlock()
	return true, nil
}

// expireLockLocked lifts an elapsed lockout and resets the attempt
// counter so the user gets a clean slate.
func (f *Flow) expireLockLocked() {
	if !f.lockedUntil.IsZero() && !f.lockedUntil.After(f.clock.Now()) {
		f.lockedUntil = time.Time{}
		f.failures = 0
	}
}

// Email is the address this flow verifies.
func (f *Flow) Email() string { return f.email }

// Phase reports where the flow stands.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Code is the current buffer contents.
func (f *Flow) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.digits)
}

// Focus is the index of the next empty digit cell.
func (f *Flow) Focus() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.digits)
}

// AttemptsRemaining is how many wrong codes are still tolerated.
func (f *Flow) AttemptsRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireLockLocked()
	return MaxAttempts - f.failures
}

// Locked reports whether the lockout is active.
func (f *Flow) Locked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireLockLocked()
	return f.lockedUntil.After(f.clock.Now())
}

// LockRemaining is how long until the lockout lifts, zero when not
// locked.
func (f *Flow) LockRemaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireLockLocked()
	if remaining := f.lockedUntil.Sub(f.clock.Now()); remaining > 0 {
		return remaining
	}
	return 0
}

// ResendRemaining is how long until another resend is allowed, zero
// when one can go out now.
func (f *Flow) ResendRemaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if remaining := f.resendReadyAt.Sub(f.clock.Now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Token is the credential returned by a successful verification, empty
// until then.
func (f *Flow) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}
