package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"brewcart/internal/api"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeVerifyAPI struct {
	acceptCode  string
	token       string
	verifyErr   error
	resendErr   error
	verifyCalls int
	resendCalls int
	lastCode    string
}

func (f *fakeVerifyAPI) Verify(ctx context.Context, email, code string) (string, error) {
	f.verifyCalls++
	f.lastCode = code
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	if code != f.acceptCode {
		return "", api.ErrVerificationFailed
	}
	return f.token, nil
}

func (f *fakeVerifyAPI) Resend(ctx context.Context, email string) error {
	f.resendCalls++
	return f.resendErr
}

func newTestFlow(remote *fakeVerifyAPI) (*Flow, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewFlow(remote, "user@example.com", clock), clock
}

func enterDigits(t *testing.T, flow *Flow, code string) error {
	t.Helper()
	var err error
	for _, r := range code {
		err = flow.EnterDigit(context.Background(), r)
	}
	return err
}

func TestSixthDigitSubmitsAutomatically(t *testing.T) {
	remote := &fakeVerifyAPI{acceptCode: "123456", token: "tok-v"}
	flow, _ := newTestFlow(remote)

	if err := enterDigits(t, flow, "12345"); err != nil {
		t.Fatalf("EnterDigit() error = %v", err)
	}
	if remote.verifyCalls != 0 {
		t.Fatal("submitted before the sixth digit")
	}
	if got := flow.Focus(); got != 5 {
		t.Errorf("Focus() = %d, want 5", got)
	}

	if err := flow.EnterDigit(context.Background(), '6'); err != nil {
		t.Fatalf("EnterDigit() error = %v", err)
	}

	if remote.verifyCalls != 1 || remote.lastCode != "123456" {
		t.Errorf("verify calls=%d code=%q, want one call with 123456", remote.verifyCalls, remote.lastCode)
	}
	if flow.Phase() != Succeeded {
		t.Errorf("Phase() = %v, want Succeeded", flow.Phase())
	}
	if flow.Token() != "tok-v" {
		t.Errorf("Token() = %q, want tok-v", flow.Token())
	}
}

func TestEnterDigitRejectsNonDigits(t *testing.T) {
	flow, _ := newTestFlow(&fakeVerifyAPI{acceptCode: "123456"})

	if err := flow.EnterDigit(context.Background(), 'x'); err == nil {
		t.Error("EnterDigit('x') error = nil, want rejection")
	}
	if got := flow.Focus(); got != 0 {
		t.Errorf("Focus() = %d after rejected rune, want 0", got)
	}
}

func TestBackspace(t *testing.T) {
	flow, _ := newTestFlow(&fakeVerifyAPI{acceptCode: "123456"})

	if err := enterDigits(t, flow, "123"); err != nil {
		t.Fatalf("EnterDigit() error = %v", err)
	}
	flow.Backspace()

	if got := flow.Code(); got != "12" {
		t.Errorf("Code() = %q after backspace, want 12", got)
	}

	flow.Backspace()
	flow.Backspace()
	flow.Backspace() // empty buffer is a no-op
	if got := flow.Code(); got != "" {
		t.Errorf("Code() = %q, want empty", got)
	}
}

func TestPaste(t *testing.T) {
	t.Run("six digits submits", func(t *testing.T) {
		remote := &fakeVerifyAPI{acceptCode: "654321", token: "tok-v"}
		flow, _ := newTestFlow(remote)

		if err := flow.Paste(context.Background(), "654321"); err != nil {
			t.Fatalf("Paste() error = %v", err)
		}
		if remote.verifyCalls != 1 || flow.Phase() != Succeeded {
			t.Errorf("calls=%d phase=%v, want one call and Succeeded", remote.verifyCalls, flow.Phase())
		}
	})

	t.Run("malformed text is rejected untouched", func(t *testing.T) {
		remote := &fakeVerifyAPI{acceptCode: "654321"}
		flow, _ := newTestFlow(remote)
		if err := enterDigits(t, flow, "99"); err != nil {
			t.Fatalf("EnterDigit() error = %v", err)
		}

		for _, text := range []string{"12345", "1234567", "12a456", ""} {
			if err := flow.Paste(context.Background(), text); !errors.Is(err, ErrMalformedPaste) {
				t.Errorf("Paste(%q) error = %v, want ErrMalformedPaste", text, err)
			}
		}
		if got := flow.Code(); got != "99" {
			t.Errorf("Code() = %q after rejected pastes, want 99", got)
		}
		if remote.verifyCalls != 0 {
			t.Errorf("verify calls = %d, want 0", remote.verifyCalls)
		}
	})
}

func TestWrongCodeClearsBufferAndBurnsAttempt(t *testing.T) {
	remote := &fakeVerifyAPI{acceptCode: "123456"}
	flow, _ := newTestFlow(remote)

	err := enterDigits(t, flow, "000000")
	if !errors.Is(err, api.ErrVerificationFailed) {
		t.Fatalf("error = %v, want ErrVerificationFailed", err)
	}

	if got := flow.Code(); got != "" {
		t.Errorf("Code() = %q after failure, want empty", got)
	}
	if got := flow.Focus(); got != 0 {
		t.Errorf("Focus() = %d after failure, want 0", got)
	}
	if got := flow.AttemptsRemaining(); got != 2 {
		t.Errorf("AttemptsRemaining() = %d, want 2", got)
	}
}

func TestThirdFailureLocksTheFlow(t *testing.T) {
	remote := &fakeVerifyAPI{acceptCode: "123456"}
	flow, clock := newTestFlow(remote)

	for i := 0; i < MaxAttempts-1; i++ {
		if err := enterDigits(t, flow, "000000"); !errors.Is(err, api.ErrVerificationFailed) {
			t.Fatalf("attempt %d error = %v, want ErrVerificationFailed", i+1, err)
		}
	}
	err := enterDigits(t, flow, "000000")
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("third failure error = %v, want ErrLocked", err)
	}

	if !flow.Locked() {
		t.Fatal("Locked() = false after third failure")
	}
	if got := flow.LockRemaining(); got != LockDuration {
		t.Errorf("LockRemaining() = %v, want %v", got, LockDuration)
	}

	// Input and submission are rejected while locked, without a
	// network call.
	calls := remote.verifyCalls
	if err := flow.EnterDigit(context.Background(), '1'); !errors.Is(err, ErrLocked) {
		t.Errorf("EnterDigit() while locked error = %v, want ErrLocked", err)
	}
	if err := flow.Paste(context.Background(), "123456"); !errors.Is(err, ErrLocked) {
		t.Errorf("Paste() while locked error = %v, want ErrLocked", err)
	}
	if remote.verifyCalls != calls {
		t.Error("remote called while locked")
	}

	// The lock lifts after its full duration and the counter resets.
	clock.Advance(LockDuration)
	if flow.Locked() {
		t.Error("Locked() = true after the lock elapsed")
	}
	if got := flow.AttemptsRemaining(); got != MaxAttempts {
		t.Errorf("AttemptsRemaining() = %d after lock expiry, want %d", got, MaxAttempts)
	}
	if err := flow.Paste(context.Background(), "123456"); err != nil {
		t.Errorf("Paste() after lock expiry error = %v", err)
	}
}

func TestNetworkFailureDoesNotBurnAttempt(t *testing.T) {
	remote := &fakeVerifyAPI{verifyErr: api.ErrNetwork}
	flow, _ := newTestFlow(remote)

	err := enterDigits(t, flow, "123456")
	if !errors.Is(err, api.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}

	if got := flow.AttemptsRemaining(); got != MaxAttempts {
		t.Errorf("AttemptsRemaining() = %d after network failure, want %d", got, MaxAttempts)
	}
	// The typed code survives so the user can simply retry.
	if got := flow.Code(); got != "123456" {
		t.Errorf("Code() = %q after network failure, want 123456", got)
	}
	if err := flow.Submit(context.Background()); !errors.Is(err, api.ErrNetwork) {
		t.Errorf("Submit() retry error = %v, want ErrNetwork", err)
	}
}

func TestResendCooldown(t *testing.T) {
	remote := &fakeVerifyAPI{acceptCode: "123456"}
	flow, clock := newTestFlow(remote)

	// A code was just sent, so the cooldown starts at flow creation.
	sent, err := flow.Resend(context.Background())
	if err != nil || sent {
		t.Fatalf("Resend() inside cooldown = (%v, %v), want silent no-op", sent, err)
	}
	if remote.resendCalls != 0 {
		t.Error("remote resend called inside cooldown")
	}
	if got := flow.ResendRemaining(); got != ResendCooldown {
		t.Errorf("ResendRemaining() = %v, want %v", got, ResendCooldown)
	}

	clock.Advance(ResendCooldown)
	sent, err = flow.Resend(context.Background())
	if err != nil || !sent {
		t.Fatalf("Resend() after cooldown = (%v, %v), want sent", sent, err)
	}
	if remote.resendCalls != 1 {
		t.Errorf("resend calls = %d, want 1", remote.resendCalls)
	}

	// The cooldown restarts after a successful send.
	sent, err = flow.Resend(context.Background())
	if err != nil || sent {
		t.Errorf("Resend() right after sending = (%v, %v), want silent no-op", sent, err)
	}
}

func TestResendRejectedWhileLocked(t *testing.T) {
	remote := &fakeVerifyAPI{acceptCode: "123456"}
	flow, clock := newTestFlow(remote)

	for i := 0; i < MaxAttempts; i++ {
		enterDigits(t, flow, "000000")
	}
	clock.Advance(ResendCooldown * 2)

	if _, err := flow.Resend(context.Background()); !errors.Is(err, ErrLocked) {
		t.Errorf("Resend() while locked error = %v, want ErrLocked", err)
	}
	if remote.resendCalls != 0 {
		t.Error("remote resend called while locked")
	}
}

func TestResendFailureDoesNotRestartCooldown(t *testing.T) {
	remote := &fakeVerifyAPI{acceptCode: "123456", resendErr: api.ErrNetwork}
	flow, clock := newTestFlow(remote)
	clock.Advance(ResendCooldown)

	if sent, err := flow.Resend(context.Background()); sent || !errors.Is(err, api.ErrNetwork) {
		t.Fatalf("Resend() = (%v, %v), want network failure", sent, err)
	}

	remote.resendErr = nil
	if sent, err := flow.Resend(context.Background()); !sent || err != nil {
		t.Errorf("Resend() retry = (%v, %v), want immediate send", sent, err)
	}
}

func TestSubmitRequiresFullCode(t *testing.T) {
	flow, _ := newTestFlow(&fakeVerifyAPI{acceptCode: "123456"})
	enterDigits(t, flow, "123")

	if err := flow.Submit(context.Background()); !errors.Is(err, ErrIncompleteCode) {
		t.Errorf("Submit() error = %v, want ErrIncompleteCode", err)
	}
}

func TestFinishedFlowRejectsInput(t *testing.T) {
	remote := &fakeVerifyAPI{acceptCode: "123456", token: "tok-v"}
	flow, _ := newTestFlow(remote)

	if err := flow.Paste(context.Background(), "123456"); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	if err := flow.EnterDigit(context.Background(), '1'); err == nil {
		t.Error("EnterDigit() after success error = nil, want rejection")
	}
}
