package api

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericErrorMessage is shown when the remote side supplies no message.
const GenericErrorMessage = "An error occurred. Please try again."

// Remote business rejections and transport failures, matched with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("account not found")
	ErrUserExists         = errors.New("email already registered")
	ErrVerificationFailed = errors.New("verification code did not match")
	ErrRateLimited        = errors.New("too many requests")
	ErrUnauthorized       = errors.New("authorization denied")
	ErrNetwork            = errors.New("network error")
)

// Error carries the remote rejection alongside the sentinel it maps to, so
// callers can both match with errors.Is and show the remote message.
type Error struct {
	Status   int
	Code     string
	Message  string
	sentinel error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return GenericErrorMessage
}

func (e *Error) Unwrap() error {
	return e.sentinel
}

// UserMessage returns the text to surface to the user.
func (e *Error) UserMessage() string {
	return e.Error()
}

// wire error codes reported by the storefront API
const (
	codeInvalidCredentials = "invalid_credentials"
	codeUserNotFound       = "user_not_found"
	codeUserExists         = "user_exists"
	codeVerificationFailed = "verification_failed"
	codeRateLimited        = "rate_limited"
)

func sentinelFor(status int, code string) error {
	switch code {
	case codeInvalidCredentials:
		return ErrInvalidCredentials
	case codeUserNotFound:
		return ErrUserNotFound
	case codeUserExists:
		return ErrUserExists
	case codeVerificationFailed:
		return ErrVerificationFailed
	case codeRateLimited:
		return ErrRateLimited
	}
	if status == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return nil
}

func newError(status int, code, message string) *Error {
	return &Error{
		Status:   status,
		Code:     code,
		Message:  message,
		sentinel: sentinelFor(status, code),
	}
}

// UserMessage extracts the user-facing text from any error returned by this
// package, falling back to the generic message.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if errors.Is(err, ErrNetwork) {
		return GenericErrorMessage
	}
	if err != nil {
		return err.Error()
	}
	return GenericErrorMessage
}

// wrapTransport maps a transport-level failure (dial, TLS, timeout) onto
// ErrNetwork while keeping the cause.
func wrapTransport(err error) error {
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
