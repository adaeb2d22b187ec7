package api

import (
	"context"

	"brewcart/internal/models"
)

// AuthResult is the payload of a successful login, registration, or OAuth
// exchange.
type AuthResult struct {
	Token string          `json:"token"`
	User  models.Identity `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	if err := c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account. The new account must verify its email before
// the verified flag is set; the returned session is already usable.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var result AuthResult
	if err := c.post(ctx, "/auth/register", registerRequest{Name: name, Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyResult carries the short-lived token forwarded to the next step of a
// verification flow.
type VerifyResult struct {
	Token string `json:"token"`
}

// VerifyEmail submits a registration verification code.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.post(ctx, "/auth/verify-email", verifyRequest{Email: email, Code: code}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type emailRequest struct {
	Email string `json:"email"`
}

// ResendVerification asks the remote side to send a fresh verification code.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/resend-verification", emailRequest{Email: email}, nil)
}

// ForgotPassword starts the password-reset flow for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/forgot-password", emailRequest{Email: email}, nil)
}

// VerifyResetCode submits a password-reset code.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.post(ctx, "/auth/verify-reset-code", verifyRequest{Email: email, Code: code}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword sets a new password using the short-lived token returned by
// VerifyResetCode.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	return c.post(ctx, "/auth/reset-password", resetPasswordRequest{Token: token, Password: password}, nil)
}

// GoogleLoginRequest carries the identity fetched from Google.
type GoogleLoginRequest struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// GoogleAuthResult extends AuthResult with whether the account still needs a
// local password set.
type GoogleAuthResult struct {
	AuthResult
	NeedsPassword bool `json:"needs_password"`
}

// GoogleLogin exchanges a Google identity for a storefront session.
func (c *Client) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*GoogleAuthResult, error) {
	var result GoogleAuthResult
	if err := c.post(ctx, "/auth/google", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

// GoogleSetPassword sets the local password for a Google-created account.
func (c *Client) GoogleSetPassword(ctx context.Context, password string) error {
	return c.post(ctx, "/auth/google/set-password", setPasswordRequest{Password: password}, nil)
}
