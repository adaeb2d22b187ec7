package verify

import (
	"context"

	"brewcart/internal/api"
)

// EmailVerification adapts the remote client to the registration
// verification endpoints.
type EmailVerification struct {
	Client *api.Client
}

func (a EmailVerification) Verify(ctx context.Context, email, code string) (string, error) {
	result, err := a.Client.VerifyEmail(ctx, email, code)
	if err != nil {
		return "", err
	}
	return result.Token, nil
}

func (a EmailVerification) Resend(ctx context.Context, email string) error {
	return a.Client.ResendVerification(ctx, email)
}

// PasswordReset adapts the remote client to the reset code endpoints.
// Its resend re-runs the forgot-password request, which mails a fresh
// code.
type PasswordReset struct {
	Client *api.Client
}

func (a PasswordReset) Verify(ctx context.Context, email, code string) (string, error) {
	result, err := a.Client.VerifyResetCode(ctx, email, code)
	if err != nil {
		return "", err
	}
	return result.Token, nil
}

func (a PasswordReset) Resend(ctx context.Context, email string) error {
	return a.Client.ForgotPassword(ctx, email)
}
