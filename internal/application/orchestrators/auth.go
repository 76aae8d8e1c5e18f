package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"dersplan/internal/domain/account"
)

// Authenticator is the session boundary: sign-in, sign-up, sign-out and
// token refresh. Implemented by LocalAuthenticator and the Supabase adapter.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (account.Identity, error)
	SignUp(ctx context.Context, email, password string) (account.SignUpResult, error)
	SignOut(ctx context.Context, id account.Identity) error
	Refresh(ctx context.Context, id account.Identity) (account.Identity, error)
}

// CredentialsInput carries the credential-entry form.
type CredentialsInput struct {
	Email    string
	Password string
}

// AuthDeps holds dependencies for the session orchestrators.
type AuthDeps struct {
	Auth Authenticator
}

func (in CredentialsInput) check() error {
	if strings.TrimSpace(in.Email) == "" {
		return account.ErrEmptyEmail
	}
	if in.Password == "" {
		return account.ErrEmptyPassword
	}
	return nil
}

// ExecuteSignIn establishes a session identity.
// PRE: none
// POST: a non-empty UserID on success
func ExecuteSignIn(ctx context.Context, input CredentialsInput, deps AuthDeps) (account.Identity, error) {
	if err := input.check(); err != nil {
		return account.Identity{}, err
	}
	id, err := deps.Auth.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		slog.Info("auth_event", "event", "sign_in_failed", "email", account.NormalizeEmail(input.Email), "error", err)
		return account.Identity{}, err
	}
	slog.Info("auth_event", "event", "sign_in", "user_id", id.UserID)
	return id, nil
}

// ExecuteSignUp registers a teacher. The result is usually pending
// confirmation: the teacher signs in after following the e-mailed link.
func ExecuteSignUp(ctx context.Context, input CredentialsInput, deps AuthDeps) (account.SignUpResult, error) {
	if err := input.check(); err != nil {
		return account.SignUpResult{}, err
	}
	if len(input.Password) < account.MinPasswordLen {
		return account.SignUpResult{}, account.ErrPasswordTooShort
	}
	res, err := deps.Auth.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		slog.Info("auth_event", "event", "sign_up_failed", "email", account.NormalizeEmail(input.Email), "error", err)
		return account.SignUpResult{}, err
	}
	slog.Info("auth_event", "event", "sign_up", "email", account.NormalizeEmail(input.Email),
		"pending_confirmation", res.PendingConfirmation)
	return res, nil
}

// ExecuteSignOut ends the identity's session with the authenticator.
// The caller clears its own session whatever the outcome.
func ExecuteSignOut(ctx context.Context, id account.Identity, deps AuthDeps) error {
	if err := deps.Auth.SignOut(ctx, id); err != nil {
		slog.Warn("auth_event", "event", "sign_out_failed", "user_id", id.UserID, "error", err)
		return err
	}
	slog.Info("auth_event", "event", "sign_out", "user_id", id.UserID)
	return nil
}
