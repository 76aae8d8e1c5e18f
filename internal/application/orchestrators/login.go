package orchestrators

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	emailAdapter "dersplan/internal/adapters/email"
	"dersplan/internal/domain/account"
)

// AccountStore is the store capability the local authenticator needs.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	SaveActivationToken(ctx context.Context, token account.ActivationToken) error
	GetActivationTokenByToken(ctx context.Context, token string) (account.ActivationToken, error)
	InvalidateTokensForAccount(ctx context.Context, accountID string) error
}

// LocalAuthenticator implements Authenticator with accounts stored in SQLite.
// New accounts stay pending until the activation link is followed.
type LocalAuthenticator struct {
	Accounts AccountStore
	Mailer   emailAdapter.Sender
	BaseURL  string // prefix of activation links
	Now      func() time.Time
}

var _ Authenticator = (*LocalAuthenticator)(nil)

func (a *LocalAuthenticator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// SignIn checks credentials and the lockout policy.
// PRE: email and password are non-empty
// POST: failed attempts are counted; a success resets the counter
// INVARIANT: a locked or pending account never signs in
func (a *LocalAuthenticator) SignIn(ctx context.Context, email, password string) (account.Identity, error) {
	acct, err := a.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Identity{}, account.ErrInvalidCredentials
		}
		return account.Identity{}, err
	}

	now := a.now()
	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "account_id", acct.ID, "reason", "locked")
		return account.Identity{}, account.ErrAccountLocked
	}

	if err := acct.CheckPassword(password); err != nil {
		acct.RecordFailedLogin(now)
		if saveErr := a.Accounts.Save(ctx, acct); saveErr != nil {
			slog.Error("auth_event", "event", "lockout_save_failed", "account_id", acct.ID, "error", saveErr)
		}
		return account.Identity{}, account.ErrInvalidCredentials
	}

	if acct.IsPendingActivation() {
		return account.Identity{}, account.ErrEmailNotConfirmed
	}

	if acct.FailedLogins > 0 {
		acct.ResetFailedLogins()
		if err := a.Accounts.Save(ctx, acct); err != nil {
			return account.Identity{}, err
		}
	}
	return account.Identity{UserID: acct.ID, Email: acct.Email}, nil
}

// SignUp creates a pending account and mails its activation link.
// POST: PendingConfirmation is always true
func (a *LocalAuthenticator) SignUp(ctx context.Context, email, password string) (account.SignUpResult, error) {
	if _, err := a.Accounts.GetByEmail(ctx, email); err == nil {
		return account.SignUpResult{}, account.ErrEmailTaken
	} else if !errors.Is(err, account.ErrNotFound) {
		return account.SignUpResult{}, err
	}

	now := a.now()
	acct := account.Account{
		ID:        uuid.NewString(),
		Email:     account.NormalizeEmail(email),
		Status:    account.StatusPendingActivation,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return account.SignUpResult{}, err
	}
	if err := acct.SetPassword(password); err != nil {
		return account.SignUpResult{}, err
	}
	if err := a.Accounts.Save(ctx, acct); err != nil {
		return account.SignUpResult{}, err
	}

	if err := a.sendActivation(ctx, acct, now); err != nil {
		return account.SignUpResult{}, err
	}
	slog.Info("auth_event", "event", "account_created_pending", "account_id", acct.ID)
	return account.SignUpResult{PendingConfirmation: true}, nil
}

// SignOut has nothing to revoke for local sessions.
func (a *LocalAuthenticator) SignOut(context.Context, account.Identity) error {
	return nil
}

// Refresh returns id unchanged; local identities do not expire on their own.
func (a *LocalAuthenticator) Refresh(_ context.Context, id account.Identity) (account.Identity, error) {
	return id, nil
}

func (a *LocalAuthenticator) sendActivation(ctx context.Context, acct account.Account, now time.Time) error {
	secret, err := generateToken()
	if err != nil {
		return err
	}
	tok := account.NewActivationToken(uuid.NewString(), acct.ID, secret, now)
	if err := a.Accounts.SaveActivationToken(ctx, tok); err != nil {
		return err
	}
	if a.Mailer == nil {
		return nil
	}

	link := emailAdapter.ActivationLink(a.BaseURL, secret)
	msg, err := emailAdapter.ActivationEmail(acct.Email, link, int(account.ActivationTTL/time.Hour))
	if err != nil {
		return err
	}
	if _, err := a.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send activation email: %w", err)
	}
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
