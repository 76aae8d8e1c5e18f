package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dersplan/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email    string
	Password string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Now          func() time.Time
}

// ExecuteCreateAccount creates an active account without the activation step.
// Used by the create-user command.
// PRE: valid email, password >= MinPasswordLen
// POST: account saved with a bcrypt hash
// INVARIANT: email is unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (string, error) {
	if _, err := deps.AccountStore.GetByEmail(ctx, input.Email); err == nil {
		return "", account.ErrEmailTaken
	} else if !errors.Is(err, account.ErrNotFound) {
		return "", err
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	acct := account.Account{
		ID:        uuid.NewString(),
		Email:     account.NormalizeEmail(input.Email),
		Status:    account.StatusActive,
		CreatedAt: now(),
	}
	if err := acct.Validate(); err != nil {
		return "", err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acct.ID)
	return acct.ID, nil
}

// ActivateAccountDeps holds dependencies for ActivateAccount.
type ActivateAccountDeps struct {
	AccountStore AccountStore
	Now          func() time.Time
}

// ExecuteActivateAccount confirms the e-mail address behind an activation token.
// PRE: token is the secret from the activation link
// POST: account active, every token of the account used
func ExecuteActivateAccount(ctx context.Context, token string, deps ActivateAccountDeps) error {
	if token == "" {
		return account.ErrTokenInvalid
	}
	tok, err := deps.AccountStore.GetActivationTokenByToken(ctx, token)
	if err != nil {
		return err
	}
	if tok.Used {
		return account.ErrAlreadyActivated
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if tok.IsExpired(now()) {
		return account.ErrTokenExpired
	}

	acct, err := deps.AccountStore.GetByID(ctx, tok.AccountID)
	if err != nil {
		return err
	}
	if err := acct.Activate(); err != nil {
		return err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}
	if err := deps.AccountStore.InvalidateTokensForAccount(ctx, acct.ID); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "account_activated", "account_id", acct.ID)
	return nil
}
