package account

import (
	"errors"
	"time"
)

// Authentication errors shared by every authenticator.
var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked, try again later")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrEmailTaken         = errors.New("user already registered")
	ErrSessionExpired     = errors.New("session expired")
	ErrNoActiveSession    = errors.New("no active session")
)

// Identity is the signed-in teacher as the session gate sees it.
// AccessToken and RefreshToken are set only by hosted authenticators.
type Identity struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // zero means the identity does not expire on its own
}

// Expired reports whether the identity's token has lapsed at now.
// INVARIANT: Identity fields are not mutated
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// SignUpResult is the outcome of a registration.
// When PendingConfirmation is true the teacher must follow the e-mailed link
// before signing in and Identity is empty.
type SignUpResult struct {
	PendingConfirmation bool
	Identity            Identity
}
