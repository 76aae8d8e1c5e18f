package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dersplan/internal/domain/account"
)

// Authenticator signs teachers in and out against GoTrue.
type Authenticator struct {
	client    *Client
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthenticator creates a GoTrue Authenticator.
// PRE: jwtSecret is the project's JWT signing secret
func NewAuthenticator(client *Client, jwtSecret string) *Authenticator {
	return &Authenticator{client: client, jwtSecret: []byte(jwtSecret), now: time.Now}
}

// tokenResponse is GoTrue's session payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// accessClaims are the claims GoTrue puts in an access token.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignIn exchanges credentials for a session.
// POST: on success the identity carries a verified access token
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (account.Identity, error) {
	var tok tokenResponse
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": account.NormalizeEmail(email), "password": password},
	}, &tok)
	if err != nil {
		return account.Identity{}, mapAuthError(err)
	}
	return a.identityFrom(tok)
}

// SignUp registers a teacher. GoTrue answers without a session when e-mail
// confirmation is required.
func (a *Authenticator) SignUp(ctx context.Context, email, password string) (account.SignUpResult, error) {
	var tok tokenResponse
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   map[string]string{"email": account.NormalizeEmail(email), "password": password},
	}, &tok)
	if err != nil {
		return account.SignUpResult{}, mapAuthError(err)
	}
	if tok.AccessToken == "" {
		return account.SignUpResult{PendingConfirmation: true}, nil
	}
	id, err := a.identityFrom(tok)
	if err != nil {
		return account.SignUpResult{}, err
	}
	return account.SignUpResult{Identity: id}, nil
}

// SignOut revokes the identity's refresh tokens. An identity without an
// access token has nothing to revoke.
func (a *Authenticator) SignOut(ctx context.Context, id account.Identity) error {
	if id.AccessToken == "" {
		return nil
	}
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: id.AccessToken,
	}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		// token already revoked or expired
		return nil
	}
	return err
}

// Refresh trades the refresh token for a new session.
// POST: ErrSessionExpired when GoTrue rejects the refresh token
func (a *Authenticator) Refresh(ctx context.Context, id account.Identity) (account.Identity, error) {
	if id.RefreshToken == "" {
		return account.Identity{}, account.ErrSessionExpired
	}
	var tok tokenResponse
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": id.RefreshToken},
	}, &tok)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return account.Identity{}, account.ErrSessionExpired
		}
		return account.Identity{}, err
	}
	return a.identityFrom(tok)
}

// Verify checks an access token's signature and expiry and returns its identity.
// PRE: token was issued by this project
// POST: ErrSessionExpired for expired tokens
func (a *Authenticator) Verify(token string) (account.Identity, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return account.Identity{}, account.ErrSessionExpired
		}
		return account.Identity{}, fmt.Errorf("verify access token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return account.Identity{}, errors.New("access token has no subject")
	}

	id := account.Identity{UserID: claims.Subject, Email: claims.Email, AccessToken: token}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func (a *Authenticator) identityFrom(tok tokenResponse) (account.Identity, error) {
	id, err := a.Verify(tok.AccessToken)
	if err != nil {
		slog.Warn("auth_event", "event", "token_rejected", "error", err)
		return account.Identity{}, err
	}
	if id.Email == "" {
		id.Email = tok.User.Email
	}
	id.RefreshToken = tok.RefreshToken
	return id, nil
}

// mapAuthError turns the GoTrue answers the screens react to into account
// errors. Anything else is returned as is so its message reaches the user.
func mapAuthError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case "invalid_credentials", "invalid_grant":
		return account.ErrInvalidCredentials
	case "email_not_confirmed":
		return account.ErrEmailNotConfirmed
	case "user_already_exists", "email_exists":
		return account.ErrEmailTaken
	}
	msg := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(msg, "invalid login credentials"):
		return account.ErrInvalidCredentials
	case strings.Contains(msg, "email not confirmed"):
		return account.ErrEmailNotConfirmed
	case strings.Contains(msg, "already registered"):
		return account.ErrEmailTaken
	}
	return apiErr
}
