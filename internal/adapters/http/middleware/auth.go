package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dersplan/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionTTL bounds a session's lifetime regardless of the identity's own expiry.
const SessionTTL = 24 * time.Hour

// sessionSweepInterval is the least time between two sweeps of expired sessions.
const sessionSweepInterval = time.Minute

// Session is an authenticated browser session.
type Session struct {
	ID        string // stable key for per-session state such as the wizard draft
	Identity  account.Identity
	CreatedAt time.Time
}

// SessionStore is an in-memory session store keyed by cookie token.
// Expired sessions are dropped when presented and swept on Create and Len.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	secure    bool // cookies carry the Secure flag
	lastSweep time.Time
	now       func() time.Time
}

// NewSessionStore creates a new in-memory session store. secureCookies
// marks the session cookie Secure; set it when served over HTTPS.
func NewSessionStore(secureCookies bool) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		secure:   secureCookies,
		now:      time.Now,
	}
}

// Create stores a new session for id and returns its cookie token.
// PRE: id.UserID is non-empty
// POST: Session is stored, token is returned
func (ss *SessionStore) Create(id account.Identity) (string, Session, error) {
	token, err := generateToken()
	if err != nil {
		return "", Session{}, err
	}
	now := ss.now()
	sess := Session{ID: uuid.NewString(), Identity: id, CreatedAt: now}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sweepLocked(now)
	ss.sessions[token] = sess
	return token, sess, nil
}

// sweepLocked removes sessions older than SessionTTL, at most once per
// sessionSweepInterval.
// PRE: ss.mu is held for writing
func (ss *SessionStore) sweepLocked(now time.Time) {
	if now.Sub(ss.lastSweep) < sessionSweepInterval {
		return
	}
	ss.lastSweep = now
	for token, sess := range ss.sessions {
		if now.Sub(sess.CreatedAt) > SessionTTL {
			delete(ss.sessions, token)
		}
	}
}

// Get retrieves a session by token.
// POST: expired sessions are removed and reported as missing
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	session, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > SessionTTL {
		ss.Delete(token)
		return Session{}, false
	}
	return session, true
}

// Update replaces the session for a given token in-place.
// PRE: token exists in the store
// POST: Session is replaced with the new value
func (ss *SessionStore) Update(token string, session Session) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.sessions[token]; !ok {
		return false
	}
	ss.sessions[token] = session
	return true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// Len returns the number of stored sessions.
func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sweepLocked(ss.now())
	return len(ss.sessions)
}

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "dersplan_session"

// Refresher renews an identity whose access token has lapsed.
type Refresher interface {
	Refresh(ctx context.Context, id account.Identity) (account.Identity, error)
}

// Auth returns middleware that resolves the session cookie and puts the
// session in the request context. Lapsed identities are refreshed once;
// if that fails the session is dropped.
// It does NOT block unauthenticated requests; use RequireAuth for that.
func Auth(sessions *SessionStore, refresher Refresher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			session, ok := sessions.Get(cookie.Value)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if session.Identity.Expired(sessions.now()) {
				renewed, err := refresher.Refresh(r.Context(), session.Identity)
				if err != nil {
					slog.Info("auth_event", "event", "session_expired", "user_id", session.Identity.UserID, "error", err)
					sessions.Delete(cookie.Value)
					sessions.ClearCookie(w)
					next.ServeHTTP(w, r)
					return
				}
				session.Identity = renewed
				sessions.Update(cookie.Value, session)
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// RequireAuth blocks unauthenticated requests: pages redirect to /login,
// JSON clients get 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			if strings.Contains(r.Header.Get("Accept"), "application/json") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// CurrentUserID returns the signed-in user's id, or "" when there is no session.
func CurrentUserID(ctx context.Context) string {
	session, _ := GetSessionFromContext(ctx)
	return session.Identity.UserID
}

// AccessToken returns the session's access token for calls made on the
// user's behalf, or "" when there is none.
func AccessToken(ctx context.Context) string {
	session, _ := GetSessionFromContext(ctx)
	return session.Identity.AccessToken
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SetCookie sets the session cookie on the response.
func (ss *SessionStore) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   ss.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
	})
}

// ClearCookie removes the session cookie.
func (ss *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   ss.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
