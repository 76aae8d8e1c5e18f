package web

import (
	"context"
	"net/http"
	"time"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/adapters/http/perf"
	"dersplan/internal/adapters/storage"
	"dersplan/internal/adapters/storage/draft"
	planstore "dersplan/internal/adapters/storage/plan"
	"dersplan/internal/application/orchestrators"
)

// Deps holds the collaborators the handlers call.
type Deps struct {
	Plans     planstore.Store
	Auth      orchestrators.Authenticator
	Submitter orchestrators.GenerationSubmitter
	Drafts    draft.Store
	// Accounts is set only with local accounts; it backs /activate.
	Accounts orchestrators.AccountStore
	// DB is pinged by /healthz when set.
	DB HealthChecker
}

// HealthChecker is the database view /healthz reports on.
type HealthChecker interface {
	PingContext(ctx context.Context) error
	Stats() storage.QueryStats
}

// Options holds the tunables of the web layer.
type Options struct {
	CSRFKey            []byte
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequest        time.Duration

	EditorRedirectDelay     time.Duration
	GenerationRedirectDelay time.Duration
	AwaitingWindow          time.Duration
}

// Server is the DersPlan web application.
type Server struct {
	deps     Deps
	opts     Options
	sessions *middleware.SessionStore
	latency  *perf.Recorder
	inflight orchestrators.InFlight
	now      func() time.Time
}

// NewServer creates a Server.
// PRE: deps.Plans, deps.Auth, deps.Submitter and deps.Drafts are non-nil; opts.CSRFKey is 32 bytes
func NewServer(deps Deps, opts Options) *Server {
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	if opts.AwaitingWindow <= 0 {
		opts.AwaitingWindow = 5 * time.Minute
	}
	return &Server{
		deps:     deps,
		opts:     opts,
		sessions: middleware.NewSessionStore(opts.SecureCookies),
		latency:  perf.NewRecorder(perf.DefaultWindow),
		now:      time.Now,
	}
}

// Sessions exposes the session store.
func (s *Server) Sessions() *middleware.SessionStore {
	return s.sessions
}

// Handler wires routes and middleware.
func (s *Server) Handler() http.Handler {
	limiter := middleware.NewRateLimiter(s.opts.RateLimitPerSecond, time.Second)

	return middleware.Chain(s.routes(),
		middleware.SecurityHeaders,
		middleware.CSRF(s.opts.CSRFKey, s.opts.SecureCookies, s.opts.TrustedOrigins),
		middleware.Auth(s.sessions, s.deps.Auth),
		middleware.RateLimit(limiter),
		middleware.Timing(s.opts.SlowRequest, s.latency),
	)
}

// AccessToken returns the access token of the request's session. Hosted
// stores use it to act as the signed-in teacher.
func AccessToken(ctx context.Context) string {
	return middleware.AccessToken(ctx)
}
