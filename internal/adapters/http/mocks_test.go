package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/adapters/storage/draft"
	planstore "dersplan/internal/adapters/storage/plan"
	"dersplan/internal/domain/account"
	"dersplan/internal/domain/generation"
	"dersplan/internal/domain/plan"
)

type mockPlanStore struct {
	mu      sync.Mutex
	plans   map[string]plan.Plan
	creates []plan.Plan
	updates []plan.Plan
	deletes []string
	nextID  int
	failErr error // returned by every mutating call when set
	listErr error
}

func newMockPlanStore() *mockPlanStore {
	return &mockPlanStore{plans: map[string]plan.Plan{}}
}

// Create implements the plan store interface for testing.
// PRE: p has been validated
// POST: p is stored under a new id
func (m *mockPlanStore) Create(ctx context.Context, p plan.Plan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.failErr != nil {
		return "", m.failErr
	}
	m.nextID++
	p.ID = "p-" + strconv.Itoa(m.nextID)
	p.CreatedAt = time.Now()
	m.plans[p.ID] = p
	m.creates = append(m.creates, p)
	return p.ID, nil
}

// Update implements the plan store interface for testing.
func (m *mockPlanStore) Update(ctx context.Context, p plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.plans[p.ID]; !ok {
		return plan.ErrNotFound
	}
	m.plans[p.ID] = p
	m.updates = append(m.updates, p)
	return nil
}

// Delete implements the plan store interface for testing.
func (m *mockPlanStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.plans[id]; !ok {
		return plan.ErrNotFound
	}
	delete(m.plans, id)
	m.deletes = append(m.deletes, id)
	return nil
}

// GetByID implements the plan store interface for testing.
func (m *mockPlanStore) GetByID(_ context.Context, id string) (plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return plan.Plan{}, plan.ErrNotFound
	}
	return p, nil
}

// List implements the plan store interface for testing.
// POST: plans of filter.Owner, newest date first
func (m *mockPlanStore) List(_ context.Context, filter planstore.ListFilter) ([]plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []plan.Plan
	for _, p := range m.plans {
		if filter.Owner != "" && p.Owner != filter.Owner {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !p.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *mockPlanStore) put(p plan.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
}

type mockAuth struct {
	signInErr  error
	signUp     account.SignUpResult
	signUpErr  error
	refreshErr error
	signOuts   int
}

// SignIn implements the authenticator interface for testing.
func (m *mockAuth) SignIn(_ context.Context, email, _ string) (account.Identity, error) {
	if m.signInErr != nil {
		return account.Identity{}, m.signInErr
	}
	return account.Identity{UserID: "u-1", Email: account.NormalizeEmail(email)}, nil
}

// SignUp implements the authenticator interface for testing.
func (m *mockAuth) SignUp(context.Context, string, string) (account.SignUpResult, error) {
	return m.signUp, m.signUpErr
}

// SignOut implements the authenticator interface for testing.
func (m *mockAuth) SignOut(context.Context, account.Identity) error {
	m.signOuts++
	return nil
}

// Refresh implements the authenticator interface for testing.
func (m *mockAuth) Refresh(_ context.Context, id account.Identity) (account.Identity, error) {
	if m.refreshErr != nil {
		return account.Identity{}, m.refreshErr
	}
	id.ExpiresAt = time.Now().Add(time.Hour)
	return id, nil
}

type mockSubmitter struct {
	mu   sync.Mutex
	jobs []generation.Job
	err  error
}

// Submit implements the generation submitter interface for testing.
func (m *mockSubmitter) Submit(ctx context.Context, job generation.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.jobs = append(m.jobs, job)
	return m.err
}

var errStoreDown = errors.New("connection refused by record store")

// testEnv bundles a server with its collaborators.
type testEnv struct {
	server    *Server
	plans     *mockPlanStore
	auth      *mockAuth
	submitter *mockSubmitter
	drafts    *draft.CacheStore
	session   middleware.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		plans:     newMockPlanStore(),
		auth:      &mockAuth{},
		submitter: &mockSubmitter{},
		drafts:    draft.NewCacheStore(time.Hour),
		session: middleware.Session{
			ID:        "sess-1",
			Identity:  account.Identity{UserID: "u-1", Email: "ayse.yilmaz@okul.k12.tr"},
			CreatedAt: time.Now(),
		},
	}
	env.server = NewServer(Deps{
		Plans:     env.plans,
		Auth:      env.auth,
		Submitter: env.submitter,
		Drafts:    env.drafts,
	}, Options{
		CSRFKey:                 make([]byte, 32),
		EditorRedirectDelay:     1500 * time.Millisecond,
		GenerationRedirectDelay: 5 * time.Second,
		AwaitingWindow:          5 * time.Minute,
	})
	return env
}

// do sends a request straight to the routes, signed in as env.session.
// A nil form sends no body.
func (env *testEnv) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return env.send(t, method, target, form, true)
}

// doAnon sends a request without a session.
func (env *testEnv) doAnon(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return env.send(t, method, target, form, false)
}

// doAbandoned sends a signed-in request whose client has already gone away.
func (env *testEnv) doAbandoned(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := env.request(method, target, form, true)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rr := httptest.NewRecorder()
	env.server.routes().ServeHTTP(rr, req.WithContext(ctx))
	return rr
}

func (env *testEnv) send(t *testing.T, method, target string, form url.Values, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	env.server.routes().ServeHTTP(rr, env.request(method, target, form, signedIn))
	return rr
}

func (env *testEnv) request(method, target string, form url.Values, signedIn bool) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if signedIn {
		req = req.WithContext(middleware.ContextWithSession(req.Context(), env.session))
	}
	return req
}

// samplePlan returns a valid plan owned by owner.
func samplePlan(id, owner string) plan.Plan {
	return plan.Plan{
		ID:              id,
		Owner:           owner,
		Title:           "Kesirlerle Tanışma",
		Date:            time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
		ClassLevel:      "5. Sınıf",
		Subject:         "Matematik",
		CurriculumTopic: "Kesir kavramı",
		DurationMinutes: 45,
		Sections:        map[string]string{},
		CreatedAt:       time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC),
	}
}
