package orchestrators

import (
	"context"
	"strings"
	"sync"

	"dersplan/internal/domain/account"
	"dersplan/internal/domain/generation"
	"dersplan/internal/domain/plan"
)

// --- Mock plan store ---

type mockPlanStore struct {
	mu      sync.Mutex
	plans   map[string]plan.Plan
	creates []plan.Plan
	updates []plan.Plan
	deletes []string
	nextID  int
	failErr error // returned by every mutating call when set
}

func newMockPlanStore(seed ...plan.Plan) *mockPlanStore {
	m := &mockPlanStore{plans: map[string]plan.Plan{}}
	for _, p := range seed {
		m.plans[p.ID] = p
	}
	return m
}

func (m *mockPlanStore) Create(_ context.Context, p plan.Plan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, p)
	if m.failErr != nil {
		return "", m.failErr
	}
	m.nextID++
	p.ID = "plan-" + strings.Repeat("x", m.nextID)
	m.plans[p.ID] = p
	return p.ID, nil
}

func (m *mockPlanStore) Update(_ context.Context, p plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, p)
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.plans[p.ID]; !ok {
		return plan.ErrNotFound
	}
	m.plans[p.ID] = p
	return nil
}

func (m *mockPlanStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, id)
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.plans[id]; !ok {
		return plan.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

func (m *mockPlanStore) GetByID(_ context.Context, id string) (plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return plan.Plan{}, plan.ErrNotFound
	}
	return p, nil
}

// --- Mock generation submitter ---

type mockSubmitter struct {
	jobs []generation.Job
	err  error
}

func (m *mockSubmitter) Submit(_ context.Context, job generation.Job) error {
	m.jobs = append(m.jobs, job)
	return m.err
}

// --- Mock account store ---

type mockAccountStore struct {
	accounts map[string]account.Account
	tokens   map[string]account.ActivationToken
	saves    int
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts: map[string]account.Account{},
		tokens:   map[string]account.ActivationToken{},
	}
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == account.NormalizeEmail(email) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.saves++
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) SaveActivationToken(_ context.Context, t account.ActivationToken) error {
	m.tokens[t.Token] = t
	return nil
}

func (m *mockAccountStore) GetActivationTokenByToken(_ context.Context, token string) (account.ActivationToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return account.ActivationToken{}, account.ErrTokenInvalid
	}
	return t, nil
}

func (m *mockAccountStore) InvalidateTokensForAccount(_ context.Context, accountID string) error {
	for k, t := range m.tokens {
		if t.AccountID == accountID {
			t.Used = true
			m.tokens[k] = t
		}
	}
	return nil
}

// --- Mock authenticator ---

type mockAuthenticator struct {
	signIns  int
	signUps  int
	signOuts int
	identity account.Identity
	err      error
}

func (m *mockAuthenticator) SignIn(context.Context, string, string) (account.Identity, error) {
	m.signIns++
	return m.identity, m.err
}

func (m *mockAuthenticator) SignUp(context.Context, string, string) (account.SignUpResult, error) {
	m.signUps++
	return account.SignUpResult{PendingConfirmation: true}, m.err
}

func (m *mockAuthenticator) SignOut(context.Context, account.Identity) error {
	m.signOuts++
	return m.err
}

func (m *mockAuthenticator) Refresh(_ context.Context, id account.Identity) (account.Identity, error) {
	return id, m.err
}
