package browser_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"dersplan/internal/adapters/email"
	web "dersplan/internal/adapters/http"
	"dersplan/internal/adapters/generation"
	"dersplan/internal/adapters/storage"
	accountStore "dersplan/internal/adapters/storage/account"
	"dersplan/internal/adapters/storage/draft"
	planStore "dersplan/internal/adapters/storage/plan"
	"dersplan/internal/application/orchestrators"
	generationDomain "dersplan/internal/domain/generation"
	"dersplan/internal/domain/plan"
)

const (
	teacherEmail    = "ogretmen@okul.k12.tr"
	teacherPassword = "GizliSifre123"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL   string
	Plans     *planStore.SQLiteStore
	Mailer    *email.NoopSender
	TeacherID string
	Browser   playwright.Browser

	mu   sync.Mutex
	jobs []generationDomain.Job
}

// newTestApp wires the app on a temp SQLite DB with local accounts and a fake
// generation webhook, and starts a browser. The test is skipped in -short mode
// and when the Playwright driver is not installed.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright driver unavailable: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		t.Skipf("failed to launch browser: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}
	timed := storage.NewTimedDB(db, 0)

	plans := planStore.NewSQLiteStore(timed)
	accounts := accountStore.NewSQLiteStore(timed)
	mailer := email.NewNoopSender()

	app := &testApp{Plans: plans, Mailer: mailer, Browser: browser}

	teacherID, err := orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email:    teacherEmail,
		Password: teacherPassword,
	}, orchestrators.CreateAccountDeps{AccountStore: accounts})
	if err != nil {
		t.Fatalf("failed to create teacher: %v", err)
	}
	app.TeacherID = teacherID

	// the fake workflow writes the generated plan before answering
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var job generationDomain.Job
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		app.mu.Lock()
		app.jobs = append(app.jobs, job)
		app.mu.Unlock()
		_, err := plans.Create(r.Context(), plan.Plan{
			Owner: job.Owner, Title: "YZ: " + job.CurriculumTopic, Date: time.Now(),
			ClassLevel: job.ClassLevel, Subject: job.Subject, CurriculumTopic: job.CurriculumTopic,
			DurationMinutes: 40,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	baseURL := fmt.Sprintf("http://%s", listener.Addr().String())

	auth := &orchestrators.LocalAuthenticator{Accounts: accounts, Mailer: mailer, BaseURL: baseURL}
	server := web.NewServer(web.Deps{
		Plans:     plans,
		Auth:      auth,
		Submitter: generation.NewWebhookClient(hook.URL, 5*time.Second),
		Drafts:    draft.NewCacheStore(time.Hour),
		Accounts:  accounts,
		DB:        timed,
	}, web.Options{
		CSRFKey:                 make([]byte, 32),
		RateLimitPerSecond:      1000,
		EditorRedirectDelay:     300 * time.Millisecond,
		GenerationRedirectDelay: 500 * time.Millisecond,
		AwaitingWindow:          time.Minute,
	})
	srv := &http.Server{Handler: server.Handler()}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	app.BaseURL = baseURL
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		hook.Close()
		db.Close()
	})
	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in as the seeded teacher and waits for the plan list.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	a.goTo(t, page, "/login")
	fill(t, page, "input[name=email]", teacherEmail)
	fill(t, page, "input[name=password]", teacherPassword)
	click(t, page, "form[action=\"/login\"] button[type=submit]")
	a.waitForURL(t, page, `/plans$`)
}

func (a *testApp) goTo(t *testing.T, page playwright.Page, path string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + path); err != nil {
		t.Fatalf("failed to navigate to %s: %v", path, err)
	}
}

func (a *testApp) waitForURL(t *testing.T, page playwright.Page, pattern string) {
	t.Helper()
	err := page.WaitForURL(regexp.MustCompile(pattern), playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	})
	if err != nil {
		t.Fatalf("url %s never matched %s: %v", page.URL(), pattern, err)
	}
}

func (a *testApp) jobCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.jobs)
}

func fill(t *testing.T, page playwright.Page, selector, value string) {
	t.Helper()
	if err := page.Locator(selector).Fill(value); err != nil {
		t.Fatalf("failed to fill %s: %v", selector, err)
	}
}

func selectOption(t *testing.T, page playwright.Page, selector, value string) {
	t.Helper()
	if _, err := page.Locator(selector).SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	}); err != nil {
		t.Fatalf("failed to select %s in %s: %v", value, selector, err)
	}
}

func click(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).First().Click(); err != nil {
		t.Fatalf("failed to click %s: %v", selector, err)
	}
}

func count(t *testing.T, page playwright.Page, selector string) int {
	t.Helper()
	n, err := page.Locator(selector).Count()
	if err != nil {
		t.Fatalf("failed to count %s: %v", selector, err)
	}
	return n
}

func text(t *testing.T, page playwright.Page, selector string) string {
	t.Helper()
	s, err := page.Locator(selector).First().TextContent()
	if err != nil {
		t.Fatalf("failed to read %s: %v", selector, err)
	}
	return s
}
