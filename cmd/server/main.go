package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	emailPkg "dersplan/internal/adapters/email"
	"dersplan/internal/adapters/generation"
	web "dersplan/internal/adapters/http"
	"dersplan/internal/adapters/storage"
	accountStore "dersplan/internal/adapters/storage/account"
	"dersplan/internal/adapters/storage/draft"
	planStore "dersplan/internal/adapters/storage/plan"
	"dersplan/internal/adapters/supabase"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "dersplan",
	Short:         "DersPlan special lesson plan server",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Default to serve when no subcommand is provided
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dersplan.toml", "path to the TOML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, createUserCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("dersplan: %v", err)
	}
}

// openDB opens the SQLite database with WAL mode, foreign keys and busy
// timeout, and migrates it to the latest schema.
func openDB(cfg config.Config) (*sql.DB, *storage.TimedDB, error) {
	dbPath := cfg.Database.Path
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, storage.NewTimedDB(db, cfg.SlowQueryThreshold()), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, timedDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Printf("Database ready (schema=%d)", storage.LatestSchemaVersion())

	deps := web.Deps{
		Submitter: generation.NewWebhookClient(cfg.Generation.WebhookURL, cfg.Generation.Timeout.Duration),
		Drafts:    draft.NewCacheStore(cfg.UI.DraftTTL.Duration),
		DB:        timedDB,
	}
	if cfg.Generation.WebhookURL == "" {
		log.Println("WARNING: generation webhook is not set, AI plan requests will be refused")
	}

	if cfg.UsesSupabase() {
		client := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, nil)
		deps.Plans = supabase.NewPlanStore(client, cfg.Supabase.Table, web.AccessToken)
		deps.Auth = supabase.NewAuthenticator(client, cfg.Supabase.JWTSecret)
		log.Printf("Using hosted record store (%s, table %s)", cfg.Supabase.URL, cfg.Supabase.Table)
	} else {
		accounts := accountStore.NewSQLiteStore(timedDB)
		deps.Plans = planStore.NewSQLiteStore(timedDB)
		deps.Accounts = accounts
		deps.Auth = &orchestrators.LocalAuthenticator{
			Accounts: accounts,
			Mailer:   newMailer(cfg),
			BaseURL:  cfg.Email.BaseURL,
		}
		log.Println("Using local record store and accounts")
	}

	csrfKey := cfg.CSRFKeyBytes()
	if csrfKey == nil {
		// development only; Validate requires a key in production
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return fmt.Errorf("failed to generate csrf key: %w", err)
		}
		log.Println("WARNING: server.csrf_key is not set, forms break on restart")
	}

	server := web.NewServer(deps, web.Options{
		CSRFKey:                 csrfKey,
		SecureCookies:           cfg.IsProduction(),
		RateLimitPerSecond:      cfg.Server.RateLimitPerSecond,
		SlowRequest:             cfg.SlowRequestThreshold(),
		EditorRedirectDelay:     cfg.UI.EditorRedirectDelay.Duration,
		GenerationRedirectDelay: cfg.UI.GenerationRedirectDelay.Duration,
		AwaitingWindow:          cfg.UI.AwaitingWindow.Duration,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("DersPlan %s starting on %s (env=%s)", version, cfg.Server.Addr, cfg.Server.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

func newMailer(cfg config.Config) emailPkg.Sender {
	if cfg.Email.ResendKey != "" {
		log.Println("Email sender configured (Resend)")
		return emailPkg.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
	}
	if cfg.IsProduction() {
		log.Println("WARNING: DERSPLAN_RESEND_KEY is not set, activation mail is DISABLED in production")
	} else {
		log.Println("Email sender configured (noop, set DERSPLAN_RESEND_KEY for real delivery)")
	}
	return emailPkg.NewNoopSender()
}
