// Package config loads the server configuration from an optional TOML file
// with DERSPLAN_* environment overrides.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultSupabaseTable is the record store table of the hosted deployment.
const DefaultSupabaseTable = "ozel_ders_planlari"

// Config errors
var (
	ErrMissingCSRFKey = errors.New("server.csrf_key is required in production")
	ErrInvalidCSRFKey = errors.New("server.csrf_key must be 64 hex characters")
	ErrInvalidEnv     = errors.New("server.env must be development or production")
	ErrMissingAnonKey = errors.New("supabase.anon_key is required when supabase.url is set")
	ErrMissingJWTKey  = errors.New("supabase.jwt_secret is required when supabase.url is set")
)

// Config is the full server configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Supabase   SupabaseConfig   `toml:"supabase"`
	Generation GenerationConfig `toml:"generation"`
	Email      EmailConfig      `toml:"email"`
	UI         UIConfig         `toml:"ui"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr               string `toml:"addr"`
	Env                string `toml:"env"`
	CSRFKey            string `toml:"csrf_key"` // 32 bytes, hex encoded
	RateLimitPerSecond int    `toml:"rate_limit_per_second"`
	SlowRequestMS      int    `toml:"slow_request_ms"`
}

// DatabaseConfig holds the local SQLite settings.
type DatabaseConfig struct {
	Path        string `toml:"path"`
	SlowQueryMS int    `toml:"slow_query_ms"`
}

// SupabaseConfig selects the hosted record store and authenticator.
// Leaving URL empty keeps everything local.
type SupabaseConfig struct {
	URL       string `toml:"url"`
	AnonKey   string `toml:"anon_key"`
	JWTSecret string `toml:"jwt_secret"`
	Table     string `toml:"table"`
}

// GenerationConfig holds the AI generation webhook settings.
type GenerationConfig struct {
	WebhookURL string   `toml:"webhook_url"`
	Timeout    Duration `toml:"timeout"` // zero waits for the webhook to answer
}

// EmailConfig holds activation mail settings for local accounts.
type EmailConfig struct {
	ResendKey string `toml:"resend_key"`
	From      string `toml:"from"`
	BaseURL   string `toml:"base_url"` // used to build activation links
}

// UIConfig holds screen timings.
type UIConfig struct {
	EditorRedirectDelay     Duration `toml:"editor_redirect_delay"`
	GenerationRedirectDelay Duration `toml:"generation_redirect_delay"`
	DraftTTL                Duration `toml:"draft_ttl"`
	AwaitingWindow          Duration `toml:"awaiting_window"`
}

// Duration is a time.Duration that decodes from TOML strings like "1.5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:               ":8080",
			Env:                EnvDevelopment,
			RateLimitPerSecond: 20,
			SlowRequestMS:      500,
		},
		Database: DatabaseConfig{
			Path:        "dersplan.db",
			SlowQueryMS: 100,
		},
		Supabase: SupabaseConfig{
			Table: DefaultSupabaseTable,
		},
		Email: EmailConfig{
			From:    "DersPlan <noreply@dersplan.local>",
			BaseURL: "http://localhost:8080",
		},
		UI: UIConfig{
			EditorRedirectDelay:     Duration{1500 * time.Millisecond},
			GenerationRedirectDelay: Duration{5 * time.Second},
			DraftTTL:                Duration{2 * time.Hour},
			AwaitingWindow:          Duration{10 * time.Minute},
		},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the file
// does not exist), then applies environment overrides, then validates.
// PRE: none
// POST: Returns a validated Config or the first decode/validation error
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	if c.Server.Env != EnvDevelopment && c.Server.Env != EnvProduction {
		return ErrInvalidEnv
	}
	if c.Server.CSRFKey == "" && c.IsProduction() {
		return ErrMissingCSRFKey
	}
	if c.Server.CSRFKey != "" {
		if b, err := hex.DecodeString(c.Server.CSRFKey); err != nil || len(b) != 32 {
			return ErrInvalidCSRFKey
		}
	}
	if c.UsesSupabase() {
		if c.Supabase.AnonKey == "" {
			return ErrMissingAnonKey
		}
		if c.Supabase.JWTSecret == "" {
			return ErrMissingJWTKey
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// UsesSupabase reports whether the hosted record store and authenticator are selected.
func (c *Config) UsesSupabase() bool {
	return strings.TrimSpace(c.Supabase.URL) != ""
}

// CSRFKeyBytes returns the decoded CSRF key, or nil when unset.
func (c *Config) CSRFKeyBytes() []byte {
	b, err := hex.DecodeString(c.Server.CSRFKey)
	if err != nil || len(b) != 32 {
		return nil
	}
	return b
}

// SlowRequestThreshold returns the request timing WARN threshold.
func (c *Config) SlowRequestThreshold() time.Duration {
	return time.Duration(c.Server.SlowRequestMS) * time.Millisecond
}

// SlowQueryThreshold returns the query timing WARN threshold.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.Database.SlowQueryMS) * time.Millisecond
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides file values with DERSPLAN_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"DERSPLAN_ADDR":                &c.Server.Addr,
		"DERSPLAN_ENV":                 &c.Server.Env,
		"DERSPLAN_CSRF_KEY":            &c.Server.CSRFKey,
		"DERSPLAN_DB_PATH":             &c.Database.Path,
		"DERSPLAN_SUPABASE_URL":        &c.Supabase.URL,
		"DERSPLAN_SUPABASE_ANON_KEY":   &c.Supabase.AnonKey,
		"DERSPLAN_SUPABASE_JWT_SECRET": &c.Supabase.JWTSecret,
		"DERSPLAN_SUPABASE_TABLE":      &c.Supabase.Table,
		"DERSPLAN_GENERATION_WEBHOOK":  &c.Generation.WebhookURL,
		"DERSPLAN_RESEND_KEY":          &c.Email.ResendKey,
		"DERSPLAN_EMAIL_FROM":          &c.Email.From,
		"DERSPLAN_BASE_URL":            &c.Email.BaseURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DERSPLAN_RATE_LIMIT":      &c.Server.RateLimitPerSecond,
		"DERSPLAN_SLOW_REQUEST_MS": &c.Server.SlowRequestMS,
		"DERSPLAN_SLOW_QUERY_MS":   &c.Database.SlowQueryMS,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*Duration{
		"DERSPLAN_GENERATION_TIMEOUT": &c.Generation.Timeout,
		"DERSPLAN_DRAFT_TTL":          &c.UI.DraftTTL,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return nil
}
