package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// migration is one forward-only schema step. Steps must be idempotent
// (IF NOT EXISTS) so that pre-tracking databases can be adopted.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, description: "accounts and activation tokens", apply: migrateAccounts},
	{version: 2, description: "special lesson plans", apply: migratePlans},
	{version: 3, description: "plan list index", apply: migratePlanIndex},
}

// LatestSchemaVersion returns the version the migration chain ends at.
// PRE: none
// POST: Returns the highest migration version
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, or 0 for an untracked database.
// PRE: db is a valid database connection
// POST: Returns the current version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// Before touching a file-backed database that already holds data, a copy is
// written next to it with VACUUM INTO.
// PRE: db is a valid database connection; dbPath is the file path or ":memory:"
// POST: schema_version holds LatestSchemaVersion; each step ran in its own transaction
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 {
		if err := backupDB(db, dbPath, current); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", m.version, "description", m.description)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	if err := m.apply(tx); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
		m.version, m.description, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.version, err)
	}
	return tx.Commit()
}

// backupDB writes a consistent copy of the database before migrating.
func backupDB(db *sql.DB, dbPath string, version int) error {
	if dbPath == "" || strings.HasPrefix(dbPath, ":memory:") || strings.HasPrefix(dbPath, "file::memory:") {
		return nil
	}
	target := fmt.Sprintf("%s.v%d.%s.bak", dbPath, version, time.Now().UTC().Format("20060102T150405"))
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if _, err := db.Exec("VACUUM INTO ?", target); err != nil {
		return fmt.Errorf("failed to back up database before migration: %w", err)
	}
	slog.Info("schema_backup", "path", target, "version", version)
	return nil
}

func migrateAccounts(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS activation_token (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE
	);
	`)
	return err
}

func migratePlans(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS ozel_ders_planlari (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		class_level TEXT NOT NULL,
		subject TEXT NOT NULL,
		curriculum_topic TEXT NOT NULL,
		duration INTEGER NOT NULL,
		kazanimlar TEXT NOT NULL DEFAULT '',
		tasavvurat TEXT NOT NULL DEFAULT '',
		tasdikat TEXT NOT NULL DEFAULT '',
		model_sahsiyet TEXT NOT NULL DEFAULT '',
		deliller TEXT NOT NULL DEFAULT '',
		atolye_uretimi TEXT NOT NULL DEFAULT '',
		futuvet TEXT NOT NULL DEFAULT '',
		etkinlikler TEXT NOT NULL DEFAULT '',
		sozlu_kultur TEXT NOT NULL DEFAULT '',
		oyun_tasarimi TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		CHECK (duration BETWEEN 15 AND 180)
	);
	`)
	return err
}

func migratePlanIndex(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_plan_owner_date ON ozel_ders_planlari (user_id, date DESC, created_at DESC)`)
	return err
}
