package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the text encoding of every timestamp column.
const TimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// Open opens a SQLite database at path and applies the schema.
// PRE: path is a file path or ":memory:"
// POST: Returns a ready database with foreign keys enforced
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// modernc sqlite allows a single writer; an in-memory database is per connection.
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		email_key TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		family_id TEXT,
		archived INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS family (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		primary_account_id TEXT NOT NULL,
		archived INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS family_guardian (
		family_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (family_id, account_id),
		FOREIGN KEY (family_id) REFERENCES family(id) ON DELETE CASCADE,
		FOREIGN KEY (account_id) REFERENCES account(id)
	);

	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		family_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		date_of_birth TEXT NOT NULL DEFAULT '',
		medical_notes TEXT NOT NULL DEFAULT '',
		internal_flags TEXT NOT NULL DEFAULT '',
		account_id TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (family_id) REFERENCES family(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS program (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		skill_level TEXT NOT NULL DEFAULT '',
		archived INTEGER NOT NULL DEFAULT 0,
		min_age INTEGER NOT NULL DEFAULT 0,
		max_age INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS enrollment (
		id TEXT PRIMARY KEY,
		program_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		days_per_week INTEGER NOT NULL,
		selected_days TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT '',
		UNIQUE (member_id, program_id),
		FOREIGN KEY (member_id) REFERENCES member(id) ON DELETE CASCADE,
		FOREIGN KEY (program_id) REFERENCES program(id)
	);

	CREATE INDEX IF NOT EXISTS idx_member_family ON member(family_id);
	CREATE INDEX IF NOT EXISTS idx_account_family ON account(family_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// FormatTime encodes t for a timestamp column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime decodes a timestamp column. Empty strings decode to the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	formats := []string{
		time.RFC3339Nano,
		TimeLayout,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// NullString maps "" to SQL NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
