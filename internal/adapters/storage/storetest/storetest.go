// Package storetest opens throwaway databases for store tests.
package storetest

import (
	"database/sql"
	"testing"

	"household/internal/adapters/storage"
)

// OpenDB returns an in-memory database with the schema applied.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Exec runs fixture statements and fails the test on the first error.
func Exec(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
}
