// Package test provides store test harnesses: an in-memory SQLite
// store for fast driver tests and a testcontainers-backed PostgreSQL
// store for integration tests.
package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wishfactory/wishfactory/internal/profile"
	"github.com/wishfactory/wishfactory/store"
	"github.com/wishfactory/wishfactory/store/db"
)

// Schema ownership and migrations live with the surrounding CRUD
// application; this DDL exists for tests only.
const sqliteTestSchema = `
CREATE TABLE IF NOT EXISTS wish (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	status TEXT NOT NULL DEFAULT 'DRAFT',
	text TEXT NOT NULL,
	language TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS similarity_score (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	wish_id_a INTEGER NOT NULL,
	wish_id_b INTEGER NOT NULL,
	cosine REAL NOT NULL DEFAULT 0,
	jaccard REAL NOT NULL DEFAULT 0,
	levenshtein REAL NOT NULL DEFAULT 0,
	tfidf REAL NOT NULL DEFAULT 0,
	overall REAL NOT NULL DEFAULT 0,
	computed_ts BIGINT NOT NULL,
	UNIQUE (wish_id_a, wish_id_b)
);
`

const postgresTestSchema = `
CREATE TABLE IF NOT EXISTS wish (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	status TEXT NOT NULL DEFAULT 'DRAFT',
	text TEXT NOT NULL,
	language TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS similarity_score (
	id SERIAL PRIMARY KEY,
	wish_id_a INTEGER NOT NULL,
	wish_id_b INTEGER NOT NULL,
	cosine REAL NOT NULL DEFAULT 0,
	jaccard REAL NOT NULL DEFAULT 0,
	levenshtein REAL NOT NULL DEFAULT 0,
	tfidf REAL NOT NULL DEFAULT 0,
	overall REAL NOT NULL DEFAULT 0,
	computed_ts BIGINT NOT NULL,
	UNIQUE (wish_id_a, wish_id_b)
);
`

func getDriverFromEnv() string {
	if driver := os.Getenv("WISHFACTORY_TEST_DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}

// NewTestStore creates a store backed by a throwaway database. The
// backing driver defaults to SQLite; set WISHFACTORY_TEST_DRIVER=postgres
// to run against a containerized PostgreSQL instead.
func NewTestStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: getDriverFromEnv(),
	}
	schema := sqliteTestSchema
	switch testProfile.Driver {
	case "postgres":
		testProfile.DSN = GetPostgresDSN(t)
		schema = postgresTestSchema
	default:
		testProfile.DSN = filepath.Join(t.TempDir(), "wishfactory_test.db")
	}

	driver, err := db.NewDBDriver(testProfile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	if _, err := driver.GetDB().ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to seed test schema: %v", err)
	}
	// Start each test from empty tables when reusing an external database.
	if _, err := driver.GetDB().ExecContext(ctx, "DELETE FROM similarity_score; DELETE FROM wish;"); err != nil {
		t.Fatalf("failed to reset test tables: %v", err)
	}

	storeInstance := store.New(driver, testProfile)
	t.Cleanup(func() {
		if err := storeInstance.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return storeInstance
}
