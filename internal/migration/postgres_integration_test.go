package migration

import (
	"database/sql"
	"io/fs"
	"os"
	"testing"
	"testing/fstest"

	_ "github.com/lib/pq"

	"github.com/julianstephens/brahmacharya/migrations"
)

// setupPostgresTestDB opens the database named by POSTGRES_TEST_URL, e.g.
// POSTGRES_TEST_URL="postgres://user@localhost:5432/testdb?sslmode=disable"
func setupPostgresTestDB(t *testing.T) (*sql.DB, func()) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open postgres database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping postgres database: %v", err)
	}

	cleanup := func() {
		db.Exec("DROP TABLE IF EXISTS schema_version")
		db.Exec("DROP TABLE IF EXISTS kv_store")
		db.Exec("DROP TABLE IF EXISTS test_kv")
		db.Close()
	}

	return db, cleanup
}

// TestPostgresEmbeddedMigrations applies the shipped schema using $1 placeholders
func TestPostgresEmbeddedMigrations(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		t.Fatalf("fs.Sub failed: %v", err)
	}
	runner, err := NewRunner(db, subFS, DriverPostgres)
	if err != nil {
		t.Fatalf("failed to create migration runner: %v", err)
	}

	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}

	var exists bool
	err = db.QueryRow("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'kv_store')").Scan(&exists)
	if err != nil {
		t.Fatalf("failed to check kv_store table: %v", err)
	}
	if !exists {
		t.Error("kv_store table was not created")
	}

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (2nd) failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", count)
	}
}

func TestPostgresMigrationRollbackOnError(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	runner, err := NewRunner(db, fstest.MapFS{
		"001_bad.sql": {Data: []byte(`
			CREATE TABLE test_kv (key TEXT PRIMARY KEY);
			THIS IS INVALID SQL;
		`)},
	}, DriverPostgres)
	if err != nil {
		t.Fatalf("failed to create migration runner: %v", err)
	}

	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Fatal("ApplyMigrations should have failed with invalid SQL")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after failed migration, got %d", version)
	}
}
