package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"runs", "patches", "conventions", "dataflows", "snapshots"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"}, // ON
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

// Schema tests

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"runs":        {"id", "architecture", "program_digest", "placement", "status", "analyzer_version", "ir_version", "source"},
		"patches":     {"run_id", "seq", "blocks_scanned", "blocks_patched", "synthesized"},
		"conventions": {"run_id", "callee", "seq", "status", "convention", "arguments_size"},
		"dataflows":   {"run_id", "entry", "function", "seq", "dataflow_id", "complete", "terms", "known", "visits"},
		"snapshots":   {"run_id", "digest", "snapshot"},
	}

	for table, want := range tests {
		t.Run(table, func(t *testing.T) {
			got := getTableColumns(t, s.db, table)
			for _, col := range want {
				if !contains(got, col) {
					t.Errorf("table %s missing column %q (have %v)", table, col, got)
				}
			}
		})
	}
}

func TestConstraint_ForeignKeyBindingToRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO conventions (run_id, callee, seq, status, convention)
		VALUES ('missing', '0x1000', 1, 'bitness_default', 'amd64')
	`)
	if err == nil {
		t.Error("expected foreign key violation for unknown run")
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// A v0 database: runs without the source column.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE runs (
			id               TEXT PRIMARY KEY,
			architecture     TEXT NOT NULL,
			program_digest   TEXT NOT NULL,
			placement        TEXT NOT NULL,
			status           TEXT NOT NULL,
			analyzer_version TEXT NOT NULL,
			ir_version       TEXT NOT NULL
		)
	`); err != nil {
		t.Fatalf("failed to create v0 runs table: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO runs VALUES ('old-run', 'i386', 'd', 'append', 'completed', '0.0.1', '1')
	`); err != nil {
		t.Fatalf("failed to insert v0 run: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if !contains(getTableColumns(t, s.db, "runs"), "source") {
		t.Error("runs.source not added by migration")
	}

	var source string
	if err := s.db.QueryRow("SELECT source FROM runs WHERE id = 'old-run'").Scan(&source); err != nil {
		t.Fatalf("query migrated run: %v", err)
	}
	if source != "" {
		t.Errorf("migrated source = %q, want empty", source)
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
