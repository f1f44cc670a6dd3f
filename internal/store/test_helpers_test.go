package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/archpass/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, architecture string) Run {
	return Run{
		ID:              id,
		Architecture:    architecture,
		ProgramDigest:   "test-digest",
		Placement:       "append",
		Status:          StatusRunning,
		AnalyzerVersion: ir.AnalyzerVersion,
		IRVersion:       ir.IRVersion,
	}
}

// writeTestRun writes a run and fails the test on error.
func writeTestRun(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.WriteRun(context.Background(), createTestRun(id, "x86-64")); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
