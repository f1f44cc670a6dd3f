package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("run-1", "x86-64")
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	// Same ID again is silently ignored.
	dup := createTestRun("run-1", "i386")
	if err := s.WriteRun(ctx, dup); err != nil {
		t.Fatalf("duplicate WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Architecture != "x86-64" {
		t.Errorf("architecture = %q, want %q (first write kept)", got.Architecture, "x86-64")
	}
}

func TestCompleteRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	if err := s.CompleteRun(ctx, "run-1", StatusCancelled); err != nil {
		t.Fatalf("CompleteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %q, want %q", got.Status, StatusCancelled)
	}
}

func TestCompleteRun_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	if err := s.CompleteRun(context.Background(), "missing", StatusCompleted); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestWriteBinding_LastWriteWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	first := Binding{
		RunID:         "run-1",
		Callee:        "0x401000",
		Seq:           1,
		Status:        "decorated_stdcall",
		Convention:    "stdcall32",
		ArgumentsSize: int64Ptr(12),
	}
	if err := s.WriteBinding(ctx, first); err != nil {
		t.Fatalf("WriteBinding() failed: %v", err)
	}

	second := Binding{
		RunID:      "run-1",
		Callee:     "0x401000",
		Seq:        2,
		Status:     "bitness_default",
		Convention: "cdecl32",
	}
	if err := s.WriteBinding(ctx, second); err != nil {
		t.Fatalf("second WriteBinding() failed: %v", err)
	}

	bindings, err := s.ReadBindings(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadBindings() failed: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("len(bindings) = %d, want 1", len(bindings))
	}
	got := bindings[0]
	if got.Convention != "cdecl32" || got.Seq != 2 {
		t.Errorf("binding = %+v, want cdecl32 at seq 2", got)
	}
	if got.ArgumentsSize != nil {
		t.Errorf("arguments_size = %d, want NULL after rebinding", *got.ArgumentsSize)
	}
}

func TestWriteBinding_ForeignKey(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteBinding(context.Background(), Binding{
		RunID:  "missing",
		Callee: "0x1000",
		Seq:    1,
		Status: "bitness_default",
	})
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestWriteDataflow_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	for i, id := range []string{"df-1", "df-2"} {
		err := s.WriteDataflow(ctx, DataflowSummary{
			RunID:      "run-1",
			Entry:      0x1000,
			Function:   "main",
			Seq:        int64(i + 1),
			DataflowID: id,
			Complete:   i == 1,
			Terms:      4,
			Known:      2,
			Visits:     1,
		})
		if err != nil {
			t.Fatalf("WriteDataflow(%s) failed: %v", id, err)
		}
	}

	summaries, err := s.ReadDataflows(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadDataflows() failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("len(summaries) = %d, want 1", len(summaries))
	}
	if summaries[0].DataflowID != "df-2" || !summaries[0].Complete {
		t.Errorf("summary = %+v, want complete df-2", summaries[0])
	}
}

func TestWriteDataflow_HighEntryAddress(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	const entry = uint64(0xffffffff80001000)
	if err := s.WriteDataflow(ctx, DataflowSummary{RunID: "run-1", Entry: entry, Function: "k", DataflowID: "df"}); err != nil {
		t.Fatalf("WriteDataflow() failed: %v", err)
	}

	summaries, err := s.ReadDataflows(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadDataflows() failed: %v", err)
	}
	if summaries[0].Entry != entry {
		t.Errorf("entry = 0x%x, want 0x%x", summaries[0].Entry, entry)
	}
}

func TestWritePatch_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	if err := s.WritePatch(ctx, PatchSummary{RunID: "run-1", Seq: 1, BlocksScanned: 1}); err != nil {
		t.Fatalf("WritePatch() failed: %v", err)
	}
	if err := s.WritePatch(ctx, PatchSummary{RunID: "run-1", Seq: 2, BlocksScanned: 3, BlocksPatched: 2, Synthesized: 5}); err != nil {
		t.Fatalf("second WritePatch() failed: %v", err)
	}

	got, err := s.ReadPatch(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadPatch() failed: %v", err)
	}
	want := PatchSummary{RunID: "run-1", Seq: 2, BlocksScanned: 3, BlocksPatched: 2, Synthesized: 5}
	if got != want {
		t.Errorf("patch = %+v, want %+v", got, want)
	}
}

func TestWriteSnapshot_CanonicalJSON(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	snap := map[string]any{
		"ir_version": "1",
		"blocks":     []any{},
	}
	if err := s.WriteSnapshot(ctx, "run-1", "digest-1", snap); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}

	got, err := s.ReadSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadSnapshot() failed: %v", err)
	}
	if got.Snapshot != `{"blocks":[],"ir_version":"1"}` {
		t.Errorf("snapshot = %s, want sorted canonical JSON", got.Snapshot)
	}
	if got.Digest != "digest-1" {
		t.Errorf("digest = %q, want %q", got.Digest, "digest-1")
	}
}

func TestReadSnapshot_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSnapshot(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}
