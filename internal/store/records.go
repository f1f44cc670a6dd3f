package store

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Run is one analysis run over one program.
type Run struct {
	ID              string `json:"id"`
	Architecture    string `json:"architecture"`
	ProgramDigest   string `json:"program_digest"`
	Placement       string `json:"placement"`
	Status          string `json:"status"`
	AnalyzerVersion string `json:"analyzer_version"`
	IRVersion       string `json:"ir_version"`
	Source          string `json:"source,omitempty"`
}

// PatchSummary is the outcome of a run's patch phase.
type PatchSummary struct {
	RunID         string `json:"run_id"`
	Seq           int64  `json:"seq"`
	BlocksScanned int    `json:"blocks_scanned"`
	BlocksPatched int    `json:"blocks_patched"`
	Synthesized   int    `json:"synthesized"`
}

// Binding is a calling convention bound to a callee.
// Convention is empty when no convention could be determined.
type Binding struct {
	RunID         string `json:"run_id"`
	Callee        string `json:"callee"`
	Seq           int64  `json:"seq"`
	Status        string `json:"status"`
	Convention    string `json:"convention,omitempty"`
	ArgumentsSize *int64 `json:"arguments_size,omitempty"`
}

// DataflowSummary describes the dataflow result stored for a function.
type DataflowSummary struct {
	RunID      string `json:"run_id"`
	Entry      uint64 `json:"entry"`
	Function   string `json:"function"`
	Seq        int64  `json:"seq"`
	DataflowID string `json:"dataflow_id"`
	Complete   bool   `json:"complete"`
	Terms      int    `json:"terms"`
	Known      int    `json:"known"`
	Visits     int    `json:"visits"`
}

// Snapshot is the canonical JSON of a patched program.
type Snapshot struct {
	RunID    string `json:"run_id"`
	Digest   string `json:"digest"`
	Snapshot string `json:"snapshot"`
}
