package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/archpass/internal/engine"
	"github.com/roach88/archpass/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
}

// RunList is the report listing for a whole database.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Read recorded runs back from a database",
		Long: `Read runs recorded by "archpass analyze --db" or "archpass batch --db".

Without a run ID every recorded run is listed. With a run ID the run's
patch counts, convention bindings and dataflow summaries are shown.

Examples:
  archpass report --db ./runs.db
  archpass report --db ./runs.db 0192f5e4-...
  archpass report --db ./runs.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReport(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReport(opts *ReportOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	// store.Open creates missing files; a report over nothing is a mistake.
	if _, err := os.Stat(opts.Database); err != nil {
		return fail(formatter, &stepError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", opts.Database), Err: err})
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return fail(formatter, &stepError{Code: ErrCodeDatabase, Message: "failed to open database", Err: err})
	}
	defer st.Close()

	if runID == "" {
		runs, err := st.ReadRuns(ctx)
		if err != nil {
			return fail(formatter, &stepError{Code: ErrCodeDatabase, Message: "failed to read runs", Err: err})
		}
		return outputRunList(formatter, runs)
	}

	report, err := readReport(ctx, st, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(formatter, &stepError{Code: ErrCodeNotFound, Message: fmt.Sprintf("run not found: %s", runID)})
		}
		return fail(formatter, &stepError{Code: ErrCodeDatabase, Message: "failed to read run", Err: err})
	}

	return formatter.Render(report, func(w io.Writer) { writeReport(w, report) })
}

// readReport rebuilds the report of a recorded run. A run cancelled before
// its patch committed has no patch record and reports zero counts.
func readReport(ctx context.Context, st *store.Store, runID string) (*engine.Report, error) {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	report := &engine.Report{Run: run, Patch: store.PatchSummary{RunID: runID}}

	patch, err := st.ReadPatch(ctx, runID)
	switch {
	case err == nil:
		report.Patch = patch
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	if report.Bindings, err = st.ReadBindings(ctx, runID); err != nil {
		return nil, err
	}
	if report.Dataflows, err = st.ReadDataflows(ctx, runID); err != nil {
		return nil, err
	}

	snap, err := st.ReadSnapshot(ctx, runID)
	switch {
	case err == nil:
		report.PatchedDigest = snap.Digest
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	return report, nil
}

// outputRunList outputs every recorded run.
func outputRunList(formatter *OutputFormatter, runs []store.Run) error {
	return formatter.Render(RunList{Runs: runs}, func(w io.Writer) {
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}

		fmt.Fprintf(w, "%d run(s):\n", len(runs))
		for _, r := range runs {
			source := r.Source
			if source == "" {
				source = "-"
			}
			fmt.Fprintf(w, "  %s  %-9s  %-7s  %-8s  %s\n", r.ID, r.Status, r.Architecture, r.Placement, source)
		}
	})
}
