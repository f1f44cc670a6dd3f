package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/archpass/internal/engine"
	"github.com/roach88/archpass/internal/store"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Database string
	Jobs     int

	// RunIDs overrides the run ID generator (for testing). It is shared
	// by every run and must be safe for concurrent use.
	RunIDs engine.RunIDGenerator
}

// BatchEntry is the outcome of one program of a batch.
type BatchEntry struct {
	Program string         `json:"program"`
	Report  *engine.Report `json:"report,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// BatchResult holds the outcome of every program, in argument order.
type BatchResult struct {
	Entries   []BatchEntry `json:"entries"`
	Completed int          `json:"completed"`
	Failed    int          `json:"failed"`
	Total     int          `json:"total"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <program.yaml>...",
		Short: "Analyze several programs concurrently",
		Long: `Analyze several programs concurrently, one independent run each.

Runs share nothing but the optional database. A program that fails to
load or whose run fails is reported and does not stop the others;
cancellation (Ctrl-C) stops every run still in progress.

Exit codes:
  0 - Every run completed
  1 - One or more programs failed or were cancelled
  2 - Command error (invalid catalog, database, etc.)

Examples:
  archpass batch ./a.yaml ./b.yaml ./c.yaml
  archpass batch --jobs 2 --db ./runs.db ./programs/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to record the runs in")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "maximum number of concurrent runs")

	return cmd
}

func runBatch(opts *BatchOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Jobs < 1 {
		return fail(formatter, &stepError{Code: ErrCodeGeneric, Message: fmt.Sprintf("--jobs must be at least 1, got %d", opts.Jobs)})
	}

	cat, err := loadCatalog(opts.RootOptions)
	if err != nil {
		return fail(formatter, err)
	}

	var recorder engine.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return fail(formatter, &stepError{Code: ErrCodeDatabase, Message: "failed to open database", Err: err})
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		recorder = st
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	result := BatchResult{
		Entries: make([]BatchEntry, len(paths)),
		Total:   len(paths),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)

	for i, path := range paths {
		i, path := i, path
		result.Entries[i].Program = path
		g.Go(func() error {
			entry := &result.Entries[i]
			if gctx.Err() != nil {
				return nil
			}

			s, err := openSession(opts.RootOptions, cat, path, nil)
			if err != nil {
				entry.Error = err.Error()
				return nil
			}

			engineOpts := []engine.EngineOption{
				engine.WithPlacement(s.Placement),
				engine.WithSource(filepath.Base(path)),
			}
			if recorder != nil {
				engineOpts = append(engineOpts, engine.WithRecorder(recorder))
			}
			if opts.RunIDs != nil {
				engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDs))
			}

			report, runErr := engine.New(s.Analyzer, engineOpts...).Run(gctx, s.Context)
			entry.Report = report
			if runErr != nil {
				entry.Error = runErr.Error()
			}

			// Only cancellation stops the rest of the batch.
			if engine.IsCancelled(runErr) {
				return runErr
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Warn("batch cancelled", "error", err)
	}

	for i := range result.Entries {
		e := &result.Entries[i]
		if e.Report == nil && e.Error == "" {
			// Never started: the group was cancelled first.
			e.Error = "not run: batch cancelled"
		}
		if e.Error == "" {
			result.Completed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		if err := outputBatchJSON(formatter, result); err != nil {
			return err
		}
	} else {
		outputBatchText(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d program(s) failed", result.Failed, result.Total))
	}
	return nil
}

// outputBatchJSON outputs the batch result as JSON.
func outputBatchJSON(formatter *OutputFormatter, result BatchResult) error {
	if result.Failed == 0 {
		return formatter.Success(result)
	}
	return formatter.Error(ErrCodeRun, fmt.Sprintf("%d of %d program(s) failed", result.Failed, result.Total), result)
}

// outputBatchText outputs the batch result as text.
func outputBatchText(formatter *OutputFormatter, result BatchResult) {
	w := formatter.Writer
	for _, e := range result.Entries {
		if e.Error != "" {
			fmt.Fprintf(w, "✗ %s\n", e.Program)
			fmt.Fprintf(w, "  %s\n", e.Error)
			continue
		}
		r := e.Report
		fmt.Fprintf(w, "✓ %s: run %s, %d synthesized, %d binding(s), %d dataflow(s)\n",
			e.Program, r.Run.ID, r.Patch.Synthesized, len(r.Bindings), len(r.Dataflows))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batch Summary: %d completed, %d failed, %d total\n", result.Completed, result.Failed, result.Total)
}
