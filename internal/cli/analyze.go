package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/archpass/internal/dflow"
	"github.com/roach88/archpass/internal/engine"
	"github.com/roach88/archpass/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Database string

	// RunIDs, DataflowIDs and Clock override the engine's generators
	// (for testing). Nil selects the production defaults.
	RunIDs      engine.RunIDGenerator
	DataflowIDs dflow.IDGenerator
	Clock       engine.Sequencer
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <program.yaml>",
		Short: "Run all analysis phases over a program",
		Long: `Run the three analysis phases over a lifted program:

  1. implicit zero-extension patching (64-bit only)
  2. calling convention detection for every callee
  3. dataflow analysis for every function

With --db, the run and everything it commits is recorded in a SQLite
database and can be read back with "archpass report".

Exit codes:
  0 - Run completed
  1 - Run failed or was cancelled
  2 - Command error (missing program, invalid catalog, etc.)

Examples:
  archpass analyze ./program.yaml
  archpass analyze --db ./runs.db ./program.yaml
  archpass analyze --placement anchored --format json ./program.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to record the run in")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, err := loadCatalog(opts.RootOptions)
	if err != nil {
		return fail(formatter, err)
	}

	s, err := openSession(opts.RootOptions, cat, path, opts.DataflowIDs)
	if err != nil {
		return fail(formatter, err)
	}

	engineOpts := []engine.EngineOption{
		engine.WithPlacement(s.Placement),
		engine.WithSource(filepath.Base(path)),
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}

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
		engineOpts = append(engineOpts, engine.WithRecorder(st))
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	report, runErr := engine.New(s.Analyzer, engineOpts...).Run(ctx, s.Context)
	if report == nil {
		return fail(formatter, &stepError{Code: ErrCodeRun, Message: "run failed", Err: runErr})
	}

	if formatter.Format == "json" {
		if runErr != nil {
			_ = formatter.Error(runErrorCode(runErr), runErr.Error(), report)
		} else if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		writeReport(formatter.Writer, report)
		if runErr != nil {
			fmt.Fprintf(formatter.Writer, "\nError [%s]: %v\n", runErrorCode(runErr), runErr)
		}
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("run %s", report.Run.Status), runErr)
	}
	return nil
}

// runErrorCode maps an engine error to its CLI error code.
func runErrorCode(err error) string {
	if engine.IsCancelled(err) {
		return ErrCodeCancelled
	}
	return ErrCodeRun
}

// writeReport renders a run report as text.
func writeReport(w io.Writer, r *engine.Report) {
	mark := "✓"
	if r.Run.Status != store.StatusCompleted {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s Run %s %s (%s, placement %s)\n\n",
		mark, r.Run.ID, r.Run.Status, r.Run.Architecture, r.Run.Placement)

	fmt.Fprintf(w, "Patch: %d block(s) scanned, %d patched, %d statement(s) synthesized\n",
		r.Patch.BlocksScanned, r.Patch.BlocksPatched, r.Patch.Synthesized)

	if len(r.Bindings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Bindings:")
		for _, b := range r.Bindings {
			fmt.Fprintf(w, "  %s: %s\n", b.Callee, formatBinding(b))
		}
	}

	if len(r.Dataflows) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Dataflows:")
		for _, d := range r.Dataflows {
			fmt.Fprintf(w, "  %s: %s\n", functionLabel(d), formatDataflow(d))
		}
	}
}

// formatBinding renders the detection outcome of one callee.
func formatBinding(b store.Binding) string {
	if b.Convention == "" {
		return b.Status
	}
	s := b.Convention
	if b.ArgumentsSize != nil {
		s += fmt.Sprintf(" (arguments %d bytes)", *b.ArgumentsSize)
	}
	if b.Status != "" {
		s += " [" + b.Status + "]"
	}
	return s
}

// formatDataflow renders a dataflow summary.
func formatDataflow(d store.DataflowSummary) string {
	state := "complete"
	if !d.Complete {
		state = "partial"
	}
	return fmt.Sprintf("%s %s, %d/%d term(s) known, %d visit(s)",
		d.DataflowID, state, d.Known, d.Terms, d.Visits)
}

// functionLabel names a function as name@0xentry, or by entry alone.
func functionLabel(d store.DataflowSummary) string {
	if d.Function == "" {
		return fmt.Sprintf("0x%x", d.Entry)
	}
	return fmt.Sprintf("%s@0x%x", d.Function, d.Entry)
}
