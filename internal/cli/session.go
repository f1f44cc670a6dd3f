package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/archpass/internal/analyzer"
	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/compiler"
	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/dflow"
	"github.com/roach88/archpass/internal/loader"
)

// Error codes reported in CLI responses.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeNotFound  = "E002" // Path not found
	ErrCodeCatalog   = "E003" // Catalog failed to compile or resolve
	ErrCodeProgram   = "E004" // Program file failed to load
	ErrCodeAnalyzer  = "E005" // No analyzer for the architecture
	ErrCodeDatabase  = "E006" // Database could not be opened or read
	ErrCodeRun       = "E007" // Run failed
	ErrCodeCancelled = "E008" // Run cancelled
	ErrCodeValidate  = "E009" // Validation found errors
	ErrCodeTest      = "E010" // Scenario failures
)

// stepError tags a command failure with the code reported for it.
type stepError struct {
	Code    string
	Message string
	Err     error
}

func (e *stepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *stepError) Unwrap() error {
	return e.Err
}

// fail reports err through the formatter and converts it to a command
// error (exit code 2).
func fail(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var se *stepError
	if errors.As(err, &se) {
		code = se.Code
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}

// newFormatter builds the output formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// session is one loaded program with the analyzer for its architecture.
type session struct {
	Path      string
	Context   *core.Context
	Analyzer  analyzer.MasterAnalyzer
	Placement analyzer.Placement
}

// loadCatalog compiles the catalog selected by --catalog.
func loadCatalog(opts *RootOptions) (*compiler.Catalog, error) {
	cat, err := arch.LoadCatalog(opts.Catalog)
	if err != nil {
		return nil, &stepError{Code: ErrCodeCatalog, Message: "failed to load catalog", Err: err}
	}
	return cat, nil
}

// openSession loads the program at path and builds its analyzer.
// ids may be nil to use the analyzer's default dataflow IDs.
func openSession(opts *RootOptions, cat *compiler.Catalog, path string, ids dflow.IDGenerator) (*session, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &stepError{Code: ErrCodeNotFound, Message: fmt.Sprintf("program not found: %s", path), Err: err}
	}

	placement, err := analyzer.ParsePlacement(opts.Placement)
	if err != nil {
		return nil, &stepError{Code: ErrCodeGeneric, Message: "invalid placement", Err: err}
	}

	rc, err := loader.Load(path, cat)
	if err != nil {
		return nil, &stepError{Code: ErrCodeProgram, Message: "failed to load program", Err: err}
	}

	aopts := []analyzer.Option{analyzer.WithPlacement(placement)}
	if ids != nil {
		aopts = append(aopts, analyzer.WithIDGenerator(ids))
	}
	m, err := analyzer.ForArchitecture(rc.Module().Architecture(), aopts...)
	if err != nil {
		return nil, &stepError{Code: ErrCodeAnalyzer, Message: "failed to build analyzer", Err: err}
	}

	slog.Debug("session ready",
		"program", path,
		"architecture", rc.Module().Architecture().Name(),
		"placement", placement.String())

	return &session{Path: path, Context: rc, Analyzer: m, Placement: placement}, nil
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM. The returned stop func must be called.
func signalContext(cmd *cobra.Command) (context.Context, func()) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Warn("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
