package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/archpass/internal/analyzer"
	"github.com/roach88/archpass/internal/ir"
)

// PatchOptions holds flags for the patch command.
type PatchOptions struct {
	*RootOptions
	OnlyPatched bool
}

// PatchResult is the patched program listing.
type PatchResult struct {
	Architecture string               `json:"architecture"`
	Placement    string               `json:"placement"`
	Report       analyzer.PatchReport `json:"report"`
	Blocks       []BlockListing       `json:"blocks"`
}

// BlockListing is one basic block after patching.
type BlockListing struct {
	Address    string   `json:"address"`
	Patched    bool     `json:"patched"`
	Statements []string `json:"statements"`
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "patch <program.yaml>",
		Short: "Run only the zero-extension patch and print the program",
		Long: `Run the implicit zero-extension patch over a program and print the
resulting statements of every basic block.

On 64-bit architectures every write to the low 32 bits of a
general-purpose register is followed by a synthesized assignment
clearing the upper 32 bits. Other architectures are left unchanged.

Examples:
  archpass patch ./program.yaml
  archpass patch --placement anchored ./program.yaml
  archpass patch --only-patched --format json ./program.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.OnlyPatched, "only-patched", false, "list only blocks the patch changed")

	return cmd
}

func runPatch(opts *PatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, err := loadCatalog(opts.RootOptions)
	if err != nil {
		return fail(formatter, err)
	}

	s, err := openSession(opts.RootOptions, cat, path, nil)
	if err != nil {
		return fail(formatter, err)
	}

	program := s.Context.Program()
	before := make(map[uint64]int, len(program.BasicBlocks()))
	for _, b := range program.BasicBlocks() {
		before[b.Address()] = b.Len()
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	report, err := s.Analyzer.PatchProgram(ctx, s.Context)
	if err != nil {
		_ = formatter.Error(ErrCodeCancelled, err.Error(), nil)
		return WrapExitError(ExitFailure, "patch cancelled", err)
	}

	a := s.Context.Module().Architecture()
	result := PatchResult{
		Architecture: a.Name(),
		Placement:    s.Placement.String(),
		Report:       report,
		Blocks:       []BlockListing{},
	}
	for _, b := range program.BasicBlocks() {
		patched := b.Len() != before[b.Address()]
		if opts.OnlyPatched && !patched {
			continue
		}
		listing := BlockListing{
			Address:    fmt.Sprintf("0x%x", b.Address()),
			Patched:    patched,
			Statements: make([]string, 0, b.Len()),
		}
		for _, stmt := range b.Statements() {
			listing.Statements = append(listing.Statements, ir.FormatStatement(stmt, a))
		}
		result.Blocks = append(result.Blocks, listing)
	}

	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Synthesized %d statement(s) in %d of %d block(s) (%s, placement %s)\n",
			report.Synthesized, report.BlocksPatched, report.BlocksScanned, result.Architecture, result.Placement)
		for _, b := range result.Blocks {
			fmt.Fprintln(w)
			suffix := ""
			if b.Patched {
				suffix = " (patched)"
			}
			fmt.Fprintf(w, "%s:%s\n", b.Address, suffix)
			for _, stmt := range b.Statements {
				fmt.Fprintf(w, "  %s\n", stmt)
			}
		}
	})
}
