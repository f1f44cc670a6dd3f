package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/compiler"
)

// ArchitectureListing describes one catalog architecture.
type ArchitectureListing struct {
	Name        string                    `json:"name"`
	Family      string                    `json:"family"`
	Bitness     int                       `json:"bitness"`
	Conventions []compiler.ConventionSpec `json:"conventions"`
}

// NewConventionsCommand creates the conventions command.
func NewConventionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conventions [architecture]",
		Short: "List architectures and their calling conventions",
		Long: `List the architectures of the convention catalog and the calling
conventions registered for each.

Without an argument every architecture is listed with its convention
names. With an architecture name, each convention is shown in full.
Every listed architecture is built against its register file, so a
convention naming an unknown register is reported as an error.

Examples:
  archpass conventions
  archpass conventions x86-64
  archpass conventions --catalog ./custom.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runConventions(rootOpts, name, cmd)
		},
	}

	return cmd
}

func runConventions(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := loadCatalog(opts)
	if err != nil {
		return fail(formatter, err)
	}

	names := arch.Names(cat)
	if name != "" {
		names = []string{name}
	}

	listings := make([]ArchitectureListing, 0, len(names))
	for _, n := range names {
		a, err := arch.New(n, cat)
		if err != nil {
			return fail(formatter, &stepError{Code: ErrCodeCatalog, Message: fmt.Sprintf("architecture %s", n), Err: err})
		}
		listing := ArchitectureListing{
			Name:        a.Name(),
			Family:      a.Family(),
			Bitness:     a.Bitness(),
			Conventions: []compiler.ConventionSpec{},
		}
		for _, cn := range a.ConventionNames() {
			cs, _ := cat.Convention(cn)
			listing.Conventions = append(listing.Conventions, *cs)
		}
		formatter.VerboseLog("Resolved %s: %d convention(s)", a.Name(), len(listing.Conventions))
		listings = append(listings, listing)
	}

	return formatter.Render(listings, func(w io.Writer) {
		if name == "" {
			for _, l := range listings {
				convs := make([]string, len(l.Conventions))
				for i, c := range l.Conventions {
					convs[i] = c.Name
				}
				fmt.Fprintf(w, "%s (%s, %d-bit): %s\n", l.Name, l.Family, l.Bitness, strings.Join(convs, ", "))
			}
			return
		}
		writeConventions(w, listings[0])
	})
}

// writeConventions renders every convention of one architecture in full.
func writeConventions(w io.Writer, l ArchitectureListing) {
	fmt.Fprintf(w, "%s (%s, %d-bit)\n", l.Name, l.Family, l.Bitness)
	for _, c := range l.Conventions {
		fmt.Fprintln(w)
		fmt.Fprintln(w, c.Name)
		if c.Description != "" {
			fmt.Fprintf(w, "  %s\n", c.Description)
		}
		fmt.Fprintf(w, "  stack pointer:         %s\n", c.StackPointer)
		fmt.Fprintf(w, "  first argument offset: %d\n", c.FirstArgumentOffset)
		fmt.Fprintf(w, "  arguments:             %s\n", registerList(c.Arguments))
		fmt.Fprintf(w, "  return values:         %s\n", registerList(c.ReturnValues))
		fmt.Fprintf(w, "  callee cleanup:        %t\n", c.CalleeCleanup)
		fmt.Fprintf(w, "  stack alignment:       %d\n", c.StackAlignment)
	}
}

// registerList joins register names, or "-" for none.
func registerList(regs []string) string {
	if len(regs) == 0 {
		return "-"
	}
	return strings.Join(regs, ", ")
}
