// archpass runs architecture-specific analysis passes over lifted
// machine-code programs.
//
// Usage:
//
//	archpass analyze [--db runs.db] program.yaml
//	archpass patch --placement anchored program.yaml
//	archpass batch --jobs 4 a.yaml b.yaml
//	archpass conventions [architecture]
//	archpass validate [catalog.cue | program.yaml ...]
//	archpass report --db runs.db [run-id]
//	archpass test scenarios/
package main

import (
	"fmt"
	"os"

	"github.com/roach88/archpass/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "archpass: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
