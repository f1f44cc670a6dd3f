package analyzer

import (
	"context"
	"log/slog"

	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/dflow"
	"github.com/roach88/archpass/internal/ir"
)

// Generic implements the family-independent operations.
type Generic struct {
	ids dflow.IDGenerator
}

// NewGeneric creates the family-independent part of a strategy.
func NewGeneric(opts ...Option) *Generic {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Generic{ids: o.ids}
}

// AnalyzeDataflow runs the dataflow engine over fn with the run's hooks and
// stores the result in rc. A cancelled analysis still stores its partial
// result; the context error is returned afterwards.
func (g *Generic) AnalyzeDataflow(ctx context.Context, rc *core.Context, fn *ir.Function) error {
	df := dflow.New(g.ids)

	err := dflow.NewAnalyzer(df, rc.Module().Architecture(), fn, rc.Hooks()).Analyze(ctx)
	rc.SetDataflow(fn, df)

	slog.Debug("dataflow stored",
		"function", fn.Name,
		"dataflow_id", df.ID(),
		"complete", df.IsComplete())
	return err
}
