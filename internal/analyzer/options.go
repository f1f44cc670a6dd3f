package analyzer

import "github.com/roach88/archpass/internal/dflow"

type options struct {
	placement Placement
	ids       dflow.IDGenerator
}

func defaultOptions() options {
	return options{
		placement: PlacementAppend,
		ids:       dflow.UUIDv7Generator{},
	}
}

// Option configures an analyzer.
type Option func(*options)

// WithPlacement sets where synthesized statements are inserted.
func WithPlacement(p Placement) Option {
	return func(o *options) {
		o.placement = p
	}
}

// WithIDGenerator sets the generator used for dataflow result identities.
// Tests use dflow.NewSequenceGenerator for reproducible identities.
func WithIDGenerator(gen dflow.IDGenerator) Option {
	return func(o *options) {
		o.ids = gen
	}
}
