package analyzer

import (
	"fmt"
	"sort"

	"github.com/roach88/archpass/internal/arch"
)

// Factory builds the strategy for one architecture.
type Factory func(a *arch.Architecture, opts ...Option) (MasterAnalyzer, error)

var factories = map[string]Factory{
	arch.FamilyIntel: func(a *arch.Architecture, opts ...Option) (MasterAnalyzer, error) {
		x, err := NewIntel(a, opts...)
		if err != nil {
			return nil, err
		}
		return x, nil
	},
}

// ForArchitecture selects the strategy for a's family and builds it.
func ForArchitecture(a *arch.Architecture, opts ...Option) (MasterAnalyzer, error) {
	factory, ok := factories[a.Family()]
	if !ok {
		return nil, &ConfigError{
			Code:         ErrCodeUnsupportedFamily,
			Architecture: a.Name(),
			Message:      fmt.Sprintf("no analyzer for family %q", a.Family()),
		}
	}
	return factory(a, opts...)
}

// Families returns the supported families, sorted.
func Families() []string {
	out := make([]string, 0, len(factories))
	for f := range factories {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
