// Package catalog embeds the default architecture and calling convention
// catalog.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/archpass/internal/compiler"
)

//go:embed intel.cue
var intelCUE []byte

var (
	defaultOnce sync.Once
	defaultCat  *compiler.Catalog
	defaultErr  error
)

// Default returns the compiled built-in catalog. It is compiled once and
// must be treated as read-only.
func Default() (*compiler.Catalog, error) {
	defaultOnce.Do(func() {
		cat, errs := compiler.CompileCatalogSource("intel.cue", intelCUE)
		if len(errs) > 0 {
			defaultErr = fmt.Errorf("built-in catalog: %w", errors.Join(errs...))
			return
		}
		defaultCat = cat
	})
	return defaultCat, defaultErr
}

// Source returns the raw CUE source of the built-in catalog.
func Source() []byte {
	return intelCUE
}
