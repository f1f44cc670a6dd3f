package arch

import (
	"errors"
	"fmt"

	"github.com/roach88/archpass/internal/arch/catalog"
	"github.com/roach88/archpass/internal/compiler"
)

// LoadCatalog returns the built-in catalog when path is empty, otherwise
// the catalog compiled from path.
func LoadCatalog(path string) (*compiler.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, errs := compiler.LoadCatalog(path)
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog %s: %w", path, errors.Join(errs...))
	}
	return cat, nil
}

// Lookup builds the named architecture from the built-in catalog.
func Lookup(name string) (*Architecture, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	return New(name, cat)
}

// MustLookup is like Lookup but panics on error.
// Use only in tests or with names known to be in the built-in catalog.
func MustLookup(name string) *Architecture {
	a, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return a
}
