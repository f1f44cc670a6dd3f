package store

import (
	"fmt"

	"github.com/roach88/archpass/internal/ir"
)

// marshalSnapshot converts a program snapshot to canonical JSON TEXT.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalSnapshot(snapshot map[string]any) (string, error) {
	data, err := ir.MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}
