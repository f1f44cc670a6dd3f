package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
const (
	DigestDomainProgram = "archpass/program/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramDigest computes a content digest of the program's statements.
// Patching changes the digest; identical programs always share one.
func ProgramDigest(p *Program) (string, error) {
	canonical, err := MarshalCanonical(Snapshot(p, nil))
	if err != nil {
		return "", fmt.Errorf("ProgramDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DigestDomainProgram, canonical), nil
}

// MustProgramDigest is like ProgramDigest but panics on error.
// Use only in tests.
func MustProgramDigest(p *Program) string {
	d, err := ProgramDigest(p)
	if err != nil {
		panic(err)
	}
	return d
}
