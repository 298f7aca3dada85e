// Package fingerprint computes the deterministic content hashes used as
// dedup keys throughout the system. All functions are pure: the same input
// always yields the same 64-character lowercase hex digest.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Bytes fingerprints raw uploaded bytes. Used to dedup identical files
// before paying for extraction and inference.
func Bytes(buf []byte) string {
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// Text fingerprints whitespace-trimmed text. Used for job descriptions and
// as one half of a match key, so postings that differ only in surrounding
// whitespace dedup to the same record.
func Text(text string) string {
	return Bytes([]byte(strings.TrimSpace(text)))
}

// Profile fingerprints a transient profile object that has no stable id of
// its own. The value is marshaled through a string-keyed map so keys are
// emitted in sorted order; semantically identical profiles hash identically
// regardless of the field order they were built with.
func Profile(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}

	var canonical map[string]any
	if err := json.Unmarshal(raw, &canonical); err != nil {
		return "", fmt.Errorf("profile must marshal to a JSON object: %w", err)
	}

	normalized, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize profile: %w", err)
	}

	return Bytes(normalized), nil
}
