// Package cache persists per-variant comparison records so scoring can be
// re-run without re-deriving them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
)

// ErrNotFound is returned by a Backend when a key has no entry.
var ErrNotFound = errors.New("cache entry not found")

// Backend stores encoded comparison records by fingerprint.
// Write must be atomic: a concurrent or interrupted reader never observes a partial entry.
type Backend interface {
	Exists(key string) (bool, error)
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Clear() error
}

// Fingerprint derives the cache key of a variant from the input data version,
// the variant identity and the extraction logic version. Changing any of them
// yields a different key, so stale entries are never read.
func Fingerprint(dataVersion, variantKey string, extractionVersion int) string {
	h := sha256.New()
	h.Write([]byte(dataVersion))
	h.Write([]byte{0})
	h.Write([]byte(variantKey))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(extractionVersion)))
	return hex.EncodeToString(h.Sum(nil))
}
