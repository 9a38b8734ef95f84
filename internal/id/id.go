package id

import (
	"fmt"
	"strconv"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "evt-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Sequence is a monotonic counter starting at zero. It never resets while the
// process lives, so "lugia-0" and a later "lugia-3" can never collide.
// The zero value is ready to use and safe for concurrent use.
type Sequence struct {
	next atomic.Uint64
}

// Next returns the current value and advances the counter.
func (s *Sequence) Next() uint64 {
	return s.next.Add(1) - 1
}

// Counted joins a slug and a counter value: Counted("lugia", 7) == "lugia-7".
func Counted(slug string, n uint64) string {
	return slug + "-" + strconv.FormatUint(n, 10)
}
