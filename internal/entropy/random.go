// Package entropy provides the simulation's deterministic random source.
// Seeds come from the caller; when none is given, one is drawn from
// crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
)

// Source is a seeded pseudo-random stream. Equal seeds yield equal streams.
// Not safe for concurrent use; the simulation lock guards it.
type Source struct {
	seed int64
	rng  *mrand.Rand
}

// New creates a source for seed.
func New(seed int64) *Source {
	return &Source{seed: seed, rng: mrand.New(mrand.NewSource(seed))}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Intn returns a value in [0, n). n must be positive.
func (s *Source) Intn(n int) int { return s.rng.Intn(n) }

// Reset rewinds the stream to its seed.
func (s *Source) Reset() { s.rng = mrand.New(mrand.NewSource(s.seed)) }

// RandomSeed returns a non-negative seed from crypto/rand.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but fall back to a fixed seed.
		slog.Warn("crypto/rand unavailable, using fixed seed", "error", err)
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
