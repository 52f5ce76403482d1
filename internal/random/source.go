// Package random provides the seeded pseudo-random source every generator owns.
//
// A Source never reads the clock or process entropy. Two sources built from the
// same seed and stream name yield identical sequences on every host, and
// sources with different stream names are independent of each other.
package random

import (
	"encoding/binary"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"
)

// Source is a deterministic random stream
type Source struct {
	rng *rand.Rand
}

// New returns the stream named stream for seed
func New(seed int64, stream string) *Source {
	return &Source{
		rng: rand.New(rand.NewPCG(uint64(seed), Hash(stream))),
	}
}

// Hash returns a stable 64-bit digest of parts. Parts are length-prefixed so
// ("ab","c") and ("a","bc") differ.
func Hash(parts ...string) uint64 {
	h, _ := blake2b.New256(nil)
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// IntRange returns a uniform integer in [lo, hi]
func (s *Source) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Int64Range returns a uniform integer in [lo, hi]
func (s *Source) Int64Range(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Int64N(hi-lo+1)
}

// Uint32 returns 32 uniform bits
func (s *Source) Uint32() uint32 {
	return s.rng.Uint32()
}

// Chance returns true with probability p
func (s *Source) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// Chars returns n characters drawn uniformly from alphabet
func (s *Source) Chars(alphabet string, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[s.rng.IntN(len(alphabet))]
	}
	return string(out)
}

// Pick returns a uniform element of items. items must not be empty.
func Pick[T any](s *Source, items []T) T {
	return items[s.rng.IntN(len(items))]
}

// PickWeighted returns an element of items with probability proportional to
// weight. Non-positive weights are never chosen; items must contain at least
// one positive weight.
func PickWeighted[T any](s *Source, items []T, weight func(T) int) T {
	total := 0
	for _, it := range items {
		if w := weight(it); w > 0 {
			total += w
		}
	}
	r := s.rng.IntN(total)
	for _, it := range items {
		w := weight(it)
		if w <= 0 {
			continue
		}
		if r < w {
			return it
		}
		r -= w
	}
	return items[len(items)-1]
}

// Sequence draws n values with draw, in order
func Sequence[T any](s *Source, n int, draw func(*Source) T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = draw(s)
	}
	return out
}
