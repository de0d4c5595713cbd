// Package entropy provides the seeded random streams the simulation draws
// from: plot growth times, harvester plot choice, customer decisions and
// spawn gates. A fixed seed makes a run reproducible; seed 0 asks for a
// fresh one from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"
	mrand "math/rand"
)

// Source is a deterministic random stream. It is not safe for concurrent use.
type Source struct {
	seed int64
	rng  *mrand.Rand
}

// New returns a stream for seed. A zero seed is replaced by CryptoSeed.
func New(seed int64) *Source {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Source{seed: seed, rng: mrand.New(mrand.NewSource(seed))}
}

// Seed returns the seed the stream was created with.
func (s *Source) Seed() int64 { return s.seed }

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Intn returns a value in [0, n). It returns 0 for n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.Intn(n)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rng.Float64() < p
}

// Split derives an independent stream for label. The same seed and label
// always give the same stream, so adding a consumer does not shift the
// draws seen by the others.
func (s *Source) Split(label string) *Source {
	h := fnv.New64a()
	h.Write([]byte(label))
	derived := s.seed ^ int64(h.Sum64())
	if derived == 0 {
		derived = 1
	}
	return &Source{seed: derived, rng: mrand.New(mrand.NewSource(derived))}
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but return a fixed seed as a safe default.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		return 1
	}
	return seed
}
