// Package entropy provides deterministic random streams for stochastic
// events. Each stream is keyed (for example by tick and ship), so the draws
// a ship sees do not depend on how many other ships drew before it or on
// which goroutine stepped it.
package entropy

import (
	"encoding/binary"
	"math/rand"

	"lukechampine.com/blake3"
)

// Source derives keyed streams from a world seed.
type Source struct {
	seed int64
}

// New creates a source for the given world seed.
func New(seed int64) *Source {
	return &Source{seed: seed}
}

// Seed returns the world seed.
func (s *Source) Seed() int64 { return s.seed }

// Stream returns a generator determined entirely by the seed and keys.
func (s *Source) Stream(keys ...uint64) *rand.Rand {
	return rand.New(rand.NewSource(s.derive(keys)))
}

// Float returns a single keyed draw in [0, 1).
func (s *Source) Float(keys ...uint64) float64 {
	v := uint64(s.derive(keys))
	return float64(v>>11) / float64(1<<53)
}

func (s *Source) derive(keys []uint64) int64 {
	buf := make([]byte, 8*(len(keys)+1))
	binary.LittleEndian.PutUint64(buf, uint64(s.seed))
	for i, k := range keys {
		binary.LittleEndian.PutUint64(buf[8*(i+1):], k)
	}
	sum := blake3.Sum256(buf)
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}
