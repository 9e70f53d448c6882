package server

import (
	"hash/fnv"
	"math/rand"
)

// newDeterministicRNG derives an independent random stream from the world
// seed and a subsystem label, so replays stay stable even when subsystems
// change how often they draw.
func newDeterministicRNG(seed, stream string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	h.Write([]byte{':'})
	h.Write([]byte(stream))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// subsystemRNG returns a named stream tied to this world's seed.
func (w *World) subsystemRNG(stream string) *rand.Rand {
	return newDeterministicRNG(w.seed, stream)
}

func (w *World) randomFloat() float64 {
	if w != nil && w.rng != nil {
		return w.rng.Float64()
	}
	return rand.Float64()
}
