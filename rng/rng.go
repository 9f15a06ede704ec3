// Package rng provides the seeded randomness source every stochastic layer
// draws from. A run owns exactly one source, so replaying a seed replays
// the draw sequence and with it the whole trajectory.
package rng

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the draw interface the simulation layers depend on. Implementations
// are not safe for concurrent use; batch runs give every run its own source.
type Source interface {
	// Uniform draws from [low, high).
	Uniform(low, high float64) float64
	// Normal draws from a gaussian with the given mean and standard deviation.
	Normal(mean, std float64) float64
	// Bool draws true with probability p.
	Bool(p float64) bool
	// IntN draws an integer in [0, n). n must be positive.
	IntN(n int) int
}

// Seeded is a Source over a single PCG stream. Both distributions share the
// stream, so the sequence of calls alone determines the values drawn.
type Seeded struct {
	norm distuv.Normal
	uni  distuv.Uniform
}

// NewSeeded constructs a source from a seed. The same seed always produces
// the same draw sequence.
func NewSeeded(seed uint64) *Seeded {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Seeded{
		norm: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		uni:  distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

func (s *Seeded) Uniform(low, high float64) float64 {
	return low + (high-low)*s.uni.Rand()
}

func (s *Seeded) Normal(mean, std float64) float64 {
	return mean + std*s.norm.Rand()
}

func (s *Seeded) Bool(p float64) bool {
	return s.uni.Rand() < p
}

func (s *Seeded) IntN(n int) int {
	i := int(s.uni.Rand() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
