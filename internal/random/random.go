// Package random provides the seedable generator threaded through the
// simulation. Every probabilistic decision in the engine draws from a Source
// handed in by the caller, never from process-wide state, so a game seeded
// with the same value replays the same way.
package random

import (
	"math/rand/v2"
	"time"
)

// Source wraps a PCG generator with the handful of draws the engine needs.
// It is not safe for concurrent use; the simulation is single-threaded.
type Source struct {
	r *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded creates a Source seeded from the wall clock.
func NewTimeSeeded() *Source {
	return New(uint64(time.Now().UnixNano()))
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Uniform returns a value in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.r.Float64()
}

// IntRange returns an integer in [lo, hi], both ends inclusive.
func (s *Source) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Pick returns an index in [0, n). n must be positive.
func (s *Source) Pick(n int) int {
	return s.r.IntN(n)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.r.Float64() < p
}

// Sample returns k distinct indices drawn from [0, n) without replacement.
// k is capped at n.
func (s *Source) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	return s.r.Perm(n)[:k]
}
