// Package rng provides the reversible pseudo-random stream used by the
// workload and interarrival generators. Each logical process owns exactly one
// stream; a rollback undoes draws by stepping the generator backwards, so a
// replayed forward draw reproduces the identical value bit for bit.
//
// The generator is the classic Lehmer LCG with multiplier 16807 over the
// Mersenne prime 2^31-1. Stepping backwards multiplies by the modular inverse
// of the multiplier, which makes Reverse an exact algebraic inverse of the
// last draw rather than a replay from a checkpoint.
package rng

import (
	"fmt"
	"hash/fnv"
	"math"
)

const (
	modulus    int64 = 1<<31 - 1  // Mersenne prime 2^31-1
	multiplier int64 = 16807      // 7^5, full period over the modulus
	inverse    int64 = 1407677000 // multiplier^-1 mod modulus
)

// Stream is a reversible pseudo-random stream.
type Stream struct {
	seed  int64
	state int64
}

// NewStream creates a stream from a seed. A seed congruent to zero modulo
// 2^31-1 would collapse the generator to a fixed point, so it is rejected as
// a configuration error.
func NewStream(seed int64) *Stream {
	s := seed % modulus
	if s < 0 {
		s += modulus
	}
	if s == 0 {
		panic(fmt.Sprintf("rng: seed %d is congruent to zero modulo 2^31-1", seed))
	}
	return &Stream{seed: s, state: s}
}

// NewStreamFor derives a per-service stream from a master seed and the
// service identifier, so every logical process draws from an isolated stream
// regardless of registration order.
func NewStreamFor(masterSeed int64, service uint64) *Stream {
	h := fnv.New64a()
	fmt.Fprintf(h, "service_%d", service)
	return NewStream(masterSeed ^ int64(h.Sum64()))
}

// Unif draws the next uniform variate in (0, 1).
func (s *Stream) Unif() float64 {
	s.state = (multiplier * s.state) % modulus
	return float64(s.state) / float64(modulus)
}

// Reverse undoes the last draw. Calling Unif immediately afterwards yields
// the same value the undone draw produced. One call per variate drawn: a
// handler that consumed N draws reverses with exactly N calls, last drawn
// first.
func (s *Stream) Reverse() {
	s.state = (inverse * s.state) % modulus
}

// UnifRange draws a uniform variate in [min, max). One draw.
func (s *Stream) UnifRange(min, max float64) float64 {
	return min + s.Unif()*(max-min)
}

// Exp draws an exponential variate with the given mean. One draw.
func (s *Stream) Exp(mean float64) float64 {
	return -mean * math.Log(s.Unif())
}

// Seed returns the (normalized) seed the stream started from.
func (s *Stream) Seed() int64 {
	return s.seed
}
