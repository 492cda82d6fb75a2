package workload

import (
	"fmt"

	"github.com/ricardofares/ispd-exa-engine-ross/sim/rng"
)

// Interarrival generates the virtual-time gap between consecutive task
// generations, under the same reversible-draw contract as Workload.
type Interarrival interface {
	// Next draws the gap until the next generation. Always positive.
	Next(s *rng.Stream) float64

	// ReverseNext undoes exactly the draws the last Next consumed, in
	// reverse order of consumption.
	ReverseNext(s *rng.Stream)
}

// Poisson generates exponentially-distributed gaps (a Poisson arrival
// process). One draw per gap.
type Poisson struct {
	mean float64
}

// NewPoisson builds a Poisson interarrival generator with the given mean gap.
func NewPoisson(mean float64) *Poisson {
	if mean <= 0.0 {
		panic(fmt.Sprintf("workload: interarrival mean must be positive, got %g", mean))
	}
	return &Poisson{mean: mean}
}

func (p *Poisson) Next(s *rng.Stream) float64 {
	return s.Exp(p.mean)
}

func (p *Poisson) ReverseNext(s *rng.Stream) {
	s.Reverse()
}

// Fixed generates a constant gap. No random draws, so reversal is a no-op.
type Fixed struct {
	gap float64
}

// NewFixed builds a fixed-gap interarrival generator.
func NewFixed(gap float64) *Fixed {
	if gap <= 0.0 {
		panic(fmt.Sprintf("workload: interarrival gap must be positive, got %g", gap))
	}
	return &Fixed{gap: gap}
}

func (f *Fixed) Next(_ *rng.Stream) float64 {
	return f.gap
}

func (f *Fixed) ReverseNext(_ *rng.Stream) {}
