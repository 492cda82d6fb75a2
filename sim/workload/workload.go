// Package workload implements the reversible stochastic generators a master
// uses to produce tasks: per-task processing/communication sizes and the
// inter-arrival gap until the next generation. Every generator that consumes
// random draws exposes an exact reverse that steps the stream back in
// last-drawn-first-reversed order, so a rolled-back generation replays bit
// for bit.
package workload

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ricardofares/ispd-exa-engine-ross/sim/rng"
)

// Workload generates the (processing, communication) size pair of each task.
//
// Generate must only be called while RemainingTasks() > 0; the master stops
// scheduling generations once the counter reaches zero, so a violation is a
// programming error, not a runtime condition.
type Workload interface {
	// Generate draws the next task's sizes and decrements the remaining-task
	// counter. Sizes are always positive.
	Generate(s *rng.Stream) (procSize, commSize float64)

	// ReverseGenerate undoes the last Generate: it restores the remaining-task
	// counter and reverses exactly the draws Generate consumed, in reverse
	// order of consumption.
	ReverseGenerate(s *rng.Stream)

	// RemainingTasks reports how many tasks are yet to be generated.
	RemainingTasks() int
}

// Constant generates the same size pair for every task. No random draws.
type Constant struct {
	remaining int
	procSize  float64
	commSize  float64
}

// NewConstant validates and builds a Constant workload. Non-positive sizes
// are a configuration error and abort before the simulation starts.
func NewConstant(tasks int, procSize, commSize float64) *Constant {
	if procSize <= 0.0 {
		panic(fmt.Sprintf("workload: constant processing size must be positive, got %g", procSize))
	}
	if commSize <= 0.0 {
		panic(fmt.Sprintf("workload: constant communication size must be positive, got %g", commSize))
	}
	logrus.Debugf("constant workload: proc=%g comm=%g tasks=%d", procSize, commSize, tasks)
	return &Constant{remaining: tasks, procSize: procSize, commSize: commSize}
}

func (w *Constant) Generate(_ *rng.Stream) (float64, float64) {
	w.remaining--
	return w.procSize, w.commSize
}

func (w *Constant) ReverseGenerate(_ *rng.Stream) {
	w.remaining++
}

func (w *Constant) RemainingTasks() int {
	return w.remaining
}

// Uniform draws each size uniformly from a positive interval. Two draws per
// task: processing size first, communication size second.
type Uniform struct {
	remaining int
	minProc   float64
	maxProc   float64
	minComm   float64
	maxComm   float64
}

// NewUniform validates and builds a Uniform workload. Every bound must be
// positive and each maximum must not be below its minimum.
func NewUniform(tasks int, minProc, maxProc, minComm, maxComm float64) *Uniform {
	if minProc <= 0.0 {
		panic(fmt.Sprintf("workload: minimum processing size must be positive, got %g", minProc))
	}
	if maxProc <= 0.0 {
		panic(fmt.Sprintf("workload: maximum processing size must be positive, got %g", maxProc))
	}
	if minComm <= 0.0 {
		panic(fmt.Sprintf("workload: minimum communication size must be positive, got %g", minComm))
	}
	if maxComm <= 0.0 {
		panic(fmt.Sprintf("workload: maximum communication size must be positive, got %g", maxComm))
	}
	if maxProc < minProc {
		panic(fmt.Sprintf("workload: processing interval [%g, %g] is inverted", minProc, maxProc))
	}
	if maxComm < minComm {
		panic(fmt.Sprintf("workload: communication interval [%g, %g] is inverted", minComm, maxComm))
	}
	logrus.Debugf("uniform workload: proc=[%g, %g] comm=[%g, %g] tasks=%d",
		minProc, maxProc, minComm, maxComm, tasks)
	return &Uniform{
		remaining: tasks,
		minProc:   minProc,
		maxProc:   maxProc,
		minComm:   minComm,
		maxComm:   maxComm,
	}
}

func (w *Uniform) Generate(s *rng.Stream) (float64, float64) {
	procSize := s.UnifRange(w.minProc, w.maxProc)
	commSize := s.UnifRange(w.minComm, w.maxComm)
	w.remaining--
	return procSize, commSize
}

// ReverseGenerate steps the stream back twice: the communication draw first,
// then the processing draw. The order mirrors Generate exactly and must not
// be changed.
func (w *Uniform) ReverseGenerate(s *rng.Stream) {
	s.Reverse() // communication size
	s.Reverse() // processing size
	w.remaining++
}

func (w *Uniform) RemainingTasks() int {
	return w.remaining
}
