// Package scheduler implements the master-side policies that pick which
// machine receives the next generated task. A policy keeps minimal reversible
// state so a rolled-back pick can be undone exactly.
package scheduler

import (
	"fmt"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
)

// Scheduler picks the next machine for a task and can undo the last pick.
// No policy consumes random draws; reversal is pure arithmetic.
type Scheduler interface {
	PickNext() sim.ServiceID
	ReversePick()
}

// RoundRobin cycles through the slave list with a reversible cursor.
type RoundRobin struct {
	slaves []sim.ServiceID
	cursor int
}

// NewRoundRobin builds a round-robin policy over the given slaves.
func NewRoundRobin(slaves []sim.ServiceID) *RoundRobin {
	if len(slaves) == 0 {
		panic("scheduler: round-robin requires at least one slave")
	}
	return &RoundRobin{slaves: slaves}
}

// PickNext returns the machine under the cursor and advances it.
func (r *RoundRobin) PickNext() sim.ServiceID {
	id := r.slaves[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.slaves)
	return id
}

// ReversePick steps the cursor back, exactly undoing the last PickNext.
func (r *RoundRobin) ReversePick() {
	r.cursor = (r.cursor - 1 + len(r.slaves)) % len(r.slaves)
}

// New creates a Scheduler by policy name. Valid names: "round-robin".
// Empty string defaults to round-robin. Panics on unrecognized names.
func New(name string, slaves []sim.ServiceID) Scheduler {
	switch name {
	case "", "round-robin":
		return NewRoundRobin(slaves)
	default:
		panic(fmt.Sprintf("scheduler: unknown policy %q", name))
	}
}
