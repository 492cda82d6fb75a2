// Package services implements the reversible state machines behind each kind
// of simulated entity: Master, Link, Machine, Switch, and Dummy. Every
// service satisfies sim.Service; the synchronization kernel owns each
// service's state exclusively and serializes the lifecycle calls to it, so no
// service needs internal locking.
//
// The reverse-computation discipline is uniform: a forward handler saves
// every value it is about to overwrite into the message's reverse fields, and
// the matching reverse handler restores from those fields only, never by
// recomputation. Metric notifications happen exclusively in commit and finish
// handlers, which the kernel guarantees are never rolled back.
package services

import (
	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
)

// nextDownward returns the service after hop offset on the way to dest.
// Once the route is exhausted the destination itself is next.
func nextDownward(route routing.Route, offset int, dest sim.ServiceID) sim.ServiceID {
	if offset+1 < len(route) {
		return route[offset+1]
	}
	return dest
}

// nextUpward returns the service before hop offset on the way back to origin.
func nextUpward(route routing.Route, offset int, origin sim.ServiceID) sim.ServiceID {
	if offset-1 >= 0 && offset-1 < len(route) {
		return route[offset-1]
	}
	return origin
}
