package services

import (
	"fmt"
	"math"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
)

// Switch forwards messages between hops with a pure forwarding delay, no
// bandwidth-dependent transmission time. It keeps the same single-queue
// save/restore discipline as Link over a shared next-available time.
type Switch struct {
	id        sim.ServiceID
	kernel    sim.Kernel
	routes    *routing.Table
	collector *metrics.NodeCollector

	latency float64

	nextAvailable float64

	acc metrics.LinkMetrics
}

// NewSwitch builds a switch with the given forwarding delay.
func NewSwitch(id sim.ServiceID, latency float64, routes *routing.Table,
	kernel sim.Kernel, collector *metrics.NodeCollector) *Switch {
	if latency < 0.0 {
		panic(fmt.Sprintf("services: switch %d latency must not be negative, got %g", id, latency))
	}
	return &Switch{
		id:        id,
		kernel:    kernel,
		routes:    routes,
		collector: collector,
		latency:   latency,
	}
}

func (s *Switch) Init() {}

// Forward holds the message until the switch frees up, then emits it to the
// next hop in the message's travel direction.
func (s *Switch) Forward(msg *sim.Message, now float64) {
	if msg.Type != sim.Arrival {
		panic(fmt.Sprintf("services: switch %d received %s", s.id, msg.Type))
	}

	departure := math.Max(s.nextAvailable, now) + s.latency
	msg.SavedNextAvailable = s.nextAvailable
	s.nextAvailable = departure

	route := s.routes.Resolve(msg.Task.Origin, msg.Task.Dest)
	out := &sim.Message{
		Type:              sim.Arrival,
		Task:              msg.Task,
		PreviousServiceID: s.id,
		Downward:          msg.Downward,
		TaskProcessed:     msg.TaskProcessed,
	}

	var target sim.ServiceID
	if msg.Downward {
		out.RouteOffset = msg.RouteOffset + 1
		target = nextDownward(route, msg.RouteOffset, msg.Task.Dest)
	} else {
		out.RouteOffset = msg.RouteOffset - 1
		target = nextUpward(route, msg.RouteOffset, msg.Task.Origin)
	}
	s.kernel.Schedule(target, out, departure)
}

// Reverse restores the shared next-available time.
func (s *Switch) Reverse(msg *sim.Message, now float64) {
	s.nextAvailable = msg.SavedNextAvailable
}

// Commit accumulates the forwarded message into the switch's local summary.
func (s *Switch) Commit(msg *sim.Message, now float64) {
	s.acc.CommMbits += msg.Task.CommSize
	s.acc.CommTime += s.latency
	s.acc.CommWaitingTime += math.Max(msg.SavedNextAvailable-now, 0.0)
	s.acc.CommTasks++
}

// Finish flushes the switch summary into the node collector.
func (s *Switch) Finish() {
	s.collector.NotifyLink(s.acc)
	s.collector.NotifyValue(metrics.SimulationTime, s.nextAvailable)
}
