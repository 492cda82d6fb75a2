package services

import (
	"fmt"
	"math"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
)

// Link models a point-to-point communication medium with a single queue: the
// link is busy until nextAvailable, and each message holds it for its full
// transmission time.
type Link struct {
	id        sim.ServiceID
	kernel    sim.Kernel
	routes    *routing.Table
	collector *metrics.NodeCollector

	from      sim.ServiceID
	to        sim.ServiceID
	bandwidth float64 // Mbits/s
	load      float64 // fraction of bandwidth consumed by background load
	latency   float64

	nextAvailable float64

	acc metrics.LinkMetrics
}

// NewLink builds a link between two services.
func NewLink(id, from, to sim.ServiceID, bandwidth, load, latency float64,
	routes *routing.Table, kernel sim.Kernel, collector *metrics.NodeCollector) *Link {
	if bandwidth <= 0.0 {
		panic(fmt.Sprintf("services: link %d bandwidth must be positive, got %g", id, bandwidth))
	}
	if load < 0.0 || load >= 1.0 {
		panic(fmt.Sprintf("services: link %d load must be in [0, 1), got %g", id, load))
	}
	if latency < 0.0 {
		panic(fmt.Sprintf("services: link %d latency must not be negative, got %g", id, latency))
	}
	return &Link{
		id:        id,
		kernel:    kernel,
		routes:    routes,
		collector: collector,
		from:      from,
		to:        to,
		bandwidth: bandwidth,
		load:      load,
		latency:   latency,
	}
}

func (l *Link) Init() {}

// transmissionTime is the time the link is held by a message of the given
// size, with the available bandwidth reduced by the background load.
func (l *Link) transmissionTime(commSize float64) float64 {
	return l.latency + commSize/(l.bandwidth*(1.0-l.load))
}

// Forward queues the message on the link and emits it to the next hop at its
// departure time. The departure is never earlier than the event itself:
// max(nextAvailable, now) preserves causal ordering.
func (l *Link) Forward(msg *sim.Message, now float64) {
	if msg.Type != sim.Arrival {
		panic(fmt.Sprintf("services: link %d received %s", l.id, msg.Type))
	}

	departure := math.Max(l.nextAvailable, now) + l.transmissionTime(msg.Task.CommSize)
	msg.SavedNextAvailable = l.nextAvailable
	l.nextAvailable = departure

	route := l.routes.Resolve(msg.Task.Origin, msg.Task.Dest)
	out := &sim.Message{
		Type:              sim.Arrival,
		Task:              msg.Task,
		PreviousServiceID: l.id,
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
	l.kernel.Schedule(target, out, departure)
}

// Reverse restores the queue state from the message's reverse field.
func (l *Link) Reverse(msg *sim.Message, now float64) {
	l.nextAvailable = msg.SavedNextAvailable
}

// Commit accumulates the transmission into the link's local summary.
func (l *Link) Commit(msg *sim.Message, now float64) {
	l.acc.CommMbits += msg.Task.CommSize
	l.acc.CommTime += l.transmissionTime(msg.Task.CommSize)
	l.acc.CommWaitingTime += math.Max(msg.SavedNextAvailable-now, 0.0)
	l.acc.CommTasks++
}

// Finish flushes the link summary into the node collector.
func (l *Link) Finish() {
	l.collector.NotifyLink(l.acc)
	l.collector.NotifyValue(metrics.SimulationTime, l.nextAvailable)
}
