package services

import (
	"github.com/sirupsen/logrus"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/rng"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/scheduler"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/workload"
)

// Master generates the workload: on every GENERATE event it draws the next
// task's sizes, picks a slave machine through its scheduling policy, routes
// the task toward that machine, and schedules its own next generation.
// Completed tasks return to the master, which counts them at commit time.
type Master struct {
	id        sim.ServiceID
	owner     string
	kernel    sim.Kernel
	stream    *rng.Stream
	slaves    []sim.ServiceID
	sched     scheduler.Scheduler
	wl        workload.Workload
	ia        workload.Interarrival
	routes    *routing.Table
	collector *metrics.NodeCollector

	completedTasks int
	lastCompletion float64
}

// NewMaster builds a master service. The slave list must not be empty; the
// scheduling policy is expected to have been constructed over the same list.
func NewMaster(id sim.ServiceID, owner string, slaves []sim.ServiceID,
	sched scheduler.Scheduler, wl workload.Workload, ia workload.Interarrival,
	routes *routing.Table, stream *rng.Stream, kernel sim.Kernel,
	collector *metrics.NodeCollector) *Master {
	if len(slaves) == 0 {
		panic("services: master requires at least one slave")
	}
	return &Master{
		id:        id,
		owner:     owner,
		kernel:    kernel,
		stream:    stream,
		slaves:    slaves,
		sched:     sched,
		wl:        wl,
		ia:        ia,
		routes:    routes,
		collector: collector,
	}
}

// Init schedules the first GENERATE. The gap drawn here precedes every event
// and is therefore never subject to rollback.
func (m *Master) Init() {
	if m.wl.RemainingTasks() == 0 {
		return
	}
	gap := m.ia.Next(m.stream)
	m.kernel.Schedule(m.id, &sim.Message{Type: sim.Generate}, gap)
}

// Forward handles GENERATE by producing one task and ARRIVAL by receiving a
// completed task back.
//
// Draw order on GENERATE is fixed: interarrival gap first (when another
// generation follows), then processing size, then communication size. Reverse
// undoes the draws strictly last-drawn-first, so this order must be mirrored
// there and must never be reordered.
func (m *Master) Forward(msg *sim.Message, now float64) {
	switch msg.Type {
	case sim.Generate:
		if m.wl.RemainingTasks() == 0 {
			logrus.Panicf("master %d: GENERATE delivered with no remaining tasks", m.id)
		}

		if m.wl.RemainingTasks() > 1 {
			gap := m.ia.Next(m.stream)
			m.kernel.Schedule(m.id, &sim.Message{Type: sim.Generate}, now+gap)
		}

		procSize, commSize := m.wl.Generate(m.stream)
		slave := m.sched.PickNext()
		route := m.routes.Resolve(m.id, slave)

		out := &sim.Message{
			Type: sim.Arrival,
			Task: sim.Task{
				Owner:    m.owner,
				ProcSize: procSize,
				CommSize: commSize,
				Origin:   m.id,
				Dest:     slave,
			},
			RouteOffset:       0,
			PreviousServiceID: m.id,
			Downward:          true,
		}
		m.kernel.Schedule(nextDownward(route, -1, slave), out, now)

	case sim.Arrival:
		// A completed task carries no master state to mutate; counting
		// happens at commit.
	}
}

// Reverse undoes a GENERATE: scheduler pick, then the workload draws
// (communication before processing), then the interarrival gap, exactly
// mirroring Forward's draw order. The gap is reversed only when Forward drew
// one, which Forward did iff more than one task remained before this
// generation; after ReverseGenerate the counter is back at that value.
func (m *Master) Reverse(msg *sim.Message, now float64) {
	switch msg.Type {
	case sim.Generate:
		m.sched.ReversePick()
		m.wl.ReverseGenerate(m.stream)
		if m.wl.RemainingTasks() > 1 {
			m.ia.ReverseNext(m.stream)
		}
	case sim.Arrival:
		// Nothing was mutated forward.
	}
}

// Commit durably counts a completed task once rollback past this event is
// impossible.
func (m *Master) Commit(msg *sim.Message, now float64) {
	if msg.Type == sim.Arrival && msg.TaskProcessed {
		m.completedTasks++
		if now > m.lastCompletion {
			m.lastCompletion = now
		}
		m.collector.Notify(metrics.TotalCompletedTasks)
		m.collector.NotifyValue(metrics.SimulationTime, now)
	}
}

// Finish logs the master's summary; completed tasks were already notified at
// commit time.
func (m *Master) Finish() {
	logrus.Debugf("master %d: %d tasks completed, last completion at %.4f",
		m.id, m.completedTasks, m.lastCompletion)
}
