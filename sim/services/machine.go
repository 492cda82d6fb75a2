package services

import (
	"fmt"
	"math"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
)

// Machine executes tasks. Each core has its own next-available time; an
// arriving task takes the earliest-free core, runs for procSize/coreRate, and
// the processed task is sent back toward its origin along the same route.
type Machine struct {
	id        sim.ServiceID
	kernel    sim.Kernel
	routes    *routing.Table
	collector *metrics.NodeCollector

	powerIdle float64
	powerMax  float64
	coreRate  float64 // MFLOPS per core

	cores []float64 // per-core next-available time

	acc metrics.MachineMetrics
}

// NewMachine builds a machine with the given core count and per-core rating.
func NewMachine(id sim.ServiceID, powerIdle, powerMax float64, cores int,
	coreRate float64, routes *routing.Table, kernel sim.Kernel,
	collector *metrics.NodeCollector) *Machine {
	if cores <= 0 {
		panic(fmt.Sprintf("services: machine %d core count must be positive, got %d", id, cores))
	}
	if coreRate <= 0.0 {
		panic(fmt.Sprintf("services: machine %d core rate must be positive, got %g", id, coreRate))
	}
	if powerIdle < 0.0 || powerMax < powerIdle {
		panic(fmt.Sprintf("services: machine %d power range [%g, %g] is invalid", id, powerIdle, powerMax))
	}
	return &Machine{
		id:        id,
		kernel:    kernel,
		routes:    routes,
		collector: collector,
		powerIdle: powerIdle,
		powerMax:  powerMax,
		coreRate:  coreRate,
		cores:     make([]float64, cores),
		acc: metrics.MachineMetrics{
			PowerIdle: powerIdle,
			PowerMax:  powerMax,
		},
	}
}

func (m *Machine) Init() {}

// leastLoadedCore returns the core with the minimum next-available time,
// breaking ties by the lowest index.
func (m *Machine) leastLoadedCore() int {
	core := 0
	for i := 1; i < len(m.cores); i++ {
		if m.cores[i] < m.cores[core] {
			core = i
		}
	}
	return core
}

// Forward processes an incoming task: the chosen core's index and prior
// next-available time go into the message's reverse fields before the core is
// claimed, and the processed task departs upward at the finish time.
func (m *Machine) Forward(msg *sim.Message, now float64) {
	if msg.Type != sim.Arrival || !msg.Downward {
		panic(fmt.Sprintf("services: machine %d received unexpected %s", m.id, msg.Type))
	}

	core := m.leastLoadedCore()
	msg.SavedCoreIndex = core
	msg.SavedCoreNextAvailable = m.cores[core]

	finish := math.Max(m.cores[core], now) + msg.Task.ProcSize/m.coreRate
	m.cores[core] = finish
	msg.TaskProcessed = true

	route := m.routes.Resolve(msg.Task.Origin, msg.Task.Dest)
	task := msg.Task
	task.Processed = true
	out := &sim.Message{
		Type:              sim.Arrival,
		Task:              task,
		RouteOffset:       msg.RouteOffset - 1,
		PreviousServiceID: m.id,
		Downward:          false,
		TaskProcessed:     true,
	}
	m.kernel.Schedule(nextUpward(route, msg.RouteOffset, msg.Task.Origin), out, finish)
}

// Reverse releases the claimed core using the saved index and time.
func (m *Machine) Reverse(msg *sim.Message, now float64) {
	m.cores[msg.SavedCoreIndex] = msg.SavedCoreNextAvailable
	msg.TaskProcessed = false
}

// Commit accumulates the processed task into the machine's local summary.
func (m *Machine) Commit(msg *sim.Message, now float64) {
	m.acc.ProcMFlops += msg.Task.ProcSize
	m.acc.ProcTime += msg.Task.ProcSize / m.coreRate
	m.acc.ProcWaitingTime += math.Max(msg.SavedCoreNextAvailable-now, 0.0)
	m.acc.ProcTasks++
}

// Finish flushes the machine summary and its energy estimate into the node
// collector. Energy: idle draw over the machine's active span plus the
// busy-power surplus over the time cores actually processed.
func (m *Machine) Finish() {
	end := 0.0
	for _, t := range m.cores {
		if t > end {
			end = t
		}
	}
	energy := m.powerIdle*end + (m.powerMax-m.powerIdle)*m.acc.ProcTime

	m.collector.NotifyMachine(m.acc)
	m.collector.NotifyValue(metrics.TotalEnergyConsumption, energy)
	m.collector.NotifyValue(metrics.SimulationTime, end)
}
