package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
)

func newTestMachine(cores int) (*Machine, *fakeKernel, *metrics.NodeCollector) {
	kernel := &fakeKernel{}
	collector := metrics.NewNodeCollector()
	m := NewMachine(2, 20.0, 200.0, cores, 100.0, starTable(), kernel, collector)
	return m, kernel, collector
}

func machineMsg(procSize float64) *sim.Message {
	return &sim.Message{
		Type:        sim.Arrival,
		Task:        sim.Task{ProcSize: procSize, CommSize: 80.0, Origin: 0, Dest: 2},
		RouteOffset: 1, // delivered past the single link of the star route
		Downward:    true,
	}
}

func TestMachine_Forward_ProcessesOnEarliestCore(t *testing.T) {
	// GIVEN a single-core machine rated 100 MFLOPS
	m, kernel, _ := newTestMachine(1)
	msg := machineMsg(1000.0)

	// WHEN a task arrives at vt=1.7
	m.Forward(msg, 1.7)

	// THEN the core is claimed until 1.7 + 1000/100 and the reverse fields
	// hold the pre-claim state
	require.Equal(t, 0, msg.SavedCoreIndex)
	require.Equal(t, 0.0, msg.SavedCoreNextAvailable)
	require.InDelta(t, 11.7, m.cores[0], 1e-12)
	require.True(t, msg.TaskProcessed)

	// AND the processed task departs upward at the finish time
	require.Len(t, kernel.calls, 1)
	out := kernel.calls[0]
	require.Equal(t, sim.ServiceID(1), out.target, "return trip starts at the link")
	require.InDelta(t, 11.7, out.at, 1e-12)
	require.Equal(t, 0, out.msg.RouteOffset)
	require.False(t, out.msg.Downward)
	require.True(t, out.msg.TaskProcessed)
	require.True(t, out.msg.Task.Processed)
}

func TestMachine_Forward_TieBreaksOnLowestCoreIndex(t *testing.T) {
	// GIVEN two idle cores
	m, _, _ := newTestMachine(2)

	// WHEN two tasks arrive back to back
	msg1 := machineMsg(1000.0)
	msg2 := machineMsg(1000.0)
	m.Forward(msg1, 0.0)
	m.Forward(msg2, 0.0)

	// THEN they land on cores 0 and 1 in that order
	require.Equal(t, 0, msg1.SavedCoreIndex)
	require.Equal(t, 1, msg2.SavedCoreIndex)
	require.InDelta(t, 10.0, m.cores[0], 1e-12)
	require.InDelta(t, 10.0, m.cores[1], 1e-12)
}

func TestMachine_SequentialTasks_AdvanceCoreByProcessingTime(t *testing.T) {
	// GIVEN a single core and three 1000-MFLOP tasks
	m, _, _ := newTestMachine(1)

	// WHEN the tasks queue up faster than the core drains them
	var prev float64
	for i, at := range []float64{1.7, 3.3, 4.9} {
		m.Forward(machineMsg(1000.0), at)

		// THEN the core's available time advances by exactly 10.0 per task
		if i > 0 {
			require.InDelta(t, 10.0, m.cores[0]-prev, 1e-9, "task %d", i)
		}
		prev = m.cores[0]
	}
}

func TestMachine_CausalMonotonicity(t *testing.T) {
	for _, tc := range []struct {
		name  string
		avail float64
		now   float64
	}{
		{"idle core", 0.0, 4.0},
		{"busy core", 25.0, 4.0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, _, _ := newTestMachine(1)
			m.cores[0] = tc.avail

			m.Forward(machineMsg(1000.0), tc.now)

			if m.cores[0] < math.Max(tc.avail, tc.now) {
				t.Errorf("core available time %v below max(%v, %v)", m.cores[0], tc.avail, tc.now)
			}
		})
	}
}

func TestMachine_Reverse_RestoresSavedCore(t *testing.T) {
	// GIVEN two claims on a dual-core machine
	m, _, _ := newTestMachine(2)
	m.cores[0] = 3.0
	m.cores[1] = 5.0
	before := append([]float64(nil), m.cores...)

	msg1 := machineMsg(1000.0)
	msg2 := machineMsg(2000.0)
	m.Forward(msg1, 4.0) // core 0 (3.0 < 5.0)
	m.Forward(msg2, 4.0) // core 1

	// WHEN both are reversed out of order relative to their cores
	m.Reverse(msg2, 4.0)
	m.Reverse(msg1, 4.0)

	// THEN the per-core state is bit-for-bit back
	require.Equal(t, before, m.cores)
	require.False(t, msg1.TaskProcessed)
}

func TestMachine_ReverseThenForward_ReplaysIdentically(t *testing.T) {
	m, kernel, _ := newTestMachine(2)
	msg := machineMsg(1000.0)

	m.Forward(msg, 2.0)
	first := kernel.calls[0]

	m.Reverse(msg, 2.0)
	kernel.reset()
	m.Forward(msg, 2.0)

	require.Equal(t, first.target, kernel.calls[0].target)
	require.Equal(t, first.at, kernel.calls[0].at)
	require.Equal(t, msg.SavedCoreIndex, 0)
}

func TestMachine_Commit_AccumulatesProcessing(t *testing.T) {
	m, _, _ := newTestMachine(1)
	m.cores[0] = 8.0
	msg := machineMsg(1000.0)

	m.Forward(msg, 5.0)
	m.Commit(msg, 5.0)

	require.Equal(t, 1000.0, m.acc.ProcMFlops)
	require.InDelta(t, 10.0, m.acc.ProcTime, 1e-12)
	require.Equal(t, 3.0, m.acc.ProcWaitingTime) // waited 8.0 - 5.0 for the core
	require.Equal(t, 1, m.acc.ProcTasks)
}

func TestMachine_Finish_FlushesSummaryAndEnergy(t *testing.T) {
	// GIVEN a machine that processed one task ending at vt=10
	m, _, collector := newTestMachine(1)
	msg := machineMsg(1000.0)
	m.Forward(msg, 0.0)
	m.Commit(msg, 0.0)

	// WHEN the machine finishes
	m.Finish()

	// THEN the collector holds its span as simulation time
	require.InDelta(t, 10.0, collector.SimulationTime(), 1e-12)
}

func TestNewMachine_InvalidParameters_Panic(t *testing.T) {
	for name, build := range map[string]func(){
		"zero cores": func() {
			NewMachine(2, 20.0, 200.0, 0, 100.0, starTable(), &fakeKernel{}, metrics.NewNodeCollector())
		},
		"zero rate": func() {
			NewMachine(2, 20.0, 200.0, 1, 0.0, starTable(), &fakeKernel{}, metrics.NewNodeCollector())
		},
		"inverted power range": func() {
			NewMachine(2, 200.0, 20.0, 1, 100.0, starTable(), &fakeKernel{}, metrics.NewNodeCollector())
		},
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic, got none")
				}
			}()
			build()
		})
	}
}
