package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
)

// switchTable routes 0 -> 6 across link 5, switch 7, link 9.
func switchTable() *routing.Table {
	return routing.Static(
		routing.Entry{Origin: 0, Dest: 6, Hops: routing.Route{5, 7, 9}},
	)
}

func newTestSwitch() (*Switch, *fakeKernel) {
	kernel := &fakeKernel{}
	s := NewSwitch(7, 0.25, switchTable(), kernel, metrics.NewNodeCollector())
	return s, kernel
}

func switchMsg(downward bool) *sim.Message {
	return &sim.Message{
		Type:        sim.Arrival,
		Task:        sim.Task{ProcSize: 1000.0, CommSize: 80.0, Origin: 0, Dest: 6},
		RouteOffset: 1, // the switch sits at hop 1 of the route
		Downward:    downward,
	}
}

func TestSwitch_Forward_AppliesForwardingDelayOnly(t *testing.T) {
	// GIVEN an idle switch with 0.25 forwarding delay
	s, kernel := newTestSwitch()
	msg := switchMsg(true)

	// WHEN an arrival executes at vt=2.0
	s.Forward(msg, 2.0)

	// THEN the message departs after the fixed delay, independent of size
	require.Equal(t, 0.0, msg.SavedNextAvailable)
	require.InDelta(t, 2.25, s.nextAvailable, 1e-12)

	out := kernel.calls[0]
	require.Equal(t, sim.ServiceID(9), out.target, "downward continues to the next hop")
	require.InDelta(t, 2.25, out.at, 1e-12)
	require.Equal(t, 2, out.msg.RouteOffset)
}

func TestSwitch_Forward_Upward_RetracesRoute(t *testing.T) {
	s, kernel := newTestSwitch()
	msg := switchMsg(false)
	msg.TaskProcessed = true

	s.Forward(msg, 20.0)

	out := kernel.calls[0]
	require.Equal(t, sim.ServiceID(5), out.target, "upward returns to the previous hop")
	require.Equal(t, 0, out.msg.RouteOffset)
	require.True(t, out.msg.TaskProcessed)
}

func TestSwitch_Forward_QueuesBehindBusyPort(t *testing.T) {
	s, kernel := newTestSwitch()
	s.nextAvailable = 5.0

	msg := switchMsg(true)
	s.Forward(msg, 2.0)

	require.Equal(t, 5.0, msg.SavedNextAvailable)
	require.InDelta(t, 5.25, kernel.calls[0].at, 1e-12)
}

func TestSwitch_Reverse_RestoresAvailableTime(t *testing.T) {
	s, _ := newTestSwitch()
	msg1 := switchMsg(true)
	msg2 := switchMsg(true)

	s.Forward(msg1, 1.0)
	afterFirst := s.nextAvailable
	s.Forward(msg2, 1.5)

	s.Reverse(msg2, 1.5)
	require.Equal(t, afterFirst, s.nextAvailable)
	s.Reverse(msg1, 1.0)
	require.Equal(t, 0.0, s.nextAvailable)
}

func TestSwitch_Commit_AccumulatesForwarding(t *testing.T) {
	s, _ := newTestSwitch()
	msg := switchMsg(true)
	s.Forward(msg, 2.0)
	s.Commit(msg, 2.0)

	require.Equal(t, 80.0, s.acc.CommMbits)
	require.Equal(t, 0.25, s.acc.CommTime)
	require.Equal(t, 1, s.acc.CommTasks)
}

func TestNewSwitch_NegativeLatency_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic on negative latency, got none")
		}
	}()
	NewSwitch(7, -0.5, switchTable(), &fakeKernel{}, metrics.NewNodeCollector())
}

func TestDummy_AllHandlersAreNoOps(t *testing.T) {
	d := NewDummy(99)
	msg := &sim.Message{Type: sim.Arrival}

	d.Init()
	d.Forward(msg, 1.0)
	d.Reverse(msg, 1.0)
	d.Commit(msg, 1.0)
	d.Finish()

	// Nothing to assert beyond not panicking: the dummy owns no state.
}
