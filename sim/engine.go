// The Kernel and Service contracts between the synchronization engine and the
// per-service state machines, plus a deterministic sequential engine that
// drives a model in-process. The optimistic time-warp machinery (GVT,
// anti-messages, fossil collection) lives outside this module; services only
// ever see the four lifecycle calls and the Schedule primitive below.

package sim

import (
	"container/heap"
	"sort"

	"github.com/sirupsen/logrus"
)

// Kernel is the event-scheduling surface the synchronization engine exposes
// to services. Forward handlers emit follow-up events exclusively through it.
type Kernel interface {
	// Schedule delivers msg to the target service at virtual time at.
	Schedule(target ServiceID, msg *Message, at float64)
}

// Service is the lifecycle contract every logical process implements.
//
// Forward and Reverse must be exact inverses: Reverse restores every state
// mutation of the matching Forward call using only the message's reverse
// fields, never by recomputation from current state. Commit runs once the
// kernel guarantees the event can no longer be rolled back; irreversible
// effects (metric notifications) belong there and nowhere else. Finish runs
// once at simulation end to flush per-service summaries.
type Service interface {
	Init()
	Forward(msg *Message, now float64)
	Reverse(msg *Message, now float64)
	Commit(msg *Message, now float64)
	Finish()
}

// scheduledEvent pairs a message with its delivery target and virtual time.
type scheduledEvent struct {
	at     float64
	seq    uint64
	target ServiceID
	msg    *Message
}

// eventQueue implements heap.Interface.
// Ordering: virtual time, then insertion sequence for deterministic ties.
type eventQueue []*scheduledEvent

func (eq eventQueue) Len() int { return len(eq) }

func (eq eventQueue) Less(i, j int) bool {
	if eq[i].at != eq[j].at {
		return eq[i].at < eq[j].at
	}
	return eq[i].seq < eq[j].seq
}

func (eq eventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(*scheduledEvent))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Engine is a sequential, in-process synchronization engine. Events execute
// in strict virtual-time order, so no rollback can occur and every event is
// committed immediately after its forward call. It doubles as the controlled
// scheduler used by tests to exercise the service contracts.
type Engine struct {
	Clock   float64
	Horizon float64

	queue    eventQueue
	seq      uint64
	services map[ServiceID]Service
}

// NewEngine creates an engine that stops once virtual time exceeds horizon.
func NewEngine(horizon float64) *Engine {
	return &Engine{
		Horizon:  horizon,
		queue:    make(eventQueue, 0),
		services: make(map[ServiceID]Service),
	}
}

// Register binds a service to its logical-process identifier.
func (e *Engine) Register(id ServiceID, s Service) {
	if _, ok := e.services[id]; ok {
		logrus.Panicf("service %d registered twice", id)
	}
	e.services[id] = s
}

// Service returns the service registered at id, or nil.
func (e *Engine) Service(id ServiceID) Service {
	return e.services[id]
}

// Schedule implements Kernel.
func (e *Engine) Schedule(target ServiceID, msg *Message, at float64) {
	if _, ok := e.services[target]; !ok {
		logrus.Panicf("event scheduled to unregistered service %d", target)
	}
	e.seq++
	heap.Push(&e.queue, &scheduledEvent{at: at, seq: e.seq, target: target, msg: msg})
}

// ids returns the registered service identifiers in ascending order, so that
// Init and Finish passes are deterministic.
func (e *Engine) ids() []ServiceID {
	ids := make([]ServiceID, 0, len(e.services))
	for id := range e.services {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Run initializes every service, drains the event queue in virtual-time
// order, and finishes every service. Sequential execution commits each event
// right after its forward call.
func (e *Engine) Run() {
	for _, id := range e.ids() {
		e.services[id].Init()
	}

	for e.queue.Len() > 0 {
		ev := heap.Pop(&e.queue).(*scheduledEvent)
		if ev.at > e.Horizon {
			break
		}
		e.Clock = ev.at
		svc := e.services[ev.target]
		logrus.Debugf("[vt %10.4f] %s -> service %d", e.Clock, ev.msg.Type, ev.target)
		svc.Forward(ev.msg, ev.at)
		svc.Commit(ev.msg, ev.at)
	}

	for _, id := range e.ids() {
		e.services[id].Finish()
	}
	logrus.Debugf("[vt %10.4f] simulation ended", e.Clock)
}
