// Defines the flat event-message layout exchanged between services and the
// task payload it carries. The synchronization kernel preallocates message
// buffers of a single size, so every variant shares this one struct.

package sim

import "fmt"

// ServiceID identifies a logical process (one simulated service).
type ServiceID uint64

// MessageType selects which handler path a service runs for a message.
type MessageType uint8

const (
	// Generate asks a master to generate the next task.
	Generate MessageType = iota
	// Arrival delivers a task to a link, switch, machine, or back to a master.
	Arrival
)

func (t MessageType) String() string {
	switch t {
	case Generate:
		return "GENERATE"
	case Arrival:
		return "ARRIVAL"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// Task describes one unit of work generated by a master on behalf of a user.
// It travels embedded in messages and is immutable per hop: a hop that needs
// to change a field a later hop depends on must first save the prior value
// into one of the message's reverse fields.
type Task struct {
	Owner     string    // user the task is generated for
	ProcSize  float64   // processing demand, in MFLOPs
	CommSize  float64   // communication demand, in Mbits
	Origin    ServiceID // master that generated the task
	Dest      ServiceID // machine the task is destined to
	Processed bool      // set once the destination machine has executed it
}

// Message is the event record delivered to a service's forward handler and,
// on rollback, to its reverse handler. The Saved* fields are the reverse
// computation journal: written exactly once by a forward call, read exactly
// once by the matching reverse call, and meaningless after commit.
type Message struct {
	Type MessageType
	Task Task

	// Reverse-computation fields.
	SavedNextAvailable     float64 // link/switch next-available time before this hop
	SavedCoreIndex         int     // core picked by a machine
	SavedCoreNextAvailable float64 // that core's next-available time before processing

	// Route descriptor.
	RouteOffset       int       // index of the hop this message represents
	PreviousServiceID ServiceID // service that emitted this message

	// Flags.
	Downward      bool // true while the task travels master -> machine
	TaskProcessed bool // true on the return trip of a processed task
}
