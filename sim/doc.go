// Package sim provides the core types of the reversible discrete-event
// simulator for distributed computing infrastructure.
//
// # Reading Guide
//
// Start with these two files to understand the kernel contracts:
//   - message.go: the flat event message, its task payload, and the
//     reverse-computation fields each forward handler journals into it
//   - engine.go: the Kernel and Service contracts plus the sequential
//     in-process engine that drives a model deterministically
//
// # Architecture
//
// The sim package defines the contracts; implementations live in
// sub-packages:
//   - sim/rng/: reversible pseudo-random streams (one per service)
//   - sim/workload/: reversible task-size and interarrival generators
//   - sim/routing/: the static routing table loaded from a routes file
//   - sim/scheduler/: master-side slave-picking policies
//   - sim/services/: the master, link, machine, switch, and dummy state
//     machines with their forward/reverse/commit/finish handlers
//   - sim/metrics/: per-node collectors and the global reduction
//   - sim/model/: model assembly from CLI flags or a YAML description
//
// # Reversibility
//
// Every forward handler must be exactly undoable by the matching reverse
// handler using only the message's reverse fields. Irreversible effects
// (metric notifications) are confined to commit handlers, which run only
// once an event can no longer be rolled back.
package sim
