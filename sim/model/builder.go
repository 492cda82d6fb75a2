// Package model registers the simulated entities of a run: users, masters,
// links, machines, switches, and dummy padding. Registration validates
// configuration up front so that every failure aborts before the first event
// executes.
package model

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/rng"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/scheduler"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/services"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/workload"
)

// User owns generated tasks and carries a scheduling share.
type User struct {
	Name  string
	Share float64
}

// Builder assembles a model into an engine. Registration order does not
// matter; Build performs the cross-entity validation.
type Builder struct {
	engine    *sim.Engine
	routes    *routing.Table
	collector *metrics.NodeCollector
	seed      int64

	users        map[string]User
	masterSlaves map[sim.ServiceID][]sim.ServiceID
	masterOwners map[sim.ServiceID]string
}

// NewBuilder creates a builder over the given engine, routing table, and
// node collector. The seed derives every service's private RNG stream.
func NewBuilder(engine *sim.Engine, routes *routing.Table,
	collector *metrics.NodeCollector, seed int64) *Builder {
	return &Builder{
		engine:       engine,
		routes:       routes,
		collector:    collector,
		seed:         seed,
		users:        make(map[string]User),
		masterSlaves: make(map[sim.ServiceID][]sim.ServiceID),
		masterOwners: make(map[sim.ServiceID]string),
	}
}

// RegisterUser registers a task owner.
func (b *Builder) RegisterUser(name string, share float64) {
	if strings.TrimSpace(name) == "" {
		panic("model: user name must not be empty")
	}
	if _, dup := b.users[name]; dup {
		panic(fmt.Sprintf("model: user %q registered twice", name))
	}
	b.users[name] = User{Name: name, Share: share}
}

// RegisterMaster registers a master with its slave machines, scheduling
// policy, and reversible generators.
func (b *Builder) RegisterMaster(id sim.ServiceID, owner string,
	slaves []sim.ServiceID, policy string, wl workload.Workload,
	ia workload.Interarrival) {
	stream := rng.NewStreamFor(b.seed, uint64(id))
	sched := scheduler.New(policy, slaves)
	b.engine.Register(id, services.NewMaster(id, owner, slaves, sched, wl, ia,
		b.routes, stream, b.engine, b.collector))
	b.masterSlaves[id] = slaves
	b.masterOwners[id] = owner
}

// RegisterLink registers a communication link between two services.
func (b *Builder) RegisterLink(id, from, to sim.ServiceID, bandwidth, load, latency float64) {
	b.engine.Register(id, services.NewLink(id, from, to, bandwidth, load, latency,
		b.routes, b.engine, b.collector))
}

// RegisterMachine registers a processing machine.
func (b *Builder) RegisterMachine(id sim.ServiceID, powerIdle, powerMax float64,
	cores int, coreRate float64) {
	b.engine.Register(id, services.NewMachine(id, powerIdle, powerMax, cores,
		coreRate, b.routes, b.engine, b.collector))
}

// RegisterSwitch registers a forwarding switch.
func (b *Builder) RegisterSwitch(id sim.ServiceID, latency float64) {
	b.engine.Register(id, services.NewSwitch(id, latency, b.routes, b.engine, b.collector))
}

// RegisterDummy fills an unused logical-process slot.
func (b *Builder) RegisterDummy(id sim.ServiceID) {
	b.engine.Register(id, services.NewDummy(id))
}

// Build validates the assembled model. At least one user must be registered,
// every master's owner must be a registered user, and every (master, slave)
// pair must resolve in the routing table; a missing route panics, which
// aborts the process before simulation start.
func (b *Builder) Build() error {
	if len(b.users) == 0 {
		return fmt.Errorf("model: at least one user must be registered")
	}
	for id, owner := range b.masterOwners {
		if _, ok := b.users[owner]; !ok {
			return fmt.Errorf("model: master %d owned by unregistered user %q", id, owner)
		}
	}
	for id, slaves := range b.masterSlaves {
		for _, slave := range slaves {
			b.routes.Resolve(id, slave)
		}
	}
	logrus.Debugf("model: built with %d users, %d masters", len(b.users), len(b.masterSlaves))
	return nil
}

// StarConfig parameterizes the star model: one master at service 0, machine
// i at service 2i, and its link at service 2i-1.
type StarConfig struct {
	Machines    int
	Tasks       int
	Owner       string
	ProcSize    float64 // constant workload processing size, MFLOPs
	CommSize    float64 // constant workload communication size, Mbits
	ArrivalMean float64 // mean interarrival gap

	LinkBandwidth float64
	LinkLoad      float64
	LinkLatency   float64

	PowerIdle float64
	PowerMax  float64
	Cores     int
	CoreRate  float64
}

// BuildStar registers the star model into the builder.
func BuildStar(b *Builder, cfg StarConfig) {
	if cfg.Machines <= 0 {
		panic(fmt.Sprintf("model: star requires at least one machine, got %d", cfg.Machines))
	}

	slaves := make([]sim.ServiceID, 0, cfg.Machines)
	for i := 1; i <= cfg.Machines; i++ {
		slaves = append(slaves, sim.ServiceID(2*i))
	}

	b.RegisterMaster(0, cfg.Owner, slaves, "round-robin",
		workload.NewConstant(cfg.Tasks, cfg.ProcSize, cfg.CommSize),
		workload.NewPoisson(cfg.ArrivalMean))

	for i := 1; i <= cfg.Machines; i++ {
		machine := sim.ServiceID(2 * i)
		link := machine - 1
		b.RegisterLink(link, 0, machine, cfg.LinkBandwidth, cfg.LinkLoad, cfg.LinkLatency)
		b.RegisterMachine(machine, cfg.PowerIdle, cfg.PowerMax, cfg.Cores, cfg.CoreRate)
	}
}

// WriteStarRoutes writes the routing table of the star model: the route from
// the master to machine 2i crosses only link 2i-1.
func WriteStarRoutes(path string, machines int) error {
	var sb strings.Builder
	sb.WriteString("# star model routes\n")
	for i := 1; i <= machines; i++ {
		fmt.Fprintf(&sb, "0 %d %d\n", 2*i, 2*i-1)
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
