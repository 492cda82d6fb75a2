package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/workload"
)

// Spec is a YAML model description, an alternative to assembling a model
// through CLI flags. Loaded via LoadSpec.
type Spec struct {
	Seed    int64   `yaml:"seed"`
	Horizon float64 `yaml:"horizon,omitempty"` // 0 = unbounded
	Routes  string  `yaml:"routes"`

	Users    []UserSpec    `yaml:"users"`
	Masters  []MasterSpec  `yaml:"masters"`
	Links    []LinkSpec    `yaml:"links"`
	Machines []MachineSpec `yaml:"machines"`
	Switches []SwitchSpec  `yaml:"switches,omitempty"`
	Dummies  []uint64      `yaml:"dummies,omitempty"`
}

// UserSpec declares a task owner.
type UserSpec struct {
	Name  string  `yaml:"name"`
	Share float64 `yaml:"share"`
}

// MasterSpec declares a master and its generators.
type MasterSpec struct {
	ID           uint64           `yaml:"id"`
	Owner        string           `yaml:"owner"`
	Slaves       []uint64         `yaml:"slaves"`
	Scheduler    string           `yaml:"scheduler,omitempty"` // default round-robin
	Workload     WorkloadSpec     `yaml:"workload"`
	Interarrival InterarrivalSpec `yaml:"interarrival"`
}

// WorkloadSpec parameterizes a workload generator.
// Type "constant" uses proc_size/comm_size; "uniform" uses the min/max bounds.
type WorkloadSpec struct {
	Type        string  `yaml:"type"`
	Tasks       int     `yaml:"tasks"`
	ProcSize    float64 `yaml:"proc_size,omitempty"`
	CommSize    float64 `yaml:"comm_size,omitempty"`
	MinProcSize float64 `yaml:"min_proc_size,omitempty"`
	MaxProcSize float64 `yaml:"max_proc_size,omitempty"`
	MinCommSize float64 `yaml:"min_comm_size,omitempty"`
	MaxCommSize float64 `yaml:"max_comm_size,omitempty"`
}

// InterarrivalSpec parameterizes an interarrival generator.
// Type "poisson" uses mean; "fixed" uses gap.
type InterarrivalSpec struct {
	Type string  `yaml:"type"`
	Mean float64 `yaml:"mean,omitempty"`
	Gap  float64 `yaml:"gap,omitempty"`
}

// LinkSpec declares a communication link.
type LinkSpec struct {
	ID        uint64  `yaml:"id"`
	From      uint64  `yaml:"from"`
	To        uint64  `yaml:"to"`
	Bandwidth float64 `yaml:"bandwidth"`
	Load      float64 `yaml:"load,omitempty"`
	Latency   float64 `yaml:"latency,omitempty"`
}

// MachineSpec declares a processing machine.
type MachineSpec struct {
	ID        uint64  `yaml:"id"`
	PowerIdle float64 `yaml:"power_idle,omitempty"`
	PowerMax  float64 `yaml:"power_max,omitempty"`
	Cores     int     `yaml:"cores"`
	CoreRate  float64 `yaml:"core_rate"`
}

// SwitchSpec declares a forwarding switch.
type SwitchSpec struct {
	ID      uint64  `yaml:"id"`
	Latency float64 `yaml:"latency,omitempty"`
}

// LoadSpec reads and validates a YAML model description.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	if spec.Routes == "" {
		return nil, fmt.Errorf("model: %s: routes file not set", path)
	}
	if len(spec.Masters) == 0 {
		return nil, fmt.Errorf("model: %s: at least one master is required", path)
	}
	return &spec, nil
}

// buildWorkload constructs the generator a master spec describes. Constructor
// validation applies, so invalid parameters abort here.
func buildWorkload(ws WorkloadSpec) workload.Workload {
	switch ws.Type {
	case "constant":
		return workload.NewConstant(ws.Tasks, ws.ProcSize, ws.CommSize)
	case "uniform":
		return workload.NewUniform(ws.Tasks, ws.MinProcSize, ws.MaxProcSize,
			ws.MinCommSize, ws.MaxCommSize)
	default:
		panic(fmt.Sprintf("model: unknown workload type %q", ws.Type))
	}
}

func buildInterarrival(is InterarrivalSpec) workload.Interarrival {
	switch is.Type {
	case "", "poisson":
		return workload.NewPoisson(is.Mean)
	case "fixed":
		return workload.NewFixed(is.Gap)
	default:
		panic(fmt.Sprintf("model: unknown interarrival type %q", is.Type))
	}
}

// Apply registers everything the spec declares into the builder.
func (s *Spec) Apply(b *Builder) {
	for _, u := range s.Users {
		b.RegisterUser(u.Name, u.Share)
	}
	for _, m := range s.Masters {
		slaves := make([]sim.ServiceID, len(m.Slaves))
		for i, id := range m.Slaves {
			slaves[i] = sim.ServiceID(id)
		}
		b.RegisterMaster(sim.ServiceID(m.ID), m.Owner, slaves, m.Scheduler,
			buildWorkload(m.Workload), buildInterarrival(m.Interarrival))
	}
	for _, l := range s.Links {
		b.RegisterLink(sim.ServiceID(l.ID), sim.ServiceID(l.From), sim.ServiceID(l.To),
			l.Bandwidth, l.Load, l.Latency)
	}
	for _, m := range s.Machines {
		b.RegisterMachine(sim.ServiceID(m.ID), m.PowerIdle, m.PowerMax, m.Cores, m.CoreRate)
	}
	for _, sw := range s.Switches {
		b.RegisterSwitch(sim.ServiceID(sw.ID), sw.Latency)
	}
	for _, id := range s.Dummies {
		b.RegisterDummy(sim.ServiceID(id))
	}
}
