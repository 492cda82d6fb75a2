package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/workload"
)

func starTestTable() *routing.Table {
	return routing.Static(
		routing.Entry{Origin: 0, Dest: 2, Hops: routing.Route{1}},
		routing.Entry{Origin: 0, Dest: 4, Hops: routing.Route{3}},
	)
}

func newTestBuilder(table *routing.Table) (*Builder, *sim.Engine) {
	engine := sim.NewEngine(math.MaxFloat64)
	b := NewBuilder(engine, table, metrics.NewNodeCollector(), 42)
	return b, engine
}

func TestBuild_NoUsers_Errors(t *testing.T) {
	b, _ := newTestBuilder(starTestTable())

	err := b.Build()

	require.ErrorContains(t, err, "at least one user")
}

func TestBuild_UnregisteredOwner_Errors(t *testing.T) {
	b, _ := newTestBuilder(starTestTable())
	b.RegisterUser("User1", 100.0)
	b.RegisterMaster(0, "Ghost", []sim.ServiceID{2}, "round-robin",
		workload.NewConstant(1, 1000.0, 80.0), workload.NewFixed(0.1))

	err := b.Build()

	require.ErrorContains(t, err, "unregistered user")
}

func TestBuild_MissingRoute_Panics(t *testing.T) {
	// GIVEN a table that lacks the route to slave 4
	table := routing.Static(routing.Entry{Origin: 0, Dest: 2, Hops: routing.Route{1}})
	b, _ := newTestBuilder(table)
	b.RegisterUser("User1", 100.0)
	b.RegisterMaster(0, "User1", []sim.ServiceID{2, 4}, "round-robin",
		workload.NewConstant(1, 1000.0, 80.0), workload.NewFixed(0.1))

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic on unresolvable master/slave pair, got none")
		}
	}()
	_ = b.Build()
}

func TestBuildStar_RegistersFullTopology(t *testing.T) {
	// GIVEN a star of two machines
	b, engine := newTestBuilder(starTestTable())
	b.RegisterUser("User1", 100.0)
	BuildStar(b, StarConfig{
		Machines:      2,
		Tasks:         5,
		Owner:         "User1",
		ProcSize:      1000.0,
		CommSize:      80.0,
		ArrivalMean:   0.1,
		LinkBandwidth: 50.0,
		Cores:         8,
		CoreRate:      9800.0,
		PowerIdle:     20.0,
		PowerMax:      200.0,
	})

	// THEN master 0, links 1/3, and machines 2/4 are registered and valid
	require.NoError(t, b.Build())
	for _, id := range []sim.ServiceID{0, 1, 2, 3, 4} {
		require.NotNil(t, engine.Service(id), "service %d", id)
	}
}

func TestWriteStarRoutes_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.route")

	require.NoError(t, WriteStarRoutes(path, 3))

	table, err := routing.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	require.Equal(t, routing.Route{5}, table.Resolve(0, 6))
}

func TestRegisterUser_Duplicate_Panics(t *testing.T) {
	b, _ := newTestBuilder(starTestTable())
	b.RegisterUser("User1", 100.0)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic on duplicate user, got none")
		}
	}()
	b.RegisterUser("User1", 50.0)
}

func TestLoadSpec_ParsesFullModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 7
routes: routes.route
users:
  - name: User1
    share: 100.0
masters:
  - id: 0
    owner: User1
    slaves: [2]
    workload:
      type: uniform
      tasks: 10
      min_proc_size: 500.0
      max_proc_size: 2000.0
      min_comm_size: 40.0
      max_comm_size: 120.0
    interarrival:
      type: poisson
      mean: 0.2
links:
  - id: 1
    from: 0
    to: 2
    bandwidth: 50.0
machines:
  - id: 2
    cores: 8
    core_rate: 9800.0
`), 0o644))

	spec, err := LoadSpec(path)
	require.NoError(t, err)
	require.Equal(t, int64(7), spec.Seed)
	require.Len(t, spec.Masters, 1)
	require.Equal(t, "uniform", spec.Masters[0].Workload.Type)

	// Applying the spec registers everything into the engine.
	b, engine := newTestBuilder(starTestTable())
	spec.Apply(b)
	require.NoError(t, b.Build())
	require.NotNil(t, engine.Service(0))
	require.NotNil(t, engine.Service(1))
	require.NotNil(t, engine.Service(2))
}

func TestLoadSpec_MissingRoutes_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 1\nmasters: [{id: 0, owner: U, slaves: [2], workload: {type: constant, tasks: 1, proc_size: 1, comm_size: 1}, interarrival: {mean: 0.1}}]\n"), 0o644))

	_, err := LoadSpec(path)

	require.ErrorContains(t, err, "routes file not set")
}

func TestLoadSpec_NoMasters_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes: r.route\n"), 0o644))

	_, err := LoadSpec(path)

	require.ErrorContains(t, err, "at least one master")
}
