package cmd

import (
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/metrics"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/model"
	"github.com/ricardofares/ispd-exa-engine-ross/sim/routing"
)

var (
	seed      int64   // Seed for every per-service RNG stream
	horizon   float64 // Virtual-time horizon
	logLevel  string  // Log verbosity level
	modelFile string  // YAML model description (overrides the star flags)

	// Star model flags, mirroring the original CLI surface.
	machineAmount int     // number of machines to simulate
	taskAmount    int     // number of tasks to simulate
	routesFile    string  // routing table path
	userName      string  // owner of the generated tasks
	procSize      float64 // constant processing size per task (MFLOPs)
	commSize      float64 // constant communication size per task (Mbits)
	arrivalMean   float64 // mean interarrival gap
	linkBandwidth float64 // link bandwidth (Mbits/s)
	linkLatency   float64
	linkLoad      float64
	machineCores  int
	coreRate      float64 // per-core rating (MFLOPS)
	powerIdle     float64
	powerMax      float64
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "ispd-exa",
	Short: "Reversible discrete-event simulator for distributed computing infrastructure",
}

// runCmd assembles the model from flags (or a YAML description) and runs it
// on the sequential engine.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level %q", logLevel)
		}
		logrus.SetLevel(level)

		engine := sim.NewEngine(horizon)
		collector := metrics.NewNodeCollector()

		if modelFile != "" {
			spec, err := model.LoadSpec(modelFile)
			if err != nil {
				logrus.Fatalf("unable to load model: %v", err)
			}
			if spec.Horizon > 0 {
				engine.Horizon = spec.Horizon
			}
			table, err := routing.Load(spec.Routes)
			if err != nil {
				logrus.Fatalf("unable to load routing table: %v", err)
			}
			builder := model.NewBuilder(engine, table, collector, spec.Seed)
			spec.Apply(builder)
			if err := builder.Build(); err != nil {
				logrus.Fatalf("invalid model: %v", err)
			}
			logrus.Infof("starting simulation from %s, seed=%d", modelFile, spec.Seed)
		} else {
			// Star model: write its routing table when none exists yet.
			if _, err := os.Stat(routesFile); os.IsNotExist(err) {
				if err := model.WriteStarRoutes(routesFile, machineAmount); err != nil {
					logrus.Fatalf("unable to write routing table: %v", err)
				}
				logrus.Infof("wrote star routing table to %s", routesFile)
			}
			table, err := routing.Load(routesFile)
			if err != nil {
				logrus.Fatalf("unable to load routing table: %v", err)
			}
			builder := model.NewBuilder(engine, table, collector, seed)
			builder.RegisterUser(userName, 100.0)
			model.BuildStar(builder, model.StarConfig{
				Machines:      machineAmount,
				Tasks:         taskAmount,
				Owner:         userName,
				ProcSize:      procSize,
				CommSize:      commSize,
				ArrivalMean:   arrivalMean,
				LinkBandwidth: linkBandwidth,
				LinkLoad:      linkLoad,
				LinkLatency:   linkLatency,
				PowerIdle:     powerIdle,
				PowerMax:      powerMax,
				Cores:         machineCores,
				CoreRate:      coreRate,
			})
			if err := builder.Build(); err != nil {
				logrus.Fatalf("invalid model: %v", err)
			}
			logrus.Infof("starting simulation: %d machines, %d tasks, seed=%d",
				machineAmount, taskAmount, seed)
		}

		engine.Run()

		collector.ReportNodeMetrics()

		global := metrics.NewGlobalCollector()
		global.Reduce(collector)
		global.ReportGlobalMetrics()
	},
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the per-service RNG streams")
	runCmd.Flags().Float64Var(&horizon, "horizon", math.MaxFloat64, "Virtual-time horizon")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&modelFile, "model", "", "YAML model description (overrides the star flags)")

	// Star model
	runCmd.Flags().IntVar(&machineAmount, "machine-amount", 10, "Number of machines to simulate")
	runCmd.Flags().IntVar(&taskAmount, "task-amount", 100, "Number of tasks to simulate")
	runCmd.Flags().StringVar(&routesFile, "routes", "routes.route", "Routing table file")
	runCmd.Flags().StringVar(&userName, "user", "User1", "Owner of the generated tasks")
	runCmd.Flags().Float64Var(&procSize, "proc-size", 1000.0, "Processing size per task (MFLOPs)")
	runCmd.Flags().Float64Var(&commSize, "comm-size", 80.0, "Communication size per task (Mbits)")
	runCmd.Flags().Float64Var(&arrivalMean, "arrival-mean", 0.1, "Mean interarrival gap")
	runCmd.Flags().Float64Var(&linkBandwidth, "link-bandwidth", 50.0, "Link bandwidth (Mbits/s)")
	runCmd.Flags().Float64Var(&linkLatency, "link-latency", 0.0, "Link latency")
	runCmd.Flags().Float64Var(&linkLoad, "link-load", 0.0, "Link background load fraction")
	runCmd.Flags().IntVar(&machineCores, "cores", 8, "Cores per machine")
	runCmd.Flags().Float64Var(&coreRate, "core-rate", 9800.0, "Per-core rating (MFLOPS)")
	runCmd.Flags().Float64Var(&powerIdle, "power-idle", 20.0, "Machine idle power (W)")
	runCmd.Flags().Float64Var(&powerMax, "power-max", 200.0, "Machine peak power (W)")

	rootCmd.AddCommand(runCmd)
}
