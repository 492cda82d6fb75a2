// Package metrics implements the per-node and global metric collectors.
// Services notify the node collector only from commit handlers (or from the
// finish pass), never from forward or reverse, so rolled-back events are
// never counted. The global collector reduces node collectors at the end of
// the run.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Flag identifies a node metric.
type Flag int

const (
	TotalCommunicatedMbits Flag = iota
	TotalProcessedMFlops
	TotalProcessingWaitingTime
	TotalCommunicationWaitingTime
	TotalProcessingServices
	TotalCommunicationServices
	TotalCompletedTasks
	TotalEnergyConsumption
	SimulationTime
)

// MachineMetrics summarizes one machine's activity over a run. Flushed into
// the node collector by the machine's finish handler.
type MachineMetrics struct {
	ProcMFlops      float64 // total MFLOPs processed
	ProcTime        float64 // total time spent processing tasks
	ProcWaitingTime float64 // time tasks waited for a free core
	ProcTasks       int     // tasks processed by this machine
	PowerIdle       float64 // idle power draw, in W
	PowerMax        float64 // peak power draw, in W
}

// LinkMetrics summarizes one link's or switch's activity over a run.
type LinkMetrics struct {
	CommMbits       float64 // total Mbits transmitted
	CommTime        float64 // total transmission time
	CommWaitingTime float64 // time messages queued for the medium
	CommTasks       int     // messages carried
}

// NodeCollector accumulates metrics for every service on one simulation
// process. It is owned by a single node; services on that node share it.
type NodeCollector struct {
	processingServices    int
	communicationServices int
	completedTasks        int

	communicatedMbits float64
	processedMFlops   float64
	commTime          float64
	procWaitingTime   float64
	commWaitingTime   float64
	energyConsumption float64
	simulationTime    float64 // running maximum, not a sum

	machineBusyTimes []float64
}

// NewNodeCollector creates an empty node collector.
func NewNodeCollector() *NodeCollector {
	return &NodeCollector{}
}

// Notify increments the counter behind a count-valued flag.
func (c *NodeCollector) Notify(flag Flag) {
	switch flag {
	case TotalProcessingServices:
		c.processingServices++
	case TotalCommunicationServices:
		c.communicationServices++
	case TotalCompletedTasks:
		c.completedTasks++
	default:
		panic(fmt.Sprintf("metrics: flag %d requires a value", flag))
	}
}

// NotifyValue accumulates into the sum (or maximum, for SimulationTime)
// behind a value-carrying flag.
func (c *NodeCollector) NotifyValue(flag Flag, value float64) {
	switch flag {
	case TotalCommunicatedMbits:
		c.communicatedMbits += value
	case TotalProcessedMFlops:
		c.processedMFlops += value
	case TotalProcessingWaitingTime:
		c.procWaitingTime += value
	case TotalCommunicationWaitingTime:
		c.commWaitingTime += value
	case TotalEnergyConsumption:
		c.energyConsumption += value
	case SimulationTime:
		if value > c.simulationTime {
			c.simulationTime = value
		}
	default:
		panic(fmt.Sprintf("metrics: flag %d does not carry a value", flag))
	}
}

// NotifyMachine folds one machine's summary into the collector.
func (c *NodeCollector) NotifyMachine(m MachineMetrics) {
	c.Notify(TotalProcessingServices)
	c.NotifyValue(TotalProcessedMFlops, m.ProcMFlops)
	c.NotifyValue(TotalProcessingWaitingTime, m.ProcWaitingTime)
	c.machineBusyTimes = append(c.machineBusyTimes, m.ProcTime)
}

// NotifyLink folds one link's or switch's summary into the collector.
func (c *NodeCollector) NotifyLink(l LinkMetrics) {
	c.Notify(TotalCommunicationServices)
	c.NotifyValue(TotalCommunicatedMbits, l.CommMbits)
	c.NotifyValue(TotalCommunicationWaitingTime, l.CommWaitingTime)
	c.commTime += l.CommTime
}

// CompletedTasks reports how many tasks have been durably counted complete.
func (c *NodeCollector) CompletedTasks() int {
	return c.completedTasks
}

// SimulationTime reports the highest committed virtual time seen.
func (c *NodeCollector) SimulationTime() float64 {
	return c.simulationTime
}

// ReportNodeMetrics prints this node's accumulated metrics.
func (c *NodeCollector) ReportNodeMetrics() {
	fmt.Println("=== Node Metrics ===")
	fmt.Printf("Processing Services       : %d\n", c.processingServices)
	fmt.Printf("Communication Services    : %d\n", c.communicationServices)
	fmt.Printf("Completed Tasks           : %d\n", c.completedTasks)
	fmt.Printf("Processed MFLOPs          : %.2f\n", c.processedMFlops)
	fmt.Printf("Communicated Mbits        : %.2f\n", c.communicatedMbits)
	fmt.Printf("Communication Time        : %.4f\n", c.commTime)
	fmt.Printf("Processing Waiting Time   : %.4f\n", c.procWaitingTime)
	fmt.Printf("Communication Waiting Time: %.4f\n", c.commWaitingTime)
	fmt.Printf("Energy Consumption (J)    : %.2f\n", c.energyConsumption)
	fmt.Printf("Simulation Time           : %.4f\n", c.simulationTime)
}

// GlobalCollector reduces node collectors across simulation processes.
type GlobalCollector struct {
	processingServices    int
	communicationServices int
	completedTasks        int

	communicatedMbits float64
	processedMFlops   float64
	commTime          float64
	procWaitingTime   float64
	commWaitingTime   float64
	energyConsumption float64
	simulationTime    float64

	machineBusyTimes []float64
}

// NewGlobalCollector creates an empty global collector.
func NewGlobalCollector() *GlobalCollector {
	return &GlobalCollector{}
}

// Reduce folds one node collector into the global totals. Sums every field
// except the simulation time, which reduces by maximum.
func (g *GlobalCollector) Reduce(n *NodeCollector) {
	g.processingServices += n.processingServices
	g.communicationServices += n.communicationServices
	g.completedTasks += n.completedTasks
	g.communicatedMbits += n.communicatedMbits
	g.processedMFlops += n.processedMFlops
	g.commTime += n.commTime
	g.procWaitingTime += n.procWaitingTime
	g.commWaitingTime += n.commWaitingTime
	g.energyConsumption += n.energyConsumption
	if n.simulationTime > g.simulationTime {
		g.simulationTime = n.simulationTime
	}
	g.machineBusyTimes = append(g.machineBusyTimes, n.machineBusyTimes...)
}

// CompletedTasks reports the reduced completed-task count.
func (g *GlobalCollector) CompletedTasks() int {
	return g.completedTasks
}

// ReportGlobalMetrics prints the cross-process totals, including makespan and
// the distribution of per-machine busy time.
func (g *GlobalCollector) ReportGlobalMetrics() {
	fmt.Println("=== Global Metrics ===")
	fmt.Printf("Processing Services       : %d\n", g.processingServices)
	fmt.Printf("Communication Services    : %d\n", g.communicationServices)
	fmt.Printf("Completed Tasks           : %d\n", g.completedTasks)
	fmt.Printf("Processed MFLOPs          : %.2f\n", g.processedMFlops)
	fmt.Printf("Communicated Mbits        : %.2f\n", g.communicatedMbits)
	fmt.Printf("Communication Time        : %.4f\n", g.commTime)
	fmt.Printf("Processing Waiting Time   : %.4f\n", g.procWaitingTime)
	fmt.Printf("Communication Waiting Time: %.4f\n", g.commWaitingTime)
	fmt.Printf("Energy Consumption (J)    : %.2f\n", g.energyConsumption)
	fmt.Printf("Makespan                  : %.4f\n", g.simulationTime)

	if len(g.machineBusyTimes) > 0 && g.simulationTime > 0 {
		mean, std := stat.MeanStdDev(g.machineBusyTimes, nil)
		fmt.Printf("Machine Busy Time Mean    : %.4f\n", mean)
		if len(g.machineBusyTimes) > 1 {
			fmt.Printf("Machine Busy Time StdDev  : %.4f\n", std)
		}
		fmt.Printf("Mean Machine Utilization  : %.4f\n", mean/g.simulationTime)
	}
}
