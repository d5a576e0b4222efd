// Package sim holds the types shared by the halosim simulations: run
// configuration, typed errors, the fixed-size SIR wire record, per-partition
// random streams and small summary statistics.
//
// # Reading Guide
//
// Start with config.go for the two run shapes (GridConfig, RegionConfig),
// then the sub-packages in dependency order:
//   - sim/comm/: in-process ranks with tagged point-to-point messages and collectives
//   - sim/cluster/: launches one goroutine per rank and aborts all on the first error
//   - sim/topology/: block decomposition of the grid and the region graph loader
//   - sim/grid/: halo blocks, transition rules and the grid simulation loop
//   - sim/region/: SIR dynamics, migration policies and the region simulation loop
//   - sim/checkpoint/: snapshots, PGM and video frames, CSV results, reports and plots
//   - sim/trace/: optional per-message tracing of point-to-point traffic
//
// # Determinism
//
// Every rank draws from PartitionedRNG.ForSubsystem(SubsystemPartition(rank)).
// Two runs with the same seed and worker count produce identical output no
// matter how goroutines are scheduled.
package sim
