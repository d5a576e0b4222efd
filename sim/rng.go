package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey, configuration and worker count
// MUST produce bit-for-bit identical output.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemPartition returns the subsystem name owned by partition rank.
// Each worker draws only from its own partition stream, so results do not
// depend on goroutine scheduling.
func SubsystemPartition(rank int) string {
	return fmt.Sprintf("partition_%d", rank)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: ForSubsystem is NOT thread-safe. Resolve every stream a
// worker needs before the workers start; the returned *rand.Rand values are
// then owned by exactly one goroutine each.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// ForPartitions resolves the streams of ranks 0..n-1 in rank order.
func (p *PartitionedRNG) ForPartitions(n int) []*rand.Rand {
	rngs := make([]*rand.Rand, n)
	for rank := range rngs {
		rngs[rank] = p.ForSubsystem(SubsystemPartition(rank))
	}
	return rngs
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
