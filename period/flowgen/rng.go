package flowgen

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for PartitionedRNG.
const (
	// SubsystemArrival draws inter-arrival gaps. Uses the master seed directly.
	SubsystemArrival = "arrival"
	// SubsystemEndpoints draws source/destination host pairs.
	SubsystemEndpoints = "endpoints"
	// SubsystemSize draws flow sizes.
	SubsystemSize = "size"
	// SubsystemRouting picks among equal-cost paths.
	SubsystemRouting = "routing"
)

// PartitionedRNG provides deterministic, isolated RNG streams per subsystem,
// so that changing how one quantity is drawn does not shift the others.
//
// Derivation formula:
//   - SubsystemArrival: the master seed
//   - any other subsystem: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the cached RNG for name, creating it on first use.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derived := p.seed
	if name != SubsystemArrival {
		derived = p.seed ^ fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(derived))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
