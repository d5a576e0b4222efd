package topology

import "github.com/3LIAS-MB/halosim/sim"

// DefaultMaxNeighbors is the neighbour capacity of a region.
const DefaultMaxNeighbors = 10

// NeighborList is a bounded list of neighbour ids.
type NeighborList struct {
	ids      []int
	capacity int
}

// NewNeighborList returns an empty list holding at most capacity ids.
// Panics if capacity < 1.
func NewNeighborList(capacity int) *NeighborList {
	if capacity < 1 {
		panic("topology.NewNeighborList: capacity must be >= 1")
	}
	return &NeighborList{capacity: capacity}
}

// Add appends id, failing with a ConfigError once the list is full.
func (l *NeighborList) Add(id int) error {
	if len(l.ids) >= l.capacity {
		return sim.NewConfigError("neighbor list exceeds capacity %d", l.capacity)
	}
	l.ids = append(l.ids, id)
	return nil
}

// Len returns the number of ids.
func (l *NeighborList) Len() int { return len(l.ids) }

// Cap returns the capacity.
func (l *NeighborList) Cap() int { return l.capacity }

// IDs returns a copy of the ids in insertion order.
func (l *NeighborList) IDs() []int {
	out := make([]int, len(l.ids))
	copy(out, l.ids)
	return out
}

// Contains reports whether id is in the list.
func (l *NeighborList) Contains(id int) bool {
	for _, n := range l.ids {
		if n == id {
			return true
		}
	}
	return false
}
