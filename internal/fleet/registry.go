package fleet

import (
	"sort"
	"sync"

	"github.com/talgya/orrery/internal/world"
)

// Registry owns every live ship. Removals are queued and applied by Sweep
// at the end of a tick, so a ship destroyed mid-tick stays resolvable until
// the tick completes.
type Registry struct {
	mu     sync.RWMutex
	ships  map[world.ShipID]*Ship
	order  []world.ShipID // Ascending
	doomed map[world.ShipID]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ships:  make(map[world.ShipID]*Ship),
		doomed: make(map[world.ShipID]bool),
	}
}

// Add registers a ship. Re-adding an ID replaces the ship.
func (r *Registry) Add(s *Ship) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ships[s.ID]; !ok {
		i := sort.Search(len(r.order), func(i int) bool { return r.order[i] >= s.ID })
		r.order = append(r.order, 0)
		copy(r.order[i+1:], r.order[i:])
		r.order[i] = s.ID
	}
	r.ships[s.ID] = s
}

// Get returns a live ship. Ships queued for removal are still returned.
func (r *Registry) Get(id world.ShipID) (*Ship, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.ships[id]
	return s, ok
}

// Ordered returns all ships in ascending ID order.
func (r *Registry) Ordered() []*Ship {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Ship, len(r.order))
	for i, id := range r.order {
		out[i] = r.ships[id]
	}
	return out
}

// Len returns the number of registered ships.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// QueueRemoval marks a ship for removal at the next Sweep. It returns false
// if the ship is unknown or already queued.
func (r *Registry) QueueRemoval(id world.ShipID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ships[id]; !ok || r.doomed[id] {
		return false
	}
	r.doomed[id] = true
	return true
}

// Doomed reports whether a ship is queued for removal.
func (r *Registry) Doomed(id world.ShipID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doomed[id]
}

// Sweep removes every queued ship and returns them in ID order.
func (r *Registry) Sweep() []*Ship {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.doomed) == 0 {
		return nil
	}
	var removed []*Ship
	kept := r.order[:0]
	for _, id := range r.order {
		if r.doomed[id] {
			removed = append(removed, r.ships[id])
			delete(r.ships, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	r.doomed = make(map[world.ShipID]bool)
	return removed
}
