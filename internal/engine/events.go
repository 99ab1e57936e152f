package engine

import (
	"fmt"

	"github.com/talgya/orrery/internal/fleet"
	"github.com/talgya/orrery/internal/world"
)

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64       `json:"tick" db:"tick"`
	Category    string       `json:"category" db:"category"` // "dock", "trade", "mining", "piracy", "destruction"
	Ship        world.ShipID `json:"ship" db:"ship"`
	Target      uint32       `json:"target" db:"target"`
	Qty         int          `json:"qty" db:"qty"`
	Description string       `json:"description" db:"description"`
}

// record appends an event to the recent history and the archive queue.
func (s *Simulation) record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	s.pending = append(s.pending, e)
	if len(s.pending) > 4*maxEvents {
		// Nothing is draining; keep the queue bounded.
		s.pending = s.pending[len(s.pending)-4*maxEvents:]
	}
}

// RecentEvents returns up to n of the most recent events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]Event, n)
	copy(out, s.events[len(s.events)-n:])
	return out
}

// DrainEvents returns and clears the events not yet handed to the archive.
func (s *Simulation) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// RequeueEvents puts drained events back at the head of the archive queue,
// ahead of anything recorded since.
func (s *Simulation) RequeueEvents(evs []Event) {
	if len(evs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(append(make([]Event, 0, len(evs)+len(s.pending)), evs...), s.pending...)
	if len(s.pending) > 4*maxEvents {
		s.pending = s.pending[len(s.pending)-4*maxEvents:]
	}
}

func (s *Simulation) recordShipEvent(sh *fleet.Ship, ev fleet.Event) {
	e := Event{Tick: s.Tick, Ship: sh.ID, Target: ev.Target, Qty: ev.Qty}
	switch ev.Kind {
	case fleet.EventDeposited:
		s.Stats.Mined += ev.Qty
		e.Category = "mining"
		e.Description = fmt.Sprintf("%s deposited %d ore at %s", sh.Name, ev.Qty, s.stationName(ev.Target))
	case fleet.EventDelivered:
		s.Stats.Delivered += ev.Qty
		e.Category = "trade"
		e.Description = fmt.Sprintf("%s delivered %d ore to %s", sh.Name, ev.Qty, s.stationName(ev.Target))
	case fleet.EventLoaded:
		e.Category = "trade"
		e.Description = fmt.Sprintf("%s loaded %d ore at %s", sh.Name, ev.Qty, s.stationName(ev.Target))
	case fleet.EventSighted:
		e.Category = "piracy"
		e.Description = fmt.Sprintf("%s is pursuing %s", sh.Name, s.shipName(world.ShipID(ev.Target)))
	case fleet.EventRaiding:
		e.Category = "piracy"
		e.Description = fmt.Sprintf("%s moves to board %s", sh.Name, s.shipName(world.ShipID(ev.Target)))
	case fleet.EventFenced:
		s.Stats.Fenced += ev.Qty
		e.Category = "piracy"
		e.Description = fmt.Sprintf("%s sold %d stolen ore at %s", sh.Name, ev.Qty, s.stationName(ev.Target))
	default:
		// Arrivals, departures, and lost contacts are too frequent to keep.
		return
	}
	s.record(e)
}

func (s *Simulation) stationName(id uint32) string {
	if int(id) < len(s.Galaxy.Stations) {
		return s.Galaxy.Stations[id].Name
	}
	return fmt.Sprintf("station %d", id)
}

func (s *Simulation) shipName(id world.ShipID) string {
	if sh, ok := s.Ships.Get(id); ok {
		return sh.Name
	}
	return fmt.Sprintf("ship %d", id)
}
