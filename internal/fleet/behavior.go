package fleet

import (
	"github.com/talgya/orrery/internal/nav"
	"github.com/talgya/orrery/internal/world"
)

// EventKind enumerates what a behavior step can report.
type EventKind uint8

const (
	EventArrived   EventKind = iota // Docked or landed at Target
	EventDeposited                  // Miner unloaded Qty at station Target
	EventDelivered                  // Trader unloaded Qty at station Target
	EventLoaded                     // Trader loaded Qty at station Target
	EventDeparted                   // Left station Target
	EventSighted                    // Pirate began pursuing ship Target
	EventLostPrey                   // Pirate gave up on ship Target
	EventRaiding                    // Pirate declared a raid on ship Target
	EventFenced                     // Pirate sold Qty ore at station Target
)

var eventKindNames = [...]string{"arrived", "deposited", "delivered", "loaded", "departed", "sighted", "lost_prey", "raiding", "fenced"}

func (k EventKind) String() string { return eventKindNames[k] }

// Event is a notable behavior transition.
type Event struct {
	Ship   world.ShipID `json:"ship"`
	Kind   EventKind    `json:"kind"`
	Target uint32       `json:"target"`
	Qty    int          `json:"qty,omitempty"`
}

// Step runs one tick of a ship's behavior, including its movement, and
// returns what happened.
func Step(s *Ship, ctx *Context) []Event {
	switch s.Variant {
	case VariantMiner:
		return stepMiner(s, ctx)
	case VariantTrader:
		return stepTrader(s, ctx)
	case VariantPirate:
		return stepPirate(s, ctx)
	}
	return nil
}

// approach flies toward a moving site for one tick and reports arrival.
// The aim point leads the site by its velocity over the arrive time
// constant, which cancels the steady-state lag of the arrive profile.
func approach(s *Ship, site Site, ctx *Context) bool {
	aim := site.Pos
	if g := s.Motion.ArriveGain; g > 0 {
		aim = aim.Add(site.Vel.Scale(1 / g))
	}
	nav.SteerToward(&s.Motion, aim, ctx.Dt)
	nav.Integrate(&s.Motion, ctx.Dt)
	return nav.HasArrived(s.Motion.Pos, site.Pos, site.Radius)
}

// hold brings a ship to rest where it is.
func hold(s *Ship, ctx *Context) {
	nav.SteerToward(&s.Motion, s.Motion.Pos, ctx.Dt)
	nav.Integrate(&s.Motion, ctx.Dt)
}

func (s *Ship) event(kind EventKind, target uint32, qty int) Event {
	return Event{Ship: s.ID, Kind: kind, Target: target, Qty: qty}
}
