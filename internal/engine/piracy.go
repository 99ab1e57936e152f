package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/orrery/internal/fleet"
	"github.com/talgya/orrery/internal/nav"
	"github.com/talgya/orrery/internal/world"
)

// resolvePiracy applies the cross-ship effects of piracy once every ship
// has stepped. Jamming pirates kill their prey's engines. Raiding pirates
// are resolved in ID order; each trader can be raided once per tick, and a
// pirate whose prey is gone, claimed, or still moving goes back to patrol.
func (s *Simulation) resolvePiracy(ships []*fleet.Ship) {
	tn := s.Tuning

	for _, p := range ships {
		if p.Variant != fleet.VariantPirate || p.Pirate.Mode != fleet.PirateJamming {
			continue
		}
		prey, ok := s.prey(p)
		if !ok || p.Motion.Pos.Dist(prey.Motion.Pos) > tn.WeaponRange {
			continue
		}
		fresh := !prey.Motion.Jammed()
		nav.Jam(&prey.Motion, tn.JamTicks, tn.JamDrag)
		if fresh {
			s.Stats.Jams++
			s.record(Event{
				Tick: s.Tick, Category: "piracy", Ship: p.ID, Target: uint32(prey.ID),
				Description: fmt.Sprintf("%s jammed %s", p.Name, prey.Name),
			})
		}
	}

	claimed := make(map[world.ShipID]bool)
	for _, p := range ships {
		if p.Variant != fleet.VariantPirate || p.Pirate.Mode != fleet.PirateRaiding {
			continue
		}
		prey, ok := s.prey(p)
		if !ok || claimed[prey.ID] || !prey.Motion.Immobile(tn.ImmobileSpeed) {
			slog.Debug("raid aborted", "pirate", p.Name, "prey", p.Pirate.Prey)
			p.Disengage()
			continue
		}
		claimed[prey.ID] = true
		s.raid(p, prey)
		p.Disengage()
	}
}

// prey resolves a pirate's target against the live registry. Ships already
// queued for destruction do not count.
func (s *Simulation) prey(p *fleet.Ship) (*fleet.Ship, bool) {
	if !p.Pirate.HasPrey {
		return nil, false
	}
	prey, ok := s.Ships.Get(p.Pirate.Prey)
	if !ok || prey.Variant != fleet.VariantTrader || s.Ships.Doomed(prey.ID) {
		return nil, false
	}
	return prey, true
}

// raid draws the outcome of one boarding. A fatal raid queues the trader
// for removal and its cargo is lost with it; otherwise the pirate takes
// what fits in its hold and the rest is lost.
func (s *Simulation) raid(p, prey *fleet.Ship) {
	s.Stats.Raids++
	roll := s.Rand.Float(s.Tick, uint64(p.ID), fleet.KeyRaidOutcome)

	if roll < s.Tuning.RaidFatality {
		cargo, _ := s.Ledger.Cargo(prey.ID)
		s.Ships.QueueRemoval(prey.ID)
		s.Stats.Destroyed++
		s.record(Event{
			Tick: s.Tick, Category: "destruction", Ship: p.ID, Target: uint32(prey.ID), Qty: cargo,
			Description: fmt.Sprintf("%s destroyed %s with %d ore aboard", p.Name, prey.Name, cargo),
		})
		slog.Debug("trader destroyed", "pirate", p.Name, "trader", prey.Name, "cargo", cargo)
		return
	}

	taken, lost := s.Ledger.Seize(prey.ID, p.ID)
	s.destroyed += lost
	s.Stats.Seized += taken
	s.record(Event{
		Tick: s.Tick, Category: "piracy", Ship: p.ID, Target: uint32(prey.ID), Qty: taken,
		Description: fmt.Sprintf("%s seized %d ore from %s (%d lost)", p.Name, taken, prey.Name, lost),
	})
	slog.Debug("trader raided", "pirate", p.Name, "trader", prey.Name, "taken", taken, "lost", lost)
}
