package fleet

import (
	"github.com/talgya/orrery/internal/nav"
	"github.com/talgya/orrery/internal/world"
)

// Pirate hulls cannot change speed, only heading, so a pirate flies pure
// pursuit toward whatever it is chasing. Jamming itself and raid resolution
// happen in the engine, which sees every pirate at once.

// loiterRate is the angular speed, in rad/s, of the patrol waypoint around
// the anchor.
const loiterRate = 0.15

func stepPirate(s *Ship, ctx *Context) []Event {
	st := s.Pirate
	tn := ctx.Tuning

	switch st.Mode {
	case PiratePursuing, PirateJamming:
		prey, ok := ctx.Contact(st.Prey)
		if !ok || !st.HasPrey || prey.Cargo == 0 || prey.Pos.Dist(st.Anchor) > tn.PatrolRadius+tn.WeaponRange {
			lost := st.Prey
			s.Disengage()
			patrol(s, ctx)
			return []Event{s.event(EventLostPrey, uint32(lost), 0)}
		}
		nav.SteerToward(&s.Motion, prey.Pos, ctx.Dt)
		nav.Integrate(&s.Motion, ctx.Dt)
		d := s.Motion.Pos.Dist(prey.Pos)
		switch {
		case st.Mode == PiratePursuing && d <= tn.WeaponRange:
			st.Mode = PirateJamming
		case st.Mode == PirateJamming && d > tn.WeaponRange:
			st.Mode = PiratePursuing
		case st.Mode == PirateJamming && prey.Immobile && d <= tn.TractorRange:
			st.Mode = PirateRaiding
			return []Event{s.event(EventRaiding, uint32(prey.ID), 0)}
		}
		return nil

	case PirateRaiding:
		// Raids settle in the tick they are declared. Still raiding here
		// means the resolver never got to it.
		s.Disengage()

	case PirateFencing:
		return fence(s, ctx)
	}

	if cargo, capacity := ctx.Ledger.Cargo(s.ID); cargo > 0 && cargo >= capacity && len(ctx.Stations) > 0 {
		st.Mode = PirateFencing
		return fence(s, ctx)
	}

	patrol(s, ctx)
	if prey, ok := scan(s, ctx); ok {
		st.Mode, st.Prey, st.HasPrey = PiratePursuing, prey, true
		return []Event{s.event(EventSighted, uint32(prey), 0)}
	}
	return nil
}

// patrol circles a waypoint that sweeps around the anchor at half the
// patrol radius.
func patrol(s *Ship, ctx *Context) {
	st := s.Pirate
	phase := ctx.Time*loiterRate + float64(s.ID)
	wp := st.Anchor.Add(world.Polar(ctx.Tuning.PatrolRadius/2, phase))
	nav.SteerToward(&s.Motion, wp, ctx.Dt)
	nav.Integrate(&s.Motion, ctx.Dt)
}

// fence flies a full pirate at the nearest station and sells its whole
// hold there on contact. Pirates cannot stop, so the sale happens on the
// pass.
func fence(s *Ship, ctx *Context) []Event {
	st := s.Pirate
	cands := make([]nav.Candidate, len(ctx.Stations))
	for i, site := range ctx.Stations {
		cands[i] = nav.Candidate{ID: site.ID, Pos: site.Pos}
	}
	c, ok := nav.Nearest(s.Motion.Pos, cands, nil)
	if !ok {
		st.Mode = PiratePatrolling
		patrol(s, ctx)
		return nil
	}
	site, _ := ctx.Station(world.StationID(c.ID))
	nav.SteerToward(&s.Motion, site.Pos, ctx.Dt)
	nav.Integrate(&s.Motion, ctx.Dt)
	if !nav.HasArrived(s.Motion.Pos, site.Pos, site.Radius) {
		return nil
	}
	cargo, _ := ctx.Ledger.Cargo(s.ID)
	sold := ctx.Ledger.UnloadCargo(s.ID, world.StationID(site.ID), cargo)
	st.Mode = PiratePatrolling
	return []Event{s.event(EventFenced, site.ID, sold)}
}

// scan returns the nearest laden trader inside the pirate's territory.
func scan(s *Ship, ctx *Context) (world.ShipID, bool) {
	st := s.Pirate
	r2 := ctx.Tuning.PatrolRadius * ctx.Tuning.PatrolRadius
	var cands []nav.Candidate
	for _, c := range ctx.Contacts {
		if c.Variant != VariantTrader || c.Cargo == 0 {
			continue
		}
		if c.Pos.Dist2(st.Anchor) > r2 {
			continue
		}
		cands = append(cands, nav.Candidate{ID: uint32(c.ID), Pos: c.Pos})
	}
	c, ok := nav.Nearest(s.Motion.Pos, cands, nil)
	return world.ShipID(c.ID), ok
}
