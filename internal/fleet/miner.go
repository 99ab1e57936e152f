package fleet

import (
	"github.com/talgya/orrery/internal/nav"
	"github.com/talgya/orrery/internal/world"
)

// stepMiner runs the mining cycle: fly to the nearest body with ore, extract
// until the hold is full or the reserve runs dry, fly to the nearest station,
// unload everything, repeat.
func stepMiner(s *Ship, ctx *Context) []Event {
	st := s.Miner
	switch st.Mode {
	case MinerIdle, MinerSeekingOre:
		site, ok := minerOre(s, ctx)
		if !ok {
			st.Mode, st.HasTarget = MinerIdle, false
			hold(s, ctx)
			return nil
		}
		st.Mode, st.Target, st.HasTarget = MinerSeekingOre, site.ID, true
		if approach(s, site, ctx) {
			nav.Dock(&s.Motion, site.Pos)
			st.Mode = MinerMining
			return []Event{s.event(EventArrived, site.ID, 0)}
		}

	case MinerMining:
		site, ok := ctx.Ore(world.BodyID(st.Target))
		if !ok {
			st.Mode, st.HasTarget = MinerSeekingOre, false
			return nil
		}
		nav.Dock(&s.Motion, site.Pos)
		got := ctx.Ledger.Extract(s.ID, world.BodyID(site.ID), ctx.Tuning.MiningRate)
		cargo, capacity := ctx.Ledger.Cargo(s.ID)
		if got > 0 && cargo < capacity {
			return nil
		}
		st.HasTarget = false
		if cargo > 0 {
			st.Mode = MinerSeekingStation
		} else {
			st.Mode = MinerSeekingOre
		}
		return []Event{s.event(EventDeparted, site.ID, 0)}

	case MinerSeekingStation:
		site, ok := minerStation(s, ctx)
		if !ok {
			st.Mode = MinerIdle
			hold(s, ctx)
			return nil
		}
		st.Target, st.HasTarget = site.ID, true
		if approach(s, site, ctx) {
			nav.Dock(&s.Motion, site.Pos)
			st.Mode = MinerDepositing
			return []Event{s.event(EventArrived, site.ID, 0)}
		}

	case MinerDepositing:
		site, ok := ctx.Station(world.StationID(st.Target))
		if !ok {
			st.Mode, st.HasTarget = MinerSeekingStation, false
			return nil
		}
		nav.Dock(&s.Motion, site.Pos)
		cargo, _ := ctx.Ledger.Cargo(s.ID)
		moved := ctx.Ledger.UnloadCargo(s.ID, world.StationID(site.ID), cargo)
		st.Mode, st.HasTarget = MinerSeekingOre, false
		return []Event{s.event(EventDeposited, site.ID, moved)}
	}
	return nil
}

// minerOre keeps the current ore target while it still holds ore, otherwise
// picks the nearest body that does.
func minerOre(s *Ship, ctx *Context) (Site, bool) {
	if st := s.Miner; st.HasTarget && st.Mode == MinerSeekingOre {
		if site, ok := ctx.Ore(world.BodyID(st.Target)); ok && ctx.Ledger.Reserve(world.BodyID(st.Target)) > 0 {
			return site, true
		}
	}
	c, ok := nav.Nearest(s.Motion.Pos, candidates(ctx.Ores), func(c nav.Candidate) bool {
		return ctx.Ledger.Reserve(world.BodyID(c.ID)) > 0
	})
	if !ok {
		return Site{}, false
	}
	return ctx.Ore(world.BodyID(c.ID))
}

func minerStation(s *Ship, ctx *Context) (Site, bool) {
	if st := s.Miner; st.HasTarget {
		if site, ok := ctx.Station(world.StationID(st.Target)); ok {
			return site, true
		}
	}
	c, ok := nav.Nearest(s.Motion.Pos, candidates(ctx.Stations), nil)
	if !ok {
		return Site{}, false
	}
	return ctx.Station(world.StationID(c.ID))
}

func candidates(sites []Site) []nav.Candidate {
	out := make([]nav.Candidate, len(sites))
	for i, s := range sites {
		out[i] = nav.Candidate{ID: s.ID, Pos: s.Pos}
	}
	return out
}
