package fleet

import (
	"github.com/talgya/orrery/internal/nav"
	"github.com/talgya/orrery/internal/world"
)

// stepTrader runs the hauling cycle. On arrival a trader sells whatever it
// carries, picks its next station at random, and takes on a share of the
// inventory difference if the station it is leaving holds more than the
// next one. Otherwise it departs empty.
func stepTrader(s *Ship, ctx *Context) []Event {
	st := s.Trader
	switch st.Mode {
	case TraderIdle, TraderChoosing:
		if st.Docked {
			return traderEvaluate(s, ctx)
		}
		dest, ok := pickStation(s, ctx, st.Last, st.HasLast)
		if !ok {
			st.Mode = TraderIdle
			traderHold(s, ctx)
			return nil
		}
		st.Dest, st.Mode = dest, TraderEnRoute
		return traderFly(s, ctx)

	case TraderEnRoute:
		return traderFly(s, ctx)

	case TraderEvaluating:
		return traderEvaluate(s, ctx)

	case TraderLoading:
		traderHold(s, ctx)
		var evs []Event
		if q := loadQuantity(s, ctx); q > 0 {
			moved := ctx.Ledger.LoadCargo(s.ID, st.At, q)
			evs = append(evs, s.event(EventLoaded, uint32(st.At), moved))
		}
		return append(evs, traderDepart(s)...)
	}
	return nil
}

// traderEvaluate sells the hold at the docked station, picks the next
// station, and either starts loading or departs empty.
func traderEvaluate(s *Ship, ctx *Context) []Event {
	st := s.Trader
	traderHold(s, ctx)
	var evs []Event
	if cargo, _ := ctx.Ledger.Cargo(s.ID); cargo > 0 {
		moved := ctx.Ledger.UnloadCargo(s.ID, st.At, cargo)
		evs = append(evs, s.event(EventDelivered, uint32(st.At), moved))
	}
	next, ok := pickStation(s, ctx, st.At, true)
	if !ok {
		st.Mode = TraderIdle
		return evs
	}
	st.Next = next
	if ctx.Ledger.StationOre(st.At) > ctx.Ledger.StationOre(next) {
		st.Mode = TraderLoading
		return evs
	}
	return append(evs, traderDepart(s)...)
}

// loadQuantity is the trader's share of the inventory differential between
// the station it is docked at and its next destination, limited by free
// hold space. With the default share of one half, a full delivery levels
// the two stations.
func loadQuantity(s *Ship, ctx *Context) int {
	st := s.Trader
	diff := ctx.Ledger.StationOre(st.At) - ctx.Ledger.StationOre(st.Next)
	if diff <= 0 {
		return 0
	}
	q := int(float64(diff) * ctx.Tuning.LoadFraction)
	cargo, capacity := ctx.Ledger.Cargo(s.ID)
	if free := capacity - cargo; q > free {
		q = free
	}
	return q
}

func traderDepart(s *Ship) []Event {
	st := s.Trader
	st.Last, st.HasLast = st.At, true
	st.Dest, st.Docked = st.Next, false
	st.Mode = TraderEnRoute
	return []Event{s.event(EventDeparted, uint32(st.At), 0)}
}

func traderFly(s *Ship, ctx *Context) []Event {
	st := s.Trader
	site, ok := ctx.Station(st.Dest)
	if !ok {
		st.Mode = TraderChoosing
		hold(s, ctx)
		return nil
	}
	if !approach(s, site, ctx) {
		return nil
	}
	nav.Dock(&s.Motion, site.Pos)
	st.At, st.Docked = st.Dest, true
	st.Mode = TraderEvaluating
	return []Event{s.event(EventArrived, site.ID, 0)}
}

// traderHold keeps a docked trader on its station.
func traderHold(s *Ship, ctx *Context) {
	st := s.Trader
	if st.Docked {
		if site, ok := ctx.Station(st.At); ok {
			nav.Dock(&s.Motion, site.Pos)
			return
		}
	}
	hold(s, ctx)
}

// pickStation draws a destination uniformly among all stations except the
// excluded one.
func pickStation(s *Ship, ctx *Context, exclude world.StationID, has bool) (world.StationID, bool) {
	n := len(ctx.Stations)
	if has && int(exclude) < n {
		n--
	}
	if n <= 0 {
		return 0, false
	}
	i := ctx.Rand.Stream(ctx.Tick, uint64(s.ID), KeyTraderDest).Intn(n)
	if has && i >= int(exclude) {
		i++
	}
	return world.StationID(i), true
}
