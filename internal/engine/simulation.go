package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/talgya/orrery/internal/economy"
	"github.com/talgya/orrery/internal/entropy"
	"github.com/talgya/orrery/internal/fleet"
	"github.com/talgya/orrery/internal/tuning"
	"github.com/talgya/orrery/internal/world"
)

// maxEvents bounds the in-memory event history.
const maxEvents = 1000

// Simulation is the single context object of a running world: bodies,
// ledger, ship registry, and clock. Only Step mutates it; readers use the
// published Snapshot.
type Simulation struct {
	Galaxy  *world.Galaxy
	Tuning  tuning.Tuning
	Ledger  *economy.Ledger
	Ships   *fleet.Registry
	Rand    *entropy.Source
	Spawner *fleet.Spawner

	// Workers > 1 steps ships on that many goroutines. Ledger balances
	// stay consistent, but contended transfers may resolve in a different
	// order than serial stepping.
	Workers int

	Tick  uint64 // Most recent tick processed
	Stats Stats

	// Ore accounting: what is on the books must equal what was seeded,
	// plus regeneration, minus destruction.
	seeded      int
	regenerated int
	destroyed   int

	mu      sync.Mutex
	events  []Event // Recent, capped at maxEvents
	pending []Event // Not yet drained by the archive

	snap atomic.Pointer[Snapshot]
}

// NewSimulation opens every ledger account of a galaxy, spawns its fleet,
// and publishes the tick-0 snapshot.
func NewSimulation(g *world.Galaxy) *Simulation {
	l := economy.NewLedger()
	for _, st := range g.Stations {
		l.OpenStation(st.ID, st.Ore)
	}
	for _, b := range g.OreBodies() {
		l.OpenReserve(b.ID, b.Ore)
	}

	s := &Simulation{
		Galaxy:  g,
		Tuning:  g.Tuning,
		Ledger:  l,
		Ships:   fleet.NewRegistry(),
		Rand:    entropy.New(g.Seed),
		Spawner: fleet.NewSpawner(g.Seed, g.Tuning, l),
	}
	for _, sh := range s.Spawner.SpawnFleet(g) {
		s.Ships.Add(sh)
	}
	t := l.Total()
	s.seeded = t.Stations + t.Holds + t.Reserves
	s.updateStats()
	s.publish()

	slog.Info("simulation ready",
		"seed", g.Seed,
		"bodies", len(g.System.Bodies),
		"stations", len(g.Stations),
		"ships", s.Ships.Len(),
	)
	return s
}

// Time returns the sim time of the current tick.
func (s *Simulation) Time() float64 {
	return float64(s.Tick) * s.Tuning.Dt
}

// Step runs one tick: kinematics, navigation inputs, ship behaviors in ID
// order, the piracy resolver, reserve regeneration, the destruction sweep,
// the ledger audit, and finally snapshot publication.
func (s *Simulation) Step() {
	s.Tick++
	ctx := s.context()
	ships := s.Ships.Ordered()

	for i, evs := range s.stepShips(ships, ctx) {
		for _, ev := range evs {
			s.recordShipEvent(ships[i], ev)
		}
	}

	s.resolvePiracy(ships)

	if n := s.Tuning.RegenEveryTicks; n > 0 && s.Tick%uint64(n) == 0 {
		s.regenerated += s.Ledger.Regenerate(s.Tuning.ReserveRegen)
	}

	s.sweep()
	s.audit()
	s.updateStats()
	s.publish()
}

// context resolves every body, station, and ship contact for this tick.
func (s *Simulation) context() *fleet.Context {
	t := s.Time()
	tn := s.Tuning
	ctx := &fleet.Context{
		Tick:   s.Tick,
		Time:   t,
		Dt:     tn.Dt,
		Ledger: s.Ledger,
		Rand:   s.Rand,
		Tuning: tn,
	}

	ctx.Stations = make([]fleet.Site, len(s.Galaxy.Stations))
	for i, st := range s.Galaxy.Stations {
		ctx.Stations[i] = fleet.Site{
			ID:     uint32(st.ID),
			Pos:    st.Position(t),
			Vel:    st.Velocity(t),
			Radius: st.Body.Radius + tn.DockMargin,
		}
	}
	for _, b := range s.Galaxy.OreBodies() {
		ctx.Ores = append(ctx.Ores, fleet.Site{
			ID:     uint32(b.ID),
			Pos:    b.Position(t),
			Vel:    b.Velocity(t),
			Radius: b.Radius + tn.DockMargin,
		})
	}

	for _, sh := range s.Ships.Ordered() {
		cargo, _ := s.Ledger.Cargo(sh.ID)
		ctx.Contacts = append(ctx.Contacts, fleet.Contact{
			ID:       sh.ID,
			Variant:  sh.Variant,
			Pos:      sh.Motion.Pos,
			Vel:      sh.Motion.Vel,
			Cargo:    cargo,
			Jammed:   sh.Motion.Jammed(),
			Immobile: sh.Motion.Immobile(tn.ImmobileSpeed),
		})
	}
	return ctx
}

// stepShips runs every ship's behavior. Results are indexed like ships so
// events are recorded in ID order whatever the worker count.
func (s *Simulation) stepShips(ships []*fleet.Ship, ctx *fleet.Context) [][]fleet.Event {
	out := make([][]fleet.Event, len(ships))
	if s.Workers <= 1 || len(ships) < 2 {
		for i, sh := range ships {
			out[i] = fleet.Step(sh, ctx)
		}
		return out
	}

	var wg sync.WaitGroup
	for w := 0; w < s.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(ships); i += s.Workers {
				out[i] = fleet.Step(ships[i], ctx)
			}
		}(w)
	}
	wg.Wait()
	return out
}

// sweep applies queued destructions. Cargo aboard is lost.
func (s *Simulation) sweep() {
	for _, sh := range s.Ships.Sweep() {
		lost := s.Ledger.CloseHold(sh.ID)
		s.destroyed += lost
		slog.Debug("ship removed", "ship", sh.Name, "cargo_lost", lost)
	}
}

// audit checks the ledger bounds and global ore conservation. A failure is
// a defect, not a runtime condition.
func (s *Simulation) audit() {
	if err := s.Check(); err != nil {
		slog.Error("ledger audit failed", "tick", s.Tick, "error", err)
		panic(err)
	}
}

// Check returns the first violated ledger invariant, if any.
func (s *Simulation) Check() error {
	if err := s.Ledger.Audit(); err != nil {
		return err
	}
	t := s.Ledger.Total()
	have := t.Stations + t.Holds + t.Reserves
	want := s.seeded + s.regenerated - s.destroyed
	if have != want {
		return fmt.Errorf("%w: %d ore on the books, %d expected", economy.ErrInvariant, have, want)
	}
	return nil
}

// Destroyed returns the total ore lost to raids and destruction.
func (s *Simulation) Destroyed() int { return s.destroyed }
