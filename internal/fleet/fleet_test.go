package fleet

import (
	"testing"

	"github.com/talgya/orrery/internal/economy"
	"github.com/talgya/orrery/internal/entropy"
	"github.com/talgya/orrery/internal/tuning"
	"github.com/talgya/orrery/internal/world"
)

// fixture is a static two-station, one-ore-body neighborhood.
type fixture struct {
	ledger  *economy.Ledger
	spawner *Spawner
	ctx     *Context
}

func newFixture(t *testing.T, stationOre ...int) *fixture {
	t.Helper()
	tn := tuning.Default()
	l := economy.NewLedger()
	ctx := &Context{
		Dt:     tn.Dt,
		Ledger: l,
		Rand:   entropy.New(7),
		Tuning: tn,
		Ores:   []Site{{ID: 3, Pos: world.Vec2{X: 0.4}, Radius: 0.05}},
	}
	for i, ore := range stationOre {
		id := world.StationID(i)
		l.OpenStation(id, ore)
		ctx.Stations = append(ctx.Stations, Site{
			ID:     uint32(id),
			Pos:    world.Vec2{X: -0.3, Y: 0.3 * float64(i)},
			Radius: 0.05,
		})
	}
	l.OpenReserve(3, 100)
	return &fixture{ledger: l, spawner: NewSpawner(1, tn, l), ctx: ctx}
}

// dock returns a station on a body fixed at the origin.
func dock(id world.StationID) *world.Station {
	return &world.Station{ID: id, Body: world.NewSun("Hub", 0.05)}
}

func (f *fixture) step(s *Ship) []Event {
	f.ctx.Tick++
	f.ctx.Time = float64(f.ctx.Tick) * f.ctx.Dt
	return Step(s, f.ctx)
}

func TestRegistryOrderAndSweep(t *testing.T) {
	r := NewRegistry()
	for _, id := range []world.ShipID{5, 1, 3} {
		r.Add(&Ship{ID: id})
	}
	got := r.Ordered()
	if len(got) != 3 || got[0].ID != 1 || got[1].ID != 3 || got[2].ID != 5 {
		t.Fatalf("Ordered = %v", got)
	}

	if !r.QueueRemoval(3) {
		t.Fatal("first QueueRemoval(3) = false")
	}
	if r.QueueRemoval(3) {
		t.Fatal("second QueueRemoval(3) = true")
	}
	if r.QueueRemoval(9) {
		t.Fatal("QueueRemoval of unknown ship = true")
	}
	if _, ok := r.Get(3); !ok {
		t.Fatal("queued ship not resolvable before Sweep")
	}

	removed := r.Sweep()
	if len(removed) != 1 || removed[0].ID != 3 {
		t.Fatalf("Sweep = %v", removed)
	}
	if _, ok := r.Get(3); ok {
		t.Fatal("swept ship still resolvable")
	}
	if r.Len() != 2 || r.Doomed(3) {
		t.Fatalf("after sweep: len %d doomed %v", r.Len(), r.Doomed(3))
	}
}

func TestMinerCycle(t *testing.T) {
	f := newFixture(t, 0, 0)
	m := f.spawner.Miner(world.Vec2{X: -0.3})

	prevMode := m.Miner.Mode
	prevCargo := 0
	deposited := 0
	for i := 0; i < 3000 && deposited == 0; i++ {
		for _, ev := range f.step(m) {
			if ev.Kind == EventDeposited {
				deposited = ev.Qty
			}
		}
		cargo, _ := f.ledger.Cargo(m.ID)
		if prevMode == MinerMining && m.Miner.Mode == MinerMining && cargo <= prevCargo {
			t.Fatalf("tick %d: cargo %d did not increase while mining (was %d)", i, cargo, prevCargo)
		}
		prevMode, prevCargo = m.Miner.Mode, cargo
	}

	if deposited != f.spawner.tuning.Miner.Capacity {
		t.Fatalf("deposited %d, want a full hold of %d", deposited, f.spawner.tuning.Miner.Capacity)
	}
	if m.Miner.Mode != MinerSeekingOre {
		t.Fatalf("mode after deposit = %v", m.Miner.Mode)
	}
	tot := f.ledger.Total()
	if tot.Stations+tot.Holds+tot.Reserves != 100 {
		t.Fatalf("ore not conserved: %+v", tot)
	}
}

func TestMinerLeavesExhaustedReserve(t *testing.T) {
	f := newFixture(t, 0)
	f.ledger = economy.NewLedger()
	f.ctx.Ledger = f.ledger
	f.ledger.OpenStation(0, 0)
	f.ledger.OpenReserve(3, 5)
	f.spawner = NewSpawner(1, f.ctx.Tuning, f.ledger)

	m := f.spawner.Miner(world.Vec2{X: 0.4})
	m.Miner.Mode, m.Miner.Target = MinerMining, 3

	var modes []MinerMode
	for i := 0; i < 4; i++ {
		f.step(m)
		modes = append(modes, m.Miner.Mode)
	}
	want := []MinerMode{MinerMining, MinerMining, MinerMining, MinerSeekingStation}
	for i := range want {
		if modes[i] != want[i] {
			t.Fatalf("modes = %v, want %v", modes, want)
		}
	}
	if cargo, _ := f.ledger.Cargo(m.ID); cargo != 5 {
		t.Fatalf("cargo = %d, want 5", cargo)
	}
}

func TestMinerIdleWithoutOre(t *testing.T) {
	f := newFixture(t, 0)
	f.ctx.Ores = nil

	m := f.spawner.Miner(world.Vec2{})
	f.step(m)
	if m.Miner.Mode != MinerIdle || m.Phase() != PhaseIdle {
		t.Fatalf("mode = %v phase = %v, want idle", m.Miner.Mode, m.Phase())
	}
}

func TestTraderLoadsHalfTheDifferential(t *testing.T) {
	f := newFixture(t, 100, 20)
	tr := f.spawner.Trader(dock(0))
	tr.Trader.Mode = TraderEvaluating

	f.step(tr)
	if tr.Trader.Mode != TraderLoading || tr.Trader.Next != 1 {
		t.Fatalf("after evaluating: mode %v next %d", tr.Trader.Mode, tr.Trader.Next)
	}

	evs := f.step(tr)
	cargo, _ := f.ledger.Cargo(tr.ID)
	if cargo != 40 {
		t.Fatalf("loaded %d, want 40", cargo)
	}
	if got := f.ledger.StationOre(0); got != 60 {
		t.Fatalf("station A = %d, want 60", got)
	}
	if tr.Trader.Mode != TraderEnRoute || tr.Trader.Dest != 1 || tr.Trader.Last != 0 {
		t.Fatalf("after loading: %+v", *tr.Trader)
	}
	if len(evs) != 2 || evs[0].Kind != EventLoaded || evs[0].Qty != 40 || evs[1].Kind != EventDeparted {
		t.Fatalf("events = %+v", evs)
	}
}

func TestSpawnedTraderLoadsBeforeFirstRun(t *testing.T) {
	f := newFixture(t, 100, 20)
	tr := f.spawner.Trader(dock(0))
	if tr.Phase() != PhaseDocked {
		t.Fatalf("spawned phase = %v", tr.Phase())
	}

	var loaded int
	for i := 0; i < 2; i++ {
		for _, ev := range f.step(tr) {
			if ev.Kind == EventLoaded {
				loaded = ev.Qty
			}
		}
	}
	if cargo, _ := f.ledger.Cargo(tr.ID); cargo != 40 || loaded != 40 {
		t.Fatalf("cargo %d loaded %d, want 40", cargo, loaded)
	}
	if tr.Trader.Mode != TraderEnRoute || tr.Trader.Dest != 1 {
		t.Fatalf("after first departure: %+v", *tr.Trader)
	}
}

func TestDockedChoosingTraderEvaluates(t *testing.T) {
	f := newFixture(t, 100, 20)
	tr := f.spawner.Trader(dock(0))
	tr.Trader.Mode = TraderChoosing

	f.step(tr)
	if tr.Trader.Mode != TraderLoading || tr.Trader.Next != 1 {
		t.Fatalf("docked choosing trader: %+v", *tr.Trader)
	}
}

func TestTraderLoadLimitedByHold(t *testing.T) {
	f := newFixture(t, 500, 0)
	tr := f.spawner.Trader(dock(0))
	tr.Trader.Mode = TraderEvaluating
	f.step(tr)
	f.step(tr)
	if cargo, capacity := f.ledger.Cargo(tr.ID); cargo != capacity {
		t.Fatalf("cargo %d, want full hold %d", cargo, capacity)
	}
}

func TestTraderArrivingEmptyDepartsEmpty(t *testing.T) {
	f := newFixture(t, 100, 20)
	tr := f.spawner.Trader(dock(1))
	tr.Trader.Mode = TraderEnRoute
	tr.Trader.Docked = false
	tr.Trader.Dest = 1
	tr.Motion.Pos = f.ctx.Stations[1].Pos

	before := f.ledger.Total()
	f.step(tr) // arrive
	if tr.Trader.Mode != TraderEvaluating || tr.Trader.At != 1 {
		t.Fatalf("did not dock: %+v", *tr.Trader)
	}
	f.step(tr) // evaluate: B holds less than A
	if tr.Trader.Mode != TraderEnRoute || tr.Trader.Dest != 0 {
		t.Fatalf("after evaluating: %+v", *tr.Trader)
	}
	if cargo, _ := f.ledger.Cargo(tr.ID); cargo != 0 {
		t.Fatalf("cargo = %d, want 0", cargo)
	}
	if after := f.ledger.Total(); after != before {
		t.Fatalf("ledger changed: %+v -> %+v", before, after)
	}
}

func TestTraderDeliversOnArrival(t *testing.T) {
	f := newFixture(t, 30, 0)
	tr := f.spawner.Trader(dock(0))
	f.ledger.LoadCargo(tr.ID, 0, 30)
	tr.Trader.Mode = TraderEvaluating

	evs := f.step(tr)
	if len(evs) == 0 || evs[0].Kind != EventDelivered || evs[0].Qty != 30 {
		t.Fatalf("events = %+v", evs)
	}
	if cargo, _ := f.ledger.Cargo(tr.ID); cargo != 0 {
		t.Fatalf("cargo = %d after delivery", cargo)
	}
}

func TestPickStationExcludesDeparted(t *testing.T) {
	f := newFixture(t, 0, 0, 0)
	s := &Ship{ID: 4}
	seen := map[world.StationID]int{}
	for tick := uint64(0); tick < 300; tick++ {
		f.ctx.Tick = tick
		id, ok := pickStation(s, f.ctx, 1, true)
		if !ok {
			t.Fatal("no station picked")
		}
		seen[id]++
	}
	if seen[1] != 0 {
		t.Fatalf("excluded station picked %d times", seen[1])
	}
	if seen[0] == 0 || seen[2] == 0 {
		t.Fatalf("choice not spread over stations: %v", seen)
	}
}

func TestTraderIdleWithSingleStation(t *testing.T) {
	f := newFixture(t, 10)
	tr := f.spawner.Trader(dock(0))
	f.step(tr)
	if tr.Trader.Mode != TraderIdle || tr.Phase() != PhaseDocked {
		t.Fatalf("mode %v phase %v", tr.Trader.Mode, tr.Phase())
	}
}

func TestPirateEngagement(t *testing.T) {
	f := newFixture(t, 0)
	p := f.spawner.Pirate(world.Vec2{})
	prey := Contact{ID: 9, Variant: VariantTrader, Pos: world.Vec2{X: 0.3}, Cargo: 10}
	f.ctx.Contacts = []Contact{prey}

	evs := f.step(p)
	if p.Pirate.Mode != PiratePursuing || p.Pirate.Prey != 9 {
		t.Fatalf("after sighting: %+v", *p.Pirate)
	}
	if len(evs) != 1 || evs[0].Kind != EventSighted {
		t.Fatalf("events = %+v", evs)
	}

	prey.Pos = p.Motion.Pos.Add(world.Vec2{X: 0.1})
	f.ctx.Contacts = []Contact{prey}
	f.step(p)
	if p.Pirate.Mode != PirateJamming {
		t.Fatalf("in weapon range: mode %v", p.Pirate.Mode)
	}

	prey.Pos = p.Motion.Pos.Add(p.Motion.Vel.Scale(f.ctx.Dt))
	prey.Jammed, prey.Immobile = true, true
	f.ctx.Contacts = []Contact{prey}
	evs = f.step(p)
	if p.Pirate.Mode != PirateRaiding {
		t.Fatalf("on immobile prey: mode %v", p.Pirate.Mode)
	}
	if len(evs) != 1 || evs[0].Kind != EventRaiding || evs[0].Target != 9 {
		t.Fatalf("events = %+v", evs)
	}
	if p.Phase() != PhaseEngaged {
		t.Fatalf("phase = %v", p.Phase())
	}

	p.Disengage()
	if p.Pirate.Mode != PiratePatrolling || p.Pirate.HasPrey {
		t.Fatalf("after Disengage: %+v", *p.Pirate)
	}
}

func TestPirateIgnoresEmptyAndDistantTraders(t *testing.T) {
	f := newFixture(t, 0)
	p := f.spawner.Pirate(world.Vec2{})
	f.ctx.Contacts = []Contact{
		{ID: 1, Variant: VariantTrader, Pos: world.Vec2{X: 0.1}},
		{ID: 2, Variant: VariantMiner, Pos: world.Vec2{X: 0.1}, Cargo: 20},
		{ID: 3, Variant: VariantTrader, Pos: world.Vec2{X: 2}, Cargo: 20},
	}
	f.step(p)
	if p.Pirate.Mode != PiratePatrolling {
		t.Fatalf("mode = %v, want patrolling", p.Pirate.Mode)
	}
}

func TestPirateLosesVanishedPrey(t *testing.T) {
	f := newFixture(t, 0)
	p := f.spawner.Pirate(world.Vec2{})
	p.Pirate.Mode, p.Pirate.Prey, p.Pirate.HasPrey = PirateJamming, 9, true

	evs := f.step(p)
	if p.Pirate.Mode != PiratePatrolling {
		t.Fatalf("mode = %v", p.Pirate.Mode)
	}
	if len(evs) != 1 || evs[0].Kind != EventLostPrey || evs[0].Target != 9 {
		t.Fatalf("events = %+v", evs)
	}
}

func TestPirateKeepsSpeed(t *testing.T) {
	f := newFixture(t, 0)
	p := f.spawner.Pirate(world.Vec2{})
	want := p.Motion.Speed()
	for i := 0; i < 200; i++ {
		f.step(p)
	}
	if d := p.Motion.Speed() - want; d > 1e-9 || d < -1e-9 {
		t.Fatalf("speed %v, want %v", p.Motion.Speed(), want)
	}
	if p.Motion.Pos.Len() > f.ctx.Tuning.PatrolRadius {
		t.Fatalf("pirate strayed to %v", p.Motion.Pos)
	}
}

func TestDisengageIgnoresOtherVariants(t *testing.T) {
	f := newFixture(t, 0)
	m := f.spawner.Miner(world.Vec2{})
	m.Disengage()
	if m.Pirate != nil || m.Miner.Mode != MinerSeekingOre {
		t.Fatalf("Disengage changed a miner: %+v", m)
	}
}

func TestSpawnFleet(t *testing.T) {
	d := world.Generate(world.GenConfig{
		Seed:         11,
		SystemRadius: 2,
		SunRadius:    0.1,
		SizeMin:      0.1,
		SizeMax:      0.3,
		MoonProb:     0.5,
		MaxMoons:     2,
		FeatureProb:  0.5,
		BasePeriod:   300,
		MoonSpeed:    0.02,
		Fleet:        world.FleetDesc{Miners: 3, Traders: 2, Pirates: 2, PirateAnchors: []world.Vec2{{X: 1}, {Y: 1}}},
	})
	g, err := world.Build(d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	l := economy.NewLedger()
	ships := NewSpawner(g.Seed, g.Tuning, l).SpawnFleet(g)
	if len(ships) != 7 {
		t.Fatalf("spawned %d ships", len(ships))
	}
	wantVariants := []Variant{VariantMiner, VariantMiner, VariantMiner, VariantTrader, VariantTrader, VariantPirate, VariantPirate}
	for i, s := range ships {
		if s.ID != world.ShipID(i) {
			t.Fatalf("ship %d has ID %d", i, s.ID)
		}
		if s.Variant != wantVariants[i] {
			t.Fatalf("ship %d is %v, want %v", i, s.Variant, wantVariants[i])
		}
		if _, capacity := l.Cargo(s.ID); capacity <= 0 {
			t.Fatalf("ship %d has no hold", i)
		}
	}
	if ships[5].Pirate.Anchor != (world.Vec2{X: 1}) || ships[6].Pirate.Anchor != (world.Vec2{Y: 1}) {
		t.Fatalf("anchors = %v, %v", ships[5].Pirate.Anchor, ships[6].Pirate.Anchor)
	}
}

func TestFullPirateFencesAtStation(t *testing.T) {
	f := newFixture(t, 60)
	p := f.spawner.Pirate(f.ctx.Stations[0].Pos)
	if got := f.ledger.LoadCargo(p.ID, 0, 60); got != 60 {
		t.Fatalf("loaded %d", got)
	}

	evs := f.step(p)
	if len(evs) != 1 || evs[0].Kind != EventFenced || evs[0].Qty != 60 || evs[0].Target != 0 {
		t.Fatalf("events = %+v", evs)
	}
	if cargo, _ := f.ledger.Cargo(p.ID); cargo != 0 {
		t.Fatalf("cargo %d after fencing", cargo)
	}
	if got := f.ledger.StationOre(0); got != 60 {
		t.Fatalf("station holds %d, want 60", got)
	}
	if p.Pirate.Mode != PiratePatrolling {
		t.Fatalf("mode after fencing = %v", p.Pirate.Mode)
	}
}

func TestFullPirateFliesToStation(t *testing.T) {
	f := newFixture(t, 60)
	p := f.spawner.Pirate(world.Vec2{X: 0.3})
	f.ledger.LoadCargo(p.ID, 0, 60)
	speed := p.Motion.Speed()

	f.step(p)
	if p.Pirate.Mode != PirateFencing {
		t.Fatalf("full pirate mode = %v", p.Pirate.Mode)
	}
	sold := 0
	for i := 0; i < 2000 && sold == 0; i++ {
		for _, ev := range f.step(p) {
			if ev.Kind == EventFenced {
				sold = ev.Qty
			}
		}
		if d := p.Motion.Speed() - speed; d > 1e-9 || d < -1e-9 {
			t.Fatalf("pirate speed changed to %v", p.Motion.Speed())
		}
	}
	if sold != 60 {
		t.Fatalf("sold %d, want 60", sold)
	}
}

func TestPhaseNames(t *testing.T) {
	tests := []struct {
		ship *Ship
		want Phase
	}{
		{&Ship{Variant: VariantMiner, Miner: &MinerState{Mode: MinerMining}}, PhaseDocked},
		{&Ship{Variant: VariantMiner, Miner: &MinerState{Mode: MinerSeekingStation}}, PhaseEnRoute},
		{&Ship{Variant: VariantTrader, Trader: &TraderState{Mode: TraderLoading}}, PhaseDocked},
		{&Ship{Variant: VariantTrader, Trader: &TraderState{Mode: TraderIdle}}, PhaseIdle},
		{&Ship{Variant: VariantPirate, Pirate: &PirateState{Mode: PiratePatrolling}}, PhaseEnRoute},
		{&Ship{Variant: VariantPirate, Pirate: &PirateState{Mode: PirateJamming}}, PhaseEngaged},
		{&Ship{Variant: VariantPirate, Pirate: &PirateState{Mode: PirateFencing}}, PhaseEnRoute},
	}
	for _, tt := range tests {
		if got := tt.ship.Phase(); got != tt.want {
			t.Errorf("%v/%s: Phase = %v, want %v", tt.ship.Variant, tt.ship.State(), got, tt.want)
		}
	}
}
