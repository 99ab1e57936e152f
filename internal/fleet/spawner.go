package fleet

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/orrery/internal/economy"
	"github.com/talgya/orrery/internal/nav"
	"github.com/talgya/orrery/internal/tuning"
	"github.com/talgya/orrery/internal/world"
)

// Spawner creates ships and opens their holds.
type Spawner struct {
	rng    *rand.Rand
	tuning tuning.Tuning
	ledger *economy.Ledger
	nextID world.ShipID
}

// NewSpawner creates a ship spawner with the given seed.
func NewSpawner(seed int64, tn tuning.Tuning, ledger *economy.Ledger) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		tuning: tn,
		ledger: ledger,
	}
}

// SpawnFleet creates the initial fleet of a galaxy. Miners and traders start
// docked at random stations; pirates start at their anchors. IDs are issued
// miners first, then traders, then pirates.
func (sp *Spawner) SpawnFleet(g *world.Galaxy) []*Ship {
	f := g.Fleet
	ships := make([]*Ship, 0, f.Miners+f.Traders+f.Pirates)

	for i := 0; i < f.Miners; i++ {
		st := g.Stations[sp.rng.Intn(len(g.Stations))]
		ships = append(ships, sp.Miner(st.Position(0)))
	}
	for i := 0; i < f.Traders; i++ {
		st := g.Stations[sp.rng.Intn(len(g.Stations))]
		ships = append(ships, sp.Trader(st))
	}

	anchors := f.PirateAnchors
	for i := 0; i < f.Pirates; i++ {
		var anchor world.Vec2
		if i < len(anchors) {
			anchor = anchors[i]
		} else {
			anchor = sp.anchorNear(g)
		}
		ships = append(ships, sp.Pirate(anchor))
	}
	return ships
}

// Miner creates a miner at pos, looking for ore.
func (sp *Spawner) Miner(pos world.Vec2) *Ship {
	s := sp.newShip(VariantMiner, sp.tuning.Miner, pos)
	s.Miner = &MinerState{Mode: MinerSeekingOre}
	return s
}

// Trader creates a trader docked at a station, about to weigh its next
// run the same way it does after every delivery.
func (sp *Spawner) Trader(at *world.Station) *Ship {
	s := sp.newShip(VariantTrader, sp.tuning.Trader, at.Position(0))
	s.Trader = &TraderState{Mode: TraderEvaluating, At: at.ID, Docked: true}
	return s
}

// Pirate creates a pirate at its anchor, cruising in a random direction.
func (sp *Spawner) Pirate(anchor world.Vec2) *Ship {
	s := sp.newShip(VariantPirate, sp.tuning.Pirate, anchor)
	heading := sp.rng.Float64() * 2 * math.Pi
	s.Motion.Heading = heading
	s.Motion.Vel = world.Polar(s.Motion.MaxSpeed, heading)
	s.Pirate = &PirateState{Mode: PiratePatrolling, Anchor: anchor}
	return s
}

func (sp *Spawner) newShip(v Variant, class tuning.ShipClass, pos world.Vec2) *Ship {
	id := sp.nextID
	sp.nextID++
	sp.ledger.OpenHold(id, class.Capacity, 0)
	return &Ship{
		ID:      id,
		Name:    fmt.Sprintf("%s-%03d", v, id),
		Variant: v,
		Motion: nav.Motion{
			Pos:        pos,
			MaxSpeed:   class.MaxSpeed,
			MaxAccel:   class.MaxAccel,
			TurnRate:   class.TurnRate,
			ArriveGain: sp.tuning.ArriveGain,
			JamDrag:    sp.tuning.JamDrag,
		},
	}
}

// anchorNear places a territory around a random station's starting position,
// where traders are bound to pass.
func (sp *Spawner) anchorNear(g *world.Galaxy) world.Vec2 {
	st := g.Stations[sp.rng.Intn(len(g.Stations))]
	off := world.Polar(sp.tuning.PatrolRadius*0.3*sp.rng.Float64(), sp.rng.Float64()*2*math.Pi)
	return st.Position(0).Add(off)
}
