package engine

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"

	"github.com/talgya/orrery/internal/economy"
	"github.com/talgya/orrery/internal/world"
)

// Snapshot is the immutable world state published after each tick. It is
// safe to share between goroutines and is never modified once published.
type Snapshot struct {
	Tick     uint64         `json:"tick"`
	Time     float64        `json:"time"`
	Bodies   []BodyView     `json:"bodies"`
	Stations []StationView  `json:"stations"`
	Ships    []ShipView     `json:"ships"`
	Totals   economy.Totals `json:"totals"`
	Stats    Stats          `json:"stats"`
	Digest   string         `json:"digest,omitempty"`
}

// BodyView is a body as seen by observers.
type BodyView struct {
	ID      world.BodyID  `json:"id"`
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Parent  *world.BodyID `json:"parent,omitempty"`
	Pos     world.Vec2    `json:"pos"`
	Radius  float64       `json:"radius"`
	Reserve int           `json:"reserve"`
}

// StationView is a station as seen by observers.
type StationView struct {
	ID   world.StationID `json:"id"`
	Name string          `json:"name"`
	Body world.BodyID    `json:"body"`
	Pos  world.Vec2      `json:"pos"`
	Ore  int             `json:"ore"`
}

// ShipView is a ship as seen by observers.
type ShipView struct {
	ID       world.ShipID `json:"id"`
	Name     string       `json:"name"`
	Variant  string       `json:"variant"`
	Pos      world.Vec2   `json:"pos"`
	Heading  float64      `json:"heading"`
	Speed    float64      `json:"speed"`
	Cargo    int          `json:"cargo"`
	Capacity int          `json:"capacity"`
	Fill     float64      `json:"fill"` // Cargo / capacity
	State    string       `json:"state"`
	Phase    string       `json:"phase"`
	Jammed   bool         `json:"jammed,omitempty"`
}

// Snapshot returns the most recently published snapshot.
func (s *Simulation) Snapshot() *Snapshot {
	return s.snap.Load()
}

// publish builds and stores the snapshot for the current tick.
func (s *Simulation) publish() {
	t := s.Time()
	snap := &Snapshot{
		Tick:   s.Tick,
		Time:   t,
		Totals: s.Ledger.Total(),
		Stats:  s.Stats,
	}

	for _, b := range s.Galaxy.System.Bodies {
		v := BodyView{
			ID:      b.ID,
			Name:    b.Name,
			Kind:    b.Kind.String(),
			Pos:     b.Position(t),
			Radius:  b.Radius,
			Reserve: s.Ledger.Reserve(b.ID),
		}
		if b.Parent != nil {
			id := b.Parent.ID
			v.Parent = &id
		}
		snap.Bodies = append(snap.Bodies, v)
	}

	for _, st := range s.Galaxy.Stations {
		snap.Stations = append(snap.Stations, StationView{
			ID:   st.ID,
			Name: st.Name,
			Body: st.Body.ID,
			Pos:  st.Position(t),
			Ore:  s.Ledger.StationOre(st.ID),
		})
	}

	for _, sh := range s.Ships.Ordered() {
		cargo, capacity := s.Ledger.Cargo(sh.ID)
		v := ShipView{
			ID:       sh.ID,
			Name:     sh.Name,
			Variant:  sh.Variant.String(),
			Pos:      sh.Motion.Pos,
			Heading:  sh.Motion.Heading,
			Speed:    sh.Motion.Speed(),
			Cargo:    cargo,
			Capacity: capacity,
			State:    sh.State(),
			Phase:    sh.Phase().String(),
			Jammed:   sh.Motion.Jammed(),
		}
		if capacity > 0 {
			v.Fill = float64(cargo) / float64(capacity)
		}
		snap.Ships = append(snap.Ships, v)
	}

	snap.Digest = Digest(snap)
	s.snap.Store(snap)
}

// Digest returns a blake3 hash of a snapshot's content, ignoring any digest
// it already carries. Identical worlds stepped identically hash equal.
func Digest(snap *Snapshot) string {
	c := *snap
	c.Digest = ""
	raw, err := json.Marshal(&c)
	if err != nil {
		// Every field is a plain value; Marshal cannot fail.
		panic(err)
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
