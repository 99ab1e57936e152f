package fleet

import (
	"sort"

	"github.com/talgya/orrery/internal/economy"
	"github.com/talgya/orrery/internal/entropy"
	"github.com/talgya/orrery/internal/tuning"
	"github.com/talgya/orrery/internal/world"
)

// Site is a destination resolved for the current tick.
type Site struct {
	ID     uint32     `json:"id"`
	Pos    world.Vec2 `json:"pos"`
	Vel    world.Vec2 `json:"vel"`
	Radius float64    `json:"radius"` // Arrival radius
}

// Contact is what other ships can observe of a ship at the start of a tick.
// Behaviors read contacts, never another ship's state.
type Contact struct {
	ID       world.ShipID `json:"id"`
	Variant  Variant      `json:"variant"`
	Pos      world.Vec2   `json:"pos"`
	Vel      world.Vec2   `json:"vel"`
	Cargo    int          `json:"cargo"`
	Jammed   bool         `json:"jammed"`
	Immobile bool         `json:"immobile"`
}

// Context is the per-tick view handed to every behavior step. The engine
// builds it after kinematics and before any ship moves; nothing in it changes
// during the ship phase except ledger balances.
type Context struct {
	Tick   uint64
	Time   float64
	Dt     float64
	Ledger *economy.Ledger
	Rand   *entropy.Source
	Tuning tuning.Tuning

	Stations []Site    // Indexed by StationID
	Ores     []Site    // Ore-bearing bodies, ascending BodyID
	Contacts []Contact // Ascending ShipID
}

// Station resolves a station site.
func (c *Context) Station(id world.StationID) (Site, bool) {
	if int(id) >= len(c.Stations) {
		return Site{}, false
	}
	return c.Stations[id], true
}

// Ore resolves an ore body site.
func (c *Context) Ore(id world.BodyID) (Site, bool) {
	i := sort.Search(len(c.Ores), func(i int) bool { return c.Ores[i].ID >= uint32(id) })
	if i == len(c.Ores) || c.Ores[i].ID != uint32(id) {
		return Site{}, false
	}
	return c.Ores[i], true
}

// Contact resolves a ship contact. Ships removed before this tick are
// absent.
func (c *Context) Contact(id world.ShipID) (Contact, bool) {
	i := sort.Search(len(c.Contacts), func(i int) bool { return c.Contacts[i].ID >= id })
	if i == len(c.Contacts) || c.Contacts[i].ID != id {
		return Contact{}, false
	}
	return c.Contacts[i], true
}

// Stream keys for per-ship random draws.
const (
	KeyTraderDest uint64 = iota + 1
	KeyRaidOutcome
	KeySpawn
)
