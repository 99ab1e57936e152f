// Package economy owns every unit of ore in the simulation: station
// inventories, ship holds, and planetary reserves. Quantities change only
// through Ledger operations, and every operation clamps instead of failing,
// so no account can go negative or over capacity.
package economy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/talgya/orrery/internal/world"
)

// ErrInvariant reports an account outside its bounds. Clamping makes this
// unreachable; seeing it means a defect.
var ErrInvariant = errors.New("ledger invariant violated")

// Unbounded marks an account with no capacity limit.
const Unbounded = 0

// account is one balance. Each has its own lock so transfers touching
// different stations and ships can run concurrently.
type account struct {
	mu       sync.Mutex
	amount   int
	capacity int // Unbounded or the maximum amount
	limit    int // Reserves regenerate up to this
}

func (a *account) room() int {
	if a.capacity == Unbounded {
		return int(^uint(0) >> 1)
	}
	return a.capacity - a.amount
}

// Ledger holds all ore accounts.
type Ledger struct {
	mu       sync.RWMutex // Guards the maps, not the balances
	stations map[world.StationID]*account
	holds    map[world.ShipID]*account
	reserves map[world.BodyID]*account
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		stations: make(map[world.StationID]*account),
		holds:    make(map[world.ShipID]*account),
		reserves: make(map[world.BodyID]*account),
	}
}

// OpenStation creates a station inventory with no capacity limit.
func (l *Ledger) OpenStation(id world.StationID, initial int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stations[id] = &account{amount: max(initial, 0)}
}

// OpenHold creates a ship's cargo hold.
func (l *Ledger) OpenHold(id world.ShipID, capacity, initial int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holds[id] = &account{amount: min(max(initial, 0), capacity), capacity: capacity}
}

// OpenReserve creates a body's ore reserve. Regenerate refills it up to its
// initial size.
func (l *Ledger) OpenReserve(id world.BodyID, initial int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	initial = max(initial, 0)
	l.reserves[id] = &account{amount: initial, limit: initial}
}

// CloseHold removes a destroyed ship's hold and returns the ore lost with it.
func (l *Ledger) CloseHold(id world.ShipID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.holds[id]
	if !ok {
		return 0
	}
	delete(l.holds, id)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.amount
}

func (l *Ledger) station(id world.StationID) *account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stations[id]
}

func (l *Ledger) hold(id world.ShipID) *account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.holds[id]
}

func (l *Ledger) reserve(id world.BodyID) *account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reserves[id]
}

// move shifts up to qty from src to dst, clamped by what src holds and what
// dst can take. Both locks must be held. Returns the amount moved.
func move(src, dst *account, qty int) int {
	n := min(qty, src.amount, dst.room())
	if n <= 0 {
		return 0
	}
	src.amount -= n
	dst.amount += n
	return n
}

// Deposit adds ore to a station from outside the ledger. Returns the amount
// accepted.
func (l *Ledger) Deposit(id world.StationID, qty int) int {
	a := l.station(id)
	if a == nil || qty <= 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	n := min(qty, a.room())
	a.amount += n
	return n
}

// Withdraw removes up to qty from a station and returns the amount removed.
func (l *Ledger) Withdraw(id world.StationID, qty int) int {
	a := l.station(id)
	if a == nil || qty <= 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	n := min(qty, a.amount)
	a.amount -= n
	return n
}

// LoadCargo moves up to qty from a station into a ship's hold, clamped by the
// station's stock and the hold's free space. Partial fills are normal.
func (l *Ledger) LoadCargo(ship world.ShipID, st world.StationID, qty int) int {
	src, dst := l.station(st), l.hold(ship)
	if src == nil || dst == nil || qty <= 0 {
		return 0
	}
	// Lock order: station before hold.
	src.mu.Lock()
	defer src.mu.Unlock()
	dst.mu.Lock()
	defer dst.mu.Unlock()
	return move(src, dst, qty)
}

// UnloadCargo moves up to qty from a ship's hold into a station.
func (l *Ledger) UnloadCargo(ship world.ShipID, st world.StationID, qty int) int {
	dst, src := l.station(st), l.hold(ship)
	if src == nil || dst == nil || qty <= 0 {
		return 0
	}
	dst.mu.Lock()
	defer dst.mu.Unlock()
	src.mu.Lock()
	defer src.mu.Unlock()
	return move(src, dst, qty)
}

// Extract mines up to qty from a body's reserve into a ship's hold.
func (l *Ledger) Extract(ship world.ShipID, body world.BodyID, qty int) int {
	src, dst := l.reserve(body), l.hold(ship)
	if src == nil || dst == nil || qty <= 0 {
		return 0
	}
	// Lock order: reserve before hold.
	src.mu.Lock()
	defer src.mu.Unlock()
	dst.mu.Lock()
	defer dst.mu.Unlock()
	return move(src, dst, qty)
}

// Seize empties the victim's hold: as much as fits goes to the raider, the
// rest is destroyed. Returns both amounts.
func (l *Ledger) Seize(victim, raider world.ShipID) (taken, lost int) {
	src, dst := l.hold(victim), l.hold(raider)
	if src == nil || dst == nil || victim == raider {
		return 0, 0
	}
	// Lock order: lower ship ID first.
	first, second := src, dst
	if raider < victim {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	taken = move(src, dst, src.amount)
	lost = src.amount
	src.amount = 0
	return taken, lost
}

// Regenerate restores up to qty ore to every depleted reserve.
func (l *Ledger) Regenerate(qty int) int {
	if qty <= 0 {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, a := range l.reserves {
		a.mu.Lock()
		n := min(qty, a.limit-a.amount)
		if n > 0 {
			a.amount += n
			total += n
		}
		a.mu.Unlock()
	}
	return total
}

// StationOre returns a station's inventory.
func (l *Ledger) StationOre(id world.StationID) int {
	a := l.station(id)
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.amount
}

// Cargo returns a ship's hold contents and capacity.
func (l *Ledger) Cargo(id world.ShipID) (amount, capacity int) {
	a := l.hold(id)
	if a == nil {
		return 0, 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.amount, a.capacity
}

// Reserve returns a body's remaining ore reserve.
func (l *Ledger) Reserve(id world.BodyID) int {
	a := l.reserve(id)
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.amount
}

// Totals is a census of all ore by where it sits.
type Totals struct {
	Stations int `json:"stations"`
	Holds    int `json:"holds"`
	Reserves int `json:"reserves"`
}

// Circulating returns ore that has left the ground.
func (t Totals) Circulating() int { return t.Stations + t.Holds }

// Total sums every account.
func (l *Ledger) Total() Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var t Totals
	for _, a := range l.stations {
		a.mu.Lock()
		t.Stations += a.amount
		a.mu.Unlock()
	}
	for _, a := range l.holds {
		a.mu.Lock()
		t.Holds += a.amount
		a.mu.Unlock()
	}
	for _, a := range l.reserves {
		a.mu.Lock()
		t.Reserves += a.amount
		a.mu.Unlock()
	}
	return t
}

// Audit checks every account against its bounds.
func (l *Ledger) Audit() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var bad []string
	check := func(kind string, id uint32, a *account) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.amount < 0 || (a.capacity != Unbounded && a.amount > a.capacity) {
			bad = append(bad, fmt.Sprintf("%s %d: %d/%d", kind, id, a.amount, a.capacity))
		}
	}
	for id, a := range l.stations {
		check("station", uint32(id), a)
	}
	for id, a := range l.holds {
		check("hold", uint32(id), a)
	}
	for id, a := range l.reserves {
		check("reserve", uint32(id), a)
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("%w: %v", ErrInvariant, bad)
	}
	return nil
}
