// Package fleet provides the ship data model and the per-variant behavior
// state machines. A ship's variant is fixed at creation; exactly one of the
// Miner, Trader, and Pirate state pointers is set, matching Variant.
package fleet

import (
	"github.com/talgya/orrery/internal/nav"
	"github.com/talgya/orrery/internal/world"
)

// Variant is the fixed role of a ship.
type Variant uint8

const (
	VariantMiner Variant = iota
	VariantTrader
	VariantPirate
)

// String returns the lowercase variant name.
func (v Variant) String() string {
	switch v {
	case VariantMiner:
		return "miner"
	case VariantTrader:
		return "trader"
	case VariantPirate:
		return "pirate"
	default:
		return "unknown"
	}
}

// Phase is the behavior summary common to every variant.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseEnRoute
	PhaseDocked
	PhaseEngaged // Pirate pursuit, jamming, or raid
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEnRoute:
		return "en_route"
	case PhaseDocked:
		return "docked"
	case PhaseEngaged:
		return "engaged"
	default:
		return "unknown"
	}
}

// MinerMode is the miner state machine.
type MinerMode uint8

const (
	MinerIdle MinerMode = iota
	MinerSeekingOre
	MinerMining
	MinerSeekingStation
	MinerDepositing
)

var minerModeNames = [...]string{"idle", "seeking_ore", "mining", "seeking_station", "depositing"}

func (m MinerMode) String() string { return minerModeNames[m] }

// MinerState is a miner's behavior. Target is a BodyID while seeking or
// mining ore and a StationID while seeking or depositing at a station; it is
// re-resolved every tick.
type MinerState struct {
	Mode      MinerMode `json:"mode"`
	Target    uint32    `json:"target"`
	HasTarget bool      `json:"has_target"`
}

// TraderMode is the trader state machine.
type TraderMode uint8

const (
	TraderIdle TraderMode = iota
	TraderChoosing
	TraderEnRoute
	TraderEvaluating
	TraderLoading
)

var traderModeNames = [...]string{"idle", "choosing_destination", "en_route", "evaluating", "loading"}

func (m TraderMode) String() string { return traderModeNames[m] }

// TraderState is a trader's behavior.
type TraderState struct {
	Mode    TraderMode      `json:"mode"`
	Dest    world.StationID `json:"dest"`     // Where it is flying to
	At      world.StationID `json:"at"`       // Where it is docked; valid in Evaluating/Loading/Idle when Docked
	Next    world.StationID `json:"next"`     // Chosen while evaluating
	Last    world.StationID `json:"last"`     // Station last departed
	HasLast bool            `json:"has_last"` // False until the first departure
	Docked  bool            `json:"docked"`
}

// PirateMode is the pirate state machine.
type PirateMode uint8

const (
	PiratePatrolling PirateMode = iota
	PiratePursuing
	PirateJamming
	PirateRaiding
	PirateFencing // Full hold, flying to the nearest station to sell
)

var pirateModeNames = [...]string{"patrolling", "pursuing", "jamming", "raiding", "fencing"}

func (m PirateMode) String() string { return pirateModeNames[m] }

// PirateState is a pirate's behavior. Anchor is the center of its
// territory; Prey is a weak reference to a trader.
type PirateState struct {
	Mode    PirateMode   `json:"mode"`
	Anchor  world.Vec2   `json:"anchor"`
	Prey    world.ShipID `json:"prey"`
	HasPrey bool         `json:"has_prey"`
}

// Ship is one autonomous vessel.
type Ship struct {
	ID      world.ShipID `json:"id"`
	Name    string       `json:"name"`
	Variant Variant      `json:"variant"`
	Motion  nav.Motion   `json:"motion"`

	Miner  *MinerState  `json:"miner,omitempty"`
	Trader *TraderState `json:"trader,omitempty"`
	Pirate *PirateState `json:"pirate,omitempty"`
}

// State returns the variant-specific state name.
func (s *Ship) State() string {
	switch s.Variant {
	case VariantMiner:
		return s.Miner.Mode.String()
	case VariantTrader:
		return s.Trader.Mode.String()
	case VariantPirate:
		return s.Pirate.Mode.String()
	}
	return "unknown"
}

// Phase maps the variant state onto the common phases.
func (s *Ship) Phase() Phase {
	switch s.Variant {
	case VariantMiner:
		switch s.Miner.Mode {
		case MinerSeekingOre, MinerSeekingStation:
			return PhaseEnRoute
		case MinerMining, MinerDepositing:
			return PhaseDocked
		}
	case VariantTrader:
		switch s.Trader.Mode {
		case TraderChoosing, TraderEnRoute:
			return PhaseEnRoute
		case TraderEvaluating, TraderLoading:
			return PhaseDocked
		case TraderIdle:
			if s.Trader.Docked {
				return PhaseDocked
			}
		}
	case VariantPirate:
		if s.Pirate.Mode == PiratePatrolling || s.Pirate.Mode == PirateFencing {
			return PhaseEnRoute
		}
		return PhaseEngaged
	}
	return PhaseIdle
}

// Disengage sends a pirate back to patrol and drops its prey. It is a no-op
// for other variants.
func (s *Ship) Disengage() {
	if s.Pirate == nil {
		return
	}
	s.Pirate.Mode = PiratePatrolling
	s.Pirate.HasPrey = false
	s.Pirate.Prey = 0
}
