// Package tuning holds the numeric parameters of the simulation. Defaults
// live in code; a YAML document may override any subset of them.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects every free parameter of ship behavior and the ledger.
type Tuning struct {
	Dt         float64 `yaml:"dt" json:"dt"`                   // Sim-seconds per tick
	DockMargin float64 `yaml:"dock_margin" json:"dock_margin"` // Added to body radius for arrival
	ArriveGain float64 `yaml:"arrive_gain" json:"arrive_gain"` // Desired speed per unit distance near a target

	MiningRate      int `yaml:"mining_rate" json:"mining_rate"`             // Ore per tick while landed
	ReserveRegen    int `yaml:"reserve_regen" json:"reserve_regen"`         // Ore restored per reserve per regen period
	RegenEveryTicks int `yaml:"regen_every_ticks" json:"regen_every_ticks"` // 0 disables regeneration

	LoadFraction float64 `yaml:"load_fraction" json:"load_fraction"` // Share of the inventory differential a trader hauls

	JamTicks      int     `yaml:"jam_ticks" json:"jam_ticks"`           // Engine-kill duration
	JamDrag       float64 `yaml:"jam_drag" json:"jam_drag"`             // Velocity retained per jammed tick
	ImmobileSpeed float64 `yaml:"immobile_speed" json:"immobile_speed"` // Below this a jammed ship counts as stopped
	RaidFatality  float64 `yaml:"raid_fatality" json:"raid_fatality"`   // Chance a raid destroys the trader

	PatrolRadius float64 `yaml:"patrol_radius" json:"patrol_radius"`
	WeaponRange  float64 `yaml:"weapon_range" json:"weapon_range"`
	TractorRange float64 `yaml:"tractor_range" json:"tractor_range"`

	Miner  ShipClass `yaml:"miner" json:"miner"`
	Trader ShipClass `yaml:"trader" json:"trader"`
	Pirate ShipClass `yaml:"pirate" json:"pirate"`
}

// ShipClass is the hull performance of one ship variant.
type ShipClass struct {
	Capacity int     `yaml:"capacity" json:"capacity"`
	MaxSpeed float64 `yaml:"max_speed" json:"max_speed"`
	MaxAccel float64 `yaml:"max_accel" json:"max_accel"`
	TurnRate float64 `yaml:"turn_rate" json:"turn_rate"` // Rad/s; only used by ships that cannot accelerate
}

// Default returns the stock parameter set.
func Default() Tuning {
	return Tuning{
		Dt:         0.05,
		DockMargin: 0.02,
		ArriveGain: 3,

		MiningRate:      2,
		ReserveRegen:    1,
		RegenEveryTicks: 20,

		LoadFraction: 0.5,

		JamTicks:      200,
		JamDrag:       0.9,
		ImmobileSpeed: 0.002,
		RaidFatality:  0.15,

		PatrolRadius: 0.5,
		WeaponRange:  0.2,
		TractorRange: 0.04,

		Miner:  ShipClass{Capacity: 40, MaxSpeed: 0.10, MaxAccel: 0.25},
		Trader: ShipClass{Capacity: 50, MaxSpeed: 0.12, MaxAccel: 0.30},
		Pirate: ShipClass{Capacity: 60, MaxSpeed: 0.06, MaxAccel: 0, TurnRate: 4},
	}
}

// Load reads a YAML overlay from path on top of Default.
func Load(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	return Parse(raw)
}

// Parse decodes a YAML overlay on top of Default.
func Parse(raw []byte) (Tuning, error) {
	t := Default()
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, fmt.Errorf("tuning: %w", err)
	}
	return t, t.Check()
}

// Check rejects parameter sets that would make the ledger or the steering
// math meaningless.
func (t Tuning) Check() error {
	switch {
	case t.Dt <= 0:
		return fmt.Errorf("tuning: dt must be positive, got %v", t.Dt)
	case t.MiningRate <= 0:
		return fmt.Errorf("tuning: mining_rate must be positive, got %d", t.MiningRate)
	case t.LoadFraction <= 0 || t.LoadFraction > 1:
		return fmt.Errorf("tuning: load_fraction must be in (0,1], got %v", t.LoadFraction)
	case t.JamDrag < 0 || t.JamDrag >= 1:
		return fmt.Errorf("tuning: jam_drag must be in [0,1), got %v", t.JamDrag)
	case t.RaidFatality < 0 || t.RaidFatality > 1:
		return fmt.Errorf("tuning: raid_fatality must be in [0,1], got %v", t.RaidFatality)
	case t.TractorRange > t.WeaponRange:
		return fmt.Errorf("tuning: tractor_range %v exceeds weapon_range %v", t.TractorRange, t.WeaponRange)
	case t.Pirate.MaxAccel != 0:
		return fmt.Errorf("tuning: pirate max_accel must be 0, got %v", t.Pirate.MaxAccel)
	}
	for name, c := range map[string]ShipClass{"miner": t.Miner, "trader": t.Trader, "pirate": t.Pirate} {
		if c.Capacity <= 0 || c.MaxSpeed <= 0 {
			return fmt.Errorf("tuning: %s capacity and max_speed must be positive", name)
		}
	}
	return nil
}
