package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/orrery/internal/tuning"
)

// Description is the declarative form of a world, as read from YAML. The
// builder validates it; the engine never sees an unvalidated description.
type Description struct {
	Seed    int64         `yaml:"seed" json:"seed"`
	Sun     SunDesc       `yaml:"sun" json:"sun"`
	Planets []BodyDesc    `yaml:"planets" json:"planets"`
	Fleet   FleetDesc     `yaml:"fleet" json:"fleet"`
	Tuning  tuning.Tuning `yaml:"tuning" json:"tuning"`
}

// SunDesc describes the root body.
type SunDesc struct {
	Name   string  `yaml:"name" json:"name"`
	Radius float64 `yaml:"radius" json:"radius"`
}

// BodyDesc describes a planet or, when nested under a planet, a moon.
type BodyDesc struct {
	Name     string        `yaml:"name" json:"name"`
	Radius   float64       `yaml:"radius" json:"radius"`
	Orbit    OrbitDesc     `yaml:"orbit" json:"orbit"`
	Ore      int           `yaml:"ore,omitempty" json:"ore,omitempty"`
	Stations []StationDesc `yaml:"stations,omitempty" json:"stations,omitempty"`
	Moons    []BodyDesc    `yaml:"moons,omitempty" json:"moons,omitempty"`
}

// OrbitDesc mirrors Orbit with YAML field names.
type OrbitDesc struct {
	Radius     float64 `yaml:"radius" json:"radius"`
	Period     float64 `yaml:"period" json:"period"`
	Phase      float64 `yaml:"phase,omitempty" json:"phase,omitempty"`
	Retrograde bool    `yaml:"retrograde,omitempty" json:"retrograde,omitempty"`
}

// StationDesc describes a station on its enclosing body.
type StationDesc struct {
	Name string `yaml:"name" json:"name"`
	Ore  int    `yaml:"ore,omitempty" json:"ore,omitempty"`
}

// FleetDesc is the initial fleet composition.
type FleetDesc struct {
	Miners        int    `yaml:"miners" json:"miners"`
	Traders       int    `yaml:"traders" json:"traders"`
	Pirates       int    `yaml:"pirates" json:"pirates"`
	PirateAnchors []Vec2 `yaml:"pirate_anchors,omitempty" json:"pirate_anchors,omitempty"`
}

// Load reads and validates a YAML world description.
func Load(path string) (Description, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Description{}, fmt.Errorf("read world description: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw YAML against the description schema and decodes it.
// Tuning fields absent from the document keep their defaults.
func Parse(raw []byte) (Description, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Description{}, fmt.Errorf("world description: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Description{}, err
	}

	d := Description{Tuning: tuning.Default()}
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Description{}, fmt.Errorf("world description: %w", err)
	}
	if err := d.Tuning.Check(); err != nil {
		return Description{}, err
	}
	return d, nil
}

// Validate checks an in-memory description against the schema. Generated
// descriptions go through the same gate as files.
func Validate(d Description) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode description: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode description: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return err
	}
	return d.Tuning.Check()
}

// validateDocument round-trips a decoded YAML tree through JSON so the
// schema validator sees JSON-native types.
func validateDocument(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("world description: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("world description: %w", err)
	}
	if err := descriptionSchema.Validate(v); err != nil {
		return fmt.Errorf("world description: %w", err)
	}
	return nil
}

// Encode renders d as YAML that Parse accepts.
func (d Description) Encode() ([]byte, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode world description: %w", err)
	}
	return raw, nil
}

// Save writes d as YAML, e.g. to capture a generated world.
func (d Description) Save(path string) error {
	raw, err := d.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
