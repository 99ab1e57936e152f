package world

import (
	"reflect"
	"testing"
)

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 1234
	a, b := Generate(cfg), Generate(cfg)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different systems")
	}
	cfg.Seed = 4321
	if reflect.DeepEqual(a, Generate(cfg)) {
		t.Fatalf("different seeds produced identical systems")
	}
}

func TestGeneratedWorldsBuild(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		cfg := DefaultGenConfig()
		cfg.Seed = seed
		d := Generate(cfg)
		if err := Validate(d); err != nil {
			t.Fatalf("seed %d: Validate: %v", seed, err)
		}
		g, err := Build(d)
		if err != nil {
			t.Fatalf("seed %d: Build: %v", seed, err)
		}
		if r := g.System.Radius(); r > cfg.SystemRadius+1e-9 {
			t.Fatalf("seed %d: system radius %v exceeds %v", seed, r, cfg.SystemRadius)
		}
	}
}

func TestGeneratedSubsystemsDoNotOverlap(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 99
	g, err := Build(Generate(cfg))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	planets := g.System.Sun.Moons
	for i := 1; i < len(planets); i++ {
		inner, outer := planets[i-1], planets[i]
		gap := (outer.Orbit.Radius - outer.Extent()) - (inner.Orbit.Radius + inner.Extent())
		if gap < 0 {
			t.Fatalf("%s overlaps %s by %v", outer.Name, inner.Name, -gap)
		}
	}
}

func TestGeneratedDescriptionEncodes(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7
	d := Generate(cfg)
	raw, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse of encoded description: %v", err)
	}
	if again.Seed != d.Seed || len(again.Planets) != len(d.Planets) || again.Fleet.Traders != d.Fleet.Traders {
		t.Fatalf("encoded description differs: seed %d planets %d", again.Seed, len(again.Planets))
	}
}
