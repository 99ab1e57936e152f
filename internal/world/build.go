package world

import (
	"errors"
	"fmt"

	"github.com/talgya/orrery/internal/tuning"
)

// ErrDegenerate reports a world the engine cannot run: no station to sell
// ore at or no body to mine it from.
var ErrDegenerate = errors.New("degenerate world")

// Galaxy is a built world: the body hierarchy, its stations, and what the
// engine needs to populate and tune it.
type Galaxy struct {
	Seed     int64
	System   *System
	Stations []*Station // Indexed by StationID
	Fleet    FleetDesc
	Tuning   tuning.Tuning
}

// OreBodies returns the bodies that start with an ore reserve, in ID order.
func (g *Galaxy) OreBodies() []*Body {
	var out []*Body
	for _, b := range g.System.Bodies {
		if b.Ore > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Build assembles a validated description into a Galaxy. Each planet's moons
// are attached before the planet joins the sun.
func Build(d Description) (*Galaxy, error) {
	sun := NewSun(d.Sun.Name, d.Sun.Radius)

	type pending struct {
		body *Body
		desc StationDesc
	}
	var stations []pending

	for _, pd := range d.Planets {
		planet := NewPlanet(pd.Name, pd.Radius, pd.Orbit.orbit())
		planet.Ore = pd.Ore
		for _, sd := range pd.Stations {
			stations = append(stations, pending{planet, sd})
		}

		for _, md := range pd.Moons {
			if len(md.Moons) > 0 {
				return nil, fmt.Errorf("moon %q has moons: %w", md.Name, ErrHierarchy)
			}
			moon := NewMoon(md.Name, md.Radius, md.Orbit.orbit())
			moon.Ore = md.Ore
			if err := planet.Attach(moon); err != nil {
				return nil, err
			}
			for _, sd := range md.Stations {
				stations = append(stations, pending{moon, sd})
			}
		}

		if err := sun.Attach(planet); err != nil {
			return nil, err
		}
	}

	sys, err := NewSystem(sun)
	if err != nil {
		return nil, err
	}

	g := &Galaxy{
		Seed:   d.Seed,
		System: sys,
		Fleet:  d.Fleet,
		Tuning: d.Tuning,
	}

	// Station IDs follow body ID order, not declaration order.
	for _, b := range sys.Bodies {
		for _, p := range stations {
			if p.body != b {
				continue
			}
			g.Stations = append(g.Stations, &Station{
				ID:   StationID(len(g.Stations)),
				Name: p.desc.Name,
				Body: b,
				Ore:  p.desc.Ore,
			})
		}
	}

	if len(g.Stations) == 0 {
		return nil, fmt.Errorf("no stations: %w", ErrDegenerate)
	}
	if len(g.OreBodies()) == 0 {
		return nil, fmt.Errorf("no ore-bearing bodies: %w", ErrDegenerate)
	}
	if len(d.Fleet.PirateAnchors) > 0 && len(d.Fleet.PirateAnchors) < d.Fleet.Pirates {
		return nil, fmt.Errorf("%d pirate anchors for %d pirates: %w",
			len(d.Fleet.PirateAnchors), d.Fleet.Pirates, ErrDegenerate)
	}
	return g, nil
}

func (o OrbitDesc) orbit() Orbit {
	return Orbit{Radius: o.Radius, Period: o.Period, Phase: o.Phase, Retrograde: o.Retrograde}
}
