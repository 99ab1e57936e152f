// Package world provides the orbital body hierarchy, stations, and the
// declarative world description the engine is built from.
//
// Body positions are closed-form functions of simulation time: nothing is
// integrated, so a body's position after a billion ticks is as exact as after
// one.
package world

import (
	"errors"
	"fmt"
	"math"
)

// ErrHierarchy reports an attachment that would break the sun → planet → moon
// shape of the system.
var ErrHierarchy = errors.New("invalid body hierarchy")

// BodyKind distinguishes the three levels of the hierarchy.
type BodyKind uint8

const (
	KindSun BodyKind = iota
	KindPlanet
	KindMoon
)

// String returns the lowercase kind name used in snapshots and descriptions.
func (k BodyKind) String() string {
	switch k {
	case KindSun:
		return "sun"
	case KindPlanet:
		return "planet"
	case KindMoon:
		return "moon"
	default:
		return "unknown"
	}
}

// Orbit is a circular orbit around the parent body's current position.
type Orbit struct {
	Radius     float64 `json:"radius"`     // Semi-major axis (world units)
	Period     float64 `json:"period"`     // Sim-seconds per revolution; 0 = fixed
	Phase      float64 `json:"phase"`      // Angle at t=0 (radians)
	Retrograde bool    `json:"retrograde"` // Clockwise when true
}

// Angle returns the orbital angle at time t. The revolution count is reduced
// modulo 1 before scaling so the trig arguments stay bounded for any t.
func (o Orbit) Angle(t float64) float64 {
	if o.Period <= 0 {
		return o.Phase
	}
	_, frac := math.Modf(t / o.Period)
	theta := 2 * math.Pi * frac
	if o.Retrograde {
		theta = -theta
	}
	return o.Phase + theta
}

// Offset returns the body's displacement from its parent at time t.
func (o Orbit) Offset(t float64) Vec2 {
	return Polar(o.Radius, o.Angle(t))
}

// angularVelocity returns dθ/dt, signed by direction.
func (o Orbit) angularVelocity() float64 {
	if o.Period <= 0 {
		return 0
	}
	w := 2 * math.Pi / o.Period
	if o.Retrograde {
		return -w
	}
	return w
}

// Body is a sun, planet, or moon. Moons hold a pointer to their planet, not
// a copy of its position, so they track it at every t.
type Body struct {
	ID     BodyID   `json:"id"`
	Name   string   `json:"name"`
	Kind   BodyKind `json:"kind"`
	Radius float64  `json:"radius"` // Physical radius; contact distance for landing
	Orbit  Orbit    `json:"orbit"`
	Ore    int      `json:"ore"` // Initial ore reserve; 0 for barren bodies

	Parent *Body   `json:"-"`
	Moons  []*Body `json:"-"` // Planets for the sun, moons for a planet
}

// NewSun creates the root body. The sun never moves.
func NewSun(name string, radius float64) *Body {
	return &Body{Name: name, Kind: KindSun, Radius: radius}
}

// NewPlanet creates a detached planet. Attach its moons first, then attach
// it to the sun.
func NewPlanet(name string, radius float64, orbit Orbit) *Body {
	return &Body{Name: name, Kind: KindPlanet, Radius: radius, Orbit: orbit}
}

// NewMoon creates a detached moon.
func NewMoon(name string, radius float64, orbit Orbit) *Body {
	return &Body{Name: name, Kind: KindMoon, Radius: radius, Orbit: orbit}
}

// Attach makes child orbit b. Only planets may orbit the sun and only moons
// may orbit a planet.
func (b *Body) Attach(child *Body) error {
	if child == nil || child == b {
		return fmt.Errorf("attach to %q: %w", b.Name, ErrHierarchy)
	}
	if child.Parent != nil {
		return fmt.Errorf("attach %q: already orbits %q: %w", child.Name, child.Parent.Name, ErrHierarchy)
	}
	switch {
	case b.Kind == KindSun && child.Kind == KindPlanet:
	case b.Kind == KindPlanet && child.Kind == KindMoon:
	default:
		return fmt.Errorf("attach %s %q to %s %q: %w", child.Kind, child.Name, b.Kind, b.Name, ErrHierarchy)
	}
	child.Parent = b
	b.Moons = append(b.Moons, child)
	return nil
}

// Position returns the body's position at time t. The sun sits at the origin.
func (b *Body) Position(t float64) Vec2 {
	if b.Parent == nil {
		return Vec2{}
	}
	return b.Parent.Position(t).Add(b.Orbit.Offset(t))
}

// Velocity returns the analytic derivative of Position at time t.
func (b *Body) Velocity(t float64) Vec2 {
	if b.Parent == nil {
		return Vec2{}
	}
	theta := b.Orbit.Angle(t)
	w := b.Orbit.angularVelocity()
	own := Vec2{-math.Sin(theta), math.Cos(theta)}.Scale(w * b.Orbit.Radius)
	return b.Parent.Velocity(t).Add(own)
}

// Extent returns the radius of the smallest circle around b that contains b
// and every body orbiting it.
func (b *Body) Extent() float64 {
	r := b.Radius
	for _, m := range b.Moons {
		if e := m.Orbit.Radius + m.Extent(); e > r {
			r = e
		}
	}
	return r
}
