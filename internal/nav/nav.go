// Package nav provides the targeting and steering primitives shared by all
// ship variants.
package nav

import (
	"math"

	"github.com/talgya/orrery/internal/world"
)

// Motion is a ship's kinematic state and hull limits.
type Motion struct {
	Pos     world.Vec2 `json:"pos"`
	Vel     world.Vec2 `json:"vel"`
	Heading float64    `json:"heading"` // Radians, direction of travel

	MaxSpeed   float64 `json:"max_speed"`
	MaxAccel   float64 `json:"max_accel"`   // 0 = coast and turn only
	TurnRate   float64 `json:"turn_rate"`   // Rad/s for hulls that cannot accelerate
	ArriveGain float64 `json:"arrive_gain"` // Desired speed per unit distance when close

	JamTicks int     `json:"jam_ticks,omitempty"` // Ticks of engine kill remaining
	JamDrag  float64 `json:"-"`                   // Velocity retained per jammed tick
}

// Jammed reports whether the engines are currently disabled.
func (m *Motion) Jammed() bool { return m.JamTicks > 0 }

// Immobile reports a jammed ship that has coasted to a near stop.
func (m *Motion) Immobile(threshold float64) bool {
	return m.Jammed() && m.Vel.Len() <= threshold
}

// Accel returns the acceleration available right now.
func (m *Motion) Accel() float64 {
	if m.Jammed() {
		return 0
	}
	return m.MaxAccel
}

// Speed returns the current speed.
func (m *Motion) Speed() float64 { return m.Vel.Len() }

// Jam disables a ship's engines for at least ticks. Re-jamming refreshes
// the duration; it never shortens it.
func Jam(m *Motion, ticks int, drag float64) {
	if ticks > m.JamTicks {
		m.JamTicks = ticks
	}
	m.JamDrag = drag
}

// SteerToward adjusts velocity toward target. Hulls with acceleration fly an
// arrive profile capped by MaxSpeed and MaxAccel. Hulls without it keep their
// speed and only rotate, at most TurnRate*dt per call. Jammed ships cannot
// steer.
func SteerToward(m *Motion, target world.Vec2, dt float64) {
	if m.Jammed() {
		return
	}
	to := target.Sub(m.Pos)

	if m.MaxAccel <= 0 {
		turn(m, to.Angle(), dt)
		return
	}

	speed := math.Min(m.MaxSpeed, to.Len()*m.ArriveGain)
	desired := to.Norm().Scale(speed)
	dv := desired.Sub(m.Vel)
	if limit := m.MaxAccel * dt; dv.Len() > limit {
		dv = dv.Norm().Scale(limit)
	}
	m.Vel = m.Vel.Add(dv)
	if s := m.Vel.Len(); s > m.MaxSpeed {
		m.Vel = m.Vel.Scale(m.MaxSpeed / s)
	}
	if m.Vel.Len() > 0 {
		m.Heading = m.Vel.Angle()
	} else if to.Len() > 0 {
		m.Heading = to.Angle()
	}
}

// turn rotates the velocity vector toward want without changing its length.
func turn(m *Motion, want, dt float64) {
	speed := m.Vel.Len()
	cur := m.Heading
	if speed > 0 {
		cur = m.Vel.Angle()
	}
	diff := wrap(want - cur)
	if limit := m.TurnRate * dt; math.Abs(diff) > limit {
		diff = math.Copysign(limit, diff)
	}
	m.Heading = wrap(cur + diff)
	if speed > 0 {
		m.Vel = world.Polar(speed, m.Heading)
	}
}

// wrap maps an angle into [-π, π].
func wrap(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Integrate advances position by one tick. Jammed ships bleed velocity and
// count down their jam.
func Integrate(m *Motion, dt float64) {
	if m.Jammed() {
		m.Vel = m.Vel.Scale(m.JamDrag)
		m.JamTicks--
	}
	m.Pos = m.Pos.Add(m.Vel.Scale(dt))
}

// Dock pins a ship to a body or station position.
func Dock(m *Motion, at world.Vec2) {
	m.Pos = at
	m.Vel = world.Vec2{}
}

// HasArrived reports whether pos is within radius of target.
func HasArrived(pos, target world.Vec2, radius float64) bool {
	return pos.Dist2(target) <= radius*radius
}

// Candidate is something a ship can target.
type Candidate struct {
	ID  uint32
	Pos world.Vec2
}

// Nearest returns the candidate closest to from that satisfies keep (nil
// keeps all). Equal distances resolve to the lowest ID.
func Nearest(from world.Vec2, cands []Candidate, keep func(Candidate) bool) (Candidate, bool) {
	var best Candidate
	bestD := math.Inf(1)
	found := false
	for _, c := range cands {
		if keep != nil && !keep(c) {
			continue
		}
		d := from.Dist2(c.Pos)
		if d < bestD || (d == bestD && c.ID < best.ID) {
			best, bestD, found = c, d, true
		}
	}
	return best, found
}
