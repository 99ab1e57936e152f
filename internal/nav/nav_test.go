package nav

import (
	"math"
	"testing"

	"github.com/talgya/orrery/internal/world"
)

func TestNearest(t *testing.T) {
	cands := []Candidate{
		{ID: 4, Pos: world.Vec2{X: 1}},
		{ID: 2, Pos: world.Vec2{X: -1}},
		{ID: 7, Pos: world.Vec2{Y: 0.5}},
		{ID: 1, Pos: world.Vec2{X: 3}},
	}
	cases := []struct {
		name   string
		from   world.Vec2
		keep   func(Candidate) bool
		wantID uint32
		wantOK bool
	}{
		{"closest", world.Vec2{}, nil, 7, true},
		{"tie breaks low id", world.Vec2{}, func(c Candidate) bool { return c.ID != 7 }, 2, true},
		{"predicate filters", world.Vec2{X: 1}, func(c Candidate) bool { return c.ID < 3 }, 1, true},
		{"none qualify", world.Vec2{}, func(Candidate) bool { return false }, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Nearest(tc.from, cands, tc.keep)
			if ok != tc.wantOK || (ok && got.ID != tc.wantID) {
				t.Fatalf("Nearest = (%d, %v), want (%d, %v)", got.ID, ok, tc.wantID, tc.wantOK)
			}
		})
	}
	if _, ok := Nearest(world.Vec2{}, nil, nil); ok {
		t.Fatalf("Nearest over no candidates found one")
	}
}

func TestSteerRespectsLimits(t *testing.T) {
	m := &Motion{MaxSpeed: 0.1, MaxAccel: 0.3, ArriveGain: 3}
	dt := 0.05
	target := world.Vec2{X: 5}
	prev := m.Vel
	for i := 0; i < 200; i++ {
		SteerToward(m, target, dt)
		if dv := m.Vel.Sub(prev).Len(); dv > m.MaxAccel*dt+1e-12 {
			t.Fatalf("tick %d: Δv %v exceeds accel cap", i, dv)
		}
		if s := m.Speed(); s > m.MaxSpeed+1e-12 {
			t.Fatalf("tick %d: speed %v exceeds cap", i, s)
		}
		prev = m.Vel
		Integrate(m, dt)
	}
	if m.Pos.X <= 0.5 {
		t.Fatalf("ship made no progress: %v", m.Pos)
	}
}

func TestSteerArrives(t *testing.T) {
	m := &Motion{Pos: world.Vec2{X: -1, Y: 0.5}, MaxSpeed: 0.12, MaxAccel: 0.3, ArriveGain: 3}
	target := world.Vec2{X: 0.3, Y: -0.2}
	for i := 0; i < 2000; i++ {
		if HasArrived(m.Pos, target, 0.04) {
			return
		}
		SteerToward(m, target, 0.05)
		Integrate(m, 0.05)
	}
	t.Fatalf("never arrived: at %v", m.Pos)
}

func TestCoastingHullKeepsSpeed(t *testing.T) {
	m := &Motion{Vel: world.Vec2{X: 0.06}, MaxSpeed: 0.06, TurnRate: 4}
	speed := m.Speed()
	targets := []world.Vec2{{X: -1}, {Y: 1}, {X: 0.3, Y: -2}, {}}
	for i := 0; i < 400; i++ {
		SteerToward(m, targets[i/100], 0.05)
		Integrate(m, 0.05)
		if math.Abs(m.Speed()-speed) > 1e-12 {
			t.Fatalf("tick %d: speed %v, want %v", i, m.Speed(), speed)
		}
	}
}

func TestCoastingHullTurnRateCap(t *testing.T) {
	m := &Motion{Vel: world.Vec2{X: 1}, MaxSpeed: 1, TurnRate: 2}
	SteerToward(m, world.Vec2{X: -10, Y: 0.001}, 0.1)
	if got := math.Abs(m.Vel.Angle()); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("turned %v rad, want 0.2", got)
	}
}

func TestJamKillsEngineAndDecays(t *testing.T) {
	m := &Motion{Vel: world.Vec2{X: 0.1}, MaxSpeed: 0.12, MaxAccel: 0.3, ArriveGain: 3}
	Jam(m, 50, 0.9)
	if m.Accel() != 0 {
		t.Fatalf("jammed accel = %v", m.Accel())
	}
	target := world.Vec2{X: -3}
	speed := m.Speed()
	for i := 0; i < 50; i++ {
		before := m.Pos
		SteerToward(m, target, 0.05)
		Integrate(m, 0.05)
		if m.Speed() > speed+1e-15 {
			t.Fatalf("tick %d: jammed ship sped up", i)
		}
		// Only residual, decaying velocity moves it.
		if step := m.Pos.Dist(before); math.Abs(step-m.Speed()*0.05) > 1e-12 {
			t.Fatalf("tick %d: moved %v with speed %v", i, step, m.Speed())
		}
		speed = m.Speed()
	}
	if m.Jammed() {
		t.Fatalf("jam did not expire")
	}
	if !(m.Speed() < 0.001) {
		t.Fatalf("residual speed %v after decay", m.Speed())
	}

	Jam(m, 10, 0.9)
	Jam(m, 3, 0.9)
	if m.JamTicks != 10 {
		t.Fatalf("re-jam shortened duration to %d", m.JamTicks)
	}
	if !m.Immobile(0.001) {
		t.Fatalf("stopped jammed ship not immobile")
	}
}

func TestWrap(t *testing.T) {
	for _, a := range []float64{0, 1, -1, 3 * math.Pi, -3 * math.Pi, 7} {
		w := wrap(a)
		if w < -math.Pi || w > math.Pi {
			t.Fatalf("wrap(%v) = %v", a, w)
		}
		if math.Abs(math.Sin(w)-math.Sin(a)) > 1e-9 || math.Abs(math.Cos(w)-math.Cos(a)) > 1e-9 {
			t.Fatalf("wrap(%v) changed direction", a)
		}
	}
}
