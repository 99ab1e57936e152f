package world

import "fmt"

// System is a fully assembled body hierarchy rooted at the sun.
type System struct {
	Sun    *Body
	Bodies []*Body // Indexed by BodyID
}

// NewSystem indexes an assembled hierarchy, assigning IDs depth-first: the
// sun, then each planet followed by its moons, in attachment order.
func NewSystem(sun *Body) (*System, error) {
	if sun == nil || sun.Kind != KindSun {
		return nil, fmt.Errorf("system root must be a sun: %w", ErrHierarchy)
	}
	s := &System{Sun: sun}
	s.index(sun)
	return s, nil
}

func (s *System) index(b *Body) {
	b.ID = BodyID(len(s.Bodies))
	s.Bodies = append(s.Bodies, b)
	for _, m := range b.Moons {
		s.index(m)
	}
}

// Body returns the body with the given ID.
func (s *System) Body(id BodyID) (*Body, bool) {
	if int(id) >= len(s.Bodies) {
		return nil, false
	}
	return s.Bodies[id], true
}

// Positions returns every body's position at time t, indexed by BodyID.
func (s *System) Positions(t float64) []Vec2 {
	out := make([]Vec2, len(s.Bodies))
	for i, b := range s.Bodies {
		if b.Parent == nil {
			continue
		}
		// Parents always precede children in ID order.
		out[i] = out[b.Parent.ID].Add(b.Orbit.Offset(t))
	}
	return out
}

// Radius returns the extent of the whole system.
func (s *System) Radius() float64 {
	return s.Sun.Extent()
}
