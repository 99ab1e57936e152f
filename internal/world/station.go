package world

// Station is a depot fixed to a planet or moon. It has no motion of its
// own; its position is its host body's position.
type Station struct {
	ID   StationID `json:"id"`
	Name string    `json:"name"`
	Body *Body     `json:"-"`
	Ore  int       `json:"ore"` // Initial inventory
}

// Position returns the station position at time t.
func (s *Station) Position(t float64) Vec2 {
	return s.Body.Position(t)
}

// Velocity returns the station velocity at time t.
func (s *Station) Velocity(t float64) Vec2 {
	return s.Body.Velocity(t)
}
