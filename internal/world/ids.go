package world

// BodyID identifies a celestial body. IDs are assigned by NewSystem in
// depth-first order starting with the sun at 0.
type BodyID uint32

// StationID identifies a station.
type StationID uint32

// ShipID identifies a ship. Lower IDs step first within a tick.
type ShipID uint32
