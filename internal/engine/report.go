package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/orrery/internal/fleet"
)

// Stats tracks aggregate world statistics.
type Stats struct {
	Miners  int `json:"miners"`
	Traders int `json:"traders"`
	Pirates int `json:"pirates"`

	Mined     int `json:"mined"`     // Ore deposited by miners
	Delivered int `json:"delivered"` // Ore delivered by traders
	Jams      int `json:"jams"`
	Raids     int `json:"raids"`
	Seized    int `json:"seized"`
	Fenced    int `json:"fenced"` // Stolen ore sold back to stations
	Destroyed int `json:"destroyed"` // Traders lost
}

func (s *Simulation) updateStats() {
	s.Stats.Miners, s.Stats.Traders, s.Stats.Pirates = 0, 0, 0
	for _, sh := range s.Ships.Ordered() {
		switch sh.Variant {
		case fleet.VariantMiner:
			s.Stats.Miners++
		case fleet.VariantTrader:
			s.Stats.Traders++
		case fleet.VariantPirate:
			s.Stats.Pirates++
		}
	}
}

// Report logs a periodic summary of the world.
func (s *Simulation) Report() {
	t := s.Ledger.Total()
	slog.Info("world report",
		"tick", s.Tick,
		"time", humanize.FormatFloat("#,###.##", s.Time()),
		"miners", s.Stats.Miners,
		"traders", s.Stats.Traders,
		"pirates", s.Stats.Pirates,
		"ore_stations", humanize.Comma(int64(t.Stations)),
		"ore_holds", humanize.Comma(int64(t.Holds)),
		"ore_reserves", humanize.Comma(int64(t.Reserves)),
		"mined", humanize.Comma(int64(s.Stats.Mined)),
		"delivered", humanize.Comma(int64(s.Stats.Delivered)),
		"jams", s.Stats.Jams,
		"raids", s.Stats.Raids,
		"seized", humanize.Comma(int64(s.Stats.Seized)),
		"fenced", humanize.Comma(int64(s.Stats.Fenced)),
		"traders_lost", s.Stats.Destroyed,
		"ore_destroyed", humanize.Comma(int64(s.destroyed)),
	)

	for _, e := range s.RecentEvents(10) {
		if e.Category == "piracy" || e.Category == "destruction" {
			slog.Info("event", "category", e.Category, "description", e.Description)
		}
	}
}
