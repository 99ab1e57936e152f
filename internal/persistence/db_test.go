package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/orrery/internal/engine"
	"github.com/talgya/orrery/internal/world"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSim(t *testing.T) *engine.Simulation {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Seed = 4
	cfg.Fleet = world.FleetDesc{Miners: 3, Traders: 3, Pirates: 1}
	g, err := world.Build(world.Generate(cfg))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return engine.NewSimulation(g)
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTemp(t)
	sim := testSim(t)
	for i := 0; i < 25; i++ {
		sim.Step()
	}

	run, err := db.StartRun(4, []byte("seed: 4"))
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	want := sim.Snapshot()
	if err := db.SaveSnapshot(run, want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := db.LoadSnapshot(run, want.Tick)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Digest != want.Digest || got.Tick != want.Tick || len(got.Ships) != len(want.Ships) {
		t.Fatalf("loaded tick %d digest %s, want tick %d digest %s", got.Tick, got.Digest, want.Tick, want.Digest)
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run || runs[0].LastTick != want.Tick || runs[0].Seed != 4 {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestCorruptSnapshotDetected(t *testing.T) {
	db := openTemp(t)
	sim := testSim(t)
	sim.Step()
	run, _ := db.StartRun(4, nil)

	snap := *sim.Snapshot()
	snap.Digest = "not-the-digest"
	if err := db.SaveSnapshot(run, &snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if _, err := db.LoadSnapshot(run, snap.Tick); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("LoadSnapshot error = %v, want ErrCorrupt", err)
	}
}

func TestEventsJournal(t *testing.T) {
	db := openTemp(t)
	run, _ := db.StartRun(1, nil)
	other, _ := db.StartRun(2, nil)

	events := []engine.Event{
		{Tick: 1, Category: "trade", Ship: 3, Target: 0, Qty: 20, Description: "delivered"},
		{Tick: 2, Category: "piracy", Ship: 7, Target: 3, Qty: 20, Description: "seized"},
		{Tick: 5, Category: "destruction", Ship: 7, Target: 4, Qty: 0, Description: "destroyed"},
	}
	if err := db.SaveEvents(run, events); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	if err := db.SaveEvents(other, events[:1]); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}

	got, err := db.RecentEvents(run, 2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 2 || got[0].Tick != 5 || got[1].Tick != 2 {
		t.Fatalf("recent = %+v", got)
	}
	if got[1].Ship != 7 || got[1].Target != 3 || got[1].Qty != 20 || got[1].Category != "piracy" {
		t.Fatalf("event fields lost: %+v", got[1])
	}

	if err := db.SaveEvents(run, nil); err != nil {
		t.Fatalf("SaveEvents(nil): %v", err)
	}
}

func TestArchiveDrainsEvents(t *testing.T) {
	db := openTemp(t)
	sim := testSim(t)
	run, _ := db.StartRun(4, nil)

	for i := 0; i < 3; i++ {
		for j := 0; j < 40; j++ {
			sim.Step()
		}
		if err := db.Archive(run, sim); err != nil {
			t.Fatalf("Archive: %v", err)
		}
	}
	if n := len(sim.DrainEvents()); n != 0 {
		t.Fatalf("%d events left undrained", n)
	}
	ticks, err := db.SnapshotTicks(run)
	if err != nil {
		t.Fatalf("SnapshotTicks: %v", err)
	}
	if len(ticks) != 3 || ticks[0] != 40 || ticks[2] != 120 {
		t.Fatalf("ticks = %v", ticks)
	}
}

func TestArchiveKeepsEventsOnFailure(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sim := testSim(t)
	run, _ := db.StartRun(4, nil)

	for i := 0; i < 2000 && len(sim.RecentEvents(0)) == 0; i++ {
		sim.Step()
	}
	want := len(sim.RecentEvents(0))
	if want == 0 {
		t.Fatal("no events recorded")
	}

	db.Close()
	if err := db.Archive(run, sim); err == nil {
		t.Fatal("Archive on a closed database succeeded")
	}
	if got := len(sim.DrainEvents()); got != want {
		t.Fatalf("%d events queued after failed archive, want %d", got, want)
	}
}

func TestMeta(t *testing.T) {
	db := openTemp(t)
	if err := db.SaveMeta("last_run", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("last_run", "b"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta("last_run")
	if err != nil || v != "b" {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
}
