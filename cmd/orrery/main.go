// Command orrery runs the star-system trade and piracy simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/orrery/internal/api"
	"github.com/talgya/orrery/internal/engine"
	"github.com/talgya/orrery/internal/persistence"
	"github.com/talgya/orrery/internal/world"
)

func main() {
	var (
		worldPath = flag.String("world", "", "world description YAML (empty = generate from -seed)")
		seed      = flag.Int64("seed", 42, "seed for procedural generation")
		dbPath    = flag.String("db", "data/orrery.db", "observer archive path (empty = no archive)")
		port      = flag.Int("port", 8080, "HTTP API port (0 = no API)")
		dt        = flag.Float64("dt", 0, "sim seconds per tick (0 = from tuning)")
		speed     = flag.Float64("speed", 1, "speed multiplier (0 = start paused)")
		workers   = flag.Int("workers", 1, "goroutines stepping ships")
		ticks     = flag.Uint64("ticks", 0, "run this many ticks as fast as possible, then exit")
		dump      = flag.String("dump", "", "write the world description to this path and exit")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── World ─────────────────────────────────────────────────────────
	desc, err := loadWorld(*worldPath, *seed)
	if err != nil {
		slog.Error("failed to load world", "error", err)
		os.Exit(1)
	}
	if *dt > 0 {
		desc.Tuning.Dt = *dt
	}
	if err := world.Validate(desc); err != nil {
		slog.Error("invalid world", "error", err)
		os.Exit(1)
	}
	if *dump != "" {
		if err := desc.Save(*dump); err != nil {
			slog.Error("failed to write world", "error", err)
			os.Exit(1)
		}
		slog.Info("world written", "path", *dump)
		return
	}

	galaxy, err := world.Build(desc)
	if err != nil {
		slog.Error("failed to build world", "error", err)
		os.Exit(1)
	}
	slog.Info("world built",
		"seed", galaxy.Seed,
		"bodies", len(galaxy.System.Bodies),
		"stations", len(galaxy.Stations),
		"ore_bodies", len(galaxy.OreBodies()),
		"radius", fmt.Sprintf("%.2f", galaxy.System.Radius()),
	)

	sim := engine.NewSimulation(galaxy)
	sim.Workers = *workers

	// ── Archive ───────────────────────────────────────────────────────
	var db *persistence.DB
	var runID string
	if *dbPath != "" {
		os.MkdirAll(filepath.Dir(*dbPath), 0755)
		db, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		raw, err := desc.Encode()
		if err != nil {
			slog.Warn("run stored without its world description", "error", err)
		}
		runID, err = db.StartRun(galaxy.Seed, raw)
		if err != nil {
			slog.Error("failed to start run", "error", err)
			os.Exit(1)
		}
		if err := db.SaveMeta("last_run", runID); err != nil {
			slog.Warn("save meta failed", "error", err)
		}
		slog.Info("archive opened", "path", *dbPath, "run", runID)
	}

	archive := func() {
		if db == nil {
			return
		}
		if err := db.Archive(runID, sim); err != nil {
			slog.Warn("archive write failed", "tick", sim.Tick, "error", err)
		}
	}

	// ── Headless batch ────────────────────────────────────────────────
	if *ticks > 0 {
		start := time.Now()
		for i := uint64(0); i < *ticks; i++ {
			sim.Step()
			if sim.Tick%engine.DefaultArchiveEvery == 0 {
				archive()
			}
		}
		archive()
		sim.Report()
		slog.Info("batch finished", "ticks", *ticks, "elapsed", time.Since(start).Round(time.Millisecond),
			"digest", sim.Snapshot().Digest)
		return
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(time.Duration(galaxy.Tuning.Dt * float64(time.Second)))
	eng.SetSpeed(*speed)

	var server *api.Server
	eng.OnTick = func(tick uint64) {
		sim.Step()
		if server != nil && tick%engine.DefaultStreamEvery == 0 {
			server.Publish()
		}
	}
	eng.OnArchive = func(uint64) { archive() }
	eng.OnReport = func(uint64) { sim.Report() }

	// ── HTTP API ──────────────────────────────────────────────────────
	if *port > 0 {
		adminKey := os.Getenv("ORRERY_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("ORRERY_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		server = api.NewServer(sim, eng, *port)
		server.DB = db
		server.RunID = runID
		server.AdminKey = adminKey
		server.Start()
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	if *port > 0 {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", *port)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("HTTP shutdown", "error", err)
		}
		cancel()
	}

	slog.Info("final archive...")
	archive()
	sim.Report()
	fmt.Println("Simulation stopped.")
}

// loadWorld reads a description file, or generates one from seed.
func loadWorld(path string, seed int64) (world.Description, error) {
	if path != "" {
		return world.Load(path)
	}
	cfg := world.DefaultGenConfig()
	cfg.Seed = seed
	return world.Generate(cfg), nil
}
