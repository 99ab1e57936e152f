// Package persistence provides the SQLite observer archive: an append-only
// event journal and periodic compressed snapshots for each run. The
// archive is write-mostly; a running world is never restored from it.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/orrery/internal/engine"
)

// ErrCorrupt reports a stored snapshot whose content no longer matches its
// digest.
var ErrCorrupt = errors.New("archived snapshot is corrupt")

// DB wraps a SQLite connection for the run archive.
type DB struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Run is one archived simulation run.
type Run struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	StartedAt string `db:"started_at" json:"started_at"`
	LastTick  uint64 `db:"last_tick" json:"last_tick"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.enc.Close()
	db.dec.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		last_tick INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		category TEXT NOT NULL,
		ship INTEGER NOT NULL,
		target INTEGER NOT NULL,
		qty INTEGER NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		digest TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun registers a new run and returns its ID. description is the
// world description the run was built from, kept for reference.
func (db *DB) StartRun(seed int64, description []byte) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, started_at, description) VALUES (?, ?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339), string(description),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// Runs lists archived runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT id, seed, started_at, last_tick FROM runs ORDER BY started_at DESC, rowid DESC")
	return runs, err
}

// SaveEvents appends events to a run's journal.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, tick, category, ship, target, qty, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Tick, e.Category, e.Ship, e.Target, e.Qty, e.Description); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns a run's most recent events, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		`SELECT tick, category, ship, target, qty, description FROM events
		 WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	return events, err
}

// SaveSnapshot stores a zstd-compressed snapshot and advances the run's
// last tick.
func (db *DB) SaveSnapshot(runID string, snap *engine.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	payload := db.enc.EncodeAll(raw, nil)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO snapshots (run_id, tick, digest, payload) VALUES (?, ?, ?, ?)",
		runID, snap.Tick, snap.Digest, payload,
	); err != nil {
		return fmt.Errorf("insert snapshot at tick %d: %w", snap.Tick, err)
	}
	if _, err := tx.Exec("UPDATE runs SET last_tick = ? WHERE id = ?", snap.Tick, runID); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return tx.Commit()
}

// LoadSnapshot reads back an archived snapshot and verifies its digest.
func (db *DB) LoadSnapshot(runID string, tick uint64) (*engine.Snapshot, error) {
	var row struct {
		Digest  string `db:"digest"`
		Payload []byte `db:"payload"`
	}
	if err := db.conn.Get(&row,
		"SELECT digest, payload FROM snapshots WHERE run_id = ? AND tick = ?", runID, tick,
	); err != nil {
		return nil, fmt.Errorf("load snapshot at tick %d: %w", tick, err)
	}

	raw, err := db.dec.DecodeAll(row.Payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if engine.Digest(&snap) != row.Digest {
		return nil, fmt.Errorf("tick %d: %w", tick, ErrCorrupt)
	}
	return &snap, nil
}

// SnapshotTicks lists the ticks archived for a run in ascending order.
func (db *DB) SnapshotTicks(runID string) ([]uint64, error) {
	var ticks []uint64
	err := db.conn.Select(&ticks, "SELECT tick FROM snapshots WHERE run_id = ? ORDER BY tick", runID)
	return ticks, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// Archive drains the simulation's pending events and stores its current
// snapshot. Events that fail to write go back on the queue.
func (db *DB) Archive(runID string, sim *engine.Simulation) error {
	events := sim.DrainEvents()
	if err := db.SaveEvents(runID, events); err != nil {
		sim.RequeueEvents(events)
		return fmt.Errorf("save events: %w", err)
	}
	snap := sim.Snapshot()
	if err := db.SaveSnapshot(runID, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.Debug("archived", "run", runID, "tick", snap.Tick, "events", len(events))
	return nil
}
