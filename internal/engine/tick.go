// Package engine provides the tick-based simulation loop and the single
// simulation context every step runs against.
package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Default schedule for the slower layers, in ticks.
const (
	DefaultReportEvery  = 1200 // One minute of sim time at dt 0.05
	DefaultArchiveEvery = 200
	DefaultStreamEvery  = 2
)

// Engine drives the simulation forward.
type Engine struct {
	Interval time.Duration // Wall time per tick at speed 1

	ReportEvery  uint64
	ArchiveEvery uint64

	// Callbacks for each layer, populated during setup.
	OnTick    func(tick uint64) // Every tick
	OnReport  func(tick uint64) // Every ReportEvery ticks
	OnArchive func(tick uint64) // Every ArchiveEvery ticks

	mu      sync.Mutex
	tick    uint64
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running bool
	stop    chan struct{}
}

// NewEngine creates a simulation engine with default settings.
func NewEngine(interval time.Duration) *Engine {
	return &Engine{
		Interval:     interval,
		ReportEvery:  DefaultReportEvery,
		ArchiveEvery: DefaultArchiveEvery,
		speed:        1.0,
	}
}

// Tick returns the number of ticks run so far.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero or less pauses the loop.
func (e *Engine) SetSpeed(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = v
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	for {
		speed := e.Speed()
		if speed <= 0 {
			// Paused: check again shortly.
			select {
			case <-stop:
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		start := time.Now()
		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		wait := time.Duration(float64(e.Interval)/speed) - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-stop:
			return
		case <-time.After(wait):
		}
	}
}

// Stop halts the simulation loop after the current tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.stop)
	slog.Info("simulation engine stopped", "tick", e.tick)
}

// Step advances the schedule by one tick and fires the callbacks due.
func (e *Engine) Step() {
	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if e.ArchiveEvery > 0 && tick%e.ArchiveEvery == 0 && e.OnArchive != nil {
		e.OnArchive(tick)
	}
	if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(tick)
	}
}
