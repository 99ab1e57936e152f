// Package api provides the HTTP API for observing a running world.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/orrery/internal/engine"
	"github.com/talgya/orrery/internal/persistence"
)

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional archive; nil disables archive queries
	RunID    string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	Hub     *Hub
	Limiter *RateLimiter

	srv *http.Server
}

// NewServer creates a server with a running stream hub and the default
// per-IP limit.
func NewServer(sim *engine.Simulation, eng *engine.Engine, port int) *Server {
	s := &Server{
		Sim:     sim,
		Eng:     eng,
		Port:    port,
		Hub:     NewHub(),
		Limiter: NewRateLimiter(10, 20),
	}
	go s.Hub.Run()
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/v1/bodies", s.handleBodies)
	mux.HandleFunc("/api/v1/ships", s.handleShips)
	mux.HandleFunc("/api/v1/stations", s.handleStations)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)

	// Snapshot stream (WebSocket).
	mux.HandleFunc("/api/v1/stream", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.Hub, w, r)
	})

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(RateLimitMiddleware(s.Limiter, mux))
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the listener and disconnects stream subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Hub.Close()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Publish pushes the latest snapshot to stream subscribers.
func (s *Server) Publish() {
	if s.Hub.Subscribers() == 0 {
		return
	}
	raw, err := json.Marshal(Message{Type: "snapshot", Payload: s.Sim.Snapshot()})
	if err != nil {
		slog.Warn("encode stream frame", "error", err)
		return
	}
	s.Hub.Broadcast(raw)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ORRERY_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	status := map[string]any{
		"name":        "Orrery",
		"run":         s.RunID,
		"seed":        s.Sim.Galaxy.Seed,
		"tick":        snap.Tick,
		"time":        snap.Time,
		"speed":       s.Eng.Speed(),
		"running":     s.Eng.Running(),
		"bodies":      len(snap.Bodies),
		"stations":    len(snap.Stations),
		"ships":       len(snap.Ships),
		"totals":      snap.Totals,
		"stats":       snap.Stats,
		"digest":      snap.Digest,
		"subscribers": s.Hub.Subscribers(),
	}
	writeJSON(w, status)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot())
}

func (s *Server) handleBodies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot().Bodies)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot().Stations)
}

// handleShips lists ships, optionally filtered by ?variant= and ?state=.
func (s *Server) handleShips(w http.ResponseWriter, r *http.Request) {
	variant := r.URL.Query().Get("variant")
	state := r.URL.Query().Get("state")

	out := make([]engine.ShipView, 0)
	for _, sh := range s.Sim.Snapshot().Ships {
		if variant != "" && sh.Variant != variant {
			continue
		}
		if state != "" && sh.State != state {
			continue
		}
		out = append(out, sh)
	}
	writeJSON(w, out)
}

// handleEvents returns recent events, newest last. ?source=archive reads the
// run journal instead of memory (newest first); ?category= filters.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "limit must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = n
	}
	category := r.URL.Query().Get("category")

	var events []engine.Event
	if r.URL.Query().Get("source") == "archive" {
		if s.DB == nil {
			http.Error(w, "archive disabled", http.StatusNotFound)
			return
		}
		var err error
		events, err = s.DB.RecentEvents(s.RunID, limit)
		if err != nil {
			slog.Warn("archive query failed", "error", err)
			http.Error(w, "archive query failed", http.StatusInternalServerError)
			return
		}
	} else {
		events = s.Sim.RecentEvents(0)
	}

	out := make([]engine.Event, 0, limit)
	for _, e := range events {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	writeJSON(w, out)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	runs, err := s.DB.Runs()
	if err != nil {
		http.Error(w, "archive query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
