// Package api provides the HTTP API for observing and steering the kingdom.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/engine"
	"github.com/talgya/kingdom-sim/internal/persistence"
	"github.com/talgya/kingdom-sim/internal/social"
)

const maxTicksPerRequest = 1000

// Server serves the kingdom over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine  // nil when nothing paces the simulation
	DB       *persistence.DB // nil when no ledger is configured
	Hub      *Hub            // nil disables /stream
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// BuildLimiter throttles build commands per client.
	BuildLimiter *RateLimiter
}

// BuildRequest is the body of POST /api/v1/build.
type BuildRequest struct {
	Settlement string `json:"settlement"`
	Building   string `json:"building"`
}

// BuildResponse reports the outcome of a build command.
type BuildResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Handler returns the full route table wrapped in CORS.
func (s *Server) Handler() http.Handler {
	if s.BuildLimiter == nil {
		s.BuildLimiter = NewRateLimiter(30, time.Minute)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", getOnly(s.handleStatus))
	mux.HandleFunc("/api/v1/snapshot", getOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/settlements", getOnly(s.handleSettlements))
	mux.HandleFunc("/api/v1/settlement/", getOnly(s.handleSettlementDetail))
	mux.HandleFunc("/api/v1/carts", getOnly(s.handleCarts))
	mux.HandleFunc("/api/v1/events", getOnly(s.handleEvents))
	mux.HandleFunc("/api/v1/achievements", getOnly(s.handleAchievements))
	mux.HandleFunc("/api/v1/buildings", getOnly(s.handleBuildings))
	mux.HandleFunc("/api/v1/stats/history", getOnly(s.handleStatsHistory))
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/build", s.adminOnly(RateLimitMiddleware(s.BuildLimiter, s.handleBuild)))
	mux.HandleFunc("/api/v1/tick", s.adminOnly(s.handleTick))
	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine and returns the server
// so the caller can shut it down.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "ledger", s.DB != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
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

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires POST with a valid bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no KINGDOM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) speed() (float64, bool) {
	if s.Eng == nil {
		return 0, false
	}
	return s.Eng.Speed(), s.Eng.Running()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	speed, running := s.speed()
	writeJSON(w, map[string]any{
		"name":        s.Sim.Config().Name,
		"tick":        snap.Tick,
		"phase":       snap.Phase,
		"calendar":    snap.Calendar,
		"paused":      snap.Paused,
		"speed":       speed,
		"running":     running,
		"seed":        s.Sim.Seed(),
		"settlements": len(snap.Settlements),
		"stats":       snap.Stats,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot())
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	type settlementSummary struct {
		ID             uint64  `json:"id"`
		Name           string  `json:"name"`
		X              float64 `json:"x"`
		Y              float64 `json:"y"`
		Population     int     `json:"population"`
		Happiness      int     `json:"happiness"`
		Sustainability int     `json:"sustainability"`
		Starving       bool    `json:"starving"`
		ActiveEvents   int     `json:"active_events"`
	}

	snap := s.Sim.Snapshot()
	out := make([]settlementSummary, 0, len(snap.Settlements))
	for _, v := range snap.Settlements {
		out = append(out, settlementSummary{
			ID:             v.ID,
			Name:           v.Name,
			X:              v.Position.X,
			Y:              v.Position.Y,
			Population:     v.Population,
			Happiness:      v.Happiness,
			Sustainability: v.Sustainability,
			Starving:       v.Starving,
			ActiveEvents:   len(v.ActiveEvents),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleSettlementDetail(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/settlement/")
	if name == "" {
		http.Error(w, "settlement name required", http.StatusBadRequest)
		return
	}
	view, ok := s.Sim.Settlement(name)
	if !ok {
		http.Error(w, "settlement not found", http.StatusNotFound)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleCarts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot().Carts)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, engine.MaxEvents)
	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, s.Sim.RecentEvents(limit))
		return
	}
	// Filter the whole log first so limit counts matching events only.
	all := s.Sim.RecentEvents(0)
	filtered := make([]engine.Event, 0, limit)
	for _, e := range all {
		if e.Category == category {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	writeJSON(w, filtered)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot().Achievements)
}

// handleBuildings lists the building catalog with costs and effects.
func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Config().Buildings)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	rows, err := s.DB.StatsHistory(queryLimit(r, 100, 10000))
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		writeJSON(w, []persistence.StatsRow{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	s.Hub.ServeHTTP(w, r)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	err := s.Sim.TryBuild(req.Settlement, economy.BuildingKind(req.Building))
	if err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, engine.ErrUnknownSettlement), errors.Is(err, engine.ErrUnknownBuilding):
			status = http.StatusNotFound
		case errors.Is(err, social.ErrAlreadyBuilt), errors.Is(err, social.ErrInsufficientResources):
			status = http.StatusConflict
		}
		writeJSONStatus(w, status, BuildResponse{Success: false, Reason: err.Error()})
		return
	}
	slog.Info("build command", "settlement", req.Settlement, "building", req.Building, "remote", clientIP(r))
	writeJSON(w, BuildResponse{Success: true})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if req.Count < 1 || req.Count > maxTicksPerRequest {
		http.Error(w, fmt.Sprintf("count must be 1-%d", maxTicksPerRequest), http.StatusBadRequest)
		return
	}

	var last engine.TickReport
	for i := 0; i < req.Count; i++ {
		last = s.Sim.AdvanceTick()
	}
	slog.Info("manual ticks", "count", req.Count, "tick", last.Tick)
	writeJSON(w, map[string]any{"tick": last.Tick, "stats": last.Stats})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.Sim.SetPaused(req.Paused)
	writeJSON(w, map[string]bool{"paused": s.Sim.IsPaused()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Sim.Reset()
	if s.Hub != nil {
		s.Hub.Broadcast()
	}
	writeJSON(w, map[string]any{"tick": s.Sim.CurrentTick(), "digest": s.Sim.Digest()})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "no pacer running", http.StatusServiceUnavailable)
		return
	}
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
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// queryLimit parses ?limit=, falling back to def and capping at max.
func queryLimit(r *http.Request, def, max int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			if v > max {
				return max
			}
			return v
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
