package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// server exposes an Engine to rendering and editing collaborators
type server struct {
	mu     sync.Mutex
	engine *Engine
	cfg    *Config
	log    *zap.Logger
}

func newServer(engine *Engine, cfg *Config, log *zap.Logger) *server {
	return &server{engine: engine, cfg: cfg, log: log}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	mux.HandleFunc("/world", corsMiddleware(s.worldHandler))
	mux.HandleFunc("/obstacles", corsMiddleware(s.obstaclesHandler))
	mux.HandleFunc("/plan", corsMiddleware(s.planHandler))
	mux.HandleFunc("/tick", corsMiddleware(s.tickHandler))
	mux.HandleFunc("/cells", corsMiddleware(s.cellsHandler))
	mux.HandleFunc("/graph", corsMiddleware(s.graphHandler))
	mux.HandleFunc("/paths", corsMiddleware(s.pathsHandler))
	mux.HandleFunc("/sense", corsMiddleware(s.senseHandler))
	mux.HandleFunc("/reset", corsMiddleware(s.resetHandler))
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownAgent):
		return http.StatusNotFound
	case errors.Is(err, ErrPlacement):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidObstacle), errors.Is(err, ErrInvalidResolution):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.engine
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"agents":    len(e.World.Agents),
		"obstacles": len(e.World.Obstacles),
		"running":   e.Running,
		"completed": e.Completed,
		"simTime":   e.SimTime,
	})
}

// GET /world - Full world state
func (s *server) worldHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"world":          s.engine.World,
		"running":        s.engine.Running,
		"completed":      s.engine.Completed,
		"simTime":        s.engine.SimTime,
		"completionTime": s.engine.CompletionTime,
	})
}

// POST /obstacles - Add obstacles; DELETE /obstacles[?index=i] - remove one or all
func (s *server) obstaclesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	world := s.engine.World

	switch r.Method {
	case http.MethodPost:
		var obstacles []Obstacle
		if err := json.NewDecoder(r.Body).Decode(&obstacles); err != nil {
			s.log.Warn("invalid obstacle body", zap.Error(err))
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		for i, obs := range obstacles {
			if err := obs.Validate(); err != nil {
				writeError(w, http.StatusBadRequest, "obstacle "+strconv.Itoa(i)+": "+err.Error())
				return
			}
		}
		for _, obs := range obstacles {
			world.AddObstacle(obs)
		}
		s.log.Info("obstacles added", zap.Int("added", len(obstacles)), zap.Int("total", len(world.Obstacles)))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "total": len(world.Obstacles)})

	case http.MethodDelete:
		if idx := r.URL.Query().Get("index"); idx != "" {
			i, err := strconv.Atoi(idx)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid index")
				return
			}
			if err := world.RemoveObstacle(i); err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
		} else {
			world.ClearObstacles()
		}
		s.log.Info("obstacles removed", zap.Int("total", len(world.Obstacles)))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "total": len(world.Obstacles)})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// PlanRequest optionally pins targets per agent id before planning
type PlanRequest struct {
	Targets map[int]Point `json:"targets,omitempty"`
}

// POST /plan - Assign paths to every agent and start the run
func (s *server) planHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req PlanRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, target := range req.Targets {
		a, err := s.engine.World.Agent(id)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		t := target
		a.Target = &t
	}

	start := time.Now()
	outcomes, err := s.engine.Start(r.Context())
	if err != nil {
		s.log.Error("planning failed", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.log.Info("paths assigned", zap.Int("agents", len(outcomes)), zap.Duration("elapsed", time.Since(start)))
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "outcomes": outcomes})
}

// TickRequest advances the clock by Steps ticks of Dt seconds each
type TickRequest struct {
	Dt    float64 `json:"dt"`
	Steps int     `json:"steps"`
}

// POST /tick - Advance the simulation
func (s *server) tickHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req TickRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Dt <= 0 {
		req.Dt = s.cfg.Motion.TickRate.Seconds()
	}
	if req.Steps <= 0 {
		req.Steps = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < req.Steps && s.engine.Running; i++ {
		s.engine.Advance(req.Dt)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents":    s.engine.World.Agents,
		"running":   s.engine.Running,
		"completed": s.engine.Completed,
		"simTime":   s.engine.SimTime,
	})
}

// radiusParam reads ?radius=, defaulting to the configured agent radius
func (s *server) radiusParam(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("radius")
	if raw == "" {
		return s.cfg.Agent.Radius, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// GET /cells[?radius=r&format=geojson] - Fresh partition of the world
func (s *server) cellsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	radius, err := s.radiusParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid radius")
		return
	}

	s.mu.Lock()
	cells, err := s.engine.Cells(radius)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		writeJSON(w, http.StatusOK, CellsFeatureCollection(cells))
		return
	}
	free := 0
	for _, c := range cells {
		if c.Free {
			free++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"cells":    cells,
		"numCells": len(cells),
		"numFree":  free,
	})
}

// GET /graph[?radius=r] - Adjacency of free cells as GeoJSON line strings
func (s *server) graphHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	radius, err := s.radiusParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid radius")
		return
	}

	s.mu.Lock()
	cells, err := s.engine.Cells(radius)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GraphFeatureCollection(NewCellGraph(cells)))
}

// GET /paths - Agent positions and paths as GeoJSON
func (s *server) pathsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, PathsFeatureCollection(s.engine.World.Agents))
}

// SenseRequest casts one ray at Heading, or the configured fan when Heading is absent
type SenseRequest struct {
	AgentID int      `json:"agentId"`
	Heading *float64 `json:"heading,omitempty"`
}

// POST /sense - Ray casts from an agent
func (s *server) senseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req SenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Heading != nil {
		a, err := s.engine.World.Agent(req.AgentID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		res := a.Sense(*req.Heading, s.engine.World, s.cfg.Sensor.MaxRange)
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": []SenseResult{res}})
		return
	}

	results, err := s.engine.Scan(req.AgentID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// POST /reset - Stop the run and respawn agents, optionally clearing obstacles
func (s *server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		ClearObstacles bool `json:"clearObstacles"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Reset(req.ClearObstacles); err != nil {
		s.log.Error("reset failed", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "agents": len(s.engine.World.Agents)})
}

// run advances the engine on every tick until ctx is done
func (s *server) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Motion.TickRate)
	defer ticker.Stop()
	dt := s.cfg.Motion.TickRate.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.engine.Advance(dt)
			s.mu.Unlock()
		}
	}
}

// simulate runs a headless session for at most steps ticks
func simulate(ctx context.Context, e *Engine, cfg *Config, steps int, log *zap.Logger) error {
	if _, err := e.Start(ctx); err != nil {
		return err
	}
	dt := cfg.Motion.TickRate.Seconds()
	for i := 0; i < steps && e.Running; i++ {
		e.Advance(dt)
	}
	if !e.Completed {
		log.Warn("run did not complete", zap.Int("ticks", steps), zap.Float64("simTime", e.SimTime))
		return nil
	}
	log.Info("run summary", zap.Float64("completionTime", e.CompletionTime))
	return nil
}

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	steps := flag.Int("simulate", 0, "run headless for this many ticks instead of serving")
	savePath := flag.String("save", "", "write the final world snapshot to this file (headless only)")
	loadPath := flag.String("load", "", "start from a world snapshot written by -save")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(1)
		}
		cfg = loaded
	}
	if *loadPath != "" {
		cfg.World.Snapshot = *loadPath
		cfg.World.Scenario = ""
	}

	log, err := NewLogger(cfg.Logging)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	engine, err := NewEngine(cfg, log)
	if err != nil {
		log.Fatal("world setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *steps > 0 {
		if err := simulate(ctx, engine, cfg, *steps, log); err != nil {
			log.Fatal("simulation failed", zap.Error(err))
		}
		if *savePath != "" {
			if err := SaveWorld(engine.World, *savePath); err != nil {
				log.Fatal("snapshot failed", zap.Error(err))
			}
			log.Info("snapshot saved", zap.String("file", *savePath))
		}
		return
	}

	srv := newServer(engine, cfg, log)
	go srv.run(ctx)

	httpServer := &http.Server{Addr: cfg.Server.BindAddress, Handler: srv.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("server starting",
		zap.String("addr", cfg.Server.BindAddress),
		zap.Int("agents", len(engine.World.Agents)),
		zap.Float64("baseGrid", cfg.Grid.BaseGrid),
		zap.Float64("minGrid", cfg.Grid.MinGrid))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", zap.Error(err))
	}
}
