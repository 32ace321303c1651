package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PlanOutcome summarises one agent's planning request
type PlanOutcome struct {
	AgentID   int     `json:"agentId"`
	Target    Point   `json:"target"`
	Waypoints int     `json:"waypoints"`
	Cost      float64 `json:"cost"`
	Expanded  int     `json:"expanded"`
	Error     string  `json:"error,omitempty"`
}

// Engine drives a world: path assignment on request, motion per tick, and
// the run clock.
type Engine struct {
	World       *World
	Discretizer *Discretizer
	Motion      *MotionController

	SimTime         float64
	SpeedMultiplier float64
	Running         bool
	Completed       bool
	CompletionTime  float64

	cfg *Config
	log *zap.Logger
	rng *rand.Rand
}

func NewEngine(cfg *Config, log *zap.Logger) (*Engine, error) {
	d, err := NewDiscretizer(cfg.Grid.BaseGrid, cfg.Grid.MinGrid)
	if err != nil {
		return nil, err
	}
	seed := cfg.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		Discretizer:     d,
		Motion:          NewMotionController(cfg.Motion.MaxStep, cfg.Motion.ArrivalTolerance),
		SpeedMultiplier: cfg.Motion.SpeedMultiplier,
		cfg:             cfg,
		log:             log,
		rng:             rand.New(rand.NewSource(seed)),
	}
	if e.SpeedMultiplier <= 0 {
		e.SpeedMultiplier = 1
	}

	if cfg.World.Snapshot != "" {
		w, err := LoadWorld(cfg.World.Snapshot)
		if err != nil {
			return nil, err
		}
		if err := d.checkBounds(w.Bounds); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", cfg.World.Snapshot, err)
		}
		e.World = w
		log.Info("snapshot loaded", zap.String("file", cfg.World.Snapshot),
			zap.Int("obstacles", len(w.Obstacles)), zap.Int("agents", len(w.Agents)))
		return e, nil
	}

	w := NewWorld(cfg.World.Width, cfg.World.Height, cfg.World.StartRegion, cfg.World.TargetRegion)
	if err := d.checkBounds(w.Bounds); err != nil {
		return nil, err
	}
	if cfg.World.ObstaclesGeoJSON != "" {
		obstacles, err := LoadObstaclesGeoJSON(cfg.World.ObstaclesGeoJSON, cfg.World.SimplifyEpsilon)
		if err != nil {
			return nil, err
		}
		for _, obs := range obstacles {
			if err := w.AddObstacle(obs); err != nil {
				return nil, err
			}
		}
		log.Info("obstacles loaded", zap.String("file", cfg.World.ObstaclesGeoJSON), zap.Int("count", len(obstacles)))
	}
	e.World = w

	if cfg.World.Scenario != "" {
		s, err := LoadScenario(cfg.World.Scenario)
		if err != nil {
			return nil, err
		}
		if err := s.Apply(w, cfg.Agent); err != nil {
			return nil, err
		}
		log.Info("scenario loaded", zap.String("file", cfg.World.Scenario),
			zap.Int("obstacles", len(s.Obstacles)), zap.Int("agents", len(s.Agents)))
		return e, nil
	}

	if err := e.spawn(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) spawn() error {
	c := e.cfg
	if err := e.World.SpawnAgents(c.World.Agents, c.Agent.Radius, c.Agent.Speed, c.World.PlacementAttempts, e.rng); err != nil {
		return err
	}
	e.log.Info("agents spawned", zap.Int("count", len(e.World.Agents)))
	return nil
}

// Cells returns a fresh partition of the world for the given agent radius
func (e *Engine) Cells(radius float64) ([]Cell, error) {
	return e.Discretizer.Discretize(e.World.Bounds, e.World.Obstacles, radius)
}

// AssignPaths plans every agent toward its target, drawing a random target
// in the target region for agents without one. Each agent gets its own
// partition; requests run concurrently and results are committed in
// ascending id order. An agent that cannot be planned gets an empty path.
func (e *Engine) AssignPaths(ctx context.Context) ([]PlanOutcome, error) {
	agents := e.World.Agents
	for _, a := range agents {
		if a.Target == nil {
			t := e.World.RandomTarget(e.rng)
			a.Target = &t
		}
	}

	bounds := e.World.Bounds
	obstacles := append([]Obstacle(nil), e.World.Obstacles...)

	paths := make([][]Point, len(agents))
	stats := make([]SearchStats, len(agents))
	planErrs := make([]error, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Planner.Workers)
	for i, a := range agents {
		start, target, radius, id := a.Position, *a.Target, a.Radius, a.ID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cells, err := e.Discretizer.Discretize(bounds, obstacles, radius)
			if err != nil {
				return fmt.Errorf("agent %d: %w", id, err)
			}
			paths[i], stats[i], planErrs[i] = PlanWithStats(start, target, cells)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcomes := make([]PlanOutcome, len(agents))
	for i, a := range agents {
		outcomes[i] = PlanOutcome{AgentID: a.ID, Target: *a.Target, Expanded: stats[i].Expanded}
		if planErrs[i] != nil {
			e.log.Warn("no findable path", zap.Int("agent", a.ID), zap.Error(planErrs[i]))
			a.SetPath(nil)
			outcomes[i].Error = planErrs[i].Error()
			continue
		}

		a.SetPath(paths[i])
		outcomes[i].Waypoints = len(paths[i])
		outcomes[i].Cost = PathCost(paths[i])
		if n := PathCrossings(paths[i], obstacles); n > 0 {
			e.log.Warn("path legs cross obstacles", zap.Int("agent", a.ID), zap.Int("legs", n))
		}
		e.log.Info("path assigned",
			zap.Int("agent", a.ID),
			zap.Int("waypoints", outcomes[i].Waypoints),
			zap.Float64("cost", outcomes[i].Cost),
			zap.Int("expanded", outcomes[i].Expanded))
	}
	return outcomes, nil
}

// Start assigns paths and starts the clock
func (e *Engine) Start(ctx context.Context) ([]PlanOutcome, error) {
	outcomes, err := e.AssignPaths(ctx)
	if err != nil {
		return nil, err
	}
	e.Running = true
	e.Completed = false
	e.SimTime = 0
	return outcomes, nil
}

// Advance moves the simulation forward by dt seconds of wall time, scaled
// by the speed multiplier. Returns true on the tick the run completes.
func (e *Engine) Advance(dt float64) bool {
	if !e.Running {
		return false
	}
	dt *= e.SpeedMultiplier
	e.SimTime += dt
	e.Motion.Step(e.World, dt)

	if e.World.AllInTarget() {
		e.Running = false
		e.Completed = true
		e.CompletionTime = e.SimTime
		e.log.Info("run completed", zap.Float64("seconds", e.CompletionTime))
		return true
	}
	return false
}

// Reset stops the run and restores the agents: the snapshot roster, the
// scenario roster, or a fresh spawn. Obstacles are dropped too when
// clearObstacles is set.
func (e *Engine) Reset(clearObstacles bool) error {
	e.Running = false
	e.Completed = false
	e.SimTime = 0
	if clearObstacles {
		e.World.ClearObstacles()
	}
	if e.cfg.World.Snapshot != "" {
		w, err := LoadWorld(e.cfg.World.Snapshot)
		if err != nil {
			return err
		}
		e.World.Agents = w.Agents
		return nil
	}
	if e.cfg.World.Scenario != "" {
		s, err := LoadScenario(e.cfg.World.Scenario)
		if err != nil {
			return err
		}
		roster, err := s.Roster(e.cfg.Agent)
		if err != nil {
			return err
		}
		e.World.Agents = roster
		return nil
	}
	return e.spawn()
}

// Scan casts the configured fan of rays from an agent
func (e *Engine) Scan(id int) ([]SenseResult, error) {
	a, err := e.World.Agent(id)
	if err != nil {
		return nil, err
	}
	return a.Scan(e.World, e.cfg.Sensor.Rays, e.cfg.Sensor.MaxRange), nil
}
