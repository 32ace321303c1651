package main

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	ErrPlacement    = errors.New("failed to place agents without overlap")
	ErrUnknownAgent = errors.New("unknown agent")
)

// targetInset keeps random targets strictly inside the target region
const targetInset = 0.1

// World holds the bounded environment. Agents are kept sorted by id.
type World struct {
	Bounds       Rect       `json:"bounds"`
	StartRegion  Rect       `json:"startRegion"`
	TargetRegion Rect       `json:"targetRegion"`
	Obstacles    []Obstacle `json:"obstacles"`
	Agents       []*Agent   `json:"agents"`
}

// NewWorld creates an empty world over [0,width]x[0,height]
func NewWorld(width, height float64, start, target Rect) *World {
	return &World{
		Bounds:       Rect{W: width, H: height},
		StartRegion:  start,
		TargetRegion: target,
		Obstacles:    make([]Obstacle, 0),
		Agents:       make([]*Agent, 0),
	}
}

func (w *World) AddObstacle(o Obstacle) error {
	if err := o.Validate(); err != nil {
		return err
	}
	w.Obstacles = append(w.Obstacles, o)
	return nil
}

func (w *World) RemoveObstacle(i int) error {
	if i < 0 || i >= len(w.Obstacles) {
		return fmt.Errorf("obstacle index %d out of range [0,%d)", i, len(w.Obstacles))
	}
	w.Obstacles = append(w.Obstacles[:i], w.Obstacles[i+1:]...)
	return nil
}

func (w *World) ClearObstacles() {
	w.Obstacles = w.Obstacles[:0]
}

// AddAgent inserts an agent keeping ascending id order
func (w *World) AddAgent(a *Agent) error {
	if a.ID < 0 {
		return fmt.Errorf("agent id %d must be non-negative", a.ID)
	}
	if a.Radius <= 0 {
		return fmt.Errorf("agent %d radius %.3f must be positive", a.ID, a.Radius)
	}
	pos := sort.Search(len(w.Agents), func(i int) bool { return w.Agents[i].ID >= a.ID })
	if pos < len(w.Agents) && w.Agents[pos].ID == a.ID {
		return fmt.Errorf("duplicate agent id %d", a.ID)
	}
	w.Agents = append(w.Agents, nil)
	copy(w.Agents[pos+1:], w.Agents[pos:])
	w.Agents[pos] = a
	return nil
}

func (w *World) Agent(id int) (*Agent, error) {
	pos := sort.Search(len(w.Agents), func(i int) bool { return w.Agents[i].ID >= id })
	if pos < len(w.Agents) && w.Agents[pos].ID == id {
		return w.Agents[pos], nil
	}
	return nil, fmt.Errorf("agent %d: %w", id, ErrUnknownAgent)
}

// SpawnAgents replaces the roster with n agents placed uniformly in the
// start region, inset by radius, without overlap. maxAttempts bounds the
// total number of samples across all agents.
func (w *World) SpawnAgents(n int, radius, speed float64, maxAttempts int, rng *rand.Rand) error {
	w.Agents = make([]*Agent, 0, n)
	region := w.StartRegion.Expand(-radius)
	if n > 0 && (region.W < 0 || region.H < 0) {
		return fmt.Errorf("start region %+v too small for radius %.3f: %w", w.StartRegion, radius, ErrPlacement)
	}

	attempts := 0
	for id := 0; id < n; id++ {
		for {
			attempts++
			if attempts > maxAttempts {
				return fmt.Errorf("placed %d of %d agents in %d attempts: %w", id, n, maxAttempts, ErrPlacement)
			}
			p := Point{
				X: region.X + rng.Float64()*region.W,
				Y: region.Y + rng.Float64()*region.H,
			}
			if !w.overlapsAgent(p, radius) {
				w.Agents = append(w.Agents, NewAgent(id, p, radius, speed))
				break
			}
		}
	}
	return nil
}

func (w *World) overlapsAgent(p Point, radius float64) bool {
	for _, a := range w.Agents {
		if p.Distance(a.Position) < a.Radius+radius {
			return true
		}
	}
	return false
}

// RandomTarget returns a point strictly inside the target region
func (w *World) RandomTarget(rng *rand.Rand) Point {
	r := w.TargetRegion.Expand(-targetInset)
	return Point{
		X: r.X + rng.Float64()*r.W,
		Y: r.Y + rng.Float64()*r.H,
	}
}

// AllInTarget reports whether every agent stands in the target region
func (w *World) AllInTarget() bool {
	if len(w.Agents) == 0 {
		return false
	}
	for _, a := range w.Agents {
		if !w.TargetRegion.Contains(a.Position) {
			return false
		}
	}
	return true
}

// clampAgent keeps a disc of the given radius inside the world bounds
func (w *World) clampAgent(p Point, radius float64) Point {
	b := w.Bounds
	return Point{
		X: clamp(p.X, b.X+radius, b.MaxX()-radius),
		Y: clamp(p.Y, b.Y+radius, b.MaxY()-radius),
	}
}

// collidesStatic tests a disc against every obstacle: inside a rectangle
// grown by radius, or closer than radius to a segment
func (w *World) collidesStatic(p Point, radius float64) bool {
	for _, obs := range w.Obstacles {
		switch obs.Kind() {
		case ObstacleRect:
			if obs.Rect.Expand(radius).Contains(p) {
				return true
			}
		case ObstacleSegment:
			if PointToSegmentDistance(p, *obs.Segment) < radius {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
