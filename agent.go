package main

import "math"

// MotionState is where an agent stands on its assigned path
type MotionState int

const (
	Idle MotionState = iota
	Following
	Arrived
)

func (s MotionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Following:
		return "following"
	case Arrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// Agent is a disc-shaped robot. Only Path, PathIndex and Position change
// after creation.
type Agent struct {
	ID        int     `json:"id" yaml:"id"`
	Position  Point   `json:"position" yaml:"position"`
	Radius    float64 `json:"radius" yaml:"radius"`
	Speed     float64 `json:"speed" yaml:"speed"`
	Path      []Point `json:"path" yaml:"-"`
	PathIndex int     `json:"pathIndex" yaml:"-"`
	Target    *Point  `json:"target,omitempty" yaml:"target,omitempty"`
}

func NewAgent(id int, position Point, radius, speed float64) *Agent {
	return &Agent{ID: id, Position: position, Radius: radius, Speed: speed}
}

// SetPath assigns a path and rewinds to its first waypoint
func (a *Agent) SetPath(path []Point) {
	a.Path = path
	a.PathIndex = 0
}

func (a *Agent) State() MotionState {
	switch {
	case len(a.Path) == 0:
		return Idle
	case a.PathIndex < len(a.Path):
		return Following
	default:
		return Arrived
	}
}

// CurrentWaypoint returns the waypoint the agent is heading for
func (a *Agent) CurrentWaypoint() (Point, bool) {
	if a.State() != Following {
		return Point{}, false
	}
	return a.Path[a.PathIndex], true
}

// Sense casts a single ray at the given heading (radians)
func (a *Agent) Sense(heading float64, w *World, maxRange float64) SenseResult {
	dir := Point{X: math.Cos(heading), Y: math.Sin(heading)}
	return Sense(a.Position, dir, w.Obstacles, w.Agents, maxRange, a.ID)
}

// Scan casts n rays evenly spaced over a full turn starting at heading 0
func (a *Agent) Scan(w *World, n int, maxRange float64) []SenseResult {
	results := make([]SenseResult, n)
	for i := 0; i < n; i++ {
		results[i] = a.Sense(2*math.Pi*float64(i)/float64(n), w, maxRange)
	}
	return results
}
