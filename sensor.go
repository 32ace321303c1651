package main

// NoAgent excludes nobody from a sensing query
const NoAgent = -1

// SenseResult is the outcome of one ray cast. Hit tells a real return apart
// from the max-range reading given when nothing is in range.
type SenseResult struct {
	Distance float64 `json:"distance"`
	Hit      bool    `json:"hit"`
}

// Sense casts a ray from origin along dir and returns the nearest obstacle
// outline or agent disc within maxRange. The agent with id excludeID is
// ignored. A zero direction never hits.
func Sense(origin, dir Point, obstacles []Obstacle, agents []*Agent, maxRange float64, excludeID int) SenseResult {
	result := SenseResult{Distance: maxRange}

	dir = dir.Normalize()
	if dir == (Point{}) {
		return result
	}

	record := func(t float64) {
		if t <= result.Distance {
			result.Distance = t
			result.Hit = true
		}
	}

	for _, obs := range obstacles {
		for _, edge := range obs.Edges() {
			if t, ok := RaySegmentIntersection(origin, dir, edge); ok {
				record(t)
			}
		}
	}

	for _, agent := range agents {
		if agent.ID == excludeID {
			continue
		}
		if t, ok := RayCircleIntersection(origin, dir, agent.Position, agent.Radius); ok {
			record(t)
		}
	}

	return result
}
