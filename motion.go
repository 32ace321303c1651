package main

import "math"

// MotionController advances agents along their paths one tick at a time
type MotionController struct {
	MaxStep          float64 // per-tick displacement cap, independent of dt
	ArrivalTolerance float64 // distance at which a waypoint counts as reached
}

func NewMotionController(maxStep, arrivalTolerance float64) *MotionController {
	return &MotionController{MaxStep: maxStep, ArrivalTolerance: arrivalTolerance}
}

// Step ticks every agent once, in ascending id order. Later agents see the
// positions earlier agents committed this tick.
func (mc *MotionController) Step(w *World, dt float64) {
	for _, a := range w.Agents {
		mc.Tick(a, dt, w)
	}
}

// Tick moves one agent toward its current waypoint. The move is dropped when
// the candidate position overlaps an agent with a lower id or an obstacle;
// overlapping a higher-id agent does not stop it.
func (mc *MotionController) Tick(a *Agent, dt float64, w *World) {
	target, ok := a.CurrentWaypoint()
	if !ok {
		return
	}

	delta := target.Sub(a.Position)
	dist := delta.Length()
	if dist < mc.ArrivalTolerance {
		a.PathIndex++
		if target, ok = a.CurrentWaypoint(); !ok {
			return
		}
		delta = target.Sub(a.Position)
		dist = delta.Length()
	}
	if dist == 0 {
		return
	}

	step := math.Min(a.Speed*dt, mc.MaxStep)
	if step <= 0 {
		return
	}
	candidate := w.clampAgent(a.Position.Add(delta.Scale(step/dist)), a.Radius)

	for _, other := range w.Agents {
		if other.ID == a.ID {
			continue
		}
		if candidate.Distance(other.Position) < a.Radius+other.Radius && a.ID > other.ID {
			return
		}
	}

	if w.collidesStatic(candidate, a.Radius) {
		return
	}

	a.Position = candidate
}
