package main

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidResolution = errors.New("invalid grid resolution")

// Cell is a leaf of the adaptive partition
type Cell struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Free bool    `json:"free"`
}

func (c Cell) Rect() Rect    { return Rect{X: c.X, Y: c.Y, W: c.W, H: c.H} }
func (c Cell) Center() Point { return Point{X: c.X + c.W/2, Y: c.Y + c.H/2} }

// Discretizer partitions a world rectangle into free and occupied cells.
// Free leaves are at most BaseGrid on a side; no leaf is smaller than MinGrid.
type Discretizer struct {
	BaseGrid float64
	MinGrid  float64
}

// NewDiscretizer validates the resolution pair
func NewDiscretizer(baseGrid, minGrid float64) (*Discretizer, error) {
	if minGrid <= 0 || baseGrid <= 0 {
		return nil, fmt.Errorf("base %.3f, min %.3f must be positive: %w", baseGrid, minGrid, ErrInvalidResolution)
	}
	if baseGrid < minGrid {
		return nil, fmt.Errorf("base %.3f below min %.3f: %w", baseGrid, minGrid, ErrInvalidResolution)
	}
	return &Discretizer{BaseGrid: baseGrid, MinGrid: minGrid}, nil
}

// Discretize is the one-shot form of Discretizer.Discretize
func Discretize(bounds Rect, obstacles []Obstacle, radius, baseGrid, minGrid float64) ([]Cell, error) {
	d, err := NewDiscretizer(baseGrid, minGrid)
	if err != nil {
		return nil, err
	}
	return d.Discretize(bounds, obstacles, radius)
}

// Discretize subdivides bounds into quadrants until every leaf is either far
// from all obstacles and no larger than BaseGrid, or near an obstacle and
// too small to halve without going under MinGrid. Leaves come out in
// depth-first order, quadrants visited bottom-left, bottom-right, top-left,
// top-right, so identical inputs give identical lists.
func (d *Discretizer) Discretize(bounds Rect, obstacles []Obstacle, radius float64) ([]Cell, error) {
	if err := d.checkBounds(bounds); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("negative radius %.3f: %w", radius, ErrInvalidResolution)
	}

	index := NewObstacleIndex(obstacles)
	cells := make([]Cell, 0, 64)

	// Depth is bounded by log2(max(W,H)/MinGrid) since every split halves
	// both sides and no split goes below MinGrid.
	stack := []Rect{bounds}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		near := index.NearCell(r, radius)
		if d.shouldSubdivide(r, near) {
			hw, hh := r.W/2, r.H/2
			// pushed in reverse so they pop bottom-left first
			stack = append(stack,
				Rect{X: r.X + hw, Y: r.Y + hh, W: hw, H: hh},
				Rect{X: r.X, Y: r.Y + hh, W: hw, H: hh},
				Rect{X: r.X + hw, Y: r.Y, W: hw, H: hh},
				Rect{X: r.X, Y: r.Y, W: hw, H: hh},
			)
			continue
		}

		// A near leaf here means MinGrid stopped the split: occupied.
		cells = append(cells, Cell{X: r.X, Y: r.Y, W: r.W, H: r.H, Free: !near})
	}

	return cells, nil
}

func (d *Discretizer) shouldSubdivide(r Rect, near bool) bool {
	canSplit := math.Min(r.W, r.H)/2 >= d.MinGrid
	if near {
		return canSplit
	}
	return canSplit && math.Max(r.W, r.H) > d.BaseGrid
}

// checkBounds walks the halving chain of the root to make sure BaseGrid is
// reachable without a split going below MinGrid.
func (d *Discretizer) checkBounds(bounds Rect) error {
	if bounds.W <= 0 || bounds.H <= 0 {
		return fmt.Errorf("empty bounds %+v: %w", bounds, ErrInvalidResolution)
	}
	w, h := bounds.W, bounds.H
	if math.Min(w, h) < d.MinGrid {
		return fmt.Errorf("bounds %.3fx%.3f smaller than min grid %.3f: %w", w, h, d.MinGrid, ErrInvalidResolution)
	}
	for math.Max(w, h) > d.BaseGrid {
		if math.Min(w, h)/2 < d.MinGrid {
			return fmt.Errorf("cannot reach base grid %.3f from %.3fx%.3f without going under min grid %.3f: %w",
				d.BaseGrid, bounds.W, bounds.H, d.MinGrid, ErrInvalidResolution)
		}
		w, h = w/2, h/2
	}
	return nil
}
