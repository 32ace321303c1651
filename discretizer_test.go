package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPartition(t *testing.T, bounds Rect, cells []Cell) {
	t.Helper()
	area := 0.0
	for i, c := range cells {
		area += c.Rect().Area()
		assert.True(t, bounds.ContainsRect(c.Rect()), "cell %d %+v outside bounds", i, c)
		for j := i + 1; j < len(cells); j++ {
			assert.False(t, c.Rect().Overlaps(cells[j].Rect()), "cells %d and %d overlap", i, j)
		}
	}
	assert.InDelta(t, bounds.Area(), area, 1e-9)
}

func TestDiscretize_EmptyWorld(t *testing.T) {
	bounds := Rect{W: 20, H: 20}
	cells, err := Discretize(bounds, nil, 1, 5, 1)
	require.NoError(t, err)

	require.Len(t, cells, 16)
	for _, c := range cells {
		assert.True(t, c.Free)
		assert.Equal(t, 5.0, c.W)
		assert.Equal(t, 5.0, c.H)
	}
	// bottom-left quadrant first, bottom-left leaf first within it
	assert.Equal(t, Cell{X: 0, Y: 0, W: 5, H: 5, Free: true}, cells[0])
	assert.Equal(t, Cell{X: 5, Y: 0, W: 5, H: 5, Free: true}, cells[1])
	assert.Equal(t, Cell{X: 0, Y: 5, W: 5, H: 5, Free: true}, cells[2])
	assertPartition(t, bounds, cells)
}

func TestDiscretize_BoundsWithinBaseGrid(t *testing.T) {
	cells, err := Discretize(Rect{W: 4, H: 4}, nil, 1, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{W: 4, H: 4, Free: true}}, cells)
}

func TestDiscretize_Resolution(t *testing.T) {
	bounds := Rect{W: 30, H: 30}
	obstacles := []Obstacle{
		NewRectObstacle(10, 5, 4, 20),
		NewSegmentObstacle(Point{X: 20, Y: 10}, Point{X: 28, Y: 18}),
	}
	cells, err := Discretize(bounds, obstacles, 1, 5, 1)
	require.NoError(t, err)
	assertPartition(t, bounds, cells)

	free, occupied := 0, 0
	for _, c := range cells {
		assert.GreaterOrEqual(t, c.W, 1.0)
		assert.GreaterOrEqual(t, c.H, 1.0)
		if c.Free {
			free++
			assert.LessOrEqual(t, c.W, 5.0)
			assert.LessOrEqual(t, c.H, 5.0)
		} else {
			occupied++
		}
	}
	assert.NotZero(t, free)
	assert.NotZero(t, occupied)
}

func TestDiscretize_FreeCellsKeepClearance(t *testing.T) {
	bounds := Rect{W: 30, H: 30}
	radius := 1.0
	wall := NewSegmentObstacle(Point{X: 20, Y: 10}, Point{X: 28, Y: 18})
	block := NewRectObstacle(10, 5, 4, 20)

	cells, err := Discretize(bounds, []Obstacle{wall, block}, radius, 5, 1)
	require.NoError(t, err)

	for _, c := range cells {
		if !c.Free {
			continue
		}
		r := c.Rect()
		assert.False(t, r.Overlaps(block.Rect.Expand(radius)), "free cell %+v too close to block", c)
		for _, p := range []Point{r.Center(), {X: r.X, Y: r.Y}, {X: r.MaxX(), Y: r.Y}, {X: r.X, Y: r.MaxY()}, {X: r.MaxX(), Y: r.MaxY()}} {
			assert.GreaterOrEqual(t, PointToSegmentDistance(p, *wall.Segment), radius-1e-9, "free cell %+v too close to wall", c)
		}
	}
}

func TestDiscretize_Deterministic(t *testing.T) {
	obstacles := []Obstacle{
		NewSegmentObstacle(Point{X: 3, Y: 3}, Point{X: 17, Y: 9}),
		NewRectObstacle(12, 12, 3, 3),
	}
	first, err := Discretize(Rect{W: 20, H: 20}, obstacles, 0.5, 5, 1)
	require.NoError(t, err)
	second, err := Discretize(Rect{W: 20, H: 20}, obstacles, 0.5, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDiscretize_InvalidResolution(t *testing.T) {
	tests := []struct {
		name           string
		bounds         Rect
		base, min, rad float64
	}{
		{"base below min", Rect{W: 20, H: 20}, 1, 2, 1},
		{"zero min", Rect{W: 20, H: 20}, 5, 0, 1},
		{"bounds below min", Rect{W: 0.5, H: 0.5}, 5, 1, 1},
		{"empty bounds", Rect{W: 0, H: 20}, 5, 1, 1},
		{"base unreachable", Rect{W: 10, H: 1}, 5, 1, 1},
		{"negative radius", Rect{W: 20, H: 20}, 5, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discretize(tt.bounds, nil, tt.rad, tt.base, tt.min)
			assert.ErrorIs(t, err, ErrInvalidResolution)
		})
	}
}

func TestObstacleIndex_Compaction(t *testing.T) {
	obstacles := []Obstacle{
		NewRectObstacle(0, 0, 10, 10),
		NewRectObstacle(2, 2, 3, 3),
		NewSegmentObstacle(Point{X: 20}, Point{X: 25}),
		NewSegmentObstacle(Point{X: 25}, Point{X: 20}),
	}
	idx := NewObstacleIndex(obstacles)
	assert.Equal(t, 2, idx.index.Len())

	assert.Len(t, idx.QueryRegion(Rect{X: 1, Y: 1, W: 1, H: 1}), 1)
	assert.Empty(t, idx.QueryRegion(Rect{X: 12, Y: 12, W: 1, H: 1}))

	assert.True(t, idx.NearCell(Rect{X: 10.5, Y: 0, W: 1, H: 1}, 1))
	assert.False(t, idx.NearCell(Rect{X: 13, Y: 5, W: 1, H: 1}, 1))
}
