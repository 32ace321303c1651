package main

import (
	"errors"
	"fmt"
)

// ErrNoPath is returned when start or target cannot be localized or the
// search runs out of frontier before reaching the goal cell.
var ErrNoPath = errors.New("no path")

// Plan returns the waypoints from start to target over a partition: the
// centers of the cells crossed, start cell first and goal cell last, then
// the exact target.
func Plan(start, target Point, cells []Cell) ([]Point, error) {
	path, _, err := PlanWithStats(start, target, cells)
	return path, err
}

// PlanWithStats is Plan that also reports the search statistics
func PlanWithStats(start, target Point, cells []Cell) ([]Point, SearchStats, error) {
	graph := NewCellGraph(cells)

	startIdx := graph.Localize(start)
	endIdx := graph.Localize(target)
	if startIdx < 0 || endIdx < 0 {
		return nil, SearchStats{}, fmt.Errorf("no free cell for %v or %v: %w", start, target, ErrNoPath)
	}

	path, stats, ok := AStarPathOnGraph(graph, startIdx, endIdx)
	if !ok {
		return nil, stats, fmt.Errorf("goal cell %d unreachable from %d after %d expansions: %w",
			endIdx, startIdx, stats.Expanded, ErrNoPath)
	}
	return append(path, target), stats, nil
}
