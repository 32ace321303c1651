package main

import (
	"math"
)

// Edge represents a connection between two cells with a cost
type Edge struct {
	To   int     // Index of the destination cell
	Cost float64 // Distance between cell centers
}

const (
	// adjacencySlack widens the cheap center-distance reject
	adjacencySlack = 0.1
	// adjacencyEpsilon is the tolerance for two cell sides to count as touching
	adjacencyEpsilon = 1e-6
)

// CellGraph is the implicit adjacency graph over the free cells of a
// partition. Neighbours are found on demand through an R-tree and cached.
type CellGraph struct {
	Cells []Cell

	free  []int // positions in Cells of free cells; index ids refer to this slice
	index *SpatialIndex
	edges map[int][]Edge
}

// NewCellGraph indexes the free cells of a partition
func NewCellGraph(cells []Cell) *CellGraph {
	free := make([]int, 0, len(cells))
	boxes := make([]Rect, 0, len(cells))
	for i, c := range cells {
		if c.Free {
			free = append(free, i)
			boxes = append(boxes, c.Rect())
		}
	}
	return &CellGraph{
		Cells: cells,
		free:  free,
		index: NewSpatialIndex(boxes),
		edges: make(map[int][]Edge),
	}
}

// FreeCount returns the number of free cells in the graph
func (g *CellGraph) FreeCount() int {
	return len(g.free)
}

// Center returns the center of cell i
func (g *CellGraph) Center(i int) Point {
	return g.Cells[i].Center()
}

// Localize maps p to the free cell whose interior contains it, falling back
// to the free cell with the nearest center. Returns -1 when there is no
// free cell.
func (g *CellGraph) Localize(p Point) int {
	if len(g.free) == 0 {
		return -1
	}

	for _, id := range g.index.Query(Rect{X: p.X, Y: p.Y}) {
		i := g.free[id]
		if g.Cells[i].Rect().ContainsStrict(p) {
			return i
		}
	}

	best := -1
	minDist := math.MaxFloat64
	for _, i := range g.free {
		d := p.Distance(g.Cells[i].Center())
		if d < minDist {
			minDist = d
			best = i
		}
	}
	return best
}

// Neighbors returns the free cells sharing an edge or a corner with cell i,
// ordered by their position in Cells
func (g *CellGraph) Neighbors(i int) []Edge {
	if edges, ok := g.edges[i]; ok {
		return edges
	}

	cell := g.Cells[i]
	center := cell.Center()
	candidates := g.index.Query(cell.Rect().Expand(adjacencySlack))

	edges := make([]Edge, 0, len(candidates))
	for _, id := range candidates {
		j := g.free[id]
		if j == i {
			continue
		}
		if !Adjacent(cell, g.Cells[j]) {
			continue
		}
		edges = append(edges, Edge{To: j, Cost: center.Distance(g.Cells[j].Center())})
	}

	g.edges[i] = edges
	return edges
}

// Adjacent reports whether two cells of a partition touch along an edge or
// at a corner. Cells may differ in size.
func Adjacent(a, b Cell) bool {
	ca, cb := a.Center(), b.Center()
	dx := math.Abs(ca.X - cb.X)
	dy := math.Abs(ca.Y - cb.Y)
	sumW := (a.W + b.W) / 2
	sumH := (a.H + b.H) / 2

	// Centers too far apart cannot touch
	if dx > sumW+adjacencySlack || dy > sumH+adjacencySlack {
		return false
	}

	edgeX := math.Abs(dx-sumW) < adjacencyEpsilon
	edgeY := math.Abs(dy-sumH) < adjacencyEpsilon

	touchX := edgeX && dy < sumH-adjacencyEpsilon // shared vertical side
	touchY := edgeY && dx < sumW-adjacencyEpsilon // shared horizontal side
	touchCorner := edgeX && edgeY

	return touchX || touchY || touchCorner
}

// AdjacencyLines returns every adjacency as a pair of cell centers, each
// pair reported once
func (g *CellGraph) AdjacencyLines() [][2]Point {
	lines := make([][2]Point, 0)
	for _, i := range g.free {
		for _, e := range g.Neighbors(i) {
			if i < e.To {
				lines = append(lines, [2]Point{g.Center(i), g.Center(e.To)})
			}
		}
	}
	return lines
}
