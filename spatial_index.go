package main

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// indexPad keeps degenerate boxes (axis-aligned segments, points) non-empty;
// rtreego rejects rectangles with a zero-length side.
const indexPad = 1e-6

// indexEntry wraps an item id for R-tree storage
type indexEntry struct {
	ID   int
	BBox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *indexEntry) Bounds() rtreego.Rect {
	return e.BBox
}

// SpatialIndex answers box queries over a fixed list of rectangles. Ids are
// the positions of the rectangles in the slice it was built from.
type SpatialIndex struct {
	tree *rtreego.Rtree
}

// NewSpatialIndex creates a new spatial index
func NewSpatialIndex(boxes []Rect) *SpatialIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	for id, box := range boxes {
		bbox, err := toRtreeRect(box)
		if err == nil {
			tree.Insert(&indexEntry{ID: id, BBox: bbox})
		}
	}

	return &SpatialIndex{tree: tree}
}

// Query returns ids of rectangles whose bounds touch the region, ascending.
// The result is a superset: callers apply their own exact test.
func (si *SpatialIndex) Query(region Rect) []int {
	bbox, err := toRtreeRect(region)
	if err != nil {
		return nil
	}

	results := si.tree.SearchIntersect(bbox)
	ids := make([]int, 0, len(results))
	for _, item := range results {
		ids = append(ids, item.(*indexEntry).ID)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of indexed rectangles
func (si *SpatialIndex) Len() int {
	return si.tree.Size()
}

// toRtreeRect converts a Rect into an rtreego rectangle padded by indexPad
func toRtreeRect(r Rect) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{r.X - indexPad, r.Y - indexPad},
		[]float64{math.Max(r.W, 0) + 2*indexPad, math.Max(r.H, 0) + 2*indexPad},
	)
}

// ObstacleIndex is the discretizer's broad phase over obstacle bounding boxes
type ObstacleIndex struct {
	obstacles []Obstacle
	index     *SpatialIndex
}

// NewObstacleIndex indexes the obstacles after dropping redundant ones
func NewObstacleIndex(obstacles []Obstacle) *ObstacleIndex {
	compacted := compactObstacles(obstacles)
	boxes := make([]Rect, len(compacted))
	for i, obs := range compacted {
		boxes[i] = obs.Bounds()
	}
	return &ObstacleIndex{obstacles: compacted, index: NewSpatialIndex(boxes)}
}

// QueryRegion returns obstacles whose bounding box touches the region, in
// their original order
func (oi *ObstacleIndex) QueryRegion(region Rect) []Obstacle {
	ids := oi.index.Query(region)
	out := make([]Obstacle, 0, len(ids))
	for _, id := range ids {
		out = append(out, oi.obstacles[id])
	}
	return out
}

// NearCell is the conservative proximity test for a cell and a disc of the
// given radius. A rectangle is near when it overlaps the cell grown by
// radius; a segment is near when it passes within radius plus half the cell
// diagonal of the cell center.
func (oi *ObstacleIndex) NearCell(cell Rect, radius float64) bool {
	center := cell.Center()
	reach := radius + math.Hypot(cell.W, cell.H)/2
	expanded := cell.Expand(radius)

	// reach covers the expanded cell as well, so one query serves both tests
	region := Rect{X: center.X - reach, Y: center.Y - reach, W: 2 * reach, H: 2 * reach}
	for _, obs := range oi.QueryRegion(region) {
		switch obs.Kind() {
		case ObstacleRect:
			if obs.Rect.Overlaps(expanded) {
				return true
			}
		case ObstacleSegment:
			if PointToSegmentDistance(center, *obs.Segment) < reach {
				return true
			}
		}
	}
	return false
}

// compactObstacles removes duplicate segments and rectangles contained in
// other rectangles. Neither removal changes the outcome of a proximity test.
func compactObstacles(obstacles []Obstacle) []Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}

	contained := make([]bool, len(obstacles))
	for i := 0; i < len(obstacles); i++ {
		if contained[i] {
			continue
		}
		for j := 0; j < len(obstacles); j++ {
			if i == j || contained[j] {
				continue
			}
			if isRedundantWith(obstacles[i], obstacles[j]) {
				contained[i] = true
				break
			}
		}
	}

	result := make([]Obstacle, 0, len(obstacles))
	for i, obs := range obstacles {
		if !contained[i] {
			result = append(result, obs)
		}
	}
	return result
}

// isRedundantWith reports whether a adds nothing once b is present
func isRedundantWith(a, b Obstacle) bool {
	switch a.Kind() {
	case ObstacleRect:
		return b.Kind() == ObstacleRect && b.Rect.ContainsRect(*a.Rect)
	case ObstacleSegment:
		if b.Kind() != ObstacleSegment {
			return false
		}
		sa, sb := *a.Segment, *b.Segment
		return (sa.P1 == sb.P1 && sa.P2 == sb.P2) || (sa.P1 == sb.P2 && sa.P2 == sb.P1)
	default:
		return false
	}
}
