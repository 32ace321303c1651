package main

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadObstaclesGeoJSON reads obstacles from a GeoJSON feature collection.
// LineStrings become chains of segments, axis-aligned rectangular polygons
// become rectangles and other polygons contribute their outer ring as
// segments. Chains are simplified with epsilon first (0 disables).
func LoadObstaclesGeoJSON(path string, epsilon float64) ([]Obstacle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read obstacles %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse obstacles %s: %w", path, err)
	}

	var obstacles []Obstacle
	for _, feature := range fc.Features {
		obstacles = append(obstacles, obstaclesFromGeometry(feature.Geometry, epsilon)...)
	}
	return obstacles, nil
}

// obstaclesFromGeometry converts GeoJSON geometry to obstacles
func obstaclesFromGeometry(geometry orb.Geometry, epsilon float64) []Obstacle {
	var obstacles []Obstacle

	switch g := geometry.(type) {
	case orb.LineString:
		obstacles = append(obstacles, chainSegments(toPoints(g), epsilon)...)
	case orb.MultiLineString:
		for _, ls := range g {
			obstacles = append(obstacles, chainSegments(toPoints(ls), epsilon)...)
		}
	case orb.Polygon:
		obstacles = append(obstacles, polygonObstacles(g, epsilon)...)
	case orb.MultiPolygon:
		for _, poly := range g {
			obstacles = append(obstacles, polygonObstacles(poly, epsilon)...)
		}
	case orb.Bound:
		obstacles = append(obstacles, NewRectObstacle(g.Min[0], g.Min[1], g.Max[0]-g.Min[0], g.Max[1]-g.Min[1]))
	case orb.Collection:
		for _, child := range g {
			obstacles = append(obstacles, obstaclesFromGeometry(child, epsilon)...)
		}
	}

	return obstacles
}

// polygonObstacles uses the outer ring only; holes are free space
func polygonObstacles(poly orb.Polygon, epsilon float64) []Obstacle {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return nil
	}
	ring := poly[0]
	if rect, ok := axisAlignedRect(ring); ok {
		return []Obstacle{{Rect: &rect}}
	}
	points := SimplifyRing(toPoints(ring), epsilon)
	if !pointsEqual(points[0], points[len(points)-1], 1e-9) {
		points = append(points, points[0])
	}
	return chainSegments(points, 0)
}

// axisAlignedRect recognises rings whose vertices are exactly the corners
// of their bounding box
func axisAlignedRect(ring orb.Ring) (Rect, bool) {
	b := ring.Bound()
	if b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] {
		return Rect{}, false
	}
	corners := make(map[orb.Point]bool, 4)
	for _, p := range ring {
		onX := p[0] == b.Min[0] || p[0] == b.Max[0]
		onY := p[1] == b.Min[1] || p[1] == b.Max[1]
		if !onX || !onY {
			return Rect{}, false
		}
		corners[p] = true
	}
	if len(corners) != 4 {
		return Rect{}, false
	}
	return Rect{X: b.Min[0], Y: b.Min[1], W: b.Max[0] - b.Min[0], H: b.Max[1] - b.Min[1]}, true
}

func chainSegments(points []Point, epsilon float64) []Obstacle {
	points = SimplifyChain(points, epsilon)
	obstacles := make([]Obstacle, 0, len(points))
	for i := 1; i < len(points); i++ {
		if points[i-1] == points[i] {
			continue
		}
		obstacles = append(obstacles, NewSegmentObstacle(points[i-1], points[i]))
	}
	return obstacles
}

func toPoints[T ~[]orb.Point](ps T) []Point {
	out := make([]Point, len(ps))
	for i, p := range ps {
		out[i] = pointFromOrb(p)
	}
	return out
}
