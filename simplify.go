package main

import (
	"math"
)

// SimplifyChain reduces an open polyline using Douglas-Peucker. Endpoints are
// always kept.
func SimplifyChain(points []Point, epsilon float64) []Point {
	if epsilon <= 0 || len(points) <= 2 {
		return points
	}
	return douglasPeucker(points, epsilon)
}

// SimplifyRing reduces a closed ring. The closing vertex is removed before
// simplifying and restored afterwards; rings that would collapse below a
// triangle are returned unchanged.
func SimplifyRing(ring []Point, epsilon float64) []Point {
	n := len(ring)
	if epsilon <= 0 || n <= 4 {
		return ring
	}

	closed := pointsEqual(ring[0], ring[n-1], 1e-9)
	if !closed {
		return SimplifyChain(ring, epsilon)
	}

	open := ring[:n-1]
	simplified := douglasPeucker(append(append([]Point{}, open...), open[0]), epsilon)
	if len(simplified) < 4 {
		return ring
	}
	return simplified
}

// douglasPeucker implements the Douglas-Peucker line simplification algorithm
func douglasPeucker(points []Point, epsilon float64) []Point {
	if len(points) <= 2 {
		return points
	}

	// Find the point with maximum distance from line between first and last
	dmax := 0.0
	index := 0
	end := len(points) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[i], points[0], points[end])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax > epsilon {
		left := douglasPeucker(points[0:index+1], epsilon)
		right := douglasPeucker(points[index:], epsilon)

		// Combine results (removing duplicate point at index)
		result := make([]Point, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []Point{points[0], points[end]}
}

// perpendicularDistance calculates perpendicular distance from point to the
// line through lineStart and lineEnd
func perpendicularDistance(point, lineStart, lineEnd Point) float64 {
	dx := lineEnd.X - lineStart.X
	dy := lineEnd.Y - lineStart.Y

	mag := math.Sqrt(dx*dx + dy*dy)
	if mag > 0 {
		dx /= mag
		dy /= mag
	}

	pvx := point.X - lineStart.X
	pvy := point.Y - lineStart.Y

	// Project pv onto the normalized direction
	pvdot := dx*pvx + dy*pvy

	ax := pvx - pvdot*dx
	ay := pvy - pvdot*dy

	return math.Sqrt(ax*ax + ay*ay)
}

// pointsEqual checks if two points are equal within tolerance
func pointsEqual(a, b Point, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance && math.Abs(a.Y-b.Y) <= tolerance
}
