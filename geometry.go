package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Point is a position or a direction in world coordinates
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Sub returns the vector from other to p
func (p Point) Sub(other Point) Point { return Point{X: p.X - other.X, Y: p.Y - other.Y} }

// Add translates p by other
func (p Point) Add(other Point) Point { return Point{X: p.X + other.X, Y: p.Y + other.Y} }

// Scale multiplies both coordinates by f
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Length returns the Euclidean norm of p as a vector
func (p Point) Length() float64 { return math.Hypot(p.X, p.Y) }

// Dot returns the dot product of p and other
func (p Point) Dot(other Point) float64 { return p.X*other.X + p.Y*other.Y }

// Cross returns the z component of the 2D cross product p x other
func (p Point) Cross(other Point) float64 { return p.X*other.Y - p.Y*other.X }

func (p Point) String() string { return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y) }

func (p Point) orb() orb.Point { return orb.Point{p.X, p.Y} }

func pointFromOrb(p orb.Point) Point { return Point{X: p[0], Y: p[1]} }

// Normalize returns the unit vector of p, or the zero vector when p has no length
func (p Point) Normalize() Point {
	l := p.Length()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// LineSegment represents a line segment between two points
type LineSegment struct {
	P1 Point `json:"p1" yaml:"p1"`
	P2 Point `json:"p2" yaml:"p2"`
}

// Rect is an axis-aligned rectangle anchored at its minimum corner
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// MaxX returns the right edge of r
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the top edge of r
func (r Rect) MaxY() float64 { return r.Y + r.H }

func (r Rect) Center() Point { return Point{X: r.X + r.W/2, Y: r.Y + r.H/2} }
func (r Rect) Area() float64 { return r.W * r.H }

// Bound converts r to an orb bound
func (r Rect) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.X, r.Y}, Max: orb.Point{r.MaxX(), r.MaxY()}}
}

// Contains reports whether p lies inside r, boundary included
func (r Rect) Contains(p Point) bool {
	return r.Bound().Contains(p.orb())
}

// ContainsStrict reports whether p lies in the open interior of r
func (r Rect) ContainsStrict(p Point) bool {
	return p.X > r.X && p.X < r.MaxX() && p.Y > r.Y && p.Y < r.MaxY()
}

// Overlaps reports whether the interiors of r and other intersect
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.MaxX() && r.MaxX() > other.X &&
		r.Y < other.MaxY() && r.MaxY() > other.Y
}

// ContainsRect reports whether other lies entirely within r
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.MaxX() <= r.MaxX() &&
		other.Y >= r.Y && other.MaxY() <= r.MaxY()
}

// Expand grows r by margin on every side
func (r Rect) Expand(margin float64) Rect {
	return Rect{X: r.X - margin, Y: r.Y - margin, W: r.W + 2*margin, H: r.H + 2*margin}
}

// Edges returns the four sides of r in counter-clockwise order
func (r Rect) Edges() [4]LineSegment {
	a := Point{X: r.X, Y: r.Y}
	b := Point{X: r.MaxX(), Y: r.Y}
	c := Point{X: r.MaxX(), Y: r.MaxY()}
	d := Point{X: r.X, Y: r.MaxY()}
	return [4]LineSegment{{a, b}, {b, c}, {c, d}, {d, a}}
}

// ObstacleKind tags the shape carried by an Obstacle
type ObstacleKind uint8

const (
	ObstacleInvalid ObstacleKind = iota
	ObstacleSegment
	ObstacleRect
)

func (k ObstacleKind) String() string {
	switch k {
	case ObstacleSegment:
		return "segment"
	case ObstacleRect:
		return "rect"
	default:
		return "invalid"
	}
}

var ErrInvalidObstacle = errors.New("obstacle must carry exactly one of segment or rect")

// Obstacle is a closed variant: exactly one of Segment or Rect is set.
// Obstacles are never mutated once placed in a world.
type Obstacle struct {
	Segment *LineSegment `json:"segment,omitempty" yaml:"segment,omitempty"`
	Rect    *Rect        `json:"rect,omitempty" yaml:"rect,omitempty"`
}

// NewSegmentObstacle creates a line-segment obstacle from p1 to p2
func NewSegmentObstacle(p1, p2 Point) Obstacle {
	return Obstacle{Segment: &LineSegment{P1: p1, P2: p2}}
}

// NewRectObstacle creates a rectangle obstacle anchored at (x, y)
func NewRectObstacle(x, y, w, h float64) Obstacle {
	return Obstacle{Rect: &Rect{X: x, Y: y, W: w, H: h}}
}

// Kind reports which shape the obstacle carries
func (o Obstacle) Kind() ObstacleKind {
	switch {
	case o.Segment != nil && o.Rect == nil:
		return ObstacleSegment
	case o.Rect != nil && o.Segment == nil:
		return ObstacleRect
	default:
		return ObstacleInvalid
	}
}

// Validate rejects obstacles that do not carry exactly one well-formed shape
func (o Obstacle) Validate() error {
	if o.Kind() == ObstacleInvalid {
		return ErrInvalidObstacle
	}
	if o.Kind() == ObstacleRect && (o.Rect.W < 0 || o.Rect.H < 0) {
		return fmt.Errorf("rect with negative extent %+v: %w", *o.Rect, ErrInvalidObstacle)
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the obstacle
func (o Obstacle) Bounds() Rect {
	switch o.Kind() {
	case ObstacleSegment:
		s := o.Segment
		minX, maxX := math.Min(s.P1.X, s.P2.X), math.Max(s.P1.X, s.P2.X)
		minY, maxY := math.Min(s.P1.Y, s.P2.Y), math.Max(s.P1.Y, s.P2.Y)
		return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
	case ObstacleRect:
		return *o.Rect
	default:
		return Rect{}
	}
}

// Edges returns the segments that make up the obstacle outline
func (o Obstacle) Edges() []LineSegment {
	switch o.Kind() {
	case ObstacleSegment:
		return []LineSegment{*o.Segment}
	case ObstacleRect:
		e := o.Rect.Edges()
		return e[:]
	default:
		return nil
	}
}

// PointToSegmentDistance returns the distance from p to the closest point of
// the segment, clamping the parametric projection to [0,1]
func PointToSegmentDistance(p Point, seg LineSegment) float64 {
	d := seg.P2.Sub(seg.P1)
	lenSq := d.Dot(d)
	if lenSq == 0 {
		return p.Distance(seg.P1)
	}
	t := p.Sub(seg.P1).Dot(d) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(seg.P1.Add(d.Scale(t)))
}

// parallelTolerance is the cross-product magnitude below which a ray and a
// segment are treated as parallel
const parallelTolerance = 1e-8

// RaySegmentIntersection returns the distance t along the ray to the segment,
// valid only for t >= 0 and segment parameter u in [0,1]
func RaySegmentIntersection(origin, dir Point, seg LineSegment) (float64, bool) {
	s := seg.P2.Sub(seg.P1)
	denom := dir.Cross(s)
	if math.Abs(denom) < parallelTolerance {
		return 0, false
	}
	q := seg.P1.Sub(origin)
	t := q.Cross(s) / denom
	u := q.Cross(dir) / denom
	if t >= 0 && u >= 0 && u <= 1 {
		return t, true
	}
	return 0, false
}

// RayCircleIntersection returns the distance along the ray to a disc. When
// the origin is inside the disc the exit distance is returned.
func RayCircleIntersection(origin, dir, center Point, radius float64) (float64, bool) {
	f := origin.Sub(center)
	a := dir.Dot(dir)
	if a == 0 {
		return 0, false
	}
	b := 2 * f.Dot(dir)
	c := f.Dot(f) - radius*radius

	disc := b*b - 4*a*c
	if disc <= 0 {
		return 0, false
	}
	disc = math.Sqrt(disc)
	t1 := (-b - disc) / (2 * a)
	t2 := (-b + disc) / (2 * a)
	if t1 >= 0 {
		return t1, true
	}
	if t2 >= 0 {
		return t2, true
	}
	return 0, false
}

// DoSegmentsIntersect checks if two line segments intersect
func DoSegmentsIntersect(seg1, seg2 LineSegment) bool {
	p1, p2 := seg1.P1, seg1.P2
	p3, p4 := seg2.P1, seg2.P2

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 Point) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// onSegment checks if point q lies within the bounding box of segment pr
func onSegment(p, r, q Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// PathCost sums the lengths of consecutive legs of a waypoint path
func PathCost(path []Point) float64 {
	cost := 0.0
	for i := 1; i < len(path); i++ {
		cost += path[i-1].Distance(path[i])
	}
	return cost
}

// PathCrossings counts path legs that intersect an obstacle outline
func PathCrossings(path []Point, obstacles []Obstacle) int {
	crossings := 0
	for i := 1; i < len(path); i++ {
		leg := LineSegment{P1: path[i-1], P2: path[i]}
		for _, obs := range obstacles {
			hit := false
			for _, edge := range obs.Edges() {
				if DoSegmentsIntersect(leg, edge) {
					hit = true
					break
				}
			}
			if hit {
				crossings++
				break
			}
		}
	}
	return crossings
}
