package mapspec

import "math"

// epsilon absorbs floating point noise in length and area comparisons.
const epsilon = 1e-9

// Segment is one polygon edge from A to B.
type Segment struct {
	A, B Vertex
}

// Length returns the Euclidean length of s.
func (s Segment) Length() float64 {
	return math.Hypot(s.B.X-s.A.X, s.B.Z-s.A.Z)
}

// Segments returns the closed ring of edges of a polygon.
func Segments(vertices []Vertex) []Segment {
	n := len(vertices)
	if n < 2 {
		return nil
	}
	segs := make([]Segment, n)
	for i := range vertices {
		segs[i] = Segment{A: vertices[i], B: vertices[(i+1)%n]}
	}
	return segs
}

// SignedArea returns the shoelace area; positive for counter-clockwise rings.
func SignedArea(vertices []Vertex) float64 {
	var sum float64
	n := len(vertices)
	for i := range vertices {
		a, b := vertices[i], vertices[(i+1)%n]
		sum += a.X*b.Z - b.X*a.Z
	}
	return sum / 2
}

// SelfIntersection returns the indexes of the first pair of non-adjacent
// edges that touch or cross, and ok=false when the ring is simple.
func SelfIntersection(vertices []Vertex) (i, j int, ok bool) {
	segs := Segments(vertices)
	n := len(segs)
	if n < 4 {
		return 0, 0, false
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(segs[i], segs[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func segmentsIntersect(s, t Segment) bool {
	d1 := orientation(t.A, t.B, s.A)
	d2 := orientation(t.A, t.B, s.B)
	d3 := orientation(s.A, s.B, t.A)
	d4 := orientation(s.A, s.B, t.B)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(t, s.A)) ||
		(d2 == 0 && onSegment(t, s.B)) ||
		(d3 == 0 && onSegment(s, t.A)) ||
		(d4 == 0 && onSegment(s, t.B))
}

// orientation is the sign of the cross product (b-a) x (c-a): 1, -1 or 0.
func orientation(a, b, c Vertex) int {
	v := (b.X-a.X)*(c.Z-a.Z) - (b.Z-a.Z)*(c.X-a.X)
	switch {
	case v > epsilon:
		return 1
	case v < -epsilon:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether p, known to be collinear with s, lies within it.
func onSegment(s Segment, p Vertex) bool {
	return p.X <= math.Max(s.A.X, s.B.X)+epsilon && p.X >= math.Min(s.A.X, s.B.X)-epsilon &&
		p.Z <= math.Max(s.A.Z, s.B.Z)+epsilon && p.Z >= math.Min(s.A.Z, s.B.Z)-epsilon
}

// WallLength returns the length of a box room wall.
func WallLength(size Footprint, d Direction) float64 {
	switch d {
	case North, South:
		return size.Width
	case East, West:
		return size.Depth
	default:
		return 0
	}
}

func samePoint(a, b Vertex) bool {
	return math.Abs(a.X-b.X) <= epsilon && math.Abs(a.Z-b.Z) <= epsilon
}
