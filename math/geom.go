// math/geom.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import gomath "math"

// PointInPolygon checks whether the given point is inside the given polygon;
// it assumes that the last vertex does not repeat the first one, and so includes
// the edge from pts[len(pts)-1] to pts[0] in its test.
func PointInPolygon(p Vect2, pts []Vect2) bool {
	inside := false
	for i := 0; i < len(pts); i++ {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		if (p0.Y <= p.Y && p.Y < p1.Y) || (p1.Y <= p.Y && p.Y < p0.Y) {
			x := p0.X + (p.Y-p0.Y)*(p1.X-p0.X)/(p1.Y-p0.Y)
			if x > p.X {
				inside = !inside
			}
		}
	}
	return inside
}

// ClosestPointOnSegment returns the point on segment [a,b] closest to p.
func ClosestPointOnSegment(p, a, b Vect2) Vect2 {
	ab := b.Sub(a)
	den := ab.NormSq()
	if den == 0 {
		return a
	}
	t := Clamp(p.Sub(a).Dot(ab)/den, 0, 1)
	return a.Add(ab.Scal(t))
}

// SegmentsIntersect reports whether segments [a,b] and [c,d] intersect.
func SegmentsIntersect(a, b, c, d Vect2) bool {
	d1 := b.Sub(a).Det(c.Sub(a))
	d2 := b.Sub(a).Det(d.Sub(a))
	d3 := d.Sub(c).Det(a.Sub(c))
	d4 := d.Sub(c).Det(b.Sub(c))
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	onSeg := func(p, q, r Vect2) bool {
		return gomath.Min(p.X, r.X) <= q.X && q.X <= gomath.Max(p.X, r.X) &&
			gomath.Min(p.Y, r.Y) <= q.Y && q.Y <= gomath.Max(p.Y, r.Y)
	}
	if d1 == 0 && onSeg(a, c, b) {
		return true
	}
	if d2 == 0 && onSeg(a, d, b) {
		return true
	}
	if d3 == 0 && onSeg(c, a, d) {
		return true
	}
	return d4 == 0 && onSeg(c, b, d)
}

// SegmentIntersectsPolygon reports whether segment [a,b] crosses any edge
// of the polygon.
func SegmentIntersectsPolygon(a, b Vect2, pts []Vect2) bool {
	for i := 0; i < len(pts); i++ {
		if SegmentsIntersect(a, b, pts[i], pts[(i+1)%len(pts)]) {
			return true
		}
	}
	return false
}

///////////////////////////////////////////////////////////////////////////
// BoundingRect

// BoundingRect is an axis-aligned rectangle accumulated from points.
type BoundingRect struct {
	Min, Max Vect2
	set      bool
}

func (r *BoundingRect) Add(p Vect2) {
	if !r.set {
		r.Min, r.Max = p, p
		r.set = true
		return
	}
	r.Min.X = gomath.Min(r.Min.X, p.X)
	r.Min.Y = gomath.Min(r.Min.Y, p.Y)
	r.Max.X = gomath.Max(r.Max.X, p.X)
	r.Max.Y = gomath.Max(r.Max.Y, p.Y)
}

func (r *BoundingRect) IsSet() bool { return r.set }

func (r *BoundingRect) Inside(p Vect2) bool {
	return r.set && p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

func (r *BoundingRect) Width() float64 {
	return r.Max.X - r.Min.X
}

func (r *BoundingRect) Height() float64 {
	return r.Max.Y - r.Min.Y
}
