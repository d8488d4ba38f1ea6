// traffic/plan.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package traffic

import (
	gomath "math"
	"slices"
)

// NavPoint is a plan waypoint: a position with an arrival time in
// seconds relative to the start of the plan.
type NavPoint struct {
	Pos  Position
	Time float64
}

// Plan is an ordered sequence of NavPoints with non-decreasing times.
type Plan struct {
	points []NavPoint
}

func (p *Plan) Size() int {
	return len(p.points)
}

func (p *Plan) IsEmpty() bool {
	return len(p.points) == 0
}

func (p *Plan) Clear() {
	p.points = p.points[:0]
}

// Add inserts a NavPoint, keeping times non-decreasing.
func (p *Plan) Add(np NavPoint) {
	i, _ := slices.BinarySearchFunc(p.points, np, func(a, b NavPoint) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	// Insert after any point with an equal time.
	for i < len(p.points) && p.points[i].Time == np.Time {
		i++
	}
	p.points = slices.Insert(p.points, i, np)
}

// Point returns the i-th NavPoint; out-of-range indices are clamped.
func (p *Plan) Point(i int) NavPoint {
	if len(p.points) == 0 {
		return NavPoint{}
	}
	if i < 0 {
		i = 0
	} else if i >= len(p.points) {
		i = len(p.points) - 1
	}
	return p.points[i]
}

func (p *Plan) FirstTime() float64 {
	if len(p.points) == 0 {
		return 0
	}
	return p.points[0].Time
}

func (p *Plan) LastTime() float64 {
	if len(p.points) == 0 {
		return 0
	}
	return p.points[len(p.points)-1].Time
}

func (p *Plan) LastPoint() NavPoint {
	return p.Point(len(p.points) - 1)
}

// PathDistance is the sum of horizontal leg lengths in metres.
func (p *Plan) PathDistance() float64 {
	var d float64
	for i := 1; i < len(p.points); i++ {
		d += p.points[i-1].Pos.DistanceH(p.points[i].Pos)
	}
	return d
}

// GetSegment returns the index i such that time t falls in the leg from
// point i to point i+1; -1 before the plan starts, Size()-1 at or past
// the end.
func (p *Plan) GetSegment(t float64) int {
	if len(p.points) == 0 || t < p.points[0].Time {
		return -1
	}
	for i := 1; i < len(p.points); i++ {
		if t < p.points[i].Time {
			return i - 1
		}
	}
	return len(p.points) - 1
}

// Position interpolates the position at time t, clamped to the plan's
// time span.
func (p *Plan) Position(t float64) Position {
	if len(p.points) == 0 {
		return Position{}
	}
	if t <= p.points[0].Time {
		return p.points[0].Pos
	}
	if t >= p.LastTime() {
		return p.LastPoint().Pos
	}
	i := p.GetSegment(t)
	p0, p1 := p.points[i], p.points[i+1]
	dt := p1.Time - p0.Time
	if dt <= 0 {
		return p0.Pos
	}
	f := (t - p0.Time) / dt
	trk := p0.Pos.Track(p1.Pos)
	dist := p0.Pos.DistanceH(p1.Pos) * f
	alt := p0.Pos.Alt() + f*(p1.Pos.Alt()-p0.Pos.Alt())
	return p0.Pos.LinearDist2D(trk, dist).MkAlt(alt)
}

// CutDown returns the sub-plan covering [t0,t1], with interpolated end
// points.
func (p *Plan) CutDown(t0, t1 float64) Plan {
	var out Plan
	if len(p.points) == 0 || t1 < t0 {
		return out
	}
	t0 = gomath.Max(t0, p.FirstTime())
	t1 = gomath.Min(t1, p.LastTime())
	out.Add(NavPoint{Pos: p.Position(t0), Time: t0})
	for _, np := range p.points {
		if np.Time > t0 && np.Time < t1 {
			out.Add(np)
		}
	}
	out.Add(NavPoint{Pos: p.Position(t1), Time: t1})
	return out
}

// Copy returns a deep copy of the plan.
func (p *Plan) Copy() Plan {
	return Plan{points: slices.Clone(p.points)}
}
