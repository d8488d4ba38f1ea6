// geofence/geofence.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package geofence predicts entry and exit of polygonal keep-in and
// keep-out volumes along the aircraft trajectory and synthesizes
// recovery points inside the safe set.
package geofence

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

type FenceType int

const (
	KeepIn FenceType = iota
	KeepOut
)

func (t FenceType) String() string {
	if t == KeepIn {
		return "keep-in"
	}
	return "keep-out"
}

// Geofence is a 2-D polygon with a floor and ceiling. It tracks two
// lifecycle flags: Conflict (predicted violation within the lookahead)
// and Violation (current containment breach); on violation it caches
// the nearest safe position as the recovery point.
type Geofence struct {
	ID       int
	Type     FenceType
	Vertices []traffic.Position
	Floor    float64
	Ceiling  float64

	// RecoveryBuffer offsets the recovery point into the safe set, and
	// also pads waypoint feasibility checks.
	RecoveryBuffer float64

	conflict      bool
	violation     bool
	entryTime     float64
	exitTime      float64
	recoveryPoint traffic.Position
}

func MakeGeofence(id int, typ FenceType, floor, ceiling float64, vertices []traffic.Position) *Geofence {
	return &Geofence{
		ID:             id,
		Type:           typ,
		Vertices:       vertices,
		Floor:          floor,
		Ceiling:        ceiling,
		RecoveryBuffer: 1,
	}
}

func (g *Geofence) Conflict() bool  { return g.conflict }
func (g *Geofence) Violation() bool { return g.violation }

// EntryExitTime returns the predicted violation window in plan time.
func (g *Geofence) EntryExitTime() (float64, float64) {
	return g.entryTime, g.exitTime
}

func (g *Geofence) RecoveryPoint() traffic.Position {
	return g.recoveryPoint
}

// Clear resets the lifecycle flags.
func (g *Geofence) Clear() {
	g.conflict = false
	g.violation = false
	g.entryTime = 0
	g.exitTime = 0
}

// projectVertices maps the fence polygon into the ownship tangent
// plane.
func (g *Geofence) projectVertices(proj traffic.Projection) []math.Vect2 {
	pts := make([]math.Vect2, len(g.Vertices))
	for i, v := range g.Vertices {
		pts[i] = proj.Project(v).Vect2()
	}
	return pts
}

// contains tests 3-D containment of a projected point.
func (g *Geofence) contains(pts []math.Vect2, p math.Vect3) bool {
	return math.PointInPolygon(p.Vect2(), pts) && p.Z >= g.Floor && p.Z <= g.Ceiling
}

// violatedBy reports whether the projected point breaches the fence:
// outside a keep-in, or inside a keep-out.
func (g *Geofence) violatedBy(pts []math.Vect2, p math.Vect3) bool {
	in := g.contains(pts, p)
	if g.Type == KeepIn {
		return !in
	}
	return in
}

// CheckViolation updates the lifecycle flags against the current
// ownship state and the plan being flown. elapsed is the plan time at
// the ownship's position; the plan is sampled from there through the
// lookahead horizon.
func (g *Geofence) CheckViolation(own traffic.State, elapsed float64, fp *traffic.Plan, lookahead float64) {
	proj := own.Projection()
	pts := g.projectVertices(proj)
	if len(pts) < 3 {
		return
	}

	g.violation = g.violatedBy(pts, own.S())

	g.conflict = false
	g.entryTime, g.exitTime = 0, 0
	if fp != nil && !fp.IsEmpty() {
		const sampleStep = 1.0
		tEnd := gomath.Min(elapsed+lookahead, fp.LastTime())
		inViolation := false
		for t := elapsed; t <= tEnd; t += sampleStep {
			p := proj.Project(fp.Position(t))
			if g.violatedBy(pts, p) {
				if !inViolation {
					g.conflict = true
					g.entryTime = t
					inViolation = true
				}
				g.exitTime = t
			} else {
				inViolation = false
			}
		}
	}

	if g.violation || g.conflict {
		g.recoveryPoint = g.computeRecoveryPoint(proj, pts, own.S())
	}
}

// computeRecoveryPoint returns the closest safe position: strictly
// inside a keep-in polygon, or strictly outside a keep-out polygon,
// offset from the nearest edge by the recovery buffer along its
// normal.
func (g *Geofence) computeRecoveryPoint(proj traffic.Projection, pts []math.Vect2, s math.Vect3) traffic.Position {
	p := s.Vect2()
	best := gomath.Inf(1)
	var nearest, inward math.Vect2
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		q := math.ClosestPointOnSegment(p, a, b)
		if d := p.Distance(q); d < best {
			best = d
			nearest = q
			// Edge normal pointing into the polygon interior.
			n := b.Sub(a).PerpL().Hat()
			mid := a.Add(b).Scal(0.5)
			if !math.PointInPolygon(mid.Add(n.Scal(1e-3)), pts) {
				n = n.Scal(-1)
			}
			inward = n
		}
	}

	dir := inward
	if g.Type == KeepOut {
		dir = inward.Scal(-1)
	}
	r := nearest.Add(dir.Scal(g.RecoveryBuffer))

	// Near a vertex the edge normal can slide the point along the
	// boundary; fall back to stepping toward the polygon centroid.
	if g.Type == KeepIn && minEdgeDistance(r, pts) < g.RecoveryBuffer/2 {
		c := centroid(pts)
		r = nearest.Add(c.Sub(nearest).Hat().Scal(g.RecoveryBuffer))
	}

	alt := s.Z
	if g.Type == KeepIn {
		alt = math.Clamp(alt, g.Floor+g.RecoveryBuffer, g.Ceiling-g.RecoveryBuffer)
	}
	return proj.Inverse(math.Vect3{X: r.X, Y: r.Y, Z: alt})
}

func minEdgeDistance(p math.Vect2, pts []math.Vect2) float64 {
	best := gomath.Inf(1)
	for i := range pts {
		q := math.ClosestPointOnSegment(p, pts[i], pts[(i+1)%len(pts)])
		best = gomath.Min(best, p.Distance(q))
	}
	return best
}

func centroid(pts []math.Vect2) math.Vect2 {
	var c math.Vect2
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scal(1 / float64(len(pts)))
}

// CheckWPFeasibility tests whether the segment between the two
// waypoints respects the fence: fully contained for a keep-in, fully
// clear for a keep-out.
func (g *Geofence) CheckWPFeasibility(own traffic.State, wp1, wp2 traffic.Position) bool {
	proj := own.Projection()
	pts := g.projectVertices(proj)
	if len(pts) < 3 {
		return true
	}
	a3 := proj.Project(wp1)
	b3 := proj.Project(wp2)
	a, b := a3.Vect2(), b3.Vect2()
	if g.Type == KeepIn {
		return g.contains(pts, a3) && g.contains(pts, b3) &&
			!math.SegmentIntersectsPolygon(a, b, pts)
	}
	if g.contains(pts, a3) || g.contains(pts, b3) {
		return false
	}
	// The segment may clear the polygon vertically.
	if a3.Z > g.Ceiling && b3.Z > g.Ceiling {
		return true
	}
	if a3.Z < g.Floor && b3.Z < g.Floor {
		return true
	}
	return !math.SegmentIntersectsPolygon(a, b, pts)
}

// FindKeepIn returns the first keep-in fence of the list, or nil.
func FindKeepIn(fences []*Geofence) *Geofence {
	for _, g := range fences {
		if g.Type == KeepIn {
			return g
		}
	}
	return nil
}

// KeepOutFences returns the keep-out fences of the list.
func KeepOutFences(fences []*Geofence) []*Geofence {
	var out []*Geofence
	for _, g := range fences {
		if g.Type == KeepOut {
			out = append(out, g)
		}
	}
	return out
}
