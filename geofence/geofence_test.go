// geofence/geofence_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geofence

import (
	gomath "math"
	"testing"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

func square(cx, cy, half, floor, ceiling float64, id int, typ FenceType) *Geofence {
	return MakeGeofence(id, typ, floor, ceiling, []traffic.Position{
		traffic.MakeXYZ(cx-half, cy-half, floor),
		traffic.MakeXYZ(cx+half, cy-half, floor),
		traffic.MakeXYZ(cx+half, cy+half, floor),
		traffic.MakeXYZ(cx-half, cy+half, floor),
	})
}

func northboundPlan(dist, speed float64) traffic.Plan {
	var p traffic.Plan
	p.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 0, 10), Time: 0})
	p.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, dist, 10), Time: dist / speed})
	return p
}

// A keep-out square 50 m on a side centred 100 m ahead: predicted
// entry at about 15 s at 5 m/s.
func TestKeepOutPrediction(t *testing.T) {
	fence := square(0, 100, 25, 0, 50, 1, KeepOut)
	own := traffic.MakeOwnship("own", traffic.MakeXYZ(0, 0, 10), traffic.MakeTrkGsVs(0, 5, 0))
	plan := northboundPlan(300, 5)

	fence.CheckViolation(own, 0, &plan, 60)

	if fence.Violation() {
		t.Errorf("not inside the fence yet")
	}
	if !fence.Conflict() {
		t.Fatalf("predicted entry expected")
	}
	entry, exit := fence.EntryExitTime()
	if entry < 14 || entry > 16 {
		t.Errorf("entry time %g, expected about 15", entry)
	}
	if exit <= entry || exit > 26 {
		t.Errorf("exit time %g, expected about 25", exit)
	}
}

// Altitude clearance: flying above the ceiling is not a conflict.
func TestKeepOutAltitudeWindow(t *testing.T) {
	fence := square(0, 100, 25, 0, 50, 1, KeepOut)
	own := traffic.MakeOwnship("own", traffic.MakeXYZ(0, 0, 60), traffic.MakeTrkGsVs(0, 5, 0))
	var plan traffic.Plan
	plan.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 0, 60), Time: 0})
	plan.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 300, 60), Time: 60})

	fence.CheckViolation(own, 0, &plan, 60)
	if fence.Conflict() || fence.Violation() {
		t.Errorf("no conflict expected above the fence ceiling")
	}
}

// Property: for an ownship outside a keep-in polygon, the recovery
// point lies strictly inside a buffered shrink of the polygon.
func TestKeepInRecoveryPoint(t *testing.T) {
	fence := square(50, 50, 50, 0, 50, 2, KeepIn)
	fence.RecoveryBuffer = 1

	cases := []struct {
		name string
		pos  traffic.Position
	}{
		{"east of fence", traffic.MakeXYZ(120, 50, 10)},
		{"northwest corner", traffic.MakeXYZ(-20, 130, 10)},
		{"below floor margin", traffic.MakeXYZ(120, 50, 0.2)},
	}
	pts := []math.Vect2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	for _, c := range cases {
		own := traffic.MakeOwnship("own", c.pos, traffic.MakeTrkGsVs(0, 5, 0))
		fence.CheckViolation(own, 0, nil, 30)
		if !fence.Violation() {
			t.Errorf("%s: should be a violation", c.name)
			continue
		}
		rp := fence.RecoveryPoint()
		p := own.Projection().Project(rp)
		if !math.PointInPolygon(p.Vect2(), pts) {
			t.Errorf("%s: recovery point %v outside the polygon", c.name, p)
			continue
		}
		// Strictly interior by about the buffer.
		if p.X < 0.5 || p.X > 99.5 || p.Y < 0.5 || p.Y > 99.5 {
			t.Errorf("%s: recovery point %v not strictly interior", c.name, p)
		}
		if p.Z < fence.Floor+0.5 || p.Z > fence.Ceiling-0.5 {
			t.Errorf("%s: recovery altitude %g outside buffered range", c.name, p.Z)
		}
	}
}

func TestKeepOutRecoveryPoint(t *testing.T) {
	fence := square(0, 100, 25, 0, 50, 3, KeepOut)
	fence.RecoveryBuffer = 1
	own := traffic.MakeOwnship("own", traffic.MakeXYZ(0, 80, 10), traffic.MakeTrkGsVs(0, 5, 0))
	fence.CheckViolation(own, 0, nil, 30)
	if !fence.Violation() {
		t.Fatalf("ownship is inside the keep-out")
	}
	rp := own.Projection().Project(fence.RecoveryPoint())
	pts := []math.Vect2{{X: -25, Y: 75}, {X: 25, Y: 75}, {X: 25, Y: 125}, {X: -25, Y: 125}}
	if math.PointInPolygon(rp.Vect2(), pts) {
		t.Errorf("recovery point %v still inside the keep-out", rp)
	}
	// Pushed out through the nearest (southern) edge.
	if rp.Y > 75 {
		t.Errorf("recovery point %v should exit through the near edge", rp)
	}
}

func TestWPFeasibility(t *testing.T) {
	keepIn := square(50, 50, 50, 0, 50, 4, KeepIn)
	own := traffic.MakeOwnship("own", traffic.MakeXYZ(50, 50, 10), traffic.MakeTrkGsVs(0, 5, 0))

	if !keepIn.CheckWPFeasibility(own, traffic.MakeXYZ(10, 10, 10), traffic.MakeXYZ(90, 90, 10)) {
		t.Errorf("interior segment should be feasible in a keep-in")
	}
	if keepIn.CheckWPFeasibility(own, traffic.MakeXYZ(10, 10, 10), traffic.MakeXYZ(150, 50, 10)) {
		t.Errorf("segment leaving the keep-in should be infeasible")
	}

	keepOut := square(50, 50, 10, 0, 50, 5, KeepOut)
	if keepOut.CheckWPFeasibility(own, traffic.MakeXYZ(0, 50, 10), traffic.MakeXYZ(100, 50, 10)) {
		t.Errorf("segment crossing the keep-out should be infeasible")
	}
	if !keepOut.CheckWPFeasibility(own, traffic.MakeXYZ(0, 80, 10), traffic.MakeXYZ(100, 80, 10)) {
		t.Errorf("segment clear of the keep-out should be feasible")
	}
	if !keepOut.CheckWPFeasibility(own, traffic.MakeXYZ(0, 50, 60), traffic.MakeXYZ(100, 50, 60)) {
		t.Errorf("segment above the keep-out ceiling should be feasible")
	}
}

func TestFenceHelpers(t *testing.T) {
	fences := []*Geofence{
		square(0, 0, 10, 0, 50, 1, KeepOut),
		square(0, 0, 100, 0, 50, 2, KeepIn),
		square(50, 0, 10, 0, 50, 3, KeepOut),
	}
	if ki := FindKeepIn(fences); ki == nil || ki.ID != 2 {
		t.Errorf("FindKeepIn failed")
	}
	if kos := KeepOutFences(fences); len(kos) != 2 {
		t.Errorf("expected 2 keep-outs, got %d", len(kos))
	}
	if gomath.Abs(fences[0].Ceiling-50) > 0 {
		t.Errorf("ceiling mangled")
	}
}
