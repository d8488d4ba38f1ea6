// resolve/resolver_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package resolve

import (
	gomath "math"
	"testing"

	"github.com/peregrine-uas/peregrine/bands"
	"github.com/peregrine-uas/peregrine/geofence"
	"github.com/peregrine-uas/peregrine/log"
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	r := NewResolver(nil, bands.DefaultParameters(), (*log.Logger)(nil))
	r.Speed = 5
	r.XtrkGain = 0.3
	r.AllowedDev = 5
	return r
}

func eastboundMission() traffic.Plan {
	var p traffic.Plan
	p.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 0, 10), Time: 0})
	p.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(100, 0, 10), Time: 20})
	return p
}

// Cross-track maneuver: 10 m right of an eastbound path, gain 0.3,
// speed 5: the command keeps the total speed and pushes back with
// Vs = gain * deviation.
func TestCrossTrackManeuver(t *testing.T) {
	r := testResolver(t)
	mission := eastboundMission()
	in := Input{
		Ownship:           traffic.MakeOwnship("own", traffic.MakeXYZ(50, -10, 10), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0)),
		MissionPlan:       &mission,
		NextMissionWP:     1,
		PlanType:          Mission,
		CrossTrackDev:     -10,
		CrossTrackOffset:  50,
		DeviationConflict: true,
	}

	out := r.Resolve(in)
	if out.Kind != KindManeuver {
		t.Fatalf("expected a maneuver, got %v", out.Kind)
	}
	// Northward component pushing back toward the path, magnitude
	// gain * deviation.
	if gomath.Abs(out.Vn-3) > 1e-9 {
		t.Errorf("Vn = %g, expected 3", out.Vn)
	}
	if gomath.Abs(out.Ve-4) > 1e-9 {
		t.Errorf("Ve = %g, expected 4", out.Ve)
	}
	if v := gomath.Hypot(out.Vn, out.Ve); gomath.Abs(v-5) > 1e-9 {
		t.Errorf("total speed %g, expected the resolution speed", v)
	}
	if out.Vu != 0 {
		t.Errorf("no vertical command expected")
	}
}

// Beyond twice the allowed deviation the resolver switches to a
// two-point return trajectory.
func TestCrossTrackTrajectory(t *testing.T) {
	r := testResolver(t)
	mission := eastboundMission()
	in := Input{
		Ownship:           traffic.MakeOwnship("own", traffic.MakeXYZ(50, -20, 10), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0)),
		MissionPlan:       &mission,
		NextMissionWP:     1,
		PlanType:          Mission,
		CrossTrackDev:     -20,
		CrossTrackOffset:  50,
		DeviationConflict: true,
	}

	out := r.Resolve(in)
	if out.Kind != KindTrajectory {
		t.Fatalf("expected a trajectory, got %v", out.Kind)
	}
	if out.Plan.Size() != 2 {
		t.Fatalf("expected 2 points, got %d", out.Plan.Size())
	}
	// The return point sits on the path at the along-track offset.
	back := out.Plan.Point(1).Pos
	if gomath.Abs(back.Y()) > 1e-6 || gomath.Abs(back.X()-50) > 1e-6 {
		t.Errorf("return point (%g,%g), expected (50,0)", back.X(), back.Y())
	}
	if out.Plan.LastTime() <= 0 {
		t.Errorf("trajectory has no duration")
	}
}

func TestGoAbovePlan(t *testing.T) {
	r := testResolver(t)
	start := traffic.MakeXYZ(0, 0, 10)
	goal := traffic.MakeXYZ(0, 100, 10)
	plan := r.ComputeGoAbovePlan(start, goal, 50)

	if plan.Size() != 4 {
		t.Fatalf("expected 4 points, got %d", plan.Size())
	}
	if alt := plan.Point(1).Pos.Alt(); alt != 51 {
		t.Errorf("climb waypoint altitude %g, expected ceiling+1", alt)
	}
	if alt := plan.Point(2).Pos.Alt(); alt != 51 {
		t.Errorf("traverse waypoint altitude %g, expected ceiling+1", alt)
	}
	if plan.LastPoint().Pos.Alt() != 10 {
		t.Errorf("final point should descend back to the start altitude")
	}
	for i := 1; i < plan.Size(); i++ {
		if plan.Point(i).Time <= plan.Point(i-1).Time {
			t.Errorf("times not strictly increasing at %d", i)
		}
	}
}

func TestKeepInResolution(t *testing.T) {
	r := testResolver(t)
	fence := geofence.MakeGeofence(1, geofence.KeepIn, 0, 50, []traffic.Position{
		traffic.MakeXYZ(0, 0, 0),
		traffic.MakeXYZ(100, 0, 0),
		traffic.MakeXYZ(100, 100, 0),
		traffic.MakeXYZ(0, 100, 0),
	})
	own := traffic.MakeOwnship("own", traffic.MakeXYZ(120, 50, 10), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0))
	fence.CheckViolation(own, 0, nil, 30)
	if !fence.Violation() {
		t.Fatalf("setup: ownship should violate the keep-in")
	}

	var mission traffic.Plan
	mission.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(10, 50, 10), Time: 0})
	mission.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(90, 50, 10), Time: 16})

	in := Input{
		Ownship:       own,
		MissionPlan:   &mission,
		NextMissionWP: 1,
		PlanType:      Mission,
		Fences:        []*geofence.Geofence{fence},
		KeepInFence:   fence,
	}
	out := r.Resolve(in)
	if out.Kind != KindTrajectory || out.PlanType != Trajectory {
		t.Fatalf("expected a trajectory response")
	}
	if out.Plan.Size() != 1 {
		t.Fatalf("expected the single recovery point, got %d", out.Plan.Size())
	}
	rp := own.Projection().Project(out.Plan.Point(0).Pos)
	if rp.X > 100 {
		t.Errorf("recovery point %v not inside the fence", rp)
	}
	// The segment recovery -> next waypoint is feasible, so the
	// mission pointer advances.
	if out.NextMissionWP != 2 {
		t.Errorf("next mission waypoint %d, expected 2", out.NextMissionWP)
	}
}

func TestKeepOutResolutionPrefersShorterPlan(t *testing.T) {
	r := testResolver(t)
	r.GridSize = 10
	r.MaxCeiling = 40 // fence ceiling 50 exceeds it: go-above is out

	fence := geofence.MakeGeofence(2, geofence.KeepOut, 0, 50, []traffic.Position{
		traffic.MakeXYZ(-25, 75, 0),
		traffic.MakeXYZ(25, 75, 0),
		traffic.MakeXYZ(25, 125, 0),
		traffic.MakeXYZ(-25, 125, 0),
	})

	var mission traffic.Plan
	mission.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 0, 10), Time: 0})
	mission.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 300, 10), Time: 60})

	own := traffic.MakeOwnship("own", traffic.MakeXYZ(0, 0, 10), traffic.MakeTrkGsVs(0, 5, 0))
	fence.CheckViolation(own, 0, &mission, 60)
	if !fence.Conflict() {
		t.Fatalf("setup: fence conflict expected")
	}

	in := Input{
		Ownship:       own,
		MissionPlan:   &mission,
		NextMissionWP: 1,
		PlanType:      Mission,
		ElapsedTime:   0,
		Fences:        []*geofence.Geofence{fence},
		KeepOutFence:  fence,
	}
	out := r.Resolve(in)
	if out.Kind != KindTrajectory {
		t.Fatalf("expected a trajectory response")
	}
	if out.Plan.Size() < 3 {
		t.Fatalf("reroute should carry interior waypoints, got %d", out.Plan.Size())
	}
	// The reroute is the grid plan (go-above was rejected on ceiling):
	// level flight throughout.
	for i := 0; i < out.Plan.Size(); i++ {
		if alt := out.Plan.Point(i).Pos.Alt(); gomath.Abs(alt-10) > 1e-6 {
			t.Errorf("waypoint %d altitude %g, expected level grid plan", i, alt)
		}
	}
	// And it stays out of the fence.
	proj := own.Projection()
	pts := make([]math.Vect2, 0, 4)
	for _, v := range fence.Vertices {
		pts = append(pts, proj.Project(v).Vect2())
	}
	for i := 0; i < out.Plan.Size(); i++ {
		if math.PointInPolygon(proj.Project(out.Plan.Point(i).Pos).Vect2(), pts) {
			t.Errorf("reroute waypoint %d inside the keep-out", i)
		}
	}
}
