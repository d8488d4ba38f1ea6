// traffic/state_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package traffic

import (
	gomath "math"
	"testing"

	"github.com/peregrine-uas/peregrine/math"
)

func TestVelocityViews(t *testing.T) {
	v := MakeTrkGsVs(math.Radians(90), 5, 1)
	if gomath.Abs(v.X-5) > 1e-9 || gomath.Abs(v.Y) > 1e-9 {
		t.Errorf("east velocity expected, got (%g,%g)", v.X, v.Y)
	}
	if gomath.Abs(v.Trk()-math.Radians(90)) > 1e-9 {
		t.Errorf("track %g, expected pi/2", v.Trk())
	}
	if gomath.Abs(v.Gs()-5) > 1e-9 {
		t.Errorf("gs %g, expected 5", v.Gs())
	}
	if v.Vs() != 1 {
		t.Errorf("vs %g, expected 1", v.Vs())
	}

	w := v.MkTrk(0)
	if gomath.Abs(w.Y-5) > 1e-9 || gomath.Abs(w.X) > 1e-9 {
		t.Errorf("MkTrk(0) should point north, got (%g,%g)", w.X, w.Y)
	}
	if w.Vs() != 1 {
		t.Errorf("MkTrk must preserve vertical speed")
	}
}

func TestProjectionCoherence(t *testing.T) {
	ownPos := MakeLatLonAltDeg(37.1, -76.4, 10)
	own := MakeOwnship("own", ownPos, MakeTrkGsVs(0, 5, 0))

	// The ownship projects onto the tangent plane origin.
	if s := own.S(); s.Vect2().Norm() > 1e-6 || s.Z != 10 {
		t.Errorf("ownship projects to %v, expected origin at altitude", s)
	}

	// An intruder 100m north should land at (0,100) in the plane.
	intrPos := ownPos.LinearEst(100, 0)
	intr := own.MakeIntruder("intr", intrPos, MakeTrkGsVs(gomath.Pi, 5, 0))
	s := intr.S()
	if gomath.Abs(s.Y-100) > 0.5 || gomath.Abs(s.X) > 0.5 {
		t.Errorf("intruder projects to (%g,%g), expected (0,100)", s.X, s.Y)
	}

	// Round trip through the projection.
	back := own.Projection().Inverse(s)
	if ownPos.DistanceH(back)-ownPos.DistanceH(intrPos) > 0.5 {
		t.Errorf("projection inverse moved the intruder")
	}
}

func TestLinearProjection(t *testing.T) {
	own := MakeOwnship("own", MakeXYZ(0, 0, 10), MakeTrkGsVs(0, 5, 1))
	adv := own.LinearProjection(10)
	s := adv.S()
	if gomath.Abs(s.Y-50) > 1e-9 || gomath.Abs(s.Z-20) > 1e-9 {
		t.Errorf("advanced to %v, expected (0,50,20)", s)
	}
	// The original state is unchanged.
	if own.S().Y != 0 {
		t.Errorf("LinearProjection must not mutate the receiver")
	}
}

func TestFindAircraft(t *testing.T) {
	own := MakeOwnship("own", MakeXYZ(0, 0, 0), Velocity{})
	acs := []State{
		own.MakeIntruder("a", MakeXYZ(1, 0, 0), Velocity{}),
		own.MakeIntruder("b", MakeXYZ(2, 0, 0), Velocity{}),
	}
	if got := FindAircraft(acs, "b"); got.ID != "b" {
		t.Errorf("expected to find b, got %q", got.ID)
	}
	if got := FindAircraft(acs, "zz"); got.IsValid() {
		t.Errorf("unknown id should return the invalid sentinel")
	}
}
