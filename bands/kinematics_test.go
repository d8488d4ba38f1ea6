// bands/kinematics_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"
	"testing"

	"github.com/peregrine-uas/peregrine/traffic"
)

func TestTurnQuarterArc(t *testing.T) {
	// Northbound at 10 m/s, turning right at 0.1 rad/s: after a
	// quarter turn the aircraft is at (R,R) heading east, R = gs/omega.
	pos := traffic.MakeXYZ(0, 0, 0)
	vel := traffic.MakeTrkGsVs(0, 10, 0)
	quarter := gomath.Pi / 2 / 0.1

	np, nv := turn(pos, vel, quarter, 0.1, true)
	if gomath.Abs(nv.Trk()-gomath.Pi/2) > 1e-9 {
		t.Errorf("track %g after a quarter right turn, expected pi/2", nv.Trk())
	}
	if gomath.Abs(np.X()-100) > 1e-6 || gomath.Abs(np.Y()-100) > 1e-6 {
		t.Errorf("position (%g,%g), expected (100,100)", np.X(), np.Y())
	}

	// Mirror for a left turn.
	np, nv = turn(pos, vel, quarter, 0.1, false)
	if gomath.Abs(nv.Trk()-3*gomath.Pi/2) > 1e-9 {
		t.Errorf("track %g after a quarter left turn, expected 3pi/2", nv.Trk())
	}
	if gomath.Abs(np.X()+100) > 1e-6 || gomath.Abs(np.Y()-100) > 1e-6 {
		t.Errorf("position (%g,%g), expected (-100,100)", np.X(), np.Y())
	}

	// Ground speed is preserved through the turn.
	if gomath.Abs(nv.Gs()-10) > 1e-9 {
		t.Errorf("gs %g changed during the turn", nv.Gs())
	}
}

func TestGsAccelStopsAtZero(t *testing.T) {
	pos := traffic.MakeXYZ(0, 0, 0)
	vel := traffic.MakeTrkGsVs(0, 5, 0)

	// Decelerating at 1 m/s2 from 5 m/s: stopped after 5 s and 12.5 m.
	np, nv := gsAccel(pos, vel, 10, -1)
	if nv.Gs() != 0 {
		t.Errorf("gs %g, expected 0", nv.Gs())
	}
	if gomath.Abs(np.Y()-12.5) > 1e-9 {
		t.Errorf("travelled %g m, expected 12.5", np.Y())
	}

	// Accelerating is plain integration.
	np, nv = gsAccel(pos, vel, 2, 1)
	if gomath.Abs(nv.Gs()-7) > 1e-9 {
		t.Errorf("gs %g, expected 7", nv.Gs())
	}
	if gomath.Abs(np.Y()-12) > 1e-9 {
		t.Errorf("travelled %g m, expected 12", np.Y())
	}
}

func TestLevelOutTimes(t *testing.T) {
	// From level flight at 0 m toward 10 m with 2 m/s rate and 1 m/s2
	// accel: accelerate for 2 s (gaining 2 m), cruise 3 s (6 m),
	// decelerate 2 s (2 m).
	t1, t2, t3 := levelOutTimes(0, 0, 2, 10, 1)
	if gomath.Abs(t1-2) > 1e-9 || gomath.Abs(t2-5) > 1e-9 || gomath.Abs(t3-7) > 1e-9 {
		t.Errorf("level-out times (%g,%g,%g), expected (2,5,7)", t1, t2, t3)
	}

	pos := traffic.MakeXYZ(0, 0, 0)
	vel := traffic.MakeTrkGsVs(0, 5, 0)
	np, nv := vsLevelOut(pos, vel, t3, 2, 10, 1)
	if gomath.Abs(np.Alt()-10) > 1e-6 {
		t.Errorf("altitude %g at level-out, expected 10", np.Alt())
	}
	if gomath.Abs(nv.Vs()) > 1e-6 {
		t.Errorf("vs %g at level-out, expected 0", nv.Vs())
	}

	// Midway through the cruise phase the rate is the climb rate.
	_, nv = vsLevelOut(pos, vel, 3.5, 2, 10, 1)
	if gomath.Abs(nv.Vs()-2) > 1e-9 {
		t.Errorf("vs %g mid-climb, expected 2", nv.Vs())
	}

	// Descents mirror.
	t1, _, t3 = levelOutTimes(100, 0, 2, 90, 1)
	if gomath.Abs(t1-2) > 1e-9 || gomath.Abs(t3-7) > 1e-9 {
		t.Errorf("descent times (%g,%g), expected (2,7)", t1, t3)
	}
	np, _ = vsLevelOut(traffic.MakeXYZ(0, 0, 100), vel, 20, 2, 90, 1)
	if gomath.Abs(np.Alt()-90) > 1e-6 {
		t.Errorf("altitude %g after descent, expected 90", np.Alt())
	}
}

func TestTurnRateBankAngle(t *testing.T) {
	// The two parameterizations are inverses of each other.
	gs := 10.0
	bank := 0.3
	omega := turnRate(gs, bank)
	if got := bankAngle(gs, omega); gomath.Abs(got-bank) > 1e-9 {
		t.Errorf("bankAngle(turnRate) = %g, expected %g", got, bank)
	}
	if turnRate(0, bank) != 0 || turnRate(gs, 0) != 0 {
		t.Errorf("degenerate inputs should give zero rate")
	}
}
