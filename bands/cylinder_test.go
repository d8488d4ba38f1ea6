// bands/cylinder_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"
	"testing"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

func TestCylinderViolation(t *testing.T) {
	cd := MakeCDCylinder(30, 15)
	cases := []struct {
		name     string
		so, si   math.Vect3
		expected bool
	}{
		{"co-located", math.Vect3{}, math.Vect3{}, true},
		{"inside horizontally", math.Vect3{}, math.Vect3{X: 20}, true},
		{"outside horizontally", math.Vect3{}, math.Vect3{X: 31}, false},
		{"inside vertically", math.Vect3{}, math.Vect3{X: 10, Z: 14}, true},
		{"above", math.Vect3{}, math.Vect3{Z: 16}, false},
	}
	v := traffic.Velocity{}
	for _, c := range cases {
		if got := cd.Violation(c.so, v, c.si, v); got != c.expected {
			t.Errorf("%s: violation = %v, expected %v", c.name, got, c.expected)
		}
	}
}

func TestCylinderConflictWindow(t *testing.T) {
	cd := MakeCDCylinder(30, 15)
	so := math.Vect3{}
	vo := traffic.MakeVxyz(10, 0, 0)
	si := math.Vect3{X: 100}
	vi := traffic.Velocity{}

	// Closing at 10 m/s from 100 m: the 30 m cylinder is entered at
	// t=7 and exited at t=13.
	conf := cd.Conflict(so, vo, si, vi, 0, 20)
	if !conf.Conflict() {
		t.Fatalf("expected a conflict")
	}
	if gomath.Abs(conf.TimeIn-7) > 1e-9 || gomath.Abs(conf.TimeOut-13) > 1e-9 {
		t.Errorf("window [%g,%g], expected [7,13]", conf.TimeIn, conf.TimeOut)
	}

	// Clamping to the query window.
	conf = cd.Conflict(so, vo, si, vi, 0, 10)
	if gomath.Abs(conf.TimeOut-10) > 1e-9 {
		t.Errorf("exit should clamp to T, got %g", conf.TimeOut)
	}

	// Window entirely before entry: no conflict.
	conf = cd.Conflict(so, vo, si, vi, 0, 5)
	if conf.Conflict() {
		t.Errorf("no conflict expected within [0,5]")
	}

	// Diverging traffic never conflicts.
	conf = cd.Conflict(so, vo, math.Vect3{X: -100}, vi, 0, 20)
	if conf.Conflict() {
		t.Errorf("no conflict expected with diverging geometry")
	}
}

func TestCylinderCopyIsDeep(t *testing.T) {
	cd := MakeCDCylinder(30, 15)
	cp := cd.Copy().(*CDCylinder)
	cp.R = 99
	if cd.R != 30 {
		t.Errorf("copy aliases the original")
	}
	if cd.Identifier() == cp.Identifier() {
		t.Errorf("identifiers should reflect the dimensions")
	}
}

func TestTCASTableDimensions(t *testing.T) {
	tc := MakeTCASTable()
	lowR, lowH := tc.dimensions(500 * ft)
	highR, highH := tc.dimensions(30000 * ft)
	if lowR >= highR {
		t.Errorf("DMOD should grow with altitude: %g vs %g", lowR, highR)
	}
	if lowH > highH {
		t.Errorf("ZTHR should not shrink with altitude: %g vs %g", lowH, highH)
	}

	// Violation honours the altitude band in effect.
	so := math.Vect3{Z: 500 * ft}
	si := math.Vect3{X: 0.3 * nmi, Z: 500 * ft}
	v := traffic.Velocity{}
	if tc.Violation(so, v, si, v) {
		t.Errorf("0.3 nmi exceeds the low-altitude DMOD")
	}
	so = math.Vect3{Z: 30000 * ft}
	si = math.Vect3{X: 0.3 * nmi, Z: 30000 * ft}
	if !tc.Violation(so, v, si, v) {
		t.Errorf("0.3 nmi is inside the high-altitude DMOD")
	}
}

func TestTurnThroughBand(t *testing.T) {
	deg := math.Radians
	cases := []struct {
		name               string
		low, high          float64
		newTrk, oldTrk     float64
		expected           bool
	}{
		{"right turn across band", deg(80), deg(100), deg(120), deg(60), true},
		{"right turn short of band", deg(80), deg(100), deg(70), deg(60), false},
		{"left turn across band", deg(80), deg(100), deg(60), deg(120), true},
		{"turn ends inside band", deg(80), deg(100), deg(90), deg(60), false},
		{"wrap across north", deg(350), deg(10), deg(30), deg(330), true},
	}
	for _, c := range cases {
		if got := TurnThroughBand(c.low, c.high, c.newTrk, c.oldTrk); got != c.expected {
			t.Errorf("%s: got %v, expected %v", c.name, got, c.expected)
		}
	}
}
