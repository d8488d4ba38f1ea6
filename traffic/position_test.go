// traffic/position_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package traffic

import (
	gomath "math"
	"testing"

	"github.com/peregrine-uas/peregrine/math"
)

func TestGreatCircle(t *testing.T) {
	// A quarter of the equator.
	a := MakeLatLonAlt(0, 0, 0)
	b := MakeLatLonAlt(0, gomath.Pi/2, 0)
	want := EarthRadius * gomath.Pi / 2
	if d := a.DistanceH(b); gomath.Abs(d-want) > 1 {
		t.Errorf("quarter equator %g m, expected %g", d, want)
	}
	if trk := a.Track(b); gomath.Abs(trk-gomath.Pi/2) > 1e-9 {
		t.Errorf("eastward bearing %g, expected pi/2", trk)
	}
	if trk := a.Track(MakeLatLonAlt(gomath.Pi/4, 0, 0)); gomath.Abs(trk) > 1e-9 {
		t.Errorf("northward bearing %g, expected 0", trk)
	}
}

func TestLinearEstRoundTrip(t *testing.T) {
	p := MakeLatLonAltDeg(37.1, -76.4, 10)
	q := p.LinearEst(120, -80)
	if d := p.DistanceH(q); gomath.Abs(d-gomath.Hypot(120, 80)) > 0.5 {
		t.Errorf("offset distance %g, expected %g", d, gomath.Hypot(120, 80))
	}
	trk := p.Track(q)
	want := math.To2Pi(gomath.Atan2(-80, 120))
	if math.AngleDiff(trk, want) > 0.01 {
		t.Errorf("offset bearing %g, expected %g", trk, want)
	}
}

func TestLinearWithVelocity(t *testing.T) {
	p := MakeXYZ(0, 0, 10)
	v := MakeTrkGsVs(gomath.Pi/2, 4, 0.5)
	q := p.Linear(v, 10)
	if gomath.Abs(q.X()-40) > 1e-9 || gomath.Abs(q.Y()) > 1e-9 {
		t.Errorf("moved to (%g,%g), expected (40,0)", q.X(), q.Y())
	}
	if gomath.Abs(q.Alt()-15) > 1e-9 {
		t.Errorf("altitude %g, expected 15", q.Alt())
	}
}

func TestInvalidPosition(t *testing.T) {
	if MakeXYZ(1, 2, 3).IsInvalid() {
		t.Errorf("finite position flagged invalid")
	}
	if !MakeXYZ(gomath.NaN(), 2, 3).IsInvalid() {
		t.Errorf("NaN position not flagged")
	}
	if !MakeLatLonAlt(0, 0, gomath.NaN()).IsInvalid() {
		t.Errorf("NaN altitude not flagged")
	}
}
