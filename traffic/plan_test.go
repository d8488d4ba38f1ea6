// traffic/plan_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package traffic

import (
	gomath "math"
	"testing"
)

func makeTestPlan() Plan {
	var p Plan
	p.Add(NavPoint{Pos: MakeXYZ(0, 0, 10), Time: 0})
	p.Add(NavPoint{Pos: MakeXYZ(0, 100, 10), Time: 20})
	p.Add(NavPoint{Pos: MakeXYZ(100, 100, 10), Time: 40})
	return p
}

func TestPlanSegments(t *testing.T) {
	p := makeTestPlan()
	cases := []struct {
		t    float64
		want int
	}{
		{-1, -1},
		{0, 0},
		{10, 0},
		{20, 1},
		{39.9, 1},
		{40, 2},
		{100, 2},
	}
	for _, c := range cases {
		if got := p.GetSegment(c.t); got != c.want {
			t.Errorf("GetSegment(%g) = %d, expected %d", c.t, got, c.want)
		}
	}
}

func TestPlanPathDistance(t *testing.T) {
	p := makeTestPlan()
	if d := p.PathDistance(); gomath.Abs(d-200) > 1e-9 {
		t.Errorf("path distance %g, expected 200", d)
	}
}

func TestPlanPosition(t *testing.T) {
	p := makeTestPlan()
	pos := p.Position(10) // halfway up the first leg
	if gomath.Abs(pos.Y()-50) > 1e-6 || gomath.Abs(pos.X()) > 1e-6 {
		t.Errorf("Position(10) = (%g,%g), expected (0,50)", pos.X(), pos.Y())
	}

	pos = p.Position(1000)
	if pos.X() != 100 || pos.Y() != 100 {
		t.Errorf("past the end should clamp to the last point")
	}
}

func TestPlanCutDown(t *testing.T) {
	p := makeTestPlan()
	cut := p.CutDown(10, 30)
	if cut.Size() != 3 {
		t.Fatalf("expected 3 points (two interpolated ends + one interior), got %d", cut.Size())
	}
	if cut.FirstTime() != 10 || cut.LastTime() != 30 {
		t.Errorf("cut spans [%g,%g], expected [10,30]", cut.FirstTime(), cut.LastTime())
	}
	if mid := cut.Point(1); mid.Time != 20 {
		t.Errorf("interior point at t=%g, expected 20", mid.Time)
	}
}

func TestPlanAddKeepsOrder(t *testing.T) {
	var p Plan
	p.Add(NavPoint{Pos: MakeXYZ(0, 0, 0), Time: 10})
	p.Add(NavPoint{Pos: MakeXYZ(0, 0, 0), Time: 5})
	p.Add(NavPoint{Pos: MakeXYZ(0, 0, 0), Time: 7})
	for i := 1; i < p.Size(); i++ {
		if p.Point(i).Time < p.Point(i-1).Time {
			t.Fatalf("times out of order at %d", i)
		}
	}
}
