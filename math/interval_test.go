// math/interval_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
	"testing"
)

func TestIntervalSetAdd(t *testing.T) {
	var s IntervalSet
	s.Add(0, 1)
	s.Add(2, 3)
	s.Add(0.5, 1.5)
	if s.Size() != 2 {
		t.Fatalf("expected 2 intervals after merge, got %d", s.Size())
	}
	if iv := s.Interval(0); iv.Low != 0 || iv.Up != 1.5 {
		t.Errorf("first interval [%g,%g], expected [0,1.5]", iv.Low, iv.Up)
	}

	// Touching intervals coalesce.
	s.Add(1.5, 2)
	if s.Size() != 1 {
		t.Errorf("expected full coalesce, got %d intervals", s.Size())
	}
}

func TestIntervalSetDiff(t *testing.T) {
	var s IntervalSet
	s.Add(0, 10)
	s.Diff(3, 4)
	if s.Size() != 2 {
		t.Fatalf("expected a split into 2 intervals, got %d", s.Size())
	}
	if s.In(3.5) {
		t.Errorf("3.5 should have been removed")
	}
	if !s.In(2) || !s.In(5) {
		t.Errorf("rest of the interval should remain")
	}
}

func TestNearestBounds(t *testing.T) {
	var s IntervalSet
	s.Add(0, 1)
	s.Add(4, 5)

	below, above := s.NearestBounds(2.5)
	if below != 1 || above != 4 {
		t.Errorf("gap: got (%g,%g), expected (1,4)", below, above)
	}

	below, above = s.NearestBounds(0.5)
	if below != 0.5 || above != 0.5 {
		t.Errorf("interior: got (%g,%g), expected (0.5,0.5)", below, above)
	}

	below, above = s.NearestBounds(-3)
	if !gomath.IsInf(below, -1) || above != 0 {
		t.Errorf("left of all: got (%g,%g)", below, above)
	}
}

func TestIntervalSetIgnoresEmpty(t *testing.T) {
	var s IntervalSet
	s.Add(5, 2)
	if !s.IsEmpty() {
		t.Errorf("adding an inverted interval should be a no-op")
	}
}
