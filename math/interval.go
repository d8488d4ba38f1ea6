// math/interval.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
	"slices"
)

// Interval is a closed interval on the reals. An interval with Low > Up
// is empty.
type Interval struct {
	Low, Up float64
}

var EmptyInterval = Interval{Low: gomath.Inf(1), Up: gomath.Inf(-1)}

func (i Interval) IsEmpty() bool {
	return i.Low > i.Up
}

func (i Interval) In(v float64) bool {
	return i.Low <= v && v <= i.Up
}

// InOpen tests membership excluding the endpoints.
func (i Interval) InOpen(v float64) bool {
	return i.Low < v && v < i.Up
}

func (i Interval) Width() float64 {
	if i.IsEmpty() {
		return 0
	}
	return i.Up - i.Low
}

func (i Interval) Intersect(o Interval) Interval {
	return Interval{gomath.Max(i.Low, o.Low), gomath.Min(i.Up, o.Up)}
}

///////////////////////////////////////////////////////////////////////////
// IntervalSet

// IntervalSet is a finite set of sorted, disjoint closed intervals.
// Intervals that touch or overlap are coalesced as they are added.
type IntervalSet struct {
	intervals []Interval
}

func (s *IntervalSet) Size() int {
	return len(s.intervals)
}

func (s *IntervalSet) IsEmpty() bool {
	return len(s.intervals) == 0
}

func (s *IntervalSet) Interval(i int) Interval {
	if i < 0 || i >= len(s.intervals) {
		return EmptyInterval
	}
	return s.intervals[i]
}

func (s *IntervalSet) Intervals() []Interval {
	return slices.Clone(s.intervals)
}

func (s *IntervalSet) Clear() {
	s.intervals = s.intervals[:0]
}

// In reports whether v lies in some interval of the set.
func (s *IntervalSet) In(v float64) bool {
	for _, in := range s.intervals {
		if in.In(v) {
			return true
		}
	}
	return false
}

// Add inserts [lb,ub] into the set, coalescing with any intervals it
// touches. Empty input intervals are ignored.
func (s *IntervalSet) Add(lb, ub float64) {
	if lb > ub {
		return
	}
	iv := Interval{lb, ub}
	var out []Interval
	placed := false
	for _, in := range s.intervals {
		switch {
		case in.Up < iv.Low && !AlmostEquals(in.Up, iv.Low):
			out = append(out, in)
		case iv.Up < in.Low && !AlmostEquals(iv.Up, in.Low):
			if !placed {
				out = append(out, iv)
				placed = true
			}
			out = append(out, in)
		default:
			iv = Interval{gomath.Min(iv.Low, in.Low), gomath.Max(iv.Up, in.Up)}
		}
	}
	if !placed {
		out = append(out, iv)
	}
	s.intervals = out
}

func (s *IntervalSet) AddInterval(iv Interval) {
	s.Add(iv.Low, iv.Up)
}

// Union merges another set into this one.
func (s *IntervalSet) Union(o *IntervalSet) {
	for _, in := range o.intervals {
		s.Add(in.Low, in.Up)
	}
}

// Diff removes [lb,ub] from the set.
func (s *IntervalSet) Diff(lb, ub float64) {
	if lb > ub {
		return
	}
	var out []Interval
	for _, in := range s.intervals {
		if in.Up < lb || in.Low > ub {
			out = append(out, in)
			continue
		}
		if in.Low < lb {
			out = append(out, Interval{in.Low, lb})
		}
		if in.Up > ub {
			out = append(out, Interval{ub, in.Up})
		}
	}
	s.intervals = out
}

// NearestBounds returns the greatest set point <= v and the least set
// point >= v; either is +/-Inf if no such point exists. If v is interior
// to an interval both returned values equal v.
func (s *IntervalSet) NearestBounds(v float64) (below, above float64) {
	below, above = gomath.Inf(-1), gomath.Inf(1)
	for _, in := range s.intervals {
		if in.In(v) {
			return v, v
		}
		if in.Up <= v {
			below = gomath.Max(below, in.Up)
		}
		if in.Low >= v {
			above = gomath.Min(above, in.Low)
		}
	}
	return
}
