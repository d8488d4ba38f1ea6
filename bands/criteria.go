// bands/criteria.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// Repulsive maneuver criteria. A maneuver step is repulsive with respect
// to a reference intruder when replacing the ownship velocity vo with
// nvo keeps the relative velocity on the coordination side given by eps
// and does not rotate it back toward the line of sight; such steps
// monotonically increase separation from the intruder.

// horizontalCoordination is the sign giving the side of the relative
// velocity with respect to the relative position; it seeds the
// horizontal epsilon for a most-urgent intruder.
func horizontalCoordination(s math.Vect3, v math.Vect3) int {
	return int(math.Sign(s.Vect2().Det(v.Vect2())))
}

// verticalCoordination is the vertical analogue, derived from the
// relative vertical geometry.
func verticalCoordination(s math.Vect3, v math.Vect3) int {
	if s.Z != 0 {
		return int(math.Sign(s.Z))
	}
	return int(math.Sign(-v.Z))
}

// horizontalRepulsive tests the transition vo -> nvo against the
// relative position s (ownship minus intruder) for coordination sign
// eps.
func horizontalRepulsive(s math.Vect3, vo, vi, nvo traffic.Velocity, eps int) bool {
	if eps == 0 {
		return true
	}
	s2 := s.Vect2()
	v := vo.Vect3().Sub(vi.Vect3()).Vect2()
	nv := nvo.Vect3().Sub(vi.Vect3()).Vect2()
	if s2.IsZero() || nv.IsZero() {
		return false
	}
	e := float64(eps)
	// The new relative velocity stays on the eps side of the line of
	// sight and does not swing back toward it.
	onSide := e*s2.Det(nv) <= 0
	noRegress := e*s2.Det(nv) <= e*s2.Det(v) || s2.Dot(nv) >= s2.Dot(v)
	return onSide && noRegress
}

// verticalRepulsive tests the vertical component of the transition
// vo -> nvo for coordination sign eps.
func verticalRepulsive(s math.Vect3, vo, vi, nvo traffic.Velocity, eps int) bool {
	if eps == 0 {
		return true
	}
	vz := vo.Vs() - vi.Vs()
	nvz := nvo.Vs() - vi.Vs()
	e := float64(eps)
	// The relative vertical rate moves toward (or stays on) the eps
	// side and does not shrink while the intruder is on that side.
	return e*nvz >= e*vz || (e*s.Z > 0 && e*nvz >= 0)
}
