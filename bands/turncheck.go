// bands/turncheck.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"github.com/peregrine-uas/peregrine/math"
)

// TurnThroughBand reports whether turning from oldTrk to newTrk the
// short way sweeps entirely across the band [low,up]. Headings and
// band bounds are compass angles in radians. A maneuver that has to
// turn through a conflict band is not acceptable even when its end
// state is clear.
func TurnThroughBand(low, up, newTrk, oldTrk float64) bool {
	psi := math.SignedTurn(oldTrk, newTrk)
	if psi >= 0 {
		// Right turn: arc [0,psi] relative to the old track.
		x := math.To2Pi(low - oldTrk)
		y := math.To2Pi(up - oldTrk)
		return x > 0 && x <= y && psi > y
	}
	// Left turn: mirror.
	x := math.To2Pi(oldTrk - up)
	y := math.To2Pi(oldTrk - low)
	return x > 0 && x <= y && -psi > y
}

// TurnGoesThroughConflict tests the turn from oldTrk to newTrk against
// every non-NONE band of the track dimension.
func (b *MultiBands) TurnGoesThroughConflict(newTrk, oldTrk float64) bool {
	for i := 0; i < b.TrackLength(); i++ {
		if b.TrackRegion(i) == None {
			continue
		}
		iv := b.Track(i)
		if TurnThroughBand(iv.Low, iv.Up, newTrk, oldTrk) {
			return true
		}
	}
	return false
}
