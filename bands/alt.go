// bands/alt.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// altDim is the altitude dimension. Unlike the rate dimensions the
// maneuver is a target altitude: the trajectory is a vertical-speed
// level-off toward min_alt + j*step, and the search walks target
// altitude cells instead of signed rate steps. Altitude is never
// circular.
type altDim struct {
	vertRate  float64
	vertAccel float64
	step      float64
	minAlt    float64
	maxAlt    float64
	jStep     int
}

func MakeAltBands(p Parameters) *RealBands {
	dim := &altDim{
		vertRate:  p.VerticalRate,
		vertAccel: p.VerticalAccel,
		step:      p.AltStep,
		minAlt:    p.MinAlt,
		maxAlt:    p.MaxAlt,
	}
	return makeRealBands("alt", p.MinAlt, p.MaxAlt, false, 0, p.AltStep, p.RecoveryAltBands, dim)
}

func (d *altDim) instantaneous() bool {
	return d.vertRate == 0 || d.vertAccel == 0
}

func (d *altDim) ownVal(own traffic.State) float64 {
	return own.Pos.Alt()
}

func (d *altDim) timeStep(own traffic.State) float64 {
	return 1
}

func (d *altDim) setJStep(k int) { d.jStep = k }

func (d *altDim) targetAlt() float64 {
	return d.minAlt + float64(d.jStep)*d.step
}

func (d *altDim) trajectory(own traffic.State, t float64, dir bool) (math.Vect3, traffic.Velocity) {
	target := d.targetAlt()
	var pos traffic.Position
	var vel traffic.Velocity
	if d.instantaneous() {
		pos, vel = own.Pos.MkAlt(target), own.Vel.MkVs(0)
	} else {
		_, _, t3 := levelOutTimes(own.Pos.Alt(), own.Vel.Vs(), d.vertRate, target, d.vertAccel)
		tsqj := t3 + d.timeStep(own)
		if t <= tsqj {
			pos, vel = vsLevelOut(own.Pos, own.Vel, t, d.vertRate, target, d.vertAccel)
		} else {
			pos = own.Pos.Linear(own.Vel.MkVs(0), t).MkAlt(target)
			vel = own.Vel.MkVs(0)
		}
	}
	return own.PosToS(pos), own.VelToV(pos, vel)
}

///////////////////////////////////////////////////////////////////////////
// altitude-specific search

// conflictFreeTrajStep tests the level-off toward the current target
// altitude cell: discrete samples through both acceleration phases, the
// continuous climb segment in between, and the linear continuation
// after level-off.
func (d *altDim) conflictFreeTrajStep(rb *RealBands, conflictDet, recoveryDet Detector, b, t, b2, t2 float64, own traffic.State, acs []traffic.State) bool {
	trajdir := true
	if d.instantaneous() {
		return rb.noConflictAt(conflictDet, recoveryDet, b, t, b2, t2, trajdir, 0, own, acs)
	}
	tstep := d.timeStep(own)
	target := d.targetAlt()
	tsqj1, tsqj2, t3 := levelOutTimes(own.Pos.Alt(), own.Vel.Vs(), d.vertRate, target, d.vertAccel)
	tsqj3 := t3 + tstep
	for i := 0; i <= int(gomath.Floor(tsqj1/tstep)); i++ {
		tsi := float64(i) * tstep
		if (b <= tsi && tsi <= t && rb.anyLosAircraft(conflictDet, trajdir, tsi, own, acs)) ||
			(recoveryDet != nil && b2 <= tsi && tsi <= t2 &&
				rb.anyLosAircraft(recoveryDet, trajdir, tsi, own, acs)) {
			return false
		}
	}
	if (tsqj2 >= b &&
		rb.anyConflictAircraft(conflictDet, b, gomath.Min(t, tsqj2), trajdir, gomath.Max(tsqj1, 0), own, acs)) ||
		(recoveryDet != nil && tsqj2 >= b2 &&
			rb.anyConflictAircraft(recoveryDet, b2, gomath.Min(t2, tsqj2), trajdir, gomath.Max(tsqj1, 0), own, acs)) {
		return false
	}
	for i := int(gomath.Ceil(tsqj2 / tstep)); i <= int(gomath.Floor(tsqj3/tstep)); i++ {
		tsi := float64(i) * tstep
		if (b <= tsi && tsi <= t && rb.anyLosAircraft(conflictDet, trajdir, tsi, own, acs)) ||
			(recoveryDet != nil && b2 <= tsi && tsi <= t2 &&
				rb.anyLosAircraft(recoveryDet, trajdir, tsi, own, acs)) {
			return false
		}
	}
	return rb.noConflictAt(conflictDet, recoveryDet, b, t, b2, t2, trajdir, gomath.Max(tsqj3, 0), own, acs)
}

// altBandsGeneric collects conflict-free runs of target altitude cells.
func (d *altDim) altBandsGeneric(rb *RealBands, conflictDet, recoveryDet Detector, b, t, b2, t2 float64, own traffic.State, acs []traffic.State) []integerval {
	maxStep := int(gomath.Floor((d.maxAlt-d.minAlt)/d.step)) + 1
	var l []integerval
	dd := -1
	for k := 0; k <= maxStep; k++ {
		d.jStep = k
		free := d.conflictFreeTrajStep(rb, conflictDet, recoveryDet, b, t, b2, t2, own, acs)
		if dd >= 0 && free {
			continue
		} else if dd >= 0 {
			l = append(l, integerval{dd, k - 1})
			dd = -1
		} else if free {
			dd = k
		}
	}
	if dd >= 0 {
		l = append(l, integerval{dd, maxStep})
	}
	return l
}

// firstNat finds the first (dir up) or last (dir down) cell in
// [mini,maxi] whose conflict-freedom matches green.
func (d *altDim) firstNat(rb *RealBands, mini, maxi int, dir bool, conflictDet, recoveryDet Detector, b, t, b2, t2 float64, own traffic.State, acs []traffic.State, green bool) int {
	for mini <= maxi {
		if dir {
			d.jStep = mini
			if green == d.conflictFreeTrajStep(rb, conflictDet, recoveryDet, b, t, b2, t2, own, acs) {
				return d.jStep
			}
			mini++
		} else {
			d.jStep = maxi
			if green == d.conflictFreeTrajStep(rb, conflictDet, recoveryDet, b, t, b2, t2, own, acs) {
				return d.jStep
			} else if maxi == 0 {
				return -1
			}
			maxi--
		}
	}
	return -1
}

// firstBandAltGeneric searches outward from the current altitude cell;
// dir true searches up.
func (d *altDim) firstBandAltGeneric(rb *RealBands, conflictDet, recoveryDet Detector, b, t, b2, t2 float64, own traffic.State, acs []traffic.State, dir, green bool) int {
	alt := own.Pos.Alt()
	if alt < d.minAlt || alt > d.maxAlt {
		return -1
	}
	var lower, upper int
	if dir {
		lower = int(gomath.Ceil((alt - d.minAlt) / d.step))
		upper = int(gomath.Floor((d.maxAlt-d.minAlt)/d.step)) + 1
	} else {
		lower = 0
		upper = int(gomath.Floor((alt - d.minAlt) / d.step))
	}
	return d.firstNat(rb, lower, upper, dir, conflictDet, recoveryDet, b, t, b2, t2, own, acs, green)
}

///////////////////////////////////////////////////////////////////////////
// bandsOverride

func (d *altDim) noneBands(rb *RealBands, noneset *math.IntervalSet, conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) {
	l := d.altBandsGeneric(rb, conflictDet, recoveryDet, b, t, 0, b, own, acs)
	rb.toIntervalSet(noneset, l, d.step, d.minAlt, d.minAlt, d.maxAlt)
}

func (d *altDim) anyRed(rb *RealBands, conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) bool {
	return d.firstBandAltGeneric(rb, conflictDet, recoveryDet, b, t, 0, b, own, acs, true, false) >= 0 ||
		d.firstBandAltGeneric(rb, conflictDet, recoveryDet, b, t, 0, b, own, acs, false, false) >= 0
}

func (d *altDim) allRed(rb *RealBands, conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) bool {
	return d.firstBandAltGeneric(rb, conflictDet, recoveryDet, b, t, 0, b, own, acs, true, true) < 0 &&
		d.firstBandAltGeneric(rb, conflictDet, recoveryDet, b, t, 0, b, own, acs, false, true) < 0
}
