// bands/integerbands.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// The integer bands search discretizes one maneuver dimension into
// steps and finds maximal runs of conflict-free step indices. The
// concrete dimension supplies the trajectory and sampling step through
// the maneuverDim interface; everything here is dimension-agnostic.

// integerval is a closed integer interval of maneuver steps.
type integerval struct {
	lb, ub int
}

// maneuverDim generates the kinematic trajectory for one maneuver
// dimension. dir selects the maneuver side (false = left/slower/down).
// Instantaneous dimensions and the altitude dimension read the step
// index set by setJStep instead of integrating over time.
type maneuverDim interface {
	instantaneous() bool
	ownVal(own traffic.State) float64
	timeStep(own traffic.State) float64
	trajectory(own traffic.State, t float64, dir bool) (math.Vect3, traffic.Velocity)
	setJStep(k int)
}

// anyLosAircraft reports loss of separation at trajectory time tsk
// against any traffic aircraft.
func (rb *RealBands) anyLosAircraft(det Detector, trajdir bool, tsk float64, own traffic.State, acs []traffic.State) bool {
	for _, ac := range acs {
		sot, vot := rb.dim.trajectory(own, tsk, trajdir)
		sit := ac.S().ScalAdd(tsk, ac.V().Vect3())
		if det.Violation(sot, vot, sit, ac.V()) {
			return true
		}
	}
	return false
}

// cdFutureTraj tests for a conflict within [b,t] along the trajectory's
// constant-velocity continuation from time tt.
func (rb *RealBands) cdFutureTraj(det Detector, b, t float64, trajdir bool, tt float64, own traffic.State, ac traffic.State) bool {
	if tt > t || b > t {
		return false
	}
	sot, vot := rb.dim.trajectory(own, tt, trajdir)
	sit := ac.S().ScalAdd(tt, ac.V().Vect3())
	if b > tt {
		return conflictOrPoint(det, sot, vot, sit, ac.V(), b-tt, t-tt)
	}
	return conflictOrPoint(det, sot, vot, sit, ac.V(), 0, t-tt)
}

func (rb *RealBands) anyConflictAircraft(det Detector, b, t float64, trajdir bool, tsk float64, own traffic.State, acs []traffic.State) bool {
	for _, ac := range acs {
		if rb.cdFutureTraj(det, b, t, trajdir, tsk, own, ac) {
			return true
		}
	}
	return false
}

func (rb *RealBands) anyConflictStep(det Detector, tstep, b, t float64, trajdir bool, max int, own traffic.State, acs []traffic.State) bool {
	for k := 0; k <= max; k++ {
		if rb.anyConflictAircraft(det, b, t, trajdir, tstep*float64(k), own, acs) {
			return true
		}
	}
	return false
}

// noConflictAt reports a conflict-free trajectory continuation from time
// tsk for both the conflict and (optional) recovery detectors.
func (rb *RealBands) noConflictAt(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, trajdir bool, tsk float64, own traffic.State, acs []traffic.State) bool {
	if rb.anyConflictAircraft(conflictDet, b, t, trajdir, tsk, own, acs) {
		return false
	}
	return recoveryDet == nil || !rb.anyConflictAircraft(recoveryDet, b2, t2, trajdir, tsk, own, acs)
}

///////////////////////////////////////////////////////////////////////////
// repulsive criteria along the trajectory

// linvel is the effective velocity between steps k and k+1.
func (rb *RealBands) linvel(own traffic.State, tstep float64, trajdir bool, k int) math.Vect3 {
	s1, _ := rb.dim.trajectory(own, float64(k+1)*tstep, trajdir)
	s0, _ := rb.dim.trajectory(own, float64(k)*tstep, trajdir)
	return s1.Sub(s0).Scal(1 / tstep)
}

func (rb *RealBands) repulsiveAt(tstep float64, trajdir bool, k int, own traffic.State, repac traffic.State, epsh int) bool {
	// repac is valid and k >= 0
	if k == 0 {
		return true
	}
	so, vo := rb.dim.trajectory(own, 0, trajdir)
	si, vi := repac.S(), repac.V()
	rep := true
	if k == 1 {
		rep = horizontalRepulsive(so.Sub(si), vo, vi, traffic.VelocityFromVect3(rb.linvel(own, tstep, trajdir, 0)), epsh)
	}
	if !rep {
		return false
	}
	sot, vot := rb.dim.trajectory(own, float64(k)*tstep, trajdir)
	sit := si.ScalAdd(float64(k)*tstep, vi.Vect3())
	st := sot.Sub(sit)
	vop := traffic.VelocityFromVect3(rb.linvel(own, tstep, trajdir, k-1))
	vok := traffic.VelocityFromVect3(rb.linvel(own, tstep, trajdir, k))
	return horizontalRepulsive(st, vop, vi, vot, epsh) &&
		horizontalRepulsive(st, vot, vi, vok, epsh) &&
		horizontalRepulsive(st, vop, vi, vok, epsh)
}

func (rb *RealBands) firstNonrepulsiveStep(tstep float64, trajdir bool, max int, own traffic.State, repac traffic.State, epsh int) int {
	for k := 0; k <= max; k++ {
		if !rb.repulsiveAt(tstep, trajdir, k, own, repac, epsh) {
			return k
		}
	}
	return -1
}

func (rb *RealBands) vertRepulAt(tstep float64, trajdir bool, k int, own traffic.State, repac traffic.State, epsv int) bool {
	if k == 0 {
		return true
	}
	so, vo := rb.dim.trajectory(own, 0, trajdir)
	si, vi := repac.S(), repac.V()
	rep := true
	if k == 1 {
		rep = verticalRepulsive(so.Sub(si), vo, vi, traffic.VelocityFromVect3(rb.linvel(own, tstep, trajdir, 0)), epsv)
	}
	if !rep {
		return false
	}
	sot, vot := rb.dim.trajectory(own, float64(k)*tstep, trajdir)
	sit := si.ScalAdd(float64(k)*tstep, vi.Vect3())
	st := sot.Sub(sit)
	vop := traffic.VelocityFromVect3(rb.linvel(own, tstep, trajdir, k-1))
	vok := traffic.VelocityFromVect3(rb.linvel(own, tstep, trajdir, k))
	return verticalRepulsive(st, vop, vi, vot, epsv) &&
		verticalRepulsive(st, vot, vi, vok, epsv) &&
		verticalRepulsive(st, vop, vi, vok, epsv)
}

func (rb *RealBands) firstNonvertRepulStep(tstep float64, trajdir bool, max int, own traffic.State, repac traffic.State, epsv int) int {
	for k := 0; k <= max; k++ {
		if !rb.vertRepulAt(tstep, trajdir, k, own, repac, epsv) {
			return k
		}
	}
	return -1
}

///////////////////////////////////////////////////////////////////////////
// search indices

func (rb *RealBands) firstLosStep(det Detector, tstep float64, trajdir bool, min, max int, own traffic.State, acs []traffic.State) int {
	for k := min; k <= max; k++ {
		if rb.anyLosAircraft(det, trajdir, float64(k)*tstep, own, acs) {
			return k
		}
	}
	return -1
}

func (rb *RealBands) firstLosSearchIndex(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, trajdir bool, max int, own traffic.State, acs []traffic.State) int {
	firstK := int(gomath.Ceil(b / tstep))
	firstN := min(int(gomath.Floor(t/tstep)), max)
	firstK2 := int(gomath.Ceil(b2 / tstep))
	firstN2 := min(int(gomath.Floor(t2/tstep)), max)
	firstLosInit := -1
	if recoveryDet != nil {
		firstLosInit = rb.firstLosStep(recoveryDet, tstep, trajdir, firstK2, firstN2, own, acs)
	}
	firstLos := rb.firstLosStep(conflictDet, tstep, trajdir, firstK, firstN, own, acs)
	losInitIndex := max + 1
	if firstLosInit >= 0 {
		losInitIndex = firstLosInit
	}
	losIndex := max + 1
	if firstLos >= 0 {
		losIndex = firstLos
	}
	return min(losInitIndex, losIndex)
}

func (rb *RealBands) bandsSearchIndex(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) int {
	usehcrit := repac.IsValid() && epsh != 0
	usevcrit := repac.IsValid() && epsv != 0
	firstLos := rb.firstLosSearchIndex(conflictDet, recoveryDet, tstep, b, t, b2, t2, trajdir, maxk, own, acs)
	firstNonHRep := firstLos
	if usehcrit && firstLos != 0 {
		firstNonHRep = rb.firstNonrepulsiveStep(tstep, trajdir, firstLos-1, own, repac, epsh)
	}
	firstProbHcrit := maxk + 1
	if firstNonHRep >= 0 {
		firstProbHcrit = firstNonHRep
	}
	firstProbHL := min(firstLos, firstProbHcrit)
	firstNonVRep := firstProbHL
	if usevcrit && firstProbHL != 0 {
		firstNonVRep = rb.firstNonvertRepulStep(tstep, trajdir, firstProbHL-1, own, repac, epsv)
	}
	firstProbVcrit := maxk + 1
	if firstNonVRep >= 0 {
		firstProbVcrit = firstNonVRep
	}
	return min(firstProbHL, firstProbVcrit)
}

///////////////////////////////////////////////////////////////////////////
// band construction

// trajConflictOnlyBands collects maximal runs of conflict-free step
// indices in [0,maxk].
func (rb *RealBands) trajConflictOnlyBands(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State) []integerval {
	var l []integerval
	d := -1 // first index of the current conflict-free run
	for k := 0; k <= maxk; k++ {
		tsk := tstep * float64(k)
		free := rb.noConflictAt(conflictDet, recoveryDet, b, t, b2, t2, trajdir, tsk, own, acs)
		if d >= 0 && free {
			continue
		} else if d >= 0 {
			l = append(l, integerval{d, k - 1})
			d = -1
		} else if free {
			d = k
		}
	}
	if d >= 0 {
		l = append(l, integerval{d, maxk})
	}
	return l
}

func (rb *RealBands) kinematicBands(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) []integerval {
	bsi := rb.bandsSearchIndex(conflictDet, recoveryDet, tstep, b, t, b2, t2, trajdir, maxk, own, acs, repac, epsh, epsv)
	if bsi == 0 {
		return nil
	}
	return rb.trajConflictOnlyBands(conflictDet, recoveryDet, tstep, b, t, b2, t2, trajdir, bsi-1, own, acs)
}

// negIntervals negates, flips, and reverses a list in place, mapping the
// left-direction search into negative step indices.
func negIntervals(l []integerval) []integerval {
	for i, j := 0, len(l)-1; i <= j; i, j = i+1, j-1 {
		li, lj := l[i], l[j]
		l[i] = integerval{-lj.ub, -lj.lb}
		l[j] = integerval{-li.ub, -li.lb}
	}
	return l
}

// appendIntband appends r to l, coalescing bands that meet at a shared
// or adjacent endpoint.
func appendIntband(l, r []integerval) []integerval {
	if len(l) > 0 && len(r) > 0 && r[0].lb-l[len(l)-1].ub <= 1 {
		l[len(l)-1].ub = r[0].ub
		r = r[1:]
	}
	return append(l, r...)
}

// kinematicBandsCombine runs the search on both maneuver sides and
// splices the results into one ordered list over [-maxl,maxr].
func (rb *RealBands) kinematicBandsCombine(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, maxl, maxr int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) []integerval {
	l := rb.kinematicBands(conflictDet, recoveryDet, tstep, b, t, b2, t2, false, maxl, own, acs, repac, epsh, epsv)
	r := rb.kinematicBands(conflictDet, recoveryDet, tstep, b, t, b2, t2, true, maxr, own, acs, repac, epsh, epsv)
	return appendIntband(negIntervals(l), r)
}

///////////////////////////////////////////////////////////////////////////
// red/green queries

// firstGreen returns the first conflict-free step on one side, or -1 if
// the side saturates first.
func (rb *RealBands) firstGreen(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) int {
	usehcrit := repac.IsValid() && epsh != 0
	usevcrit := repac.IsValid() && epsv != 0
	for k := 0; k <= maxk; k++ {
		tsk := tstep * float64(k)
		if (tsk >= b && tsk <= t && rb.anyLosAircraft(conflictDet, trajdir, tsk, own, acs)) ||
			(recoveryDet != nil && tsk >= b2 && tsk <= t2 &&
				rb.anyLosAircraft(recoveryDet, trajdir, tsk, own, acs)) ||
			(usehcrit && !rb.repulsiveAt(tstep, trajdir, k, own, repac, epsh)) ||
			(usevcrit && !rb.vertRepulAt(tstep, trajdir, k, own, repac, epsv)) {
			return -1
		} else if !rb.anyConflictAircraft(conflictDet, b, t, trajdir, tsk, own, acs) &&
			!(recoveryDet != nil && rb.anyConflictAircraft(recoveryDet, b2, t2, trajdir, tsk, own, acs)) {
			return k
		}
	}
	return -1
}

func (rb *RealBands) redBandExist(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) bool {
	usehcrit := repac.IsValid() && epsh != 0
	usevcrit := repac.IsValid() && epsv != 0
	return (usehcrit && rb.firstNonrepulsiveStep(tstep, trajdir, maxk, own, repac, epsh) >= 0) ||
		(usevcrit && rb.firstNonvertRepulStep(tstep, trajdir, maxk, own, repac, epsv) >= 0) ||
		rb.anyConflictStep(conflictDet, tstep, b, t, trajdir, maxk, own, acs) ||
		(recoveryDet != nil && rb.anyConflictStep(recoveryDet, tstep, b2, t2, trajdir, maxk, own, acs))
}

// anyIntRed reports whether any step on the allowed sides is in
// conflict; dir restricts the query to one side (-1 left, 0 both, +1
// right).
func (rb *RealBands) anyIntRed(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, maxl, maxr int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv, dir int) bool {
	leftRed := dir <= 0 && rb.redBandExist(conflictDet, recoveryDet, tstep, b, t, b2, t2, false, maxl, own, acs, repac, epsh, epsv)
	rightRed := dir >= 0 && rb.redBandExist(conflictDet, recoveryDet, tstep, b, t, b2, t2, true, maxr, own, acs, repac, epsh, epsv)
	return leftRed || rightRed
}

// allIntRed reports whether every step on the allowed sides is in
// conflict.
func (rb *RealBands) allIntRed(conflictDet, recoveryDet Detector, tstep, b, t, b2, t2 float64, maxl, maxr int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv, dir int) bool {
	leftAns := dir > 0 || rb.firstGreen(conflictDet, recoveryDet, tstep, b, t, b2, t2, false, maxl, own, acs, repac, epsh, epsv) < 0
	rightAns := dir < 0 || rb.firstGreen(conflictDet, recoveryDet, tstep, b, t, b2, t2, true, maxr, own, acs, repac, epsh, epsv) < 0
	return leftAns && rightAns
}

///////////////////////////////////////////////////////////////////////////
// instantaneous variants

// noInstantaneousConflict evaluates the step selected by setJStep with
// an instantaneous velocity change.
func (rb *RealBands) noInstantaneousConflict(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, trajdir bool, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) bool {
	usehcrit := repac.IsValid() && epsh != 0
	usevcrit := repac.IsValid() && epsv != 0
	_, nvo := rb.dim.trajectory(own, 0, trajdir)
	so, vo := own.S(), own.V()
	si, vi := repac.S(), repac.V()
	s := so.Sub(si)
	if usehcrit && !horizontalRepulsive(s, vo, vi, nvo, epsh) {
		return false
	}
	if usevcrit && !verticalRepulsive(s, vo, vi, nvo, epsv) {
		return false
	}
	return rb.noConflictAt(conflictDet, recoveryDet, b, t, b2, t2, trajdir, 0, own, acs)
}

func (rb *RealBands) instantaneousBands(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) []integerval {
	var l []integerval
	d := -1
	for k := 0; k <= maxk; k++ {
		rb.dim.setJStep(k)
		free := rb.noInstantaneousConflict(conflictDet, recoveryDet, b, t, b2, t2, trajdir, own, acs, repac, epsh, epsv)
		if d >= 0 && free {
			continue
		} else if d >= 0 {
			l = append(l, integerval{d, k - 1})
			d = -1
		} else if free {
			d = k
		}
	}
	if d >= 0 {
		l = append(l, integerval{d, maxk})
	}
	return l
}

func (rb *RealBands) instantaneousBandsCombine(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, maxl, maxr int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) []integerval {
	l := rb.instantaneousBands(conflictDet, recoveryDet, b, t, b2, t2, false, maxl, own, acs, repac, epsh, epsv)
	r := rb.instantaneousBands(conflictDet, recoveryDet, b, t, b2, t2, true, maxr, own, acs, repac, epsh, epsv)
	return appendIntband(negIntervals(l), r)
}

func (rb *RealBands) firstInstantaneousGreen(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) int {
	for k := 0; k <= maxk; k++ {
		rb.dim.setJStep(k)
		if rb.noInstantaneousConflict(conflictDet, recoveryDet, b, t, b2, t2, trajdir, own, acs, repac, epsh, epsv) {
			return k
		}
	}
	return -1
}

func (rb *RealBands) instantaneousRedBandExist(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, trajdir bool, maxk int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv int) bool {
	for k := 0; k <= maxk; k++ {
		rb.dim.setJStep(k)
		if !rb.noInstantaneousConflict(conflictDet, recoveryDet, b, t, b2, t2, trajdir, own, acs, repac, epsh, epsv) {
			return true
		}
	}
	return false
}

func (rb *RealBands) anyInstantaneousRed(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, maxl, maxr int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv, dir int) bool {
	leftRed := dir <= 0 && rb.instantaneousRedBandExist(conflictDet, recoveryDet, b, t, b2, t2, false, maxl, own, acs, repac, epsh, epsv)
	rightRed := dir >= 0 && rb.instantaneousRedBandExist(conflictDet, recoveryDet, b, t, b2, t2, true, maxr, own, acs, repac, epsh, epsv)
	return leftRed || rightRed
}

func (rb *RealBands) allInstantaneousRed(conflictDet, recoveryDet Detector, b, t, b2, t2 float64, maxl, maxr int, own traffic.State, acs []traffic.State, repac traffic.State, epsh, epsv, dir int) bool {
	leftAns := dir > 0 || rb.firstInstantaneousGreen(conflictDet, recoveryDet, b, t, b2, t2, false, maxl, own, acs, repac, epsh, epsv) < 0
	rightAns := dir < 0 || rb.firstInstantaneousGreen(conflictDet, recoveryDet, b, t, b2, t2, true, maxr, own, acs, repac, epsh, epsv) < 0
	return leftAns && rightAns
}
