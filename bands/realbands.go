// bands/realbands.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// RealBands computes the coloured bands of one maneuver dimension. The
// dimension's trajectory generation comes from the maneuverDim it is
// built with; the caching, alert levels, colouring, recovery, and
// resolution machinery is shared.
//
// min/max bound the maneuver range, either absolute or (when rel)
// relative to the current value. mod is the period of circular
// dimensions (2pi for track, 0 otherwise). All cached values are
// invalidated by Reset, which the owning MultiBands calls whenever an
// input changes.
type RealBands struct {
	name     string
	min, max float64
	rel      bool
	mod      float64
	step     float64
	recovery bool

	dim maneuverDim

	outdated      bool
	checked       int // negative unchecked, 0 invalid, positive valid
	malformed     bool
	peripheralAcs [][]traffic.State
	ranges        []BandsRange
	recoveryTime  float64
	resolutions   []math.Interval
}

// bandsOverride lets a dimension replace the generic search; the
// altitude dimension, whose maneuver is a target altitude rather than a
// signed rate change, provides all four.
type bandsOverride interface {
	noneBands(rb *RealBands, noneset *math.IntervalSet, conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State)
	anyRed(rb *RealBands, conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) bool
	allRed(rb *RealBands, conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) bool
}

func makeRealBands(name string, min, max float64, rel bool, mod, step float64, recovery bool, dim maneuverDim) *RealBands {
	return &RealBands{
		name:         name,
		min:          min,
		max:          max,
		rel:          rel,
		mod:          mod,
		step:         step,
		recovery:     recovery,
		dim:          dim,
		outdated:     true,
		checked:      -1,
		recoveryTime: gomath.NaN(),
	}
}

func (rb *RealBands) Name() string { return rb.name }

// Reset drops all cached results; the next query recomputes.
func (rb *RealBands) Reset() {
	rb.outdated = true
	rb.checked = -1
	rb.ranges = nil
	rb.resolutions = nil
	rb.peripheralAcs = nil
	rb.recoveryTime = gomath.NaN()
}

// SetMinMax adjusts the range bounds and resets.
func (rb *RealBands) SetMinMax(min, max float64) {
	if min != rb.min || max != rb.max {
		rb.min, rb.max = min, max
		rb.Reset()
	}
}

func (rb *RealBands) SetStep(step float64) {
	if step != rb.step {
		rb.step = step
		rb.Reset()
	}
}

func (rb *RealBands) SetRecovery(flag bool) {
	if flag != rb.recovery {
		rb.recovery = flag
		rb.Reset()
	}
}

///////////////////////////////////////////////////////////////////////////
// range geometry

func (rb *RealBands) modVal(v float64) float64 {
	return math.Modulo(v, rb.mod)
}

// circular reports a range that spans the whole period.
func (rb *RealBands) circular() bool {
	return rb.mod > 0 && rb.rel && rb.max-rb.min >= rb.mod
}

func (rb *RealBands) minVal(own traffic.State) float64 {
	if rb.circular() {
		return 0
	}
	if rb.rel {
		return rb.modVal(rb.dim.ownVal(own) + rb.min)
	}
	return rb.min
}

func (rb *RealBands) maxVal(own traffic.State) float64 {
	if rb.circular() {
		return rb.mod
	}
	if rb.rel {
		return rb.modVal(rb.dim.ownVal(own) + rb.max)
	}
	return rb.max
}

// minRel is the positive distance from the current value down to the
// minimum; maxRel the distance up to the maximum.
func (rb *RealBands) minRel(own traffic.State) float64 {
	if rb.rel {
		return -rb.min
	}
	if rb.mod > 0 {
		return math.ModDist(rb.dim.ownVal(own), rb.minVal(own), rb.mod)
	}
	return rb.dim.ownVal(own) - rb.min
}

func (rb *RealBands) maxRel(own traffic.State) float64 {
	if rb.rel {
		return rb.max
	}
	if rb.mod > 0 {
		return math.ModDist(rb.dim.ownVal(own), rb.maxVal(own), rb.mod)
	}
	return rb.max - rb.dim.ownVal(own)
}

func (rb *RealBands) maxdown(own traffic.State) int {
	down := int(gomath.Ceil(rb.minRel(own)/rb.step)) + 1
	if rb.mod > 0 && float64(down)*rb.step > rb.mod/2+1e-12 {
		down = int(gomath.Ceil(rb.mod / (2 * rb.step)))
	}
	return down
}

func (rb *RealBands) maxup(own traffic.State) int {
	up := int(gomath.Ceil(rb.maxRel(own)/rb.step)) + 1
	if rb.mod > 0 && float64(up)*rb.step > rb.mod/2+1e-12 {
		up = int(gomath.Ceil(rb.mod / (2 * rb.step)))
	}
	return up
}

// toIntervalSet translates integer step intervals into real intervals
// around the current value, clamping to the range and unwrapping the
// modulus.
func (rb *RealBands) toIntervalSet(noneset *math.IntervalSet, l []integerval, scal, add, min, max float64) {
	noneset.Clear()
	for _, ii := range l {
		lb := scal*float64(ii.lb) + add
		ub := scal*float64(ii.ub) + add
		if rb.mod == 0 {
			lb = gomath.Max(min, lb)
			ub = gomath.Min(max, ub)
			noneset.Add(lb, ub)
		} else {
			lb = rb.modVal(lb)
			ub = rb.modVal(ub)
			if math.AlmostEquals(lb, ub) && ii.ub > ii.lb {
				noneset.Add(0, rb.mod)
			} else if lb < ub {
				noneset.Add(lb, ub)
			} else {
				noneset.Add(lb, rb.mod)
				noneset.Add(0, ub)
			}
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// generic search entry points

func (rb *RealBands) noneBands(noneset *math.IntervalSet, conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) {
	if o, ok := rb.dim.(bandsOverride); ok {
		o.noneBands(rb, noneset, conflictDet, recoveryDet, repac, epsh, epsv, b, t, own, acs)
		return
	}
	var l []integerval
	if rb.dim.instantaneous() {
		l = rb.instantaneousBandsCombine(conflictDet, recoveryDet, b, t, 0, b, rb.maxdown(own), rb.maxup(own), own, acs, repac, epsh, epsv)
	} else {
		l = rb.kinematicBandsCombine(conflictDet, recoveryDet, rb.dim.timeStep(own), b, t, 0, b, rb.maxdown(own), rb.maxup(own), own, acs, repac, epsh, epsv)
	}
	rb.toIntervalSet(noneset, l, rb.step, rb.dim.ownVal(own), rb.minVal(own), rb.maxVal(own))
}

func (rb *RealBands) anyRed(conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) bool {
	if o, ok := rb.dim.(bandsOverride); ok {
		return o.anyRed(rb, conflictDet, recoveryDet, repac, epsh, epsv, b, t, own, acs)
	}
	if rb.dim.instantaneous() {
		return rb.anyInstantaneousRed(conflictDet, recoveryDet, b, t, 0, b, rb.maxdown(own), rb.maxup(own), own, acs, repac, epsh, epsv, 0)
	}
	return rb.anyIntRed(conflictDet, recoveryDet, rb.dim.timeStep(own), b, t, 0, b, rb.maxdown(own), rb.maxup(own), own, acs, repac, epsh, epsv, 0)
}

func (rb *RealBands) allRed(conflictDet, recoveryDet Detector, repac traffic.State, epsh, epsv int, b, t float64, own traffic.State, acs []traffic.State) bool {
	if o, ok := rb.dim.(bandsOverride); ok {
		return o.allRed(rb, conflictDet, recoveryDet, repac, epsh, epsv, b, t, own, acs)
	}
	if rb.dim.instantaneous() {
		return rb.allInstantaneousRed(conflictDet, recoveryDet, b, t, 0, b, rb.maxdown(own), rb.maxup(own), own, acs, repac, epsh, epsv, 0)
	}
	return rb.allIntRed(conflictDet, recoveryDet, rb.dim.timeStep(own), b, t, 0, b, rb.maxdown(own), rb.maxup(own), own, acs, repac, epsh, epsv, 0)
}

///////////////////////////////////////////////////////////////////////////
// cached computation

func (rb *RealBands) checkInput(core *Core) bool {
	if rb.checked < 0 {
		rb.checked = 0
		// A detector that fails its copy invariant poisons the whole
		// dimension until it is re-parameterized.
		for level := 1; level <= core.Parameters.Alertor.MostSevereAlertLevel(); level++ {
			if det := core.Parameters.Alertor.GetLevel(level).Detector; det != nil {
				if cp := det.Copy(); cp == nil || cp.Identifier() != det.Identifier() {
					rb.malformed = true
				}
			}
		}
		if !rb.malformed && core.HasOwnship() && rb.step > 0 &&
			!gomath.IsNaN(rb.min) && !gomath.IsNaN(rb.max) {
			val := rb.dim.ownVal(core.Ownship)
			ok := false
			if rb.rel {
				ok = rb.min <= 0 && rb.max >= 0
			} else if rb.mod > 0 {
				ok = true // any current value is reachable on the circle
			} else {
				ok = rb.min <= val && val <= rb.max
			}
			if ok && !gomath.IsNaN(val) {
				rb.checked = 1
			}
		}
	}
	return rb.checked > 0
}

// update recomputes the caches if any input changed since the last
// query. It is the single entry point for all cached accessors.
func (rb *RealBands) update(core *Core) {
	if !rb.outdated {
		return
	}
	rb.ranges = nil
	rb.resolutions = nil
	rb.recoveryTime = gomath.NaN()
	n := core.Parameters.Alertor.MostSevereAlertLevel()
	rb.peripheralAcs = make([][]traffic.State, n)
	if rb.checkInput(core) {
		for level := 1; level <= n; level++ {
			if core.Parameters.Alertor.GetLevel(level).Region.IsConflictBand() {
				rb.computePeripheral(core, level)
			}
		}
		rb.compute(core)
	}
	rb.outdated = false
}

// kinematicConflict reports whether some maneuver in this dimension
// puts the ownship in conflict with ac within time t.
func (rb *RealBands) kinematicConflict(core *Core, ac traffic.State, det Detector, t float64) bool {
	return rb.anyRed(det, nil, core.criteriaAc(), core.EpsilonH(), core.EpsilonV(), 0, t, core.Ownship, []traffic.State{ac})
}

func (rb *RealBands) computePeripheral(core *Core, level int) {
	at := core.Parameters.Alertor.GetLevel(level)
	t := gomath.Min(core.Parameters.LookaheadTime, at.EarlyAlertingTime)
	var acs []traffic.State
	for _, ac := range core.Traffic {
		cd := at.Detector.Conflict(core.Ownship.S(), core.Ownship.V(), ac.S(), ac.V(), 0, t)
		if !cd.Conflict() && rb.kinematicConflict(core, ac, at.Detector, t) {
			acs = append(acs, ac)
		}
	}
	rb.peripheralAcs[level-1] = acs
}

func (rb *RealBands) compute(core *Core) {
	n := core.Parameters.Alertor.MostSevereAlertLevel()
	noneSets := make([]*math.IntervalSet, 0, n)
	regions := make([]Region, 0, n)
	rb.resolutions = make([]math.Interval, n)
	for i := range rb.resolutions {
		rb.resolutions[i] = math.Interval{Low: gomath.NaN(), Up: gomath.NaN()}
	}
	recovery := false
	for level := 1; level <= n; level++ {
		region := core.Parameters.Alertor.GetLevel(level).Region
		if !region.IsConflictBand() {
			continue
		}
		noneset := &math.IntervalSet{}
		rt := rb.computeLevel(noneset, core, level)
		if !gomath.IsNaN(rt) {
			recovery = true
			rb.recoveryTime = rt
		}
		noneSets = append(noneSets, noneset)
		regions = append(regions, region)
		rb.resolutions[level-1] = rb.findResolution(core, noneset)
	}
	rb.colorBands(noneSets, regions, core, recovery)
}

// computeLevel computes the none set of one alert level, resorting to
// recovery bands when the level saturates. Returns the recovery time or
// NaN when no recovery bands were computed.
func (rb *RealBands) computeLevel(noneset *math.IntervalSet, core *Core, level int) float64 {
	alerting := append([]traffic.State{}, rb.peripheralAcs[level-1]...)
	alerting = append(alerting, core.conflictAircraft(level)...)
	if len(alerting) == 0 {
		if rb.mod > 0 {
			noneset.Add(0, rb.mod)
		} else {
			noneset.Add(rb.minVal(core.Ownship), rb.maxVal(core.Ownship))
		}
		return gomath.NaN()
	}
	at := core.Parameters.Alertor.GetLevel(level)
	t := gomath.Min(core.Parameters.LookaheadTime, at.EarlyAlertingTime)
	rb.noneBands(noneset, at.Detector, nil, core.criteriaAc(), core.EpsilonH(), core.EpsilonV(), 0, t, core.Ownship, alerting)
	if noneset.IsEmpty() && rb.recovery {
		return rb.computeRecoveryBands(noneset, core, alerting)
	}
	return gomath.NaN()
}

// computeRecoveryBands computes the bands that clear a saturated
// conflict soonest. The returned recovery time is negative infinity
// when no recovery exists within the early alerting time (capped at the
// lookahead).
func (rb *RealBands) computeRecoveryBands(noneset *math.IntervalSet, core *Core, alerting []traffic.State) float64 {
	recoveryTime := gomath.Inf(-1)
	level := core.Parameters.Alertor.ConflictLevel
	at := core.Parameters.Alertor.GetLevel(level)
	detector := at.Detector
	t := gomath.Min(core.Parameters.LookaheadTime, at.EarlyAlertingTime)
	repac := core.recoveryAc()
	epsh, epsv := core.EpsilonH(), core.EpsilonV()
	cd := MakeCDCylinder(core.minHorizontalRecovery(), core.minVerticalRecovery())
	rb.noneBands(noneset, cd, nil, repac, epsh, epsv, 0, t, core.Ownship, alerting)
	if noneset.IsEmpty() {
		if core.Parameters.CollisionAvoidanceBands {
			// Shrink the recovery volume toward the NMAC cylinder until a
			// band opens.
			for f := 1 - core.Parameters.CAFactor; f >= core.Parameters.CAFactor && noneset.IsEmpty(); f -= core.Parameters.CAFactor {
				rb.noneBands(noneset, cd.Shrink(f), nil, repac, epsh, epsv, 0, t, core.Ownship, alerting)
			}
		}
		if noneset.IsEmpty() {
			return recoveryTime
		}
	}

	// Binary search for the earliest projection time after which some
	// maneuver clears the conflict volume.
	project := func(dt float64) (traffic.State, []traffic.State) {
		own := core.Ownship.LinearProjection(dt)
		acs := make([]traffic.State, len(alerting))
		for i, ac := range alerting {
			acs[i] = ac.LinearProjection(dt)
		}
		return own, acs
	}
	pivotRed, pivotGreen := 0.0, t+1
	pivot := pivotGreen - 1
	for pivotGreen-pivotRed > 0.5 {
		own, acs := project(pivot)
		if rb.allRed(detector, nil, repac, epsh, epsv, 0, t, own, acs) {
			pivotRed = pivot
		} else {
			pivotGreen = pivot
		}
		pivot = (pivotRed + pivotGreen) / 2
	}
	if pivotGreen <= t {
		recoveryTime = gomath.Min(t, pivotGreen+core.Parameters.RecoveryStabilityTime)
		own, acs := project(recoveryTime)
		set := &math.IntervalSet{}
		rb.noneBands(set, detector, cd, repac, epsh, epsv, 0, t, own, acs)
		if !set.IsEmpty() {
			*noneset = *set
		}
	}
	return recoveryTime
}

// findResolution extracts the down/up resolution pair from a none set;
// a NaN interval when the current value is already conflict-free.
func (rb *RealBands) findResolution(core *Core, noneset *math.IntervalSet) math.Interval {
	val := rb.modVal(rb.dim.ownVal(core.Ownship))
	if noneset.In(val) {
		return math.Interval{Low: gomath.NaN(), Up: gomath.NaN()}
	}
	if noneset.IsEmpty() {
		return math.Interval{Low: gomath.Inf(-1), Up: gomath.Inf(1)}
	}
	if rb.mod > 0 {
		// Nearest band edges going around the circle.
		down, up := gomath.Inf(-1), gomath.Inf(1)
		bestDown, bestUp := gomath.Inf(1), gomath.Inf(1)
		for i := 0; i < noneset.Size(); i++ {
			iv := noneset.Interval(i)
			if d := math.Modulo(val-iv.Up, rb.mod); d < bestDown {
				bestDown, down = d, iv.Up
			}
			if d := math.Modulo(iv.Low-val, rb.mod); d < bestUp {
				bestUp, up = d, iv.Low
			}
		}
		return math.Interval{Low: down, Up: up}
	}
	below, above := noneset.NearestBounds(val)
	return math.Interval{Low: below, Up: above}
}

// colorBands builds the final range list over the full maneuver domain.
// A value is coloured by the most severe level that flags it; values
// clear at every level are NONE, or RECOVERY when the bands are
// saturated and recovery bands were computed.
func (rb *RealBands) colorBands(noneSets []*math.IntervalSet, regions []Region, core *Core, recovery bool) {
	lo, hi := rb.minVal(core.Ownship), rb.maxVal(core.Ownship)
	if rb.mod > 0 {
		lo, hi = 0, rb.mod
	}
	if hi <= lo {
		rb.ranges = nil
		return
	}

	// Elementary interval boundaries from every none set.
	bounds := []float64{lo, hi}
	for _, set := range noneSets {
		for i := 0; i < set.Size(); i++ {
			iv := set.Interval(i)
			if iv.Low > lo && iv.Low < hi {
				bounds = append(bounds, iv.Low)
			}
			if iv.Up > lo && iv.Up < hi {
				bounds = append(bounds, iv.Up)
			}
		}
	}
	sortFloats(bounds)

	classify := func(v float64) Region {
		for i, set := range noneSets {
			if !set.In(v) {
				return regions[i]
			}
		}
		if recovery {
			return Recovery
		}
		return None
	}

	var ranges []BandsRange
	for i := 1; i < len(bounds); i++ {
		if math.AlmostEquals(bounds[i-1], bounds[i]) {
			continue
		}
		region := classify((bounds[i-1] + bounds[i]) / 2)
		if n := len(ranges); n > 0 && ranges[n-1].Region == region {
			ranges[n-1].Interval.Up = bounds[i]
		} else {
			ranges = append(ranges, BandsRange{
				Interval: math.Interval{Low: bounds[i-1], Up: bounds[i]},
				Region:   region,
			})
		}
	}
	rb.ranges = ranges
}

///////////////////////////////////////////////////////////////////////////
// public accessors

// Length is the number of bands ranges; negative when the inputs are
// invalid.
func (rb *RealBands) Length(core *Core) int {
	rb.update(core)
	if rb.checked <= 0 {
		return -1
	}
	return len(rb.ranges)
}

func (rb *RealBands) Interval(core *Core, i int) math.Interval {
	rb.update(core)
	if i < 0 || i >= len(rb.ranges) {
		return math.EmptyInterval
	}
	return rb.ranges[i].Interval
}

func (rb *RealBands) Region(core *Core, i int) Region {
	rb.update(core)
	if i < 0 || i >= len(rb.ranges) {
		return Unknown
	}
	if rb.malformed {
		return Unknown
	}
	return rb.ranges[i].Region
}

// RangeOf returns the index of the range containing v (modulo the
// period); -1 for invalid input, Length() if not found.
func (rb *RealBands) RangeOf(core *Core, v float64) int {
	rb.update(core)
	if rb.checked <= 0 {
		return -1
	}
	v = rb.modVal(v)
	for i, r := range rb.ranges {
		if r.Interval.In(v) {
			return i
		}
	}
	return len(rb.ranges)
}

// RegionOf returns the region of the range containing v; UNKNOWN when
// outside.
func (rb *RealBands) RegionOf(core *Core, v float64) Region {
	i := rb.RangeOf(core, v)
	if i < 0 || i >= len(rb.ranges) {
		return Unknown
	}
	return rb.ranges[i].Region
}

func (rb *RealBands) Ranges(core *Core) []BandsRange {
	rb.update(core)
	out := make([]BandsRange, len(rb.ranges))
	copy(out, rb.ranges)
	return out
}

// PeripheralAircraft returns the cached peripheral set for a 1-based
// alert level; level 0 selects the configured conflict level.
func (rb *RealBands) PeripheralAircraft(core *Core, level int) []traffic.State {
	rb.update(core)
	if level == 0 {
		level = core.Parameters.Alertor.ConflictLevel
	}
	if level < 1 || level > len(rb.peripheralAcs) {
		return nil
	}
	return rb.peripheralAcs[level-1]
}

// TimeToRecovery is NaN when the bands are not saturated and negative
// infinity when they are saturated with no recovery within the early
// alerting time.
func (rb *RealBands) TimeToRecovery(core *Core) float64 {
	rb.update(core)
	return rb.recoveryTime
}

// ComputeResolution returns the resolution maneuver for the level and
// direction: NaN when there is no conflict, +/-Inf when there is no
// resolution on that side.
func (rb *RealBands) ComputeResolution(core *Core, level int, dir bool) float64 {
	rb.update(core)
	if level == 0 {
		level = core.Parameters.Alertor.ConflictLevel
	}
	if rb.checked <= 0 || level < 1 || level > len(rb.resolutions) {
		return gomath.NaN()
	}
	iv := rb.resolutions[level-1]
	if dir {
		return iv.Up
	}
	return iv.Low
}

// PreferredDirection reports the direction whose resolution is closer
// to the current value; ties go up/right.
func (rb *RealBands) PreferredDirection(core *Core, level int) bool {
	up := rb.ComputeResolution(core, level, true)
	down := rb.ComputeResolution(core, level, false)
	val := rb.modVal(rb.dim.ownVal(core.Ownship))
	if gomath.IsNaN(up) || gomath.IsNaN(down) {
		return true
	}
	var du, dd float64
	if rb.mod > 0 {
		du = math.Modulo(up-val, rb.mod)
		dd = math.Modulo(val-down, rb.mod)
	} else {
		du = up - val
		dd = val - down
	}
	return du <= dd
}

// LastTimeToManeuver is the latest delay after which a maneuver against
// ac still avoids the alerting volume: NaN when not in conflict with
// ac, negative infinity when it is already too late.
func (rb *RealBands) LastTimeToManeuver(core *Core, ac traffic.State) float64 {
	rb.update(core)
	if rb.checked <= 0 {
		return gomath.NaN()
	}
	level := core.Parameters.Alertor.ConflictLevel
	at := core.Parameters.Alertor.GetLevel(level)
	if !at.IsValid() {
		return gomath.NaN()
	}
	t := gomath.Min(core.Parameters.LookaheadTime, at.EarlyAlertingTime)
	cd := at.Detector.Conflict(core.Ownship.S(), core.Ownship.V(), ac.S(), ac.V(), 0, t)
	if !cd.Conflict() {
		return gomath.NaN()
	}
	pivotRed := cd.TimeIn
	if pivotRed == 0 {
		return gomath.Inf(-1)
	}
	pivotGreen := 0.0
	pivot := pivotGreen
	for pivotRed-pivotGreen > 0.5 {
		own := core.Ownship.LinearProjection(pivot)
		aci := ac.LinearProjection(pivot)
		if rb.allRed(at.Detector, nil, traffic.Invalid, 0, 0, 0, t, own, []traffic.State{aci}) {
			pivotRed = pivot
		} else {
			pivotGreen = pivot
		}
		pivot = (pivotRed + pivotGreen) / 2
	}
	if pivotGreen == 0 && rb.allRed(at.Detector, nil, traffic.Invalid, 0, 0, 0, t, core.Ownship, []traffic.State{ac}) {
		return gomath.Inf(-1)
	}
	return pivotGreen
}

func sortFloats(v []float64) {
	// insertion sort; boundary lists are short
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}
