// bands/bands_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"fmt"
	gomath "math"
	"reflect"
	"testing"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// headOnParams: instantaneous track changes so band edges land exactly
// on step multiples.
func headOnParams() Parameters {
	p := DefaultParameters()
	p.TurnRate = 0
	p.BankAngle = 0
	p.HorizontalAccel = 0
	p.VerticalAccel = 0
	return p
}

// headOnBands: ownship eastbound at 5 m/s, intruder 58.5 m ahead
// coming head-on at 5 m/s, cylinder 30x15, alerting 10 s.
func headOnBands(p Parameters) *MultiBands {
	b := MakeMultiBands(p)
	b.SetOwnship("ownship", traffic.MakeXYZ(0, 0, 10), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0))
	b.AddTraffic("Traffic0", traffic.MakeXYZ(58.5, 0, 10), traffic.MakeTrkGsVs(3*gomath.Pi/2, 5, 0))
	return b
}

func TestHeadOnConflict(t *testing.T) {
	b := headOnBands(headOnParams())

	acs := b.ConflictAircraft(1)
	if len(acs) != 1 || acs[0].ID != "Traffic0" {
		t.Fatalf("expected Traffic0 in conflict, got %v", acs)
	}

	if !b.CurrentTrackViolation() {
		t.Errorf("current track should be inside a conflict band")
	}
	if b.RegionOfTrack(3*gomath.Pi/2) != None {
		t.Errorf("westbound track should be conflict free")
	}

	tin, tout := b.TimeIntervalOfViolation(1)
	if gomath.IsNaN(tin) || tin <= 0 || tout <= tin {
		t.Errorf("violation window [%g,%g] malformed", tin, tout)
	}
}

func TestHeadOnResolutions(t *testing.T) {
	b := headOnBands(headOnParams())

	left := b.TrackResolution(false)
	right := b.TrackResolution(true)
	if gomath.IsNaN(left) || gomath.IsInf(left, 0) {
		t.Fatalf("left resolution %g should be finite", left)
	}
	if gomath.IsNaN(right) || gomath.IsInf(right, 0) {
		t.Fatalf("right resolution %g should be finite", right)
	}

	// The head-on geometry is symmetric around the current track; the
	// escape angle at 58.5 m against a 30 m cylinder is a turn of more
	// than 45 and less than 90 degrees either way.
	dl := math.AngleDiff(left, gomath.Pi/2)
	dr := math.AngleDiff(right, gomath.Pi/2)
	if dl <= math.Radians(45) || dl >= math.Radians(90) {
		t.Errorf("left escape angle %g deg out of range", math.Degrees(dl))
	}
	if gomath.Abs(dl-dr) > math.Radians(1) {
		t.Errorf("asymmetric resolutions: left %g deg, right %g deg",
			math.Degrees(dl), math.Degrees(dr))
	}

	// Property: the preferred direction's resolution is no farther
	// from the current value than the other side's.
	pref := b.PreferredTrackDirection()
	dp := math.AngleDiff(b.TrackResolution(pref), gomath.Pi/2)
	dn := math.AngleDiff(b.TrackResolution(!pref), gomath.Pi/2)
	if dp > dn {
		t.Errorf("preferred direction is the farther one: %g > %g", dp, dn)
	}
}

// Property: the union of the track ranges covers the full circle, the
// ranges are disjoint and sorted, and adjacent ranges have different
// regions.
func TestBandCoverage(t *testing.T) {
	b := headOnBands(headOnParams())

	n := b.TrackLength()
	if n < 2 {
		t.Fatalf("expected band structure, got %d ranges", n)
	}
	var total float64
	for i := 0; i < n; i++ {
		iv := b.Track(i)
		total += iv.Width()
		if i > 0 {
			prev := b.Track(i - 1)
			if !math.AlmostEquals(prev.Up, iv.Low) {
				t.Errorf("gap or overlap between range %d and %d", i-1, i)
			}
			if b.TrackRegion(i-1) == b.TrackRegion(i) {
				t.Errorf("adjacent ranges %d,%d share region %v", i-1, i, b.TrackRegion(i))
			}
		}
	}
	if gomath.Abs(total-2*gomath.Pi) > 1e-6 {
		t.Errorf("ranges cover %g rad, expected the full circle", total)
	}
	if low := b.Track(0).Low; !math.AlmostEquals(low, 0) {
		t.Errorf("first range starts at %g, expected 0", low)
	}
	if up := b.Track(n - 1).Up; !math.AlmostEquals(up, 2*gomath.Pi) {
		t.Errorf("last range ends at %g, expected 2pi", up)
	}
}

// Property: recomputing with unchanged inputs yields identical output.
func TestIdempotence(t *testing.T) {
	b := headOnBands(headOnParams())
	first := b.Ranges(DimTrk)
	second := b.Ranges(DimTrk)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive computes differ")
	}
	r1 := b.TrackResolution(true)
	r2 := b.TrackResolution(true)
	if r1 != r2 {
		t.Errorf("resolutions differ: %g vs %g", r1, r2)
	}
}

// Caching: repeated queries reuse the cache; a parameter change forces
// recomputation.
func TestBandsCaching(t *testing.T) {
	b := headOnBands(headOnParams())

	for i := 0; i < 3; i++ {
		if n := b.Length(DimGs); n < 1 {
			t.Fatalf("gs bands invalid: %d", n)
		}
	}
	if low := b.Interval(DimGs, 0).Low; !math.AlmostEquals(low, 0.2) {
		t.Fatalf("gs range starts at %g, expected default min", low)
	}

	b.SetMinGroundSpeed(5)
	if n := b.Length(DimGs); n < 1 {
		t.Fatalf("gs bands invalid after parameter change: %d", n)
	}
	if low := b.Interval(DimGs, 0).Low; !math.AlmostEquals(low, 5) {
		t.Errorf("gs range starts at %g after SetMinGroundSpeed(5)", low)
	}
}

// Altitude resolutions with a co-located intruder: no climb or descent
// within the configured range clears the conflict during the
// level-off, so the resolutions saturate past the expected bounds.
func TestAltitudeResolution(t *testing.T) {
	p := DefaultParameters()
	p.MinAlt = 0
	p.MaxAlt = 500
	p.AltStep = 10
	p.VerticalRate = 3
	p.VerticalAccel = 1

	b := MakeMultiBands(p)
	b.SetOwnship("ownship", traffic.MakeXYZ(0, 0, 100), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0))
	b.AddTraffic("Traffic0", traffic.MakeXYZ(0, 0, 100), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0))

	up := b.AltitudeResolution(true)
	down := b.AltitudeResolution(false)
	if !(up >= 130) {
		t.Errorf("up resolution %g, expected >= 130", up)
	}
	if !(down <= 70) {
		t.Errorf("down resolution %g, expected <= 70", down)
	}

	// Saturated in every dimension the intruder pins down: recovery
	// time is negative infinity when nothing clears the volume.
	if ttr := b.TimeToRecovery(DimAlt); !gomath.IsInf(ttr, -1) {
		t.Errorf("time to recovery %g, expected -Inf", ttr)
	}
}

func TestTimeToRecoveryNaNWhenClear(t *testing.T) {
	b := headOnBands(headOnParams())
	// Bands are not saturated in the head-on case; recovery is NaN.
	if ttr := b.TimeToTrackRecovery(); !gomath.IsNaN(ttr) {
		t.Errorf("time to recovery %g, expected NaN when not saturated", ttr)
	}
}

func TestAlerting(t *testing.T) {
	b := headOnBands(headOnParams())
	intr := b.Traffic()[0]

	if level := b.Alerting(intr, 0, 0, 0); level != 1 {
		t.Errorf("alert level %d, expected 1", level)
	}

	// A distant intruder does not alert.
	b2 := MakeMultiBands(headOnParams())
	b2.SetOwnship("ownship", traffic.MakeXYZ(0, 0, 10), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0))
	b2.AddTraffic("far", traffic.MakeXYZ(0, 5000, 10), traffic.MakeTrkGsVs(0, 5, 0))
	if level := b2.Alerting(b2.Traffic()[0], 0, 0, 0); level != 0 {
		t.Errorf("alert level %d for distant traffic, expected 0", level)
	}
}

func TestPeripheralAircraft(t *testing.T) {
	// An intruder abeam on a parallel course: no conflict on the
	// current track, but close enough that maneuvers toward it would
	// create one.
	b := headOnBands(headOnParams())
	b.SetOwnship("ownship", traffic.MakeXYZ(0, 0, 10), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0))
	b.AddTraffic("abeam", traffic.MakeXYZ(0, 45, 10), traffic.MakeTrkGsVs(gomath.Pi/2, 5, 0))

	if len(b.ConflictAircraft(1)) != 0 {
		t.Fatalf("parallel traffic should not be in conflict")
	}
	per := b.PeripheralAircraft(DimTrk, 1)
	if len(per) != 1 || per[0].ID != "abeam" {
		t.Errorf("expected the abeam intruder to be peripheral, got %v", per)
	}
	// The band structure shows a conflict region for headings that
	// converge on it.
	if !b.RegionOfTrack(math.Radians(45)).IsConflictBand() {
		t.Errorf("turning toward the abeam intruder should be flagged")
	}
}

// Property: with a second, looser alert level, every NEAR interval is
// nested inside the looser level's conflict region, so NEAR bands only
// ever border FAR bands.
func TestMonotoneRefinement(t *testing.T) {
	p := headOnParams()
	p.Alertor = MakeAlertor(
		AlertThresholds{
			Detector:          MakeCDCylinder(30, 15),
			AlertingTime:      10,
			EarlyAlertingTime: 15,
			Region:            Near,
		},
		AlertThresholds{
			Detector:          MakeCDCylinder(45, 20),
			AlertingTime:      10,
			EarlyAlertingTime: 15,
			Region:            Far,
		},
	)
	b := headOnBands(p)

	n := b.TrackLength()
	if n < 3 {
		t.Fatalf("expected nested band structure, got %d ranges", n)
	}
	nearCount := 0
	for i := 0; i < n; i++ {
		if b.TrackRegion(i) != Near {
			continue
		}
		nearCount++
		// Neighbours of a NEAR range are FAR, never NONE: the tighter
		// threshold's intervals are subsets of the looser one's.
		if i > 0 && b.TrackRegion(i-1) != Far {
			t.Errorf("range %d left of NEAR is %v, expected FAR", i-1, b.TrackRegion(i-1))
		}
		if i < n-1 && b.TrackRegion(i+1) != Far {
			t.Errorf("range %d right of NEAR is %v, expected FAR", i+1, b.TrackRegion(i+1))
		}
	}
	if nearCount != 1 {
		t.Errorf("expected a single NEAR sector, got %d", nearCount)
	}
}

func TestInvalidInput(t *testing.T) {
	b := MakeMultiBands(headOnParams())
	// No ownship: negative length, errors logged on NaN input.
	if n := b.TrackLength(); n >= 0 {
		t.Errorf("length %d without ownship, expected negative", n)
	}
	b.SetOwnship("ownship", traffic.MakeXYZ(gomath.NaN(), 0, 0), traffic.Velocity{})
	if !b.Errors().HaveErrors() {
		t.Errorf("NaN ownship should be reported")
	}
	if n := b.TrackLength(); n >= 0 {
		t.Errorf("length %d with rejected ownship, expected negative", n)
	}
}

func TestDetectorMalformed(t *testing.T) {
	p := headOnParams()
	p.Alertor = MakeAlertor(AlertThresholds{
		Detector:          &brokenDetector{},
		AlertingTime:      10,
		EarlyAlertingTime: 15,
		Region:            Near,
	})
	b := MakeMultiBands(p)
	b.SetOwnship("ownship", traffic.MakeXYZ(0, 0, 10), traffic.MakeTrkGsVs(0, 5, 0))
	if n := b.TrackLength(); n >= 0 {
		t.Errorf("malformed detector should invalidate the dimension, got length %d", n)
	}
	if r := b.RegionOfTrack(0); r != Unknown {
		t.Errorf("region %v, expected UNKNOWN", r)
	}
}

// brokenDetector violates the copy invariant.
type brokenDetector struct{ copies int }

func (d *brokenDetector) Violation(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity) bool {
	return false
}

func (d *brokenDetector) Conflict(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity, b, t float64) ConflictData {
	return noConflict
}

func (d *brokenDetector) Identifier() string {
	return fmt.Sprintf("broken(copy %d)", d.copies)
}

func (d *brokenDetector) Copy() Detector {
	return &brokenDetector{copies: d.copies + 1}
}
