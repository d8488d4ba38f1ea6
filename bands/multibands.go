// bands/multibands.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
	"github.com/peregrine-uas/peregrine/util"
)

// Dimension selects one of the four maneuver dimensions.
type Dimension int

const (
	DimTrk Dimension = iota
	DimGs
	DimVs
	DimAlt
)

func (d Dimension) String() string {
	switch d {
	case DimTrk:
		return "trk"
	case DimGs:
		return "gs"
	case DimVs:
		return "vs"
	default:
		return "alt"
	}
}

// MultiBands runs the four per-dimension bands against the current
// ownship and traffic. All accessors compute lazily from cached state;
// any input mutation resets the caches.
type MultiBands struct {
	core *Core
	trk  *RealBands
	gs   *RealBands
	vs   *RealBands
	alt  *RealBands

	errlog util.ErrorLogger
}

func MakeMultiBands(p Parameters) *MultiBands {
	b := &MultiBands{core: MakeCore(p)}
	p.Validate(&b.errlog)
	b.rebuild()
	return b
}

func (b *MultiBands) rebuild() {
	p := b.core.Parameters
	b.trk = MakeTrkBands(p)
	b.gs = MakeGsBands(p)
	b.vs = MakeVsBands(p)
	b.alt = MakeAltBands(p)
}

func (b *MultiBands) bands(d Dimension) *RealBands {
	switch d {
	case DimTrk:
		return b.trk
	case DimGs:
		return b.gs
	case DimVs:
		return b.vs
	default:
		return b.alt
	}
}

// Errors exposes accumulated input validation diagnostics.
func (b *MultiBands) Errors() *util.ErrorLogger {
	return &b.errlog
}

func (b *MultiBands) reset() {
	b.core.Reset()
	b.trk.Reset()
	b.gs.Reset()
	b.vs.Reset()
	b.alt.Reset()
}

///////////////////////////////////////////////////////////////////////////
// inputs

func (b *MultiBands) SetOwnship(id string, pos traffic.Position, vel traffic.Velocity) {
	if pos.IsInvalid() {
		b.errlog.ErrorString("ownship %s has NaN coordinates", id)
		return
	}
	b.core.Ownship = traffic.MakeOwnship(id, pos, vel)
	b.core.Traffic = nil
	b.reset()
}

func (b *MultiBands) Ownship() traffic.State {
	return b.core.Ownship
}

func (b *MultiBands) HasOwnship() bool {
	return b.core.HasOwnship()
}

func (b *MultiBands) AddTraffic(id string, pos traffic.Position, vel traffic.Velocity) {
	if !b.core.HasOwnship() {
		b.errlog.ErrorString("traffic %s added before ownship", id)
		return
	}
	if pos.IsInvalid() {
		b.errlog.ErrorString("traffic %s has NaN coordinates", id)
		return
	}
	b.core.Traffic = append(b.core.Traffic, b.core.Ownship.MakeIntruder(id, pos, vel))
	b.reset()
}

func (b *MultiBands) Traffic() []traffic.State {
	return b.core.Traffic
}

func (b *MultiBands) HasTraffic() bool {
	return b.core.HasTraffic()
}

// SetMostUrgentAircraft pins the intruder the repulsive criteria
// coordinate against.
func (b *MultiBands) SetMostUrgentAircraft(id string) {
	b.core.MostUrgent = traffic.FindAircraft(b.core.Traffic, id)
	b.reset()
}

func (b *MultiBands) Parameters() Parameters {
	return b.core.Parameters
}

// SetParameters replaces the configuration and resets all bands.
func (b *MultiBands) SetParameters(p Parameters) {
	p.Validate(&b.errlog)
	b.core.Parameters = p
	b.rebuild()
	b.core.Reset()
}

func (b *MultiBands) SetLookaheadTime(t float64) {
	p := b.core.Parameters
	p.LookaheadTime = t
	b.SetParameters(p)
}

func (b *MultiBands) SetMinGroundSpeed(v float64) {
	p := b.core.Parameters
	p.MinGs = v
	b.SetParameters(p)
}

func (b *MultiBands) SetMaxGroundSpeed(v float64) {
	p := b.core.Parameters
	p.MaxGs = v
	b.SetParameters(p)
}

// LinearProjection advances ownship and traffic by dt seconds and
// invalidates all cached bands.
func (b *MultiBands) LinearProjection(dt float64) {
	b.core.linearProjection(dt)
	b.trk.Reset()
	b.gs.Reset()
	b.vs.Reset()
	b.alt.Reset()
}

///////////////////////////////////////////////////////////////////////////
// generic per-dimension accessors

func (b *MultiBands) Length(d Dimension) int {
	return b.bands(d).Length(b.core)
}

func (b *MultiBands) Interval(d Dimension, i int) math.Interval {
	return b.bands(d).Interval(b.core, i)
}

func (b *MultiBands) Region(d Dimension, i int) Region {
	return b.bands(d).Region(b.core, i)
}

func (b *MultiBands) RangeOf(d Dimension, v float64) int {
	return b.bands(d).RangeOf(b.core, v)
}

func (b *MultiBands) RegionOf(d Dimension, v float64) Region {
	return b.bands(d).RegionOf(b.core, v)
}

func (b *MultiBands) Ranges(d Dimension) []BandsRange {
	return b.bands(d).Ranges(b.core)
}

// Resolution is the maneuver resolving the conflict-level alert in the
// given direction.
func (b *MultiBands) Resolution(d Dimension, dir bool) float64 {
	return b.bands(d).ComputeResolution(b.core, 0, dir)
}

func (b *MultiBands) ResolutionAtLevel(d Dimension, level int, dir bool) float64 {
	return b.bands(d).ComputeResolution(b.core, level, dir)
}

func (b *MultiBands) PreferredDirection(d Dimension) bool {
	return b.bands(d).PreferredDirection(b.core, 0)
}

func (b *MultiBands) TimeToRecovery(d Dimension) float64 {
	return b.bands(d).TimeToRecovery(b.core)
}

func (b *MultiBands) PeripheralAircraft(d Dimension, level int) []traffic.State {
	return b.bands(d).PeripheralAircraft(b.core, level)
}

func (b *MultiBands) LastTimeToManeuver(d Dimension, ac traffic.State) float64 {
	return b.bands(d).LastTimeToManeuver(b.core, ac)
}

///////////////////////////////////////////////////////////////////////////
// track conveniences, used heavily by the resolver

func (b *MultiBands) TrackLength() int {
	return b.Length(DimTrk)
}

func (b *MultiBands) Track(i int) math.Interval {
	return b.Interval(DimTrk, i)
}

func (b *MultiBands) TrackRegion(i int) Region {
	return b.Region(DimTrk, i)
}

func (b *MultiBands) RegionOfTrack(trk float64) Region {
	return b.RegionOf(DimTrk, trk)
}

func (b *MultiBands) TrackResolution(dir bool) float64 {
	return b.Resolution(DimTrk, dir)
}

func (b *MultiBands) PreferredTrackDirection() bool {
	return b.PreferredDirection(DimTrk)
}

func (b *MultiBands) TimeToTrackRecovery() float64 {
	return b.TimeToRecovery(DimTrk)
}

func (b *MultiBands) AltitudeResolution(dir bool) float64 {
	return b.Resolution(DimAlt, dir)
}

func (b *MultiBands) GroundSpeedResolution(dir bool) float64 {
	return b.Resolution(DimGs, dir)
}

func (b *MultiBands) VerticalSpeedResolution(dir bool) float64 {
	return b.Resolution(DimVs, dir)
}

///////////////////////////////////////////////////////////////////////////
// alerting

// ConflictAircraft returns the traffic currently triggering the given
// alert level; level 0 selects the configured conflict level.
func (b *MultiBands) ConflictAircraft(level int) []traffic.State {
	if level == 0 {
		level = b.core.Parameters.Alertor.ConflictLevel
	}
	return b.core.conflictAircraft(level)
}

// TimeIntervalOfViolation summarizes the current violation window of
// the level; NaN bounds when there is none.
func (b *MultiBands) TimeIntervalOfViolation(level int) (float64, float64) {
	if level == 0 {
		level = b.core.Parameters.Alertor.ConflictLevel
	}
	return b.core.timeIntervalOfViolation(level)
}

// Alerting returns 0 when no alert level is violated by ac, otherwise
// the most severe (lowest) violated level. The flags declare an ongoing
// ownship maneuver and widen the detector spread on that side.
func (b *MultiBands) Alerting(ac traffic.State, turning, accelerating, climbing int) int {
	if !b.core.HasOwnship() || !ac.IsValid() {
		return 0
	}
	for level := 1; level <= b.core.Parameters.Alertor.MostSevereAlertLevel(); level++ {
		if b.core.Parameters.Alertor.GetLevel(level).Alerting(b.core.Ownship, ac, turning, accelerating, climbing) {
			return level
		}
	}
	return 0
}

// CurrentTrackViolation reports whether the ownship's current track
// lies in a conflict band, the primary "traffic conflict" trigger.
func (b *MultiBands) CurrentTrackViolation() bool {
	if !b.core.HasOwnship() {
		return false
	}
	return b.RegionOfTrack(b.core.Ownship.Track()).IsConflictBand()
}
