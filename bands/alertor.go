// bands/alertor.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/traffic"
	"github.com/peregrine-uas/peregrine/util"
)

// AlertThresholds defines one alert level: the detector that shapes the
// threat volume, the alerting horizons, the band colour it produces, and
// the maneuver spreads that widen the test when the ownship is known to
// be maneuvering.
type AlertThresholds struct {
	Detector          Detector
	AlertingTime      float64
	EarlyAlertingTime float64
	Region            Region
	SpreadTrk         float64 // [0,pi]
	SpreadGs          float64
	SpreadVs          float64
	SpreadAlt         float64
}

func (a AlertThresholds) IsValid() bool {
	return a.Detector != nil && a.Region != Unknown
}

func (a AlertThresholds) Copy() AlertThresholds {
	if a.Detector != nil {
		a.Detector = a.Detector.Copy()
	}
	return a
}

func (a AlertThresholds) Validate(e *util.ErrorLogger) {
	if a.Detector == nil {
		e.ErrorString("alert level has no detector")
	}
	if a.AlertingTime < 0 {
		e.ErrorString("alerting_time must be non-negative, got %g", a.AlertingTime)
	}
	if a.EarlyAlertingTime < a.AlertingTime {
		e.ErrorString("early_alerting_time %g is below alerting_time %g",
			a.EarlyAlertingTime, a.AlertingTime)
	}
	if a.SpreadTrk < 0 || a.SpreadTrk > gomath.Pi {
		e.ErrorString("spread_trk must be in [0,pi], got %g", a.SpreadTrk)
	}
	if a.SpreadGs < 0 || a.SpreadVs < 0 || a.SpreadAlt < 0 {
		e.ErrorString("maneuver spreads must be non-negative")
	}
}

// Alerting tests whether the thresholds are violated by the pair of
// states. The three flags take values in {-1,0,+1} and declare an
// ongoing ownship maneuver (turn, acceleration, climb); a nonzero flag
// widens the test across the corresponding spread on that side.
func (a AlertThresholds) Alerting(own, ac traffic.State, turning, accelerating, climbing int) bool {
	if !a.IsValid() {
		return false
	}
	if a.Detector.Violation(own.S(), own.V(), ac.S(), ac.V()) {
		return true
	}
	vels := []traffic.Velocity{own.V()}
	const spreadSamples = 4
	if turning != 0 && a.SpreadTrk > 0 {
		for i := 1; i <= spreadSamples; i++ {
			d := float64(turning) * a.SpreadTrk * float64(i) / spreadSamples
			vels = append(vels, own.V().AddTrk(d))
		}
	}
	if accelerating != 0 && a.SpreadGs > 0 {
		for i := 1; i <= spreadSamples; i++ {
			d := float64(accelerating) * a.SpreadGs * float64(i) / spreadSamples
			vels = append(vels, own.V().MkGs(own.V().Gs()+d))
		}
	}
	if climbing != 0 && a.SpreadVs > 0 {
		for i := 1; i <= spreadSamples; i++ {
			d := float64(climbing) * a.SpreadVs * float64(i) / spreadSamples
			vels = append(vels, own.V().MkVs(own.V().Vs()+d))
		}
	}
	for _, v := range vels {
		if a.Detector.Conflict(own.S(), v, ac.S(), ac.V(), 0, a.AlertingTime).Conflict() {
			return true
		}
	}
	return false
}

///////////////////////////////////////////////////////////////////////////
// Alertor

// Alertor is an ordered list of alert thresholds; level 1 is the most
// urgent. ConflictLevel selects the level whose detector defines
// "currently in conflict" for guidance purposes.
type Alertor struct {
	levels        []AlertThresholds
	ConflictLevel int
}

func MakeAlertor(levels ...AlertThresholds) Alertor {
	for i := range levels {
		levels[i] = levels[i].Copy()
	}
	return Alertor{levels: levels, ConflictLevel: 1}
}

// DefaultAlertor is a single NEAR level around a small-UA cylinder.
func DefaultAlertor() Alertor {
	return MakeAlertor(AlertThresholds{
		Detector:          MakeCDCylinder(30, 15),
		AlertingTime:      10,
		EarlyAlertingTime: 15,
		Region:            Near,
	})
}

// MostSevereAlertLevel is the number of levels.
func (a *Alertor) MostSevereAlertLevel() int {
	return len(a.levels)
}

// GetLevel returns the thresholds of the 1-based level; an invalid
// level yields zero thresholds.
func (a *Alertor) GetLevel(level int) AlertThresholds {
	if level < 1 || level > len(a.levels) {
		return AlertThresholds{}
	}
	return a.levels[level-1]
}

// SetLevel replaces the thresholds of an existing 1-based level.
func (a *Alertor) SetLevel(level int, t AlertThresholds) {
	if level >= 1 && level <= len(a.levels) {
		a.levels[level-1] = t.Copy()
	}
}

// AddLevel appends a level and returns its 1-based index.
func (a *Alertor) AddLevel(t AlertThresholds) int {
	a.levels = append(a.levels, t.Copy())
	return len(a.levels)
}

func (a *Alertor) Copy() Alertor {
	cp := Alertor{levels: make([]AlertThresholds, len(a.levels)), ConflictLevel: a.ConflictLevel}
	for i, l := range a.levels {
		cp.levels[i] = l.Copy()
	}
	return cp
}

func (a *Alertor) Validate(e *util.ErrorLogger) {
	e.Push("alertor")
	defer e.Pop()
	if len(a.levels) == 0 {
		e.ErrorString("no alert levels configured")
	}
	if a.ConflictLevel < 1 || a.ConflictLevel > len(a.levels) {
		e.ErrorString("conflict level %d out of range", a.ConflictLevel)
	}
	for _, l := range a.levels {
		l.Validate(e)
	}
}
