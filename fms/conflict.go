// fms/conflict.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/peregrine-uas/peregrine/bands"
	"github.com/peregrine-uas/peregrine/geofence"
	"github.com/peregrine-uas/peregrine/log"
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/resolve"
	"github.com/peregrine-uas/peregrine/traffic"
)

// ConflictDetector runs the three detectors each tick (geofence,
// flight-plan deviation, traffic) and latches the fences and flags the
// resolver consumes.
type ConflictDetector struct {
	DAA *bands.MultiBands

	KeepInFence  *geofence.Geofence
	KeepOutFence *geofence.Geofence

	keepInConflict    bool
	keepOutConflict   bool
	trafficConflict   bool
	deviationConflict bool

	// A traffic conflict is held for a configurable time after the last
	// violating bands result, so resolution is not abandoned the moment
	// the bands momentarily clear.
	holdTime     float64
	daaStart     time.Time
	allowedDev   float64
	daaLookahead float64

	lg *log.Logger
}

func NewConflictDetector(p bands.Parameters, allowedDev, holdTime float64, lg *log.Logger) *ConflictDetector {
	return &ConflictDetector{
		DAA:          bands.MakeMultiBands(p),
		holdTime:     holdTime,
		daaStart:     time.Now(),
		allowedDev:   allowedDev,
		daaLookahead: p.LookaheadTime,
		lg:           lg,
	}
}

func (c *ConflictDetector) KeepInConflict() bool    { return c.keepInConflict }
func (c *ConflictDetector) KeepOutConflict() bool   { return c.keepOutConflict }
func (c *ConflictDetector) TrafficConflict() bool   { return c.trafficConflict }
func (c *ConflictDetector) DeviationConflict() bool { return c.deviationConflict }

// Size is the number of active conflict sources.
func (c *ConflictDetector) Size() int {
	n := 0
	if c.KeepInFence != nil {
		n++
	}
	if c.KeepOutFence != nil {
		n++
	}
	if c.deviationConflict {
		n++
	}
	if c.trafficConflict {
		n++
	}
	return n
}

// Clear drops all latched conflicts.
func (c *ConflictDetector) Clear() {
	c.KeepInFence = nil
	c.KeepOutFence = nil
	c.keepInConflict = false
	c.keepOutConflict = false
	c.trafficConflict = false
	c.deviationConflict = false
}

func (c *ConflictDetector) addFenceConflict(gf *geofence.Geofence) {
	if gf.Type == geofence.KeepIn {
		c.keepInConflict = true
		if c.KeepInFence == nil || c.KeepInFence.ID != gf.ID {
			c.KeepInFence = gf
			c.lg.Warnf("detector: keep-in conflict, fence %d", gf.ID)
		} else {
			c.KeepInFence = gf
		}
	} else {
		c.keepOutConflict = true
		if c.KeepOutFence == nil || c.KeepOutFence.ID != gf.ID {
			c.KeepOutFence = gf
			c.lg.Warnf("detector: keep-out conflict, fence %d", gf.ID)
		} else {
			c.KeepOutFence = gf
		}
	}
}

// CheckGeofence updates every fence against the plan being flown.
func (c *ConflictDetector) CheckGeofence(snap *Snapshot, planType resolve.PlanType, elapsed float64) {
	c.keepInConflict = false
	c.keepOutConflict = false

	own := traffic.MakeOwnship("ownship", snap.Pos, snap.Vel)

	fp := &snap.MissionPlan
	if planType == resolve.Trajectory {
		fp = &snap.ResolutionPlan
	}
	for _, fence := range snap.Fences {
		fence.CheckViolation(own, elapsed, fp, c.daaLookahead)
		if fence.Conflict() || fence.Violation() {
			c.addFenceConflict(fence)
		}
	}
}

// ComputeCrossTrackDev returns the signed cross-track deviation (left
// of path positive) and the along-track offset from the previous
// waypoint.
func ComputeCrossTrackDev(pos traffic.Position, fp *traffic.Plan, nextWP int) (float64, float64) {
	prevWP := fp.Point(nextWP - 1).Pos
	nextP := fp.Point(nextWP).Pos
	psi1 := prevWP.Track(nextP)
	psi2 := prevWP.Track(pos)
	sgn := 1.0
	if math.ToPi(psi1-psi2) < 0 {
		sgn = -1 // vehicle right of the path
	}
	bearing := gomath.Abs(math.ToPi(psi1 - psi2))
	dist := prevWP.DistanceH(pos)
	return sgn * dist * gomath.Sin(bearing), dist * gomath.Cos(bearing)
}

// CheckFlightPlanDeviation applies the deviation threshold with
// hysteresis: the conflict sets above the allowed deviation and clears
// only once the aircraft is back within a third of it.
func (c *ConflictDetector) CheckFlightPlanDeviation(snap *Snapshot, planType resolve.PlanType, devApproved bool) (float64, float64) {
	if devApproved || snap.MissionPlan.Size() < 2 {
		c.deviationConflict = false
		return snap.CrossTrackDev, snap.CrossTrackOffset
	}

	dev, offset := ComputeCrossTrackDev(snap.Pos, &snap.MissionPlan, snap.NextMissionWP)
	if gomath.Abs(dev) > c.allowedDev {
		c.deviationConflict = true
	} else if gomath.Abs(dev) < c.allowedDev/3 {
		c.deviationConflict = false
	}
	if planType == resolve.Trajectory {
		c.deviationConflict = false
	}
	return dev, offset
}

// CheckTraffic recomputes the bands against the current traffic and
// latches a conflict when the ownship track is inside a conflict band.
// The latch holds for holdTime seconds after the last violating result;
// after that the conflict follows returnPathConflict.
func (c *ConflictDetector) CheckTraffic(snap *Snapshot, returnPathConflict bool) {
	if len(snap.TrafficPos) == 0 {
		return
	}

	c.DAA.SetOwnship("ownship", snap.Pos, snap.Vel)
	for i := range snap.TrafficPos {
		c.DAA.AddTraffic(fmt.Sprintf("traffic%d", i), snap.TrafficPos[i], snap.TrafficVel[i])
	}

	violation := c.DAA.CurrentTrackViolation()
	if violation {
		c.trafficConflict = true
		c.daaStart = time.Now()
	} else if time.Since(c.daaStart).Seconds() > c.holdTime {
		c.trafficConflict = returnPathConflict
	}
}

// DistToNearestTraffic is used by the downlink suppression rule.
func DistToNearestTraffic(snap *Snapshot) float64 {
	nearest := gomath.Inf(1)
	for _, tp := range snap.TrafficPos {
		if d := snap.Pos.DistanceH(tp); d < nearest {
			nearest = d
		}
	}
	return nearest
}
