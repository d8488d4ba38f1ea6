// bands/core.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/traffic"
)

// Core aggregates the inputs shared by the per-dimension bands: ownship
// and traffic states, parameters, the most-urgent intruder, and the
// coordination epsilons. Whenever any input changes, the owning
// MultiBands resets every cached bands result.
type Core struct {
	Ownship    traffic.State
	Traffic    []traffic.State
	Parameters Parameters

	// MostUrgent is the intruder the repulsive criteria coordinate
	// against; Invalid disables the criteria.
	MostUrgent traffic.State

	epsh, epsv int
	epsComputed bool
}

func MakeCore(p Parameters) *Core {
	return &Core{Parameters: p, MostUrgent: traffic.Invalid}
}

func (c *Core) HasOwnship() bool {
	return c.Ownship.IsValid()
}

func (c *Core) HasTraffic() bool {
	return len(c.Traffic) > 0
}

// Reset invalidates the derived epsilon state; callers reset the
// per-dimension caches separately.
func (c *Core) Reset() {
	c.epsComputed = false
}

func (c *Core) computeEpsilons() {
	c.epsh, c.epsv = 0, 0
	if c.HasOwnship() && c.MostUrgent.IsValid() {
		s := c.Ownship.S().Sub(c.MostUrgent.S())
		v := c.Ownship.V().Vect3().Sub(c.MostUrgent.V().Vect3())
		c.epsh = horizontalCoordination(s, v)
		c.epsv = verticalCoordination(s, v)
	}
	c.epsComputed = true
}

// EpsilonH is the horizontal coordination sign with respect to the most
// urgent aircraft; 0 when the conflict criteria are disabled.
func (c *Core) EpsilonH() int {
	if !c.Parameters.ConflictCriteria {
		return 0
	}
	if !c.epsComputed {
		c.computeEpsilons()
	}
	return c.epsh
}

func (c *Core) EpsilonV() int {
	if !c.Parameters.ConflictCriteria {
		return 0
	}
	if !c.epsComputed {
		c.computeEpsilons()
	}
	return c.epsv
}

// criteriaAc is the reference aircraft for the conflict repulsive
// criteria.
func (c *Core) criteriaAc() traffic.State {
	if c.Parameters.ConflictCriteria {
		return c.MostUrgent
	}
	return traffic.Invalid
}

// recoveryAc is the reference aircraft for the recovery repulsive
// criteria.
func (c *Core) recoveryAc() traffic.State {
	if c.Parameters.RecoveryCriteria {
		return c.MostUrgent
	}
	return traffic.Invalid
}

// conflictAircraft returns the traffic whose threat-volume entry falls
// within the level's alerting time.
func (c *Core) conflictAircraft(level int) []traffic.State {
	at := c.Parameters.Alertor.GetLevel(level)
	if !at.IsValid() || !c.HasOwnship() {
		return nil
	}
	t := gomath.Min(c.Parameters.LookaheadTime, at.AlertingTime)
	var acs []traffic.State
	for _, ac := range c.Traffic {
		cd := at.Detector.Conflict(c.Ownship.S(), c.Ownship.V(), ac.S(), ac.V(), 0, t)
		if cd.Conflict() {
			acs = append(acs, ac)
		}
	}
	return acs
}

// timeIntervalOfViolation summarizes the entry/exit window over the
// aircraft currently triggering the level.
func (c *Core) timeIntervalOfViolation(level int) (float64, float64) {
	at := c.Parameters.Alertor.GetLevel(level)
	if !at.IsValid() || !c.HasOwnship() {
		return gomath.NaN(), gomath.NaN()
	}
	t := gomath.Min(c.Parameters.LookaheadTime, at.AlertingTime)
	tin, tout := gomath.Inf(1), gomath.Inf(-1)
	for _, ac := range c.Traffic {
		cd := at.Detector.Conflict(c.Ownship.S(), c.Ownship.V(), ac.S(), ac.V(), 0, t)
		if cd.Conflict() {
			tin = gomath.Min(tin, cd.TimeIn)
			tout = gomath.Max(tout, cd.TimeOut)
		}
	}
	if tin > tout {
		return gomath.NaN(), gomath.NaN()
	}
	return tin, tout
}

// minHorizontalRecovery never shrinks below the NMAC radius.
func (c *Core) minHorizontalRecovery() float64 {
	return gomath.Max(c.Parameters.MinHorizontalRecovery, c.Parameters.HorizontalNMAC)
}

func (c *Core) minVerticalRecovery() float64 {
	return gomath.Max(c.Parameters.MinVerticalRecovery, c.Parameters.VerticalNMAC)
}

// linearProjection advances ownship and all traffic by dt seconds.
func (c *Core) linearProjection(dt float64) {
	if c.HasOwnship() {
		c.Ownship = c.Ownship.LinearProjection(dt)
	}
	for i, ac := range c.Traffic {
		c.Traffic[i] = ac.LinearProjection(dt)
	}
	if c.MostUrgent.IsValid() {
		c.MostUrgent = c.MostUrgent.LinearProjection(dt)
	}
	c.Reset()
}
