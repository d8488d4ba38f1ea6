// bands/kinematics.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/traffic"
)

// Closed-form kinematic trajectory primitives used by the per-dimension
// bands to sample maneuvers: coordinated turns, ground-speed and
// vertical-speed accelerations, and altitude level-offs.

const gravity = 9.80665

// turnRate is the angular rate of a coordinated turn at the given ground
// speed and bank angle.
func turnRate(gs, bank float64) float64 {
	if gs == 0 || bank == 0 {
		return 0
	}
	return gravity * gomath.Tan(bank) / gs
}

// bankAngle is the bank that yields the given turn rate at the given
// ground speed.
func bankAngle(gs, omega float64) float64 {
	return gomath.Atan(omega * gs / gravity)
}

// turn returns position and velocity after turning for time t at the
// given angular rate; dir false is a left turn.
func turn(pos traffic.Position, vel traffic.Velocity, t, omega float64, dir bool) (traffic.Position, traffic.Velocity) {
	sgn := -1.0
	if dir {
		sgn = 1.0
	}
	gs := vel.Gs()
	if omega == 0 || gs == 0 {
		return pos.Linear(vel, t), vel
	}
	trk0 := vel.Trk()
	trk := trk0 + sgn*omega*t
	r := gs / omega
	// Arc displacement from the turn start, in north/east components.
	dn := sgn * r * (gomath.Sin(trk) - gomath.Sin(trk0))
	de := sgn * r * (gomath.Cos(trk0) - gomath.Cos(trk))
	np := pos.LinearEst(dn, de).MkAlt(pos.Alt() + t*vel.Vs())
	return np, vel.MkTrk(trk)
}

// gsAccel returns position and velocity after accelerating the ground
// speed at rate a for time t; the speed does not go below zero.
func gsAccel(pos traffic.Position, vel traffic.Velocity, t, a float64) (traffic.Position, traffic.Velocity) {
	gs0 := vel.Gs()
	var dist, gs float64
	if a < 0 && gs0+a*t < 0 {
		tz := -gs0 / a
		dist = gs0 * tz / 2
		gs = 0
	} else {
		dist = gs0*t + a*t*t/2
		gs = gs0 + a*t
	}
	trk := vel.Trk()
	np := pos.LinearDist2D(trk, dist).MkAlt(pos.Alt() + t*vel.Vs())
	return np, vel.MkGs(gs)
}

// vsAccel returns position and velocity after accelerating the vertical
// speed at rate a for time t.
func vsAccel(pos traffic.Position, vel traffic.Velocity, t, a float64) (traffic.Position, traffic.Velocity) {
	dalt := vel.Vs()*t + a*t*t/2
	np := pos.Linear(vel.MkVs(0), t).MkAlt(pos.Alt() + dalt)
	return np, vel.MkVs(vel.Vs() + a*t)
}

// levelOutTimes returns the three level-off profile times for reaching
// targetAlt from the current state: end of the initial vertical
// acceleration, start of the final deceleration, and the time the
// aircraft is level at the target. The profile climbs (or descends) at
// climbRate between the two acceleration phases.
func levelOutTimes(alt, vs, climbRate, targetAlt, a float64) (t1, t2, t3 float64) {
	dir := 1.0
	if targetAlt < alt {
		dir = -1
	}
	vs1 := dir * gomath.Abs(climbRate)
	a1 := a
	if vs1 < vs {
		a1 = -a
	}
	if a1 == 0 || vs1 == vs {
		t1 = 0
	} else {
		t1 = (vs1 - vs) / a1
	}
	alt1 := alt + vs*t1 + a1*t1*t1/2

	// Altitude consumed by decelerating from vs1 to level.
	dDecel := dir * vs1 * vs1 / (2 * a)
	remain := targetAlt - alt1 - dDecel
	tCruise := remain / vs1
	if tCruise < 0 {
		tCruise = 0
	}
	t2 = t1 + tCruise
	t3 = t2 + gomath.Abs(vs1)/a
	return
}

// vsLevelOut returns position and velocity at time t along the level-off
// profile toward targetAlt.
func vsLevelOut(pos traffic.Position, vel traffic.Velocity, t, climbRate, targetAlt, a float64) (traffic.Position, traffic.Velocity) {
	alt0, vs0 := pos.Alt(), vel.Vs()
	t1, t2, t3 := levelOutTimes(alt0, vs0, climbRate, targetAlt, a)
	dir := 1.0
	if targetAlt < alt0 {
		dir = -1
	}
	vs1 := dir * gomath.Abs(climbRate)
	a1 := a
	if vs1 < vs0 {
		a1 = -a
	}
	a2 := -dir * a

	altAt := func(t float64) (float64, float64) {
		switch {
		case t <= t1:
			return alt0 + vs0*t + a1*t*t/2, vs0 + a1*t
		case t <= t2:
			alt1 := alt0 + vs0*t1 + a1*t1*t1/2
			return alt1 + vs1*(t-t1), vs1
		case t <= t3:
			alt1 := alt0 + vs0*t1 + a1*t1*t1/2
			alt2 := alt1 + vs1*(t2-t1)
			dt := t - t2
			return alt2 + vs1*dt + a2*dt*dt/2, vs1 + a2*dt
		default:
			return targetAlt, 0
		}
	}

	alt, vs := altAt(t)
	np := pos.Linear(vel.MkVs(0), t).MkAlt(alt)
	return np, vel.MkVs(vs)
}
