// bands/gs.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// gsDim generates ground-speed acceleration trajectories.
type gsDim struct {
	accel float64
	step  float64
	jStep int
}

func MakeGsBands(p Parameters) *RealBands {
	dim := &gsDim{accel: p.HorizontalAccel, step: p.GsStep}
	return makeRealBands("gs", p.MinGs, p.MaxGs, false, 0, p.GsStep, p.RecoveryGsBands, dim)
}

func (d *gsDim) instantaneous() bool {
	return d.accel == 0
}

func (d *gsDim) ownVal(own traffic.State) float64 {
	return own.GroundSpeed()
}

func (d *gsDim) timeStep(own traffic.State) float64 {
	return d.step / d.accel
}

func (d *gsDim) setJStep(k int) { d.jStep = k }

func (d *gsDim) trajectory(own traffic.State, t float64, dir bool) (math.Vect3, traffic.Velocity) {
	var pos traffic.Position
	var vel traffic.Velocity
	if d.instantaneous() {
		sgn := -1.0
		if dir {
			sgn = 1.0
		}
		gs := own.GroundSpeed() + sgn*float64(d.jStep)*d.step
		pos, vel = own.Pos, own.Vel.MkGs(gs)
	} else {
		a := d.accel
		if !dir {
			a = -a
		}
		pos, vel = gsAccel(own.Pos, own.Vel, t, a)
	}
	return own.PosToS(pos), own.VelToV(pos, vel)
}
