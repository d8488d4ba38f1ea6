// bands/vs.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// vsDim generates vertical-speed acceleration trajectories.
type vsDim struct {
	accel float64
	step  float64
	jStep int
}

func MakeVsBands(p Parameters) *RealBands {
	dim := &vsDim{accel: p.VerticalAccel, step: p.VsStep}
	return makeRealBands("vs", p.MinVs, p.MaxVs, false, 0, p.VsStep, p.RecoveryVsBands, dim)
}

func (d *vsDim) instantaneous() bool {
	return d.accel == 0
}

func (d *vsDim) ownVal(own traffic.State) float64 {
	return own.VerticalSpeed()
}

func (d *vsDim) timeStep(own traffic.State) float64 {
	return d.step / d.accel
}

func (d *vsDim) setJStep(k int) { d.jStep = k }

func (d *vsDim) trajectory(own traffic.State, t float64, dir bool) (math.Vect3, traffic.Velocity) {
	var pos traffic.Position
	var vel traffic.Velocity
	if d.instantaneous() {
		sgn := -1.0
		if dir {
			sgn = 1.0
		}
		vs := own.VerticalSpeed() + sgn*float64(d.jStep)*d.step
		pos, vel = own.Pos, own.Vel.MkVs(vs)
	} else {
		a := d.accel
		if !dir {
			a = -a
		}
		pos, vel = vsAccel(own.Pos, own.Vel, t, a)
	}
	return own.PosToS(pos), own.VelToV(pos, vel)
}
