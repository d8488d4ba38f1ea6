// bands/trk.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// trkDim generates turning trajectories for the track dimension. With
// both turn rate and bank angle zero the track changes are treated as
// instantaneous.
type trkDim struct {
	turnRate  float64
	bankAngle float64
	step      float64
	jStep     int
}

// MakeTrkBands builds the track bands; the range is relative to the
// current track and circular with period 2pi.
func MakeTrkBands(p Parameters) *RealBands {
	dim := &trkDim{turnRate: p.TurnRate, bankAngle: p.BankAngle, step: p.TrkStep}
	return makeRealBands("trk", -p.LeftTrk, p.RightTrk, true, 2*gomath.Pi, p.TrkStep, p.RecoveryTrkBands, dim)
}

func (d *trkDim) instantaneous() bool {
	return d.turnRate == 0 && d.bankAngle == 0
}

func (d *trkDim) ownVal(own traffic.State) float64 {
	return own.Track()
}

func (d *trkDim) timeStep(own traffic.State) float64 {
	omega := d.turnRate
	if omega == 0 {
		omega = turnRate(own.GroundSpeed(), d.bankAngle)
	}
	return d.step / omega
}

func (d *trkDim) setJStep(k int) { d.jStep = k }

func (d *trkDim) trajectory(own traffic.State, t float64, dir bool) (math.Vect3, traffic.Velocity) {
	var pos traffic.Position
	var vel traffic.Velocity
	if d.instantaneous() {
		sgn := -1.0
		if dir {
			sgn = 1.0
		}
		trk := own.Track() + sgn*float64(d.jStep)*d.step
		pos, vel = own.Pos, own.Vel.MkTrk(math.To2Pi(trk))
	} else {
		omega := d.turnRate
		if omega == 0 {
			omega = turnRate(own.GroundSpeed(), d.bankAngle)
		}
		pos, vel = turn(own.Pos, own.Vel, t, omega, dir)
	}
	return own.PosToS(pos), own.VelToV(pos, vel)
}
