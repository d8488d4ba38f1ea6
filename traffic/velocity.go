// traffic/velocity.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package traffic

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
)

// Velocity is an immutable 3-D velocity; X is the east component, Y
// north, and Z up, all in m/s. Track, ground speed, and vertical speed
// are derived views of the same vector.
type Velocity struct {
	X, Y, Z float64
}

func MakeVxyz(vx, vy, vz float64) Velocity {
	return Velocity{X: vx, Y: vy, Z: vz}
}

// MakeTrkGsVs builds a velocity from a compass track [rad], ground speed
// [m/s], and vertical speed [m/s].
func MakeTrkGsVs(trk, gs, vs float64) Velocity {
	return Velocity{X: gs * gomath.Sin(trk), Y: gs * gomath.Cos(trk), Z: vs}
}

// Trk is the compass track in [0,2pi).
func (v Velocity) Trk() float64 {
	return math.Vect2{X: v.X, Y: v.Y}.Compass()
}

// Gs is the ground speed, non-negative.
func (v Velocity) Gs() float64 {
	return gomath.Hypot(v.X, v.Y)
}

// Vs is the vertical speed, positive up.
func (v Velocity) Vs() float64 {
	return v.Z
}

// MkTrk rotates the horizontal component to the given track, keeping
// ground speed and vertical speed.
func (v Velocity) MkTrk(trk float64) Velocity {
	return MakeTrkGsVs(trk, v.Gs(), v.Z)
}

// MkGs scales the horizontal component to the given ground speed.
func (v Velocity) MkGs(gs float64) Velocity {
	return MakeTrkGsVs(v.Trk(), gomath.Max(0, gs), v.Z)
}

func (v Velocity) MkVs(vs float64) Velocity {
	return Velocity{X: v.X, Y: v.Y, Z: vs}
}

// AddTrk rotates the horizontal component by the given angle.
func (v Velocity) AddTrk(dtrk float64) Velocity {
	return v.MkTrk(math.To2Pi(v.Trk() + dtrk))
}

func (v Velocity) Vect3() math.Vect3 {
	return math.Vect3{X: v.X, Y: v.Y, Z: v.Z}
}

func (v Velocity) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func VelocityFromVect3(w math.Vect3) Velocity {
	return Velocity{X: w.X, Y: w.Y, Z: w.Z}
}
