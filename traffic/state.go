// traffic/state.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package traffic

import (
	"github.com/peregrine-uas/peregrine/math"
)

// State is an aircraft state: identifier, position, velocity, and the
// Euclidean projection of both. The invariant is that s/v are always
// coherent with proj; intruders are made comparable to the ownship by
// building them with the ownship's projection (MakeIntruder).
type State struct {
	ID  string
	Pos Position
	Vel Velocity

	s    math.Vect3
	v    Velocity
	proj Projection
}

// Invalid is the sentinel state; IsValid reports false for it.
var Invalid = State{}

// MakeOwnship builds a state whose projection is anchored at its own
// position.
func MakeOwnship(id string, pos Position, vel Velocity) State {
	proj := MakeProjection(pos.MkAlt(0))
	return State{
		ID:   id,
		Pos:  pos,
		Vel:  vel,
		s:    proj.Project(pos),
		v:    proj.ProjectVelocity(vel),
		proj: proj,
	}
}

// MakeIntruder builds a traffic state projected with the receiver's
// projection, so the two are geometrically comparable.
func (o State) MakeIntruder(id string, pos Position, vel Velocity) State {
	return State{
		ID:   id,
		Pos:  pos,
		Vel:  vel,
		s:    o.proj.Project(pos),
		v:    o.proj.ProjectVelocity(vel),
		proj: o.proj,
	}
}

func (a State) IsValid() bool {
	return a.ID != "" && a.proj.IsValid()
}

// S is the projected position.
func (a State) S() math.Vect3 { return a.s }

// V is the projected velocity.
func (a State) V() Velocity { return a.v }

func (a State) Projection() Projection { return a.proj }

// PosToS projects a position with this state's projection.
func (a State) PosToS(p Position) math.Vect3 {
	return a.proj.Project(p)
}

// VelToV projects a velocity at the given position.
func (a State) VelToV(p Position, v Velocity) Velocity {
	return a.proj.ProjectVelocity(v)
}

// LinearProjection advances the state by dt seconds at constant
// velocity.
func (a State) LinearProjection(dt float64) State {
	a.Pos = a.Pos.Linear(a.Vel, dt)
	a.s = a.s.ScalAdd(dt, a.v.Vect3())
	return a
}

func (a State) Track() float64         { return a.v.Trk() }
func (a State) GroundSpeed() float64   { return a.v.Gs() }
func (a State) VerticalSpeed() float64 { return a.v.Vs() }
func (a State) Altitude() float64      { return a.Pos.Alt() }

func (a State) SameID(b State) bool {
	return a.ID == b.ID
}

// FindAircraft returns the state with the given id, or Invalid.
func FindAircraft(acs []State, id string) State {
	for _, ac := range acs {
		if ac.ID == id {
			return ac
		}
	}
	return Invalid
}
