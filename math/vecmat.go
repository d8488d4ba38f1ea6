// math/vecmat.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package math provides the geometric primitives the rest of the
// system builds on: 2D/3D vectors, modular angles, closed intervals
// and interval sets, and planar polygon tests.
package math

import gomath "math"

///////////////////////////////////////////////////////////////////////////
// Vect2

// Various useful functions for arithmetic with 2D and 3D vectors. Names
// are brief in order to avoid clutter when they're used.

type Vect2 struct {
	X, Y float64
}

// a+b
func (a Vect2) Add(b Vect2) Vect2 {
	return Vect2{a.X + b.X, a.Y + b.Y}
}

// a-b
func (a Vect2) Sub(b Vect2) Vect2 {
	return Vect2{a.X - b.X, a.Y - b.Y}
}

// a*s
func (a Vect2) Scal(s float64) Vect2 {
	return Vect2{s * a.X, s * a.Y}
}

func (a Vect2) Dot(b Vect2) float64 {
	return a.X*b.X + a.Y*b.Y
}

// z component of the cross product a x b
func (a Vect2) Det(b Vect2) float64 {
	return a.X*b.Y - a.Y*b.X
}

func (a Vect2) Norm() float64 {
	return gomath.Hypot(a.X, a.Y)
}

func (a Vect2) NormSq() float64 {
	return a.X*a.X + a.Y*a.Y
}

func (a Vect2) Distance(b Vect2) float64 {
	return a.Sub(b).Norm()
}

func (a Vect2) IsZero() bool {
	return a.X == 0 && a.Y == 0
}

// Normalizes the given vector; the zero vector maps to itself.
func (a Vect2) Hat() Vect2 {
	n := a.Norm()
	if n == 0 {
		return Vect2{}
	}
	return a.Scal(1 / n)
}

// PerpR returns the right perpendicular of a.
func (a Vect2) PerpR() Vect2 {
	return Vect2{a.Y, -a.X}
}

// PerpL returns the left perpendicular of a.
func (a Vect2) PerpL() Vect2 {
	return Vect2{-a.Y, a.X}
}

// Compass angle of the vector in [0,2pi), measured clockwise from north.
func (a Vect2) Compass() float64 {
	return To2Pi(gomath.Atan2(a.X, a.Y))
}

///////////////////////////////////////////////////////////////////////////
// Vect3

type Vect3 struct {
	X, Y, Z float64
}

func (a Vect3) Add(b Vect3) Vect3 {
	return Vect3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func (a Vect3) Sub(b Vect3) Vect3 {
	return Vect3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func (a Vect3) Scal(s float64) Vect3 {
	return Vect3{s * a.X, s * a.Y, s * a.Z}
}

// a + t*b, the position reached from a after time t at velocity b.
func (a Vect3) ScalAdd(t float64, b Vect3) Vect3 {
	return Vect3{a.X + t*b.X, a.Y + t*b.Y, a.Z + t*b.Z}
}

func (a Vect3) Dot(b Vect3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (a Vect3) Norm() float64 {
	return gomath.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

func (a Vect3) Vect2() Vect2 {
	return Vect2{a.X, a.Y}
}

// Norm2D is the norm of the horizontal projection.
func (a Vect3) Norm2D() float64 {
	return gomath.Hypot(a.X, a.Y)
}

func (a Vect3) Hat() Vect3 {
	n := a.Norm()
	if n == 0 {
		return Vect3{}
	}
	return a.Scal(1 / n)
}

func (a Vect3) IsZero() bool {
	return a.X == 0 && a.Y == 0 && a.Z == 0
}

func (a Vect3) Distance(b Vect3) float64 {
	return a.Sub(b).Norm()
}

func (a Vect3) DistanceH(b Vect3) float64 {
	return a.Vect2().Distance(b.Vect2())
}

func (a Vect3) MkZ(z float64) Vect3 {
	return Vect3{a.X, a.Y, z}
}
