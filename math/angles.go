// math/angles.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import gomath "math"

// Angles are radians throughout; degree conversions happen only at the
// external interfaces.

func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

// To2Pi reduces an angle to [0,2pi).
func To2Pi(a float64) float64 {
	a = gomath.Mod(a, 2*gomath.Pi)
	if a < 0 {
		a += 2 * gomath.Pi
	}
	return a
}

// ToPi reduces an angle to (-pi,pi].
func ToPi(a float64) float64 {
	a = To2Pi(a)
	if a > gomath.Pi {
		a -= 2 * gomath.Pi
	}
	return a
}

// Modulo returns val reduced to [0,mod) when mod > 0 and val unchanged
// otherwise.
func Modulo(val, mod float64) float64 {
	if mod <= 0 {
		return val
	}
	v := gomath.Mod(val, mod)
	if v < 0 {
		v += mod
	}
	return v
}

// ModDist is the distance between two values on a circle of the given
// period; for mod <= 0 it is the plain absolute difference.
func ModDist(a, b, mod float64) float64 {
	if mod <= 0 {
		return gomath.Abs(a - b)
	}
	d := Modulo(a-b, mod)
	return gomath.Min(d, mod-d)
}

// AngleDiff returns the minimum difference between two compass angles,
// a value in [0,pi].
func AngleDiff(a, b float64) float64 {
	return ModDist(a, b, 2*gomath.Pi)
}

// SignedTurn returns the smallest signed turn that takes cur to target;
// negative is a left turn.
func SignedTurn(cur, target float64) float64 {
	return ToPi(target - cur)
}

func Sign(v float64) float64 {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Sqr(v float64) float64 { return v * v }

func Clamp(x, low, high float64) float64 {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// AlmostEquals compares with an absolute tolerance suited to the SI
// magnitudes used in the core.
func AlmostEquals(a, b float64) bool {
	return gomath.Abs(a-b) < 1e-8
}
