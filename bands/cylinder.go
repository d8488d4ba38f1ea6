// bands/cylinder.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"fmt"
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// CDCylinder detects conflicts against a cylindrical protection volume
// of horizontal radius R and half-height H centred on the intruder.
type CDCylinder struct {
	R, H float64
}

func MakeCDCylinder(r, h float64) *CDCylinder {
	return &CDCylinder{R: r, H: h}
}

func (c *CDCylinder) Identifier() string {
	return fmt.Sprintf("CDCylinder(R=%gm,H=%gm)", c.R, c.H)
}

func (c *CDCylinder) Copy() Detector {
	cp := *c
	return &cp
}

// Shrink returns a copy with both dimensions scaled by f, used for the
// collision-avoidance inner volume.
func (c *CDCylinder) Shrink(f float64) *CDCylinder {
	return &CDCylinder{R: f * c.R, H: f * c.H}
}

func (c *CDCylinder) Violation(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity) bool {
	s := so.Sub(si)
	return s.Norm2D() <= c.R && gomath.Abs(s.Z) <= c.H
}

// Conflict computes the entry and exit times of the relative trajectory
// through the cylinder, clamped to [b,t].
func (c *CDCylinder) Conflict(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity, b, t float64) ConflictData {
	s := so.Sub(si)
	v := vo.Vect3().Sub(vi.Vect3())
	tin, tout := cylinderEntryExit(s, v, c.R, c.H)
	tin = gomath.Max(tin, b)
	tout = gomath.Min(tout, t)
	if tin > tout {
		return noConflict
	}
	return ConflictData{TimeIn: tin, TimeOut: tout}
}

// cylinderEntryExit returns the time interval during which the relative
// state s+tv is inside the cylinder (R,H); an inverted pair if never.
func cylinderEntryExit(s, v math.Vect3, r, h float64) (float64, float64) {
	// Horizontal: |s2 + t*v2| <= r, a quadratic in t.
	s2, v2 := s.Vect2(), v.Vect2()
	var hin, hout float64
	if v2.IsZero() {
		if s2.Norm() > r {
			return gomath.Inf(1), gomath.Inf(-1)
		}
		hin, hout = gomath.Inf(-1), gomath.Inf(1)
	} else {
		a := v2.NormSq()
		bq := 2 * s2.Dot(v2)
		cq := s2.NormSq() - r*r
		disc := bq*bq - 4*a*cq
		if disc < 0 {
			return gomath.Inf(1), gomath.Inf(-1)
		}
		sq := gomath.Sqrt(disc)
		hin = (-bq - sq) / (2 * a)
		hout = (-bq + sq) / (2 * a)
	}

	// Vertical: |s.z + t*v.z| <= h.
	var vin, vout float64
	if v.Z == 0 {
		if gomath.Abs(s.Z) > h {
			return gomath.Inf(1), gomath.Inf(-1)
		}
		vin, vout = gomath.Inf(-1), gomath.Inf(1)
	} else {
		t1 := (-h - s.Z) / v.Z
		t2 := (h - s.Z) / v.Z
		vin, vout = gomath.Min(t1, t2), gomath.Max(t1, t2)
	}

	return gomath.Max(hin, vin), gomath.Min(hout, vout)
}
