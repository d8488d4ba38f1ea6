// bands/tcas.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	"fmt"
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// TCASTable is a detector whose protection volume dimensions depend on
// the ownship altitude band, following the TCAS II RA sensitivity
// levels. Rows hold the altitude ceiling of each band with the
// horizontal radius (DMOD) and vertical threshold (ZTHR) in metres.
type TCASTable struct {
	rows []tcasRow
}

type tcasRow struct {
	ceiling float64 // band upper altitude, m
	dmod    float64 // horizontal radius, m
	zthr    float64 // vertical half-height, m
}

const ft = 0.3048
const nmi = 1852.0

// MakeTCASTable returns the standard RA table.
func MakeTCASTable() *TCASTable {
	return &TCASTable{rows: []tcasRow{
		{ceiling: 2350 * ft, dmod: 0.20 * nmi, zthr: 600 * ft},
		{ceiling: 5000 * ft, dmod: 0.35 * nmi, zthr: 600 * ft},
		{ceiling: 10000 * ft, dmod: 0.55 * nmi, zthr: 600 * ft},
		{ceiling: 20000 * ft, dmod: 0.80 * nmi, zthr: 600 * ft},
		{ceiling: 42000 * ft, dmod: 1.10 * nmi, zthr: 700 * ft},
		{ceiling: gomath.Inf(1), dmod: 1.10 * nmi, zthr: 800 * ft},
	}}
}

func (t *TCASTable) Identifier() string {
	return fmt.Sprintf("TCASTable(%d levels)", len(t.rows))
}

func (t *TCASTable) Copy() Detector {
	cp := &TCASTable{rows: make([]tcasRow, len(t.rows))}
	copy(cp.rows, t.rows)
	return cp
}

// dimensions returns the cylinder radius and half-height for the given
// ownship altitude.
func (t *TCASTable) dimensions(alt float64) (float64, float64) {
	for _, row := range t.rows {
		if alt < row.ceiling {
			return row.dmod, row.zthr
		}
	}
	last := t.rows[len(t.rows)-1]
	return last.dmod, last.zthr
}

func (t *TCASTable) Violation(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity) bool {
	r, h := t.dimensions(so.Z)
	s := so.Sub(si)
	return s.Norm2D() <= r && gomath.Abs(s.Z) <= h
}

func (t *TCASTable) Conflict(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity, b, tmax float64) ConflictData {
	// The volume dimensions are taken from the ownship altitude at the
	// start of the window; altitude band crossings within a single
	// lookahead are not chased.
	r, h := t.dimensions(so.Z)
	s := so.Sub(si)
	v := vo.Vect3().Sub(vi.Vect3())
	tin, tout := cylinderEntryExit(s, v, r, h)
	tin = gomath.Max(tin, b)
	tout = gomath.Min(tout, tmax)
	if tin > tout {
		return noConflict
	}
	return ConflictData{TimeIn: tin, TimeOut: tout}
}
