// bands/detection.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// ConflictData is the result of a pairwise conflict query over a time
// window. TimeIn > TimeOut means no conflict.
type ConflictData struct {
	TimeIn  float64
	TimeOut float64
}

var noConflict = ConflictData{TimeIn: gomath.Inf(1), TimeOut: gomath.Inf(-1)}

func (c ConflictData) Conflict() bool {
	return c.TimeIn <= c.TimeOut
}

// Detector is the pairwise conflict predicate over relative aircraft
// states. Implementations are value objects: no state is carried across
// calls, and Copy returns an independent deep copy.
//
// Violation is loss of separation now; Conflict asks whether the threat
// volume is entered somewhere in [b,t] assuming both aircraft hold their
// velocities.
type Detector interface {
	Violation(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity) bool
	Conflict(so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity, b, t float64) ConflictData
	Identifier() string
	Copy() Detector
}

// conflictOrPoint handles the degenerate window where b and t almost
// coincide by testing violation at the projected point instead.
func conflictOrPoint(det Detector, so math.Vect3, vo traffic.Velocity, si math.Vect3, vi traffic.Velocity, b, t float64) bool {
	if math.AlmostEquals(b, t) {
		sot := so.ScalAdd(b, vo.Vect3())
		sit := si.ScalAdd(b, vi.Vect3())
		return det.Violation(sot, vo, sit, vi)
	}
	return det.Conflict(so, vo, si, vi, b, t).Conflict()
}
