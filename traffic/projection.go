// traffic/projection.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package traffic

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
)

// Projection is a local tangent-plane (ENU) projection anchored at a
// reference geodetic point. Projected coordinates are metres east and
// north of the anchor; altitude passes through unchanged. A projection
// anchored at a Cartesian position is the identity.
type Projection struct {
	refLat, refLon float64
	cosLat         float64
	cartesian      bool
	valid          bool
}

func MakeProjection(ref Position) Projection {
	if !ref.IsLatLon() {
		return Projection{cartesian: true, valid: true}
	}
	return Projection{
		refLat: ref.Lat(),
		refLon: ref.Lon(),
		cosLat: gomath.Cos(ref.Lat()),
		valid:  true,
	}
}

func (p Projection) IsValid() bool { return p.valid }

// Project maps a position into the tangent plane; x east, y north, z
// altitude.
func (p Projection) Project(pos Position) math.Vect3 {
	if p.cartesian || !pos.IsLatLon() {
		return math.Vect3{X: pos.X(), Y: pos.Y(), Z: pos.Alt()}
	}
	return math.Vect3{
		X: (pos.Lon() - p.refLon) * p.cosLat * EarthRadius,
		Y: (pos.Lat() - p.refLat) * EarthRadius,
		Z: pos.Alt(),
	}
}

// Inverse maps a projected point back to a position in the anchor's
// coordinate system.
func (p Projection) Inverse(s math.Vect3) Position {
	if p.cartesian {
		return MakeXYZ(s.X, s.Y, s.Z)
	}
	lat := p.refLat + s.Y/EarthRadius
	lon := p.refLon + s.X/(EarthRadius*p.cosLat)
	return MakeLatLonAlt(lat, lon, s.Z)
}

// ProjectVelocity maps a velocity into the tangent plane; for the ENU
// plane the components are unchanged.
func (p Projection) ProjectVelocity(v Velocity) Velocity {
	return v
}
