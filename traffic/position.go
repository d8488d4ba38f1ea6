// traffic/position.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package traffic holds the aircraft-state primitives shared by the
// whole stack: positions (geodetic or Cartesian), velocities, the
// ownship-anchored Euclidean projection, traffic states, and
// timestamped flight plans.
package traffic

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
)

// EarthRadius is the spherical earth radius used for geodetic math, in
// metres.
const EarthRadius = 6371000.0

// Position is either a geodetic point (latitude/longitude in radians,
// altitude in metres) or a Cartesian point in metres; the variant is
// observable via IsLatLon. All of the core geometry runs in the Euclidean
// projection; geodetic positions only appear at the edges.
type Position struct {
	lat, lon float64
	x, y     float64
	alt      float64
	latlon   bool
}

func MakeLatLonAlt(lat, lon, alt float64) Position {
	return Position{lat: lat, lon: lon, alt: alt, latlon: true}
}

// MakeLatLonAltDeg takes latitude and longitude in degrees; altitude
// remains metres.
func MakeLatLonAltDeg(lat, lon, alt float64) Position {
	return MakeLatLonAlt(math.Radians(lat), math.Radians(lon), alt)
}

func MakeXYZ(x, y, z float64) Position {
	return Position{x: x, y: y, alt: z}
}

func (p Position) IsLatLon() bool { return p.latlon }

func (p Position) Lat() float64 { return p.lat }
func (p Position) Lon() float64 { return p.lon }
func (p Position) Alt() float64 { return p.alt }
func (p Position) X() float64   { return p.x }
func (p Position) Y() float64   { return p.y }

func (p Position) IsInvalid() bool {
	return gomath.IsNaN(p.lat) || gomath.IsNaN(p.lon) || gomath.IsNaN(p.x) ||
		gomath.IsNaN(p.y) || gomath.IsNaN(p.alt)
}

func (p Position) MkAlt(alt float64) Position {
	p.alt = alt
	return p
}

// DistanceH is the horizontal distance between two positions in metres.
func (p Position) DistanceH(q Position) float64 {
	if p.latlon {
		return greatCircleDistance(p.lat, p.lon, q.lat, q.lon)
	}
	return gomath.Hypot(q.x-p.x, q.y-p.y)
}

// DistanceV is the absolute altitude difference in metres.
func (p Position) DistanceV(q Position) float64 {
	return gomath.Abs(q.alt - p.alt)
}

// Track is the initial course from p to q, a compass angle in [0,2pi).
func (p Position) Track(q Position) float64 {
	if p.latlon {
		return initialBearing(p.lat, p.lon, q.lat, q.lon)
	}
	return math.Vect2{X: q.x - p.x, Y: q.y - p.y}.Compass()
}

// Linear is the position reached after time t at velocity v.
func (p Position) Linear(v Velocity, t float64) Position {
	return p.LinearEst(t*v.Y, t*v.X).MkAlt(p.alt + t*v.Z)
}

// LinearEst offsets the position by dn metres north and de metres east
// using a flat-earth estimate.
func (p Position) LinearEst(dn, de float64) Position {
	if p.latlon {
		lat := p.lat + dn/EarthRadius
		lon := p.lon + de/(EarthRadius*gomath.Cos(p.lat))
		return Position{lat: lat, lon: lon, alt: p.alt, latlon: true}
	}
	return Position{x: p.x + de, y: p.y + dn, alt: p.alt}
}

// LinearDist2D is the position dist metres along the given compass track.
func (p Position) LinearDist2D(track, dist float64) Position {
	return p.LinearEst(dist*gomath.Cos(track), dist*gomath.Sin(track))
}

func greatCircleDistance(lat1, lon1, lat2, lon2 float64) float64 {
	sdl := gomath.Sin((lat2 - lat1) / 2)
	sdg := gomath.Sin((lon2 - lon1) / 2)
	a := sdl*sdl + gomath.Cos(lat1)*gomath.Cos(lat2)*sdg*sdg
	return 2 * EarthRadius * gomath.Asin(gomath.Min(1, gomath.Sqrt(a)))
}

func initialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	dl := lon2 - lon1
	y := gomath.Sin(dl) * gomath.Cos(lat2)
	x := gomath.Cos(lat1)*gomath.Sin(lat2) - gomath.Sin(lat1)*gomath.Cos(lat2)*gomath.Cos(dl)
	return math.To2Pi(gomath.Atan2(y, x))
}
