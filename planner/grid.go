// planner/grid.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package planner holds the two trajectory planners: a weighted-grid
// A* for rerouting around keep-out fences and a kino-dynamic RRT for
// threading predicted traffic.
package planner

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/traffic"
)

// Default cell weights: traversable space is cheap, keep-out interiors
// are expensive, so A* crosses them only when every detour costs more.
const (
	BaseCellWeight    = 5.0
	KeepOutCellWeight = 100.0
)

// GridCell addresses a density grid cell.
type GridCell struct {
	X, Y int
}

// DensityGrid is a rectangular weighted grid laid over the keep-in
// bounding box, extended by a buffer of cells on each side.
type DensityGrid struct {
	proj     traffic.Projection
	origin   math.Vect2
	cellSize float64
	nx, ny   int
	weights  []float64

	start GridCell
	goal  GridCell
	startPos, goalPos traffic.Position
}

// MakeDensityGrid builds the grid covering the bounding rectangle with
// the given cell size and buffer, using the supplied projection for
// position mapping. Weights start at the base value.
func MakeDensityGrid(br math.BoundingRect, buffer int, cellSize float64, proj traffic.Projection, start, goal traffic.Position) *DensityGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	// Grow the box so start and goal are always on the grid.
	br.Add(proj.Project(start).Vect2())
	br.Add(proj.Project(goal).Vect2())

	origin := br.Min.Sub(math.Vect2{X: float64(buffer) * cellSize, Y: float64(buffer) * cellSize})
	nx := int(br.Width()/cellSize) + 2*buffer + 1
	ny := int(br.Height()/cellSize) + 2*buffer + 1

	g := &DensityGrid{
		proj:     proj,
		origin:   origin,
		cellSize: cellSize,
		nx:       nx,
		ny:       ny,
		weights:  make([]float64, nx*ny),
		startPos: start,
		goalPos:  goal,
	}
	g.SetWeights(BaseCellWeight)
	g.start = g.ContainingCell(start)
	g.goal = g.ContainingCell(goal)
	return g
}

func (g *DensityGrid) Size() (int, int) { return g.nx, g.ny }

func (g *DensityGrid) inBounds(c GridCell) bool {
	return c.X >= 0 && c.X < g.nx && c.Y >= 0 && c.Y < g.ny
}

func (g *DensityGrid) Weight(c GridCell) float64 {
	if !g.inBounds(c) {
		return gomath.Inf(1)
	}
	return g.weights[c.Y*g.nx+c.X]
}

// SetWeights assigns w to every cell.
func (g *DensityGrid) SetWeights(w float64) {
	for i := range g.weights {
		g.weights[i] = w
	}
}

// SetWeightsInside raises the weight of every cell whose centre lies
// inside the polygon.
func (g *DensityGrid) SetWeightsInside(vertices []traffic.Position, w float64) {
	pts := make([]math.Vect2, len(vertices))
	for i, v := range vertices {
		pts[i] = g.proj.Project(v).Vect2()
	}
	for y := 0; y < g.ny; y++ {
		for x := 0; x < g.nx; x++ {
			c := GridCell{x, y}
			if math.PointInPolygon(g.center(c), pts) {
				g.weights[y*g.nx+x] = w
			}
		}
	}
}

func (g *DensityGrid) center(c GridCell) math.Vect2 {
	return math.Vect2{
		X: g.origin.X + (float64(c.X)+0.5)*g.cellSize,
		Y: g.origin.Y + (float64(c.Y)+0.5)*g.cellSize,
	}
}

// Position maps a cell to the position of its centre at the start
// altitude.
func (g *DensityGrid) Position(c GridCell) traffic.Position {
	p := g.center(c)
	return g.proj.Inverse(math.Vect3{X: p.X, Y: p.Y, Z: g.startPos.Alt()})
}

// ContainingCell maps a position to its cell, clamped to the grid.
func (g *DensityGrid) ContainingCell(pos traffic.Position) GridCell {
	p := g.proj.Project(pos).Vect2()
	x := int((p.X - g.origin.X) / g.cellSize)
	y := int((p.Y - g.origin.Y) / g.cellSize)
	if x < 0 {
		x = 0
	} else if x >= g.nx {
		x = g.nx - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.ny {
		y = g.ny - 1
	}
	return GridCell{x, y}
}

// SnapToStart re-centres the grid origin so the start position falls on
// a cell centre, which keeps the first reduced waypoint on the path.
func (g *DensityGrid) SnapToStart() {
	p := g.proj.Project(g.startPos).Vect2()
	c := g.ContainingCell(g.startPos)
	ctr := g.center(c)
	g.origin = g.origin.Add(p.Sub(ctr))
	g.start = g.ContainingCell(g.startPos)
	g.goal = g.ContainingCell(g.goalPos)
}

func (g *DensityGrid) Start() GridCell { return g.start }
func (g *DensityGrid) Goal() GridCell  { return g.goal }
