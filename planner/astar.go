// planner/astar.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"container/heap"
	gomath "math"

	"github.com/peregrine-uas/peregrine/traffic"
)

// Heuristic selects the A* distance estimate.
type Heuristic int

const (
	Manhattan Heuristic = iota
	Euclidean
)

// AStarSearch finds the cheapest cell path through a density grid. The
// iteration cap bounds worst-case work per FMS tick; on cap the search
// returns the best partial path with GoalReached false.
type AStarSearch struct {
	Heuristic Heuristic
	MaxSteps  int
}

// AStarResult is the cell path plus whether the goal was attained.
type AStarResult struct {
	Path        []GridCell
	GoalReached bool
}

type searchNode struct {
	cell   GridCell
	g, f   float64
	parent int // index into closed list, -1 for the start
}

type nodeHeap []*searchNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*searchNode)) }
func (h *nodeHeap) Pop() any          { old := *h; n := old[len(old)-1]; *h = old[:len(old)-1]; return n }

func (s *AStarSearch) heuristic(a, b GridCell) float64 {
	dx := gomath.Abs(float64(a.X - b.X))
	dy := gomath.Abs(float64(a.Y - b.Y))
	if s.Heuristic == Manhattan {
		return dx + dy
	}
	return gomath.Hypot(dx, dy)
}

var gridNeighbors = []GridCell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// OptimalPath runs A* from the grid's start cell to its goal cell.
func (s *AStarSearch) OptimalPath(g *DensityGrid) AStarResult {
	maxSteps := s.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 100000
	}
	start, goal := g.Start(), g.Goal()

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &searchNode{cell: start, g: 0, f: s.heuristic(start, goal), parent: -1})

	var closed []*searchNode
	visited := map[GridCell]float64{start: 0}
	bestIdx, bestH := -1, gomath.Inf(1)

	for steps := 0; open.Len() > 0 && steps < maxSteps; steps++ {
		n := heap.Pop(open).(*searchNode)
		closed = append(closed, n)
		idx := len(closed) - 1

		if h := s.heuristic(n.cell, goal); h < bestH {
			bestH, bestIdx = h, idx
		}
		if n.cell == goal {
			return AStarResult{Path: unwind(closed, idx), GoalReached: true}
		}

		for _, d := range gridNeighbors {
			nb := GridCell{n.cell.X + d.X, n.cell.Y + d.Y}
			if !g.inBounds(nb) {
				continue
			}
			cost := n.g + g.Weight(nb)
			if prev, ok := visited[nb]; ok && prev <= cost {
				continue
			}
			visited[nb] = cost
			heap.Push(open, &searchNode{
				cell:   nb,
				g:      cost,
				f:      cost + s.heuristic(nb, goal),
				parent: idx,
			})
		}
	}

	// Iteration cap or exhausted space: best-effort partial path.
	if bestIdx < 0 {
		return AStarResult{}
	}
	return AStarResult{Path: unwind(closed, bestIdx), GoalReached: false}
}

func unwind(closed []*searchNode, idx int) []GridCell {
	var rev []GridCell
	for i := idx; i >= 0; i = closed[i].parent {
		rev = append(rev, closed[i].cell)
	}
	path := make([]GridCell, len(rev))
	for i, c := range rev {
		path[len(rev)-1-i] = c
	}
	return path
}

// ReduceToPlan converts a cell path into a waypoint plan, keeping only
// the cells where the heading changes, and timestamps the legs at the
// given resolution speed. The start and goal positions bracket the
// plan; interior waypoints sit at the start altitude, the goal keeps
// its own.
func ReduceToPlan(g *DensityGrid, path []GridCell, start, goal traffic.Position, resolutionSpeed float64) traffic.Plan {
	var plan traffic.Plan
	if resolutionSpeed <= 0 {
		resolutionSpeed = 1
	}

	var positions []traffic.Position
	positions = append(positions, start)
	startAlt := start.Alt()

	if len(path) > 1 {
		currHeading := g.Position(path[0]).Track(g.Position(path[1]))
		for i := 1; i < len(path)-1; i++ {
			nextHeading := g.Position(path[i]).Track(g.Position(path[i+1]))
			if gomath.Abs(nextHeading-currHeading) > 0.01 {
				positions = append(positions, g.Position(path[i]).MkAlt(startAlt))
				currHeading = nextHeading
			}
		}
	}
	positions = append(positions, goal)

	eta := 0.0
	for i, pos := range positions {
		if i > 0 {
			eta += positions[i-1].DistanceH(pos) / resolutionSpeed
		}
		plan.Add(traffic.NavPoint{Pos: pos, Time: eta})
	}
	return plan
}
