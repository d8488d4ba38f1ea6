// planner/rrt.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	gomath "math"
	"strconv"

	"github.com/peregrine-uas/peregrine/bands"
	"github.com/peregrine-uas/peregrine/geofence"
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/rand"
	"github.com/peregrine-uas/peregrine/traffic"
)

// Node state transitions use a first-order damped response toward the
// commanded velocity.
const rrtDamping = 0.3

// GoalCaptureDist is the horizontal distance at which a node counts as
// having reached the goal.
const GoalCaptureDist = 3.0

// rrtNode lives in the tree arena; parent/children are arena indices,
// so path reconstruction is a walk over parent indices and the whole
// tree is reclaimed by dropping the arena.
type rrtNode struct {
	pos, vel   math.Vect3
	trafficPos []math.Vect3
	trafficVel []math.Vect3
	parent     int // -1 for the root
	children   []int
}

// obstacle is a projected keep-out volume.
type obstacle struct {
	pts     []math.Vect2
	floor   float64
	ceiling float64
}

// RRT grows a kino-dynamic tree through the projected frame, checking
// candidate nodes against fences and against predicted traffic with a
// bands instance.
type RRT struct {
	nodes []rrtNode

	proj        traffic.Projection
	boundingBox []math.Vect2
	obstacles   []obstacle

	xmin, xmax float64
	ymin, ymax float64

	Tstep int
	DT    float64

	// TrafficProximityLimit rejects nodes closer than this to any
	// predicted intruder; it defaults to the conflict cylinder radius.
	TrafficProximityLimit float64

	daa          *bands.MultiBands
	maxInputNorm float64
	rng          *rand.Rand

	goalPos     math.Vect3
	goalSet     bool
	closestDist float64
	closestIdx  int
	goalReached bool
}

// MakeRRT builds the tree rooted at the initial state. Traffic states
// are snapshotted into the root and propagated by the motion model.
func MakeRRT(fences []*geofence.Geofence, initPos traffic.Position, initVel traffic.Velocity,
	trafficPos []traffic.Position, trafficVel []traffic.Velocity,
	tstep int, dt, maxInputNorm float64, p bands.Parameters, seed uint64) *RRT {

	proj := traffic.MakeProjection(initPos.MkAlt(0))
	r := &RRT{
		proj:         proj,
		Tstep:        tstep,
		DT:           dt,
		daa:          bands.MakeMultiBands(p),
		maxInputNorm: maxInputNorm,
		rng:          rand.New(seed),
		closestDist:  gomath.Inf(1),
		xmin:         -100, xmax: 100,
		ymin: -100, ymax: 100,
	}
	if r.maxInputNorm <= 0 {
		r.maxInputNorm = 1
	}
	if cd, ok := p.Alertor.GetLevel(p.Alertor.ConflictLevel).Detector.(*bands.CDCylinder); ok {
		r.TrafficProximityLimit = cd.R
	} else {
		r.TrafficProximityLimit = 8
	}

	if keepIn := geofence.FindKeepIn(fences); keepIn != nil {
		var br math.BoundingRect
		r.boundingBox = make([]math.Vect2, len(keepIn.Vertices))
		for i, v := range keepIn.Vertices {
			pt := proj.Project(v).Vect2()
			r.boundingBox[i] = pt
			br.Add(pt)
		}
		if br.IsSet() {
			r.xmin, r.xmax = br.Min.X, br.Max.X
			r.ymin, r.ymax = br.Min.Y, br.Max.Y
		}
	}
	for _, g := range geofence.KeepOutFences(fences) {
		ob := obstacle{floor: g.Floor, ceiling: g.Ceiling}
		for _, v := range g.Vertices {
			ob.pts = append(ob.pts, proj.Project(v).Vect2())
		}
		r.obstacles = append(r.obstacles, ob)
	}

	root := rrtNode{
		pos:    proj.Project(initPos),
		vel:    initVel.Vect3(),
		parent: -1,
	}
	for i := range trafficPos {
		root.trafficPos = append(root.trafficPos, proj.Project(trafficPos[i]))
		root.trafficVel = append(root.trafficVel, trafficVel[i].Vect3())
	}
	r.nodes = []rrtNode{root}
	r.closestIdx = 0
	return r
}

func (r *RRT) SetGoal(goal traffic.Position) {
	r.goalPos = r.proj.Project(goal)
	r.goalSet = true
}

func (r *RRT) GoalReached() bool { return r.goalReached }

func (r *RRT) NodeCount() int { return len(r.nodes) }

///////////////////////////////////////////////////////////////////////////
// collision checks

func (r *RRT) checkFenceCollision(p math.Vect3) bool {
	for _, ob := range r.obstacles {
		if math.PointInPolygon(p.Vect2(), ob.pts) && p.Z >= ob.floor && p.Z <= ob.ceiling {
			return true
		}
	}
	if len(r.boundingBox) > 2 && !math.PointInPolygon(p.Vect2(), r.boundingBox) {
		return true
	}
	return false
}

// linePlaneIntersection tests the segment from cur to next against the
// vertical face spanned by edge [a,b] between floor and ceiling.
func linePlaneIntersection(a, b math.Vect2, floor, ceiling float64, cur, next math.Vect3) bool {
	p0 := math.Vect3{X: a.X, Y: a.Y, Z: floor}
	n := math.Vect3{X: -(ceiling - floor) * (b.Y - a.Y), Y: (ceiling - floor) * (b.X - a.X), Z: 0}
	l := next.Sub(cur)
	den := l.Dot(n)
	if den == 0 {
		return false
	}
	d := p0.Sub(cur).Dot(n) / den
	pnt := cur.Add(l.Scal(d))

	oa := math.Vect3{X: b.X - a.X, Y: b.Y - a.Y}
	ob := math.Vect3{Z: ceiling - floor}
	op := pnt.Sub(p0)
	cn := next.Sub(cur)
	cp := pnt.Sub(cur)

	proj1 := op.Dot(oa) / math.Sqr(oa.Norm())
	proj2 := op.Dot(ob) / math.Sqr(ob.Norm())
	proj3 := cp.Dot(cn) / math.Sqr(cn.Norm())
	return proj1 >= 0 && proj1 <= 1 && proj2 >= 0 && proj2 <= 1 && proj3 >= 0 && proj3 <= 1
}

func (r *RRT) checkProjectedFenceConflict(from, to math.Vect3) bool {
	for _, ob := range r.obstacles {
		for i := range ob.pts {
			j := (i + 1) % len(ob.pts)
			if linePlaneIntersection(ob.pts[i], ob.pts[j], ob.floor, ob.ceiling, from, to) {
				return true
			}
		}
	}
	return false
}

// checkTrafficCollision evaluates a candidate state against the
// predicted traffic: a proximity floor, the bands verdict for the
// candidate track, and the bands the turn from the previous heading
// would sweep through. With checkTurn it also tests the bands computed
// for a heading pointed straight at each intruder.
func (r *RRT) checkTrafficCollision(checkTurn bool, qPos, qVel math.Vect3, trafficPos, trafficVel []math.Vect3, oldVel math.Vect3) bool {
	if len(trafficPos) == 0 {
		return false
	}

	so := traffic.MakeXYZ(qPos.X, qPos.Y, qPos.Z)
	vo := traffic.MakeVxyz(qVel.X, qVel.Y, qVel.Z)
	r.daa.SetOwnship("ownship", so, vo)
	nearest := gomath.Inf(1)
	for i := range trafficPos {
		si := traffic.MakeXYZ(trafficPos[i].X, trafficPos[i].Y, trafficPos[i].Z)
		vi := traffic.MakeVxyz(trafficVel[i].X, trafficVel[i].Y, trafficVel[i].Z)
		r.daa.AddTraffic(trafficName(i), si, vi)
		if d := qPos.DistanceH(trafficPos[i]); d < nearest {
			nearest = d
		}
	}
	if nearest < r.TrafficProximityLimit {
		return true
	}

	qHeading := vo.Trk()
	oldHeading := traffic.MakeVxyz(oldVel.X, oldVel.Y, oldVel.Z).Trk()

	if r.daa.RegionOfTrack(qHeading).IsConflictBand() {
		return true
	}
	if r.daa.TurnGoesThroughConflict(qHeading, oldHeading) {
		return true
	}

	if checkTurn {
		// Also reject when the heading pointing directly at an intruder
		// passes through a conflict band en route.
		for i := range trafficPos {
			ab := trafficPos[i].Sub(qPos).Hat()
			r.daa.SetOwnship("ownship", so, traffic.MakeVxyz(ab.X, ab.Y, ab.Z))
			si := traffic.MakeXYZ(trafficPos[i].X, trafficPos[i].Y, trafficPos[i].Z)
			vi := traffic.MakeVxyz(trafficVel[i].X, trafficVel[i].Y, trafficVel[i].Z)
			r.daa.AddTraffic(trafficName(i), si, vi)
			for ib := 0; ib < r.daa.TrackLength(); ib++ {
				if !r.daa.TrackRegion(ib).IsConflictBand() {
					continue
				}
				iv := r.daa.Track(ib)
				if iv.In(qHeading) {
					return true
				}
				if !iv.In(oldHeading) && bands.TurnThroughBand(iv.Low, iv.Up, qHeading, oldHeading) {
					return true
				}
			}
		}
	}
	return false
}

func trafficName(i int) string {
	return "traffic" + strconv.Itoa(i)
}

///////////////////////////////////////////////////////////////////////////
// tree growth

// input is the commanded velocity from nn toward qn, scaled down to
// unit norm when longer.
func rrtInput(nn, qn math.Vect3) math.Vect3 {
	d := qn.Sub(nn)
	if n := d.Norm(); n > 1 {
		return d.Scal(1 / n)
	}
	return d
}

func (r *RRT) findNearest(q math.Vect3) int {
	best, bestIdx := gomath.Inf(1), 0
	for i, n := range r.nodes {
		if d := n.pos.DistanceH(q); d < best {
			best, bestIdx = d, i
		}
	}
	return bestIdx
}

// motionModel integrates the damped linear model with RK2 over Tstep
// intervals of DT; traffic coasts at constant velocity. Returns false
// when the trajectory collides.
func (r *RRT) motionModel(from rrtNode, u math.Vect3) (rrtNode, bool) {
	pos, vel := from.pos, from.vel
	tp := append([]math.Vect3{}, from.trafficPos...)

	deriv := func(v math.Vect3) math.Vect3 {
		return math.Vect3{
			X: -rrtDamping * (v.X - u.X),
			Y: -rrtDamping * (v.Y - u.Y),
			Z: -rrtDamping * (v.Z - u.Z),
		}
	}

	for i := 0; i < r.Tstep; i++ {
		// RK2 on the coupled position/velocity state.
		k1p := vel.Scal(r.DT)
		k1v := deriv(vel).Scal(r.DT)
		k2p := vel.Add(k1v).Scal(r.DT)
		k2v := deriv(vel.Add(k1v)).Scal(r.DT)
		pos = pos.Add(k1p.Add(k2p).Scal(0.5))
		vel = vel.Add(k1v.Add(k2v).Scal(0.5))
		for j := range tp {
			tp[j] = tp[j].ScalAdd(r.DT, from.trafficVel[j])
		}
		if r.checkFenceCollision(pos) {
			return rrtNode{}, false
		}
	}

	if r.checkTrafficCollision(true, pos, vel, tp, from.trafficVel, from.vel) {
		return rrtNode{}, false
	}

	return rrtNode{
		pos:        pos,
		vel:        vel,
		trafficPos: tp,
		trafficVel: from.trafficVel,
	}, true
}

// checkDirectPath2Goal tests a straight run from the node to the goal
// against fences and traffic. A node without traffic, or the root
// node, is reported as not clear.
func (r *RRT) checkDirectPath2Goal(idx int) bool {
	node := r.nodes[idx]
	ab := r.goalPos.Sub(node.pos)
	if n := ab.Norm(); n > 0 {
		ab = ab.Scal(1 / n)
	}
	if r.checkProjectedFenceConflict(node.pos, r.goalPos) {
		return false
	}
	if len(node.trafficPos) > 0 && node.parent >= 0 {
		parent := r.nodes[node.parent]
		return !r.checkTrafficCollision(false, node.pos, ab, node.trafficPos, node.trafficVel, parent.vel)
	}
	return false
}

// Step grows the tree by one sampled node; bias toward the goal comes
// from the direct-path test each iteration.
func (r *RRT) Step() {
	q := math.Vect3{
		X: r.rng.InRange(r.xmin, r.xmax),
		Y: r.rng.InRange(r.ymin, r.ymax),
		Z: r.nodes[0].pos.Z,
	}

	nearestIdx := r.findNearest(q)
	nearest := r.nodes[nearestIdx]

	var newNode rrtNode
	if r.checkDirectPath2Goal(nearestIdx) {
		newNode = rrtNode{
			pos:        r.goalPos,
			vel:        nearest.vel,
			trafficPos: nearest.trafficPos,
			trafficVel: nearest.trafficVel,
		}
	} else {
		var ok bool
		newNode, ok = r.motionModel(nearest, rrtInput(nearest.pos, q))
		if !ok {
			return
		}
	}

	newNode.parent = nearestIdx
	r.nodes = append(r.nodes, newNode)
	idx := len(r.nodes) - 1
	r.nodes[nearestIdx].children = append(r.nodes[nearestIdx].children, idx)
}

// CheckGoal tests the latest node against the goal and updates the
// closest-approach bookkeeping.
func (r *RRT) CheckGoal() bool {
	if !r.goalSet || len(r.nodes) == 0 {
		return false
	}
	last := len(r.nodes) - 1
	mag := r.nodes[last].pos.DistanceH(r.goalPos)
	if mag <= r.closestDist {
		r.closestDist = mag
		r.closestIdx = last
		if len(r.nodes) > 2 && r.checkDirectPath2Goal(r.closestIdx) {
			r.goalReached = true
			return true
		}
	}
	if mag < GoalCaptureDist {
		r.goalReached = true
		return true
	}
	r.goalReached = false
	return false
}

// Run grows the tree until the goal is reached or the iteration cap is
// hit; it returns GoalReached.
func (r *RRT) Run(nsteps int) bool {
	for i := 0; i < nsteps; i++ {
		r.Step()
		if r.CheckGoal() {
			return true
		}
	}
	return false
}

// Plan unwinds the best node's ancestry into a timestamped plan. When
// the best node is farther than GoalCaptureDist from the goal, a final
// leg to the goal is appended; it is unverified when the goal was not
// reached.
func (r *RRT) Plan(resolutionSpeed float64) traffic.Plan {
	if resolutionSpeed <= 0 {
		resolutionSpeed = 1
	}
	var rev []math.Vect3
	if r.nodes[r.closestIdx].pos.DistanceH(r.goalPos) > GoalCaptureDist {
		rev = append(rev, r.goalPos)
	}
	for i := r.closestIdx; i >= 0; i = r.nodes[i].parent {
		rev = append(rev, r.nodes[i].pos)
	}

	var plan traffic.Plan
	eta := 0.0
	var prev traffic.Position
	for i := len(rev) - 1; i >= 0; i-- {
		wp := r.proj.Inverse(rev[i])
		if plan.Size() > 0 {
			eta += prev.DistanceH(wp) / resolutionSpeed
		}
		plan.Add(traffic.NavPoint{Pos: wp, Time: eta})
		prev = wp
	}
	return plan
}
