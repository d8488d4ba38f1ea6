// resolve/resolver.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package resolve fuses bands output, geofence state, and cross-track
// deviation into either a velocity command (maneuver) or a rerouted
// plan (trajectory), preferring to return to the original mission.
package resolve

import (
	"fmt"
	gomath "math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/peregrine-uas/peregrine/bands"
	"github.com/peregrine-uas/peregrine/geofence"
	"github.com/peregrine-uas/peregrine/log"
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/params"
	"github.com/peregrine-uas/peregrine/planner"
	"github.com/peregrine-uas/peregrine/traffic"
)

// PlanType says what the FMS is currently flying.
type PlanType int

const (
	Mission PlanType = iota
	Trajectory
	Maneuver
)

func (p PlanType) String() string {
	switch p {
	case Mission:
		return "mission"
	case Trajectory:
		return "trajectory"
	default:
		return "maneuver"
	}
}

// Kind tags a resolver output.
type Kind int

const (
	KindNone Kind = iota
	KindManeuver
	KindTrajectory
)

// Input is the per-tick snapshot the resolver works from.
type Input struct {
	Ownship traffic.State

	MissionPlan      *traffic.Plan
	ResolutionPlan   *traffic.Plan
	NextMissionWP    int
	NextResolutionWP int
	PlanType         PlanType
	ElapsedTime      float64

	CrossTrackDev    float64
	CrossTrackOffset float64

	TrafficPos []traffic.Position
	TrafficVel []traffic.Velocity
	Fences     []*geofence.Geofence

	// Latched fence conflicts from the detector.
	KeepInFence  *geofence.Geofence
	KeepOutFence *geofence.Geofence

	TrafficConflict   bool
	DeviationConflict bool

	// KMB is the detector's bands instance, already loaded with the
	// current ownship and traffic.
	KMB *bands.MultiBands
}

// Output is either a velocity command or a replacement plan.
type Output struct {
	Kind Kind

	// Maneuver command.
	Vn, Ve, Vu float64
	Heading    float64 // compass, rad

	// Trajectory command.
	Plan        traffic.Plan
	GoalReached bool

	PlanType           PlanType
	NextMissionWP      int // updated mission progress
	ReturnPathConflict bool
}

// Resolver holds tunables and the plan cache. RRT reroutes that reach
// their goal are cached under a quantized conflict fingerprint, and a
// later reroute with the same fingerprint reuses the plan; capped runs
// and A* plans are not cached.
type Resolver struct {
	Speed      float64 // resolution speed, m/s
	XtrkGain   float64
	AllowedDev float64
	GridSize   float64
	Buffer     int
	Lookahead  float64
	MaxCeiling float64
	GotoNextWP bool
	Seed       uint64

	// AstarSteps and RRTSteps cap planner iterations per tick.
	AstarSteps int
	RRTSteps   int

	daaParams bands.Parameters
	planCache *lru.Cache[string, traffic.Plan]
	lg        *log.Logger
}

func NewResolver(tbl *params.Table, daaParams bands.Parameters, lg *log.Logger) *Resolver {
	cache, _ := lru.New[string, traffic.Plan](16)
	r := &Resolver{
		Speed:      1,
		XtrkGain:   0.6,
		AllowedDev: 5,
		GridSize:   10,
		Buffer:     2,
		Lookahead:  5,
		MaxCeiling: gomath.Inf(1),
		AstarSteps: 20000,
		RRTSteps:   500,
		daaParams:  daaParams,
		planCache:  cache,
		lg:         lg,
	}
	if tbl != nil {
		if v, ok := tbl.Lookup("RES_SPEED"); ok {
			r.Speed = v
		}
		if v, ok := tbl.Lookup("XTRK_GAIN"); ok {
			r.XtrkGain = gomath.Abs(v)
		}
		if v, ok := tbl.Lookup("XTRK_DEV"); ok {
			r.AllowedDev = v
		}
		if v, ok := tbl.Lookup("GRIDSIZE"); ok {
			r.GridSize = v
		}
		if v, ok := tbl.Lookup("BUFFER"); ok {
			r.Buffer = int(v)
		}
		if v, ok := tbl.Lookup("LOOKAHEAD"); ok {
			r.Lookahead = v
		}
		if v, ok := tbl.Lookup("MAX_CEILING"); ok {
			r.MaxCeiling = v
		}
		if v, ok := tbl.Lookup("GOTO_NEXTWP"); ok {
			r.GotoNextWP = v != 0
		}
		if v, ok := tbl.Lookup("SEED"); ok {
			r.Seed = uint64(v)
		}
	}
	return r
}

// Resolve applies the per-tick priority order: keep-in, keep-out,
// traffic, cross-track deviation.
func (r *Resolver) Resolve(in Input) Output {
	switch {
	case in.KeepInFence != nil && in.KeepInFence.Violation():
		return r.ResolveKeepIn(in)
	case in.KeepOutFence != nil && (in.KeepOutFence.Violation() || in.KeepOutFence.Conflict()):
		return r.ResolveKeepOut(in)
	case in.TrafficConflict:
		return r.ResolveTraffic(in)
	case in.DeviationConflict:
		return r.ResolveFlightPlanDeviation(in)
	default:
		return Output{Kind: KindNone, PlanType: in.PlanType, NextMissionWP: in.NextMissionWP}
	}
}

///////////////////////////////////////////////////////////////////////////
// keep-in

// ResolveKeepIn flies to the fence's recovery point; if the segment
// from there to the next mission waypoint is feasible the mission
// pointer advances so the aircraft does not re-exit chasing a stale
// waypoint.
func (r *Resolver) ResolveKeepIn(in Input) Output {
	fence := in.KeepInFence
	rp := fence.RecoveryPoint()
	out := Output{
		Kind:          KindTrajectory,
		PlanType:      Trajectory,
		NextMissionWP: in.NextMissionWP,
		GoalReached:   true,
	}
	out.Plan.Add(traffic.NavPoint{Pos: rp, Time: 0})

	nextWP := in.MissionPlan.Point(in.NextMissionWP)
	if fence.CheckWPFeasibility(in.Ownship, rp, nextWP.Pos) {
		out.NextMissionWP = in.NextMissionWP + 1
	}
	r.lg.Infof("resolver: keep-in recovery to (%.6f,%.6f,%.1f)",
		math.Degrees(rp.Lat()), math.Degrees(rp.Lon()), rp.Alt())
	return out
}

///////////////////////////////////////////////////////////////////////////
// keep-out

// conflictWindow works out the start position, the reroute goal, and
// the updated mission pointer for a keep-out conflict.
func (r *Resolver) conflictWindow(in Input) (start, goal traffic.Position, nextMissionWP int) {
	currentFP := in.MissionPlan
	elapsed := in.ElapsedTime
	if in.PlanType == Trajectory {
		currentFP = in.ResolutionPlan
	}

	gf := in.KeepOutFence
	entry, exit := gf.EntryExitTime()
	start = in.Ownship.Pos
	if gf.Violation() {
		start = gf.RecoveryPoint()
	}

	minTime := entry - r.Lookahead
	maxTime := exit + r.Lookahead
	if minTime < elapsed {
		minTime = elapsed + 0.1
	}
	if maxTime > currentFP.LastTime() {
		maxTime = currentFP.LastTime() - 0.1
	}

	nextMissionWP = in.NextMissionWP
	if in.PlanType == Mission {
		nextMissionWP = in.MissionPlan.GetSegment(maxTime) + 1
	}

	conflictFP := currentFP.CutDown(minTime, maxTime)
	goal = conflictFP.LastPoint().Pos
	return
}

// ResolveKeepOut reroutes around the latched keep-out fence, choosing
// the shorter of the grid plan and the go-above plan.
func (r *Resolver) ResolveKeepOut(in Input) Output {
	start, goal, nextWP := r.conflictWindow(in)

	// Grid plan around the fences.
	gridPlan := r.astarPlan(in, start, goal)

	// Go-above plan over the fence ceiling.
	altFence := in.KeepOutFence.Ceiling
	abovePlan := r.ComputeGoAbovePlan(start, goal, altFence)

	length1 := gridPlan.PathDistance()
	length2 := abovePlan.PathDistance()
	maxAlt := r.MaxCeiling
	if keepIn := geofence.FindKeepIn(in.Fences); keepIn != nil {
		maxAlt = keepIn.Ceiling
	}
	if altFence >= maxAlt {
		length2 = gomath.Inf(1)
	}
	if gridPlan.IsEmpty() {
		length1 = gomath.Inf(1)
	}

	out := Output{
		Kind:          KindTrajectory,
		PlanType:      Trajectory,
		NextMissionWP: nextWP,
		GoalReached:   true,
	}
	if length1 < length2 {
		out.Plan = gridPlan
	} else {
		out.Plan = abovePlan
	}
	r.lg.Infof("resolver: keep-out reroute, grid %.1fm vs go-above %.1fm", length1, length2)
	return out
}

// astarPlan runs the density-grid A* between start and goal. The grid
// covers the keep-in bounding box when one exists; otherwise the
// keep-out fences plus the endpoints, buffered.
func (r *Resolver) astarPlan(in Input, start, goal traffic.Position) traffic.Plan {
	proj := in.Ownship.Projection()
	var br math.BoundingRect
	if keepIn := geofence.FindKeepIn(in.Fences); keepIn != nil {
		for _, v := range keepIn.Vertices {
			br.Add(proj.Project(v).Vect2())
		}
	} else {
		for _, g := range geofence.KeepOutFences(in.Fences) {
			for _, v := range g.Vertices {
				br.Add(proj.Project(v).Vect2())
			}
		}
	}

	dg := planner.MakeDensityGrid(br, r.Buffer, r.GridSize, proj, start, goal)
	dg.SnapToStart()
	dg.SetWeights(planner.BaseCellWeight)
	for _, g := range geofence.KeepOutFences(in.Fences) {
		dg.SetWeightsInside(g.Vertices, planner.KeepOutCellWeight)
	}

	search := planner.AStarSearch{Heuristic: planner.Euclidean, MaxSteps: r.AstarSteps}
	result := search.OptimalPath(dg)
	if len(result.Path) == 0 {
		return traffic.Plan{}
	}
	if !result.GoalReached {
		r.lg.Warnf("resolver: A* hit iteration cap, best-effort path of %d cells", len(result.Path))
	}
	return planner.ReduceToPlan(dg, result.Path, start, goal, r.Speed)
}

// ComputeGoAbovePlan climbs to just above the fence ceiling, traverses
// to the exit point, and descends.
func (r *Resolver) ComputeGoAbovePlan(start, goal traffic.Position, altFence float64) traffic.Plan {
	var plan traffic.Plan
	speed := r.Speed
	if speed <= 0 {
		speed = 1
	}
	eta := 0.0
	plan.Add(traffic.NavPoint{Pos: start, Time: eta})

	// Second waypoint directly above the start.
	wp2 := start.MkAlt(altFence + 1)
	eta += wp2.DistanceV(start) / speed
	plan.Add(traffic.NavPoint{Pos: wp2, Time: eta})

	// Third waypoint directly above the exit point.
	wp3 := goal.MkAlt(altFence + 1)
	eta += wp3.DistanceH(wp2) / speed
	plan.Add(traffic.NavPoint{Pos: wp3, Time: eta})

	eta += goal.DistanceV(wp3) / speed
	plan.Add(traffic.NavPoint{Pos: goal, Time: eta})
	return plan
}

///////////////////////////////////////////////////////////////////////////
// traffic

// GetPointOnPlan projects the cross-track offset back onto the leg
// toward the next waypoint.
func GetPointOnPlan(offset float64, fp *traffic.Plan, next int) traffic.Position {
	nextWP := fp.Point(next).Pos
	prevWP := fp.Point(next - 1).Pos
	heading := prevWP.Track(nextWP)
	dn := offset * gomath.Cos(heading)
	de := offset * gomath.Sin(heading)
	cp := prevWP.LinearEst(dn, de)
	if cp.Alt() <= 0 {
		cp = cp.MkAlt(nextWP.Alt())
	}
	return cp
}

// ResolveTraffic issues a track-based maneuver along the preferred
// bands direction, nudged past the band edge; when the return path to
// the mission stays in conflict the caller escalates to ResolveTrafficRRT.
func (r *Resolver) ResolveTraffic(in Input) Output {
	out := Output{
		Kind:               KindManeuver,
		PlanType:           Maneuver,
		NextMissionWP:      in.NextMissionWP,
		ReturnPathConflict: true,
	}

	var goal traffic.Position
	if r.GotoNextWP {
		goal = in.MissionPlan.Point(in.NextMissionWP).Pos
	} else {
		goal = GetPointOnPlan(in.CrossTrackOffset, in.MissionPlan, in.NextMissionWP)
	}

	currentHeading := in.Ownship.Track()
	nextHeading := in.Ownship.Pos.Track(goal)

	out.ReturnPathConflict = in.KMB.RegionOfTrack(nextHeading).IsConflictBand()
	prefDir := in.KMB.PreferredTrackDirection()
	prefHeading := in.KMB.TrackResolution(prefDir)

	// Nudge past the band edge so the command does not ride the
	// boundary.
	const nudge = 5 * gomath.Pi / 180
	if prefDir {
		prefHeading = math.To2Pi(prefHeading + nudge)
	} else {
		prefHeading = math.To2Pi(prefHeading - nudge)
	}

	// A return path that must turn through a conflict band is still a
	// conflict.
	if !out.ReturnPathConflict && in.KMB.TurnGoesThroughConflict(nextHeading, currentHeading) {
		out.ReturnPathConflict = true
	}

	if !gomath.IsNaN(prefHeading) && !gomath.IsInf(prefHeading, 0) {
		out.Vn = r.Speed * gomath.Cos(prefHeading)
		out.Ve = r.Speed * gomath.Sin(prefHeading)
	}

	if !out.ReturnPathConflict && r.GotoNextWP {
		h := in.Ownship.Pos.Track(goal)
		out.Vn = r.Speed * gomath.Cos(h)
		out.Ve = r.Speed * gomath.Sin(h)
		out.ReturnPathConflict = in.Ownship.Pos.DistanceH(goal) >= 1
	}

	out.Heading = math.To2Pi(gomath.Atan2(out.Ve, out.Vn))
	return out
}

// ResolveTrafficRRT reroutes to the next mission waypoint through the
// predicted traffic.
func (r *Resolver) ResolveTrafficRRT(in Input) Output {
	out := Output{
		Kind:          KindTrajectory,
		PlanType:      Trajectory,
		NextMissionWP: in.NextMissionWP,
	}

	// Advance traffic by the expected computation time so the plan is
	// valid when it starts.
	const computationTime = 1.0
	tp := make([]traffic.Position, len(in.TrafficPos))
	tv := make([]traffic.Velocity, len(in.TrafficVel))
	for i := range in.TrafficPos {
		tp[i] = in.TrafficPos[i].Linear(in.TrafficVel[i], computationTime)
		tv[i] = in.TrafficVel[i]
	}

	// Start the tree ahead of the ownship along the preferred heading.
	prefDir := in.KMB.PreferredTrackDirection()
	prefHeading := in.KMB.TrackResolution(prefDir)
	start := in.Ownship.Pos
	if !gomath.IsNaN(prefHeading) && !gomath.IsInf(prefHeading, 0) {
		dist := in.Ownship.GroundSpeed() * computationTime
		start = in.Ownship.Pos.LinearDist2D(prefHeading, dist)
	}

	currentFP := in.MissionPlan
	next := in.NextMissionWP
	if in.PlanType == Trajectory {
		currentFP = in.ResolutionPlan
		next = in.NextResolutionWP
	}
	goal := currentFP.Point(next).Pos

	if plan, ok := r.planCache.Get(r.planKey(start, goal, len(tp))); ok {
		out.Plan = plan
		out.GoalReached = true
		return out
	}

	rrt := planner.MakeRRT(in.Fences, start, in.Ownship.Vel, tp, tv, 5, 1, r.Speed, r.daaParams, r.Seed)
	rrt.SetGoal(goal)
	out.GoalReached = rrt.Run(r.RRTSteps)
	if !out.GoalReached {
		r.lg.Warnf("resolver: RRT hit iteration cap after %d nodes", rrt.NodeCount())
	}
	out.Plan = rrt.Plan(r.Speed)
	if out.GoalReached {
		r.planCache.Add(r.planKey(start, goal, len(tp)), out.Plan)
	}
	return out
}

// planKey quantizes a reroute request so near-identical conflicts on
// consecutive ticks hit the cache.
func (r *Resolver) planKey(start, goal traffic.Position, ntraffic int) string {
	q := func(p traffic.Position) (int, int, int) {
		const cell = 5.0 // m
		if p.IsLatLon() {
			return int(p.Lat() * 1e6), int(p.Lon() * 1e6), int(p.Alt() / cell)
		}
		return int(p.X() / cell), int(p.Y() / cell), int(p.Alt() / cell)
	}
	a1, a2, a3 := q(start)
	b1, b2, b3 := q(goal)
	return fmt.Sprintf("%d:%d:%d-%d:%d:%d-%d", a1, a2, a3, b1, b2, b3, ntraffic)
}

///////////////////////////////////////////////////////////////////////////
// cross-track deviation

// ResolveFlightPlanDeviation steers back toward the nominal path: a
// proportional cross-track velocity command while the deviation is
// moderate, a two-point return trajectory beyond that.
func (r *Resolver) ResolveFlightPlanDeviation(in Input) Output {
	out := Output{NextMissionWP: in.NextMissionWP}

	currentFP := in.MissionPlan
	prevWP := currentFP.Point(in.NextMissionWP - 1).Pos
	nextWP := currentFP.Point(in.NextMissionWP).Pos

	if gomath.Abs(in.CrossTrackDev) <= 2*r.AllowedDev {
		vs := r.XtrkGain * in.CrossTrackDev
		v := r.Speed
		sgn := 1.0
		if vs < 0 {
			sgn = -1
		}
		if vs*vs >= v*v {
			vs = v * sgn
		}
		vf := gomath.Sqrt(v*v - vs*vs)

		trk := prevWP.Track(nextWP)
		out.Kind = KindManeuver
		out.PlanType = Maneuver
		out.Vn = vf*gomath.Cos(trk) - vs*gomath.Sin(trk)
		out.Ve = vf*gomath.Sin(trk) + vs*gomath.Cos(trk)
		out.Vu = 0
		out.Heading = math.To2Pi(gomath.Atan2(out.Ve, out.Vn))
		return out
	}

	// Too far out: fly a two-point trajectory back to the path.
	cp := GetPointOnPlan(in.CrossTrackOffset, currentFP, in.NextMissionWP)
	eta := in.Ownship.Pos.DistanceH(cp) / r.Speed
	out.Kind = KindTrajectory
	out.PlanType = Trajectory
	out.GoalReached = true
	out.Plan.Add(traffic.NavPoint{Pos: in.Ownship.Pos, Time: 0})
	out.Plan.Add(traffic.NavPoint{Pos: cp, Time: eta})
	return out
}
