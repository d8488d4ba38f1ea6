// fms/fms.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"context"
	"errors"
	gomath "math"
	"time"

	"github.com/goforj/godump"
	"golang.org/x/sync/errgroup"

	"github.com/peregrine-uas/peregrine/ap"
	"github.com/peregrine-uas/peregrine/bands"
	"github.com/peregrine-uas/peregrine/gcs"
	"github.com/peregrine-uas/peregrine/geofence"
	"github.com/peregrine-uas/peregrine/log"
	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/resolve"
	"github.com/peregrine-uas/peregrine/traffic"
	"github.com/peregrine-uas/peregrine/util"
)

// FlightPhase is the top-level mission phase.
type FlightPhase int

const (
	PhaseIdle FlightPhase = iota
	PhasePreflight
	PhaseTakeoff
	PhaseClimb
	PhaseCruise
	PhaseDescend
	PhaseApproach
	PhaseLand
)

func (p FlightPhase) String() string {
	return [...]string{"idle", "preflight", "takeoff", "climb", "cruise", "descend", "approach", "land"}[p]
}

// resolveState sequences a conflict response.
type resolveState int

const (
	resolveIdle resolveState = iota
	resolveCompute
	resolveManeuver
	resolveTrajectory
	resolveResume
)

var ErrNoAutopilot = errors.New("fms: no autopilot connected")

// FMS ticks the detect/resolve pipeline and drives the autopilot. It
// owns which plan is being flown; readers only feed FlightData.
type FMS struct {
	FlightData *FlightData
	Autopilot  ap.Autopilot
	Ground     gcs.GroundStation
	Viz        *gcs.VizServer
	Detector   *ConflictDetector
	Resolver   *resolve.Resolver
	Recorder   *Recorder

	TickRate time.Duration
	DebugDAA bool

	lg *log.Logger

	phase        FlightPhase
	planType     resolve.PlanType
	resState     resolveState
	resumeMission bool
	goalReached  bool

	targetAlt float64
	captureH  float64
	captureV  float64

	returnPathConflict bool

	stop util.AtomicBool
}

func New(fd *FlightData, pilot ap.Autopilot, ground gcs.GroundStation, daaParams bands.Parameters, lg *log.Logger) *FMS {
	tbl := fd.Params
	holdTime, _ := tbl.LookupOr("CONFLICT_HOLD", 5)
	allowedDev, _ := tbl.LookupOr("XTRK_DEV", 5)
	captureH, _ := tbl.LookupOr("CAPTURE_H", 2)
	captureV, _ := tbl.LookupOr("CAPTURE_V", 1)

	return &FMS{
		FlightData: fd,
		Autopilot:  pilot,
		Ground:     ground,
		Detector:   NewConflictDetector(daaParams, allowedDev, holdTime, lg),
		Resolver:   resolve.NewResolver(tbl, daaParams, lg),
		TickRate:   50 * time.Millisecond,
		lg:         lg,
		captureH:   captureH,
		captureV:   captureV,
	}
}

func (f *FMS) Phase() FlightPhase        { return f.phase }
func (f *FMS) PlanType() resolve.PlanType { return f.planType }

// Stop asks the FMS thread to exit on its next tick.
func (f *FMS) Stop() {
	f.stop.Store(true)
}

// Run starts the reader goroutines and the tick loop; it returns when
// the context is cancelled or Stop is called.
func (f *FMS) Run(ctx context.Context) error {
	if f.Autopilot == nil {
		return ErrNoAutopilot
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return f.autopilotReader(ctx) })
	if f.Ground != nil {
		g.Go(func() error { return f.groundReader(ctx) })
	}
	g.Go(func() error { return f.tickLoop(ctx) })

	return g.Wait()
}

// autopilotReader blocks on the wire and folds messages into
// FlightData.
func (f *FMS) autopilotReader(ctx context.Context) error {
	for ctx.Err() == nil && !f.stop.Load() {
		msg, err := f.Autopilot.Receive()
		if err != nil {
			f.lg.Errorf("fms: autopilot read: %v", err)
			return err
		}
		switch m := msg.(type) {
		case ap.PositionMessage:
			f.FlightData.UpdatePosition(m)
		case ap.AttitudeMessage:
			f.FlightData.UpdateAttitude(m)
		case ap.WaypointReachedMessage:
			f.FlightData.WaypointReached(m.Seq)
		case ap.CommandAckMessage:
			f.lg.Debugf("fms: ack %s result %d", m.Command, m.Result)
		}
	}
	return ctx.Err()
}

// groundReader folds ground-station messages into FlightData.
func (f *FMS) groundReader(ctx context.Context) error {
	for ctx.Err() == nil && !f.stop.Load() {
		msg, err := f.Ground.Receive()
		if err != nil {
			f.lg.Errorf("fms: ground read: %v", err)
			return err
		}
		switch m := msg.(type) {
		case gcs.MissionUploadMessage:
			f.FlightData.SetMissionPlan(missionToPlan(m.Items, f.FlightData.Speed))
		case gcs.ParamSetMessage:
			f.FlightData.Params.SetFloat(m.Key, m.Value)
		case gcs.ParamGetMessage:
			if v, ok := f.FlightData.Params.Lookup(m.Key); ok {
				_ = f.Ground.SendParam(m.Key, v)
			}
		case gcs.FenceUploadMessage:
			f.FlightData.AddFence(fenceFromUpload(m))
		case gcs.StartMissionMessage:
			f.FlightData.SetStartMission()
		case gcs.ResetMessage:
			f.Detector.Clear()
		case gcs.TrafficInjectMessage:
			pos := traffic.MakeLatLonAlt(m.Lat, m.Lon, m.Alt)
			vel := traffic.MakeVxyz(m.Vy, m.Vx, -m.Vz)
			f.FlightData.AddTraffic(m.ID, pos, vel)
		}
	}
	return ctx.Err()
}

func (f *FMS) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(f.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if f.stop.Load() {
				return nil
			}
			f.Tick()
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// tick

// Tick runs one detect/resolve/sequence cycle on a consistent snapshot
// of the flight data.
func (f *FMS) Tick() {
	snap := f.FlightData.TakeSnapshot()
	if !snap.HaveState {
		return
	}

	switch f.phase {
	case PhaseIdle:
		if snap.StartAsked && snap.MissionPlan.Size() > 1 {
			f.phase = PhasePreflight
		}
	case PhasePreflight:
		f.startTakeoff(&snap)
	case PhaseTakeoff, PhaseClimb:
		f.climb(&snap)
	case PhaseCruise:
		f.cruise(&snap)
	case PhaseDescend, PhaseApproach, PhaseLand:
		// Landing is sequenced by the autopilot once commanded.
	}

	if f.Recorder != nil {
		f.Recorder.Record(&snap, f.phase, f.planType, f.Detector)
	}
}

func (f *FMS) startTakeoff(snap *Snapshot) {
	alt, _ := f.FlightData.Params.LookupOr("TAKEOFF_ALT", 10)
	f.targetAlt = alt
	if err := f.Autopilot.SetMode(ap.ModeActive); err != nil {
		f.lg.Errorf("fms: set-mode: %v", err)
		return
	}
	if err := f.Autopilot.Arm(true); err != nil {
		f.lg.Errorf("fms: arm: %v", err)
		return
	}
	if err := f.Autopilot.Takeoff(alt); err != nil {
		f.lg.Errorf("fms: takeoff: %v", err)
		f.phase = PhaseIdle
		return
	}
	f.phase = PhaseClimb
	f.sendStatus("Starting climb")
}

func (f *FMS) climb(snap *Snapshot) {
	altError := gomath.Abs(snap.Pos.Alt() - f.targetAlt)
	if altError < 0.5 {
		_ = f.Autopilot.SetMode(ap.ModePassive)
		_ = f.Autopilot.SetSpeed(snap.Speed)
		f.FlightData.mu.Lock(f.lg)
		f.FlightData.NextMissionWP++
		f.FlightData.mu.Unlock(f.lg)
		f.phase = PhaseCruise
		f.sendStatus("Starting cruise")
	}
}

// cruise is the working phase: detect, resolve, sequence waypoints.
func (f *FMS) cruise(snap *Snapshot) {
	elapsed := f.elapsedPlanTime(snap)

	// Detectors, in priority order, all on the same snapshot.
	f.Detector.CheckGeofence(snap, f.planType, elapsed)
	dev, offset := f.Detector.CheckFlightPlanDeviation(snap, f.planType, false)
	snap.CrossTrackDev, snap.CrossTrackOffset = dev, offset
	f.Detector.CheckTraffic(snap, f.returnPathConflict)

	f.broadcastBands(snap)

	if f.Detector.Size() > 0 && f.resState == resolveIdle && f.planType == resolve.Mission {
		f.resState = resolveCompute
	}

	var resolutionPlan *traffic.Plan
	nextMissionWP := snap.NextMissionWP
	nextResolutionWP := snap.NextResolutionWP
	var vn, ve, vu, heading float64

	switch f.resState {
	case resolveCompute:
		out := f.resolveConflict(snap, elapsed)
		f.planType = out.PlanType
		nextMissionWP = out.NextMissionWP
		f.goalReached = out.GoalReached
		f.returnPathConflict = out.ReturnPathConflict
		f.resumeMission = false
		switch out.Kind {
		case resolve.KindManeuver:
			vn, ve, vu, heading = out.Vn, out.Ve, out.Vu, out.Heading
			_ = f.Autopilot.SetMode(ap.ModeActive)
			f.flyManeuver(vn, ve, vu)
			f.resState = resolveManeuver
		case resolve.KindTrajectory:
			p := out.Plan
			resolutionPlan = &p
			nextResolutionWP = 0
			_ = f.Autopilot.SetMode(ap.ModeActive)
			f.resState = resolveTrajectory
		default:
			f.resState = resolveIdle
		}
	case resolveManeuver:
		if f.Detector.Size() == 0 && !f.returnPathConflict {
			f.resState = resolveResume
			break
		}
		out := f.resolveConflict(snap, elapsed)
		switch out.Kind {
		case resolve.KindManeuver:
			vn, ve, vu, heading = out.Vn, out.Ve, out.Vu, out.Heading
			f.returnPathConflict = out.ReturnPathConflict
			f.flyManeuver(vn, ve, vu)
		case resolve.KindTrajectory:
			p := out.Plan
			resolutionPlan = &p
			nextResolutionWP = 0
			f.planType = resolve.Trajectory
			f.resState = resolveTrajectory
		}
	case resolveTrajectory:
		done, advanced := f.flyTrajectory(snap, nextResolutionWP)
		nextResolutionWP = advanced
		if done {
			if f.goalReached {
				f.resState = resolveResume
			} else {
				// Planner hit its cap last time; replan from here.
				f.resState = resolveCompute
			}
		}
	case resolveResume:
		f.planType = resolve.Mission
		f.resState = resolveIdle
		f.resumeMission = true
		f.Detector.Clear()
		f.returnPathConflict = false
		_ = f.Autopilot.SetMode(ap.ModePassive)
		_ = f.Autopilot.GotoWaypoint(nextMissionWP)
		f.sendStatus("Resuming mission")
	case resolveIdle:
		// Normal mission sequencing.
		if snap.ReachedWP >= 0 {
			nextMissionWP = snap.ReachedWP + 1
			if nextMissionWP >= snap.MissionPlan.Size() {
				f.phase = PhaseLand
				_ = f.Autopilot.Land()
				f.sendStatus("Mission complete, landing")
			}
		}
	}

	f.FlightData.CommitTick(dev, offset, nextMissionWP, nextResolutionWP, resolutionPlan, vn, ve, vu, heading)
}

// resolveConflict builds the resolver input from the snapshot and the
// latched detector state.
func (f *FMS) resolveConflict(snap *Snapshot, elapsed float64) resolve.Output {
	in := resolve.Input{
		Ownship:           traffic.MakeOwnship("ownship", snap.Pos, snap.Vel),
		MissionPlan:       &snap.MissionPlan,
		ResolutionPlan:    &snap.ResolutionPlan,
		NextMissionWP:     snap.NextMissionWP,
		NextResolutionWP:  snap.NextResolutionWP,
		PlanType:          f.planType,
		ElapsedTime:       elapsed,
		CrossTrackDev:     snap.CrossTrackDev,
		CrossTrackOffset:  snap.CrossTrackOffset,
		TrafficPos:        snap.TrafficPos,
		TrafficVel:        snap.TrafficVel,
		Fences:            snap.Fences,
		KeepInFence:       f.Detector.KeepInFence,
		KeepOutFence:      f.Detector.KeepOutFence,
		TrafficConflict:   f.Detector.TrafficConflict(),
		DeviationConflict: f.Detector.DeviationConflict(),
		KMB:               f.Detector.DAA,
	}

	out := f.Resolver.Resolve(in)

	// A traffic maneuver whose return path stays blocked escalates to a
	// reroute through the predicted traffic.
	if in.TrafficConflict && out.Kind == resolve.KindManeuver && out.ReturnPathConflict && len(snap.TrafficPos) > 0 {
		if rrtOut := f.Resolver.ResolveTrafficRRT(in); rrtOut.Plan.Size() > 1 {
			out = rrtOut
		}
	}

	if f.DebugDAA {
		godump.Dump(out)
	}
	return out
}

// flyManeuver tracks a velocity command in guided mode.
func (f *FMS) flyManeuver(vn, ve, vu float64) {
	sat := func(v float64) float64 { return saturate(v, f.FlightData.Speed) }
	if err := f.Autopilot.SetVelocity(sat(vn), sat(ve), -sat(vu)); err != nil {
		f.lg.Errorf("fms: set-velocity: %v", err)
	}
}

// flyTrajectory steps through the resolution plan waypoint by
// waypoint. Returns completion and the updated waypoint index.
func (f *FMS) flyTrajectory(snap *Snapshot, next int) (bool, int) {
	plan := &snap.ResolutionPlan
	if plan.IsEmpty() || next >= plan.Size() {
		return true, next
	}
	wp := plan.Point(next)
	distH := snap.Pos.DistanceH(wp.Pos)
	distV := snap.Pos.DistanceV(wp.Pos)
	if distH < f.captureH && distV < f.captureV {
		next++
		if next >= plan.Size() {
			return f.goalReached, next
		}
		wp = plan.Point(next)
	}
	if err := f.Autopilot.SetPosition(wp.Pos.Lat(), wp.Pos.Lon(), wp.Pos.Alt()); err != nil {
		f.lg.Errorf("fms: set-position: %v", err)
	}
	return false, next
}

// elapsedPlanTime estimates plan time at the aircraft position from
// the leg it is flying.
func (f *FMS) elapsedPlanTime(snap *Snapshot) float64 {
	fp := &snap.MissionPlan
	next := snap.NextMissionWP
	if f.planType == resolve.Trajectory {
		fp = &snap.ResolutionPlan
		next = snap.NextResolutionWP
	}
	if fp.Size() < 2 {
		return 0
	}
	prev := fp.Point(next - 1)
	legTime := fp.Point(next).Time - prev.Time
	legDist := prev.Pos.DistanceH(fp.Point(next).Pos)
	if legDist <= 0 || legTime <= 0 {
		return prev.Time
	}
	frac := math.Clamp(prev.Pos.DistanceH(snap.Pos)/legDist, 0, 1)
	return prev.Time + frac*legTime
}

// broadcastBands downlinks the track bands unless the suppression rule
// says they carry no information.
func (f *FMS) broadcastBands(snap *Snapshot) {
	if f.Ground == nil && f.Viz == nil {
		return
	}
	msg := gcs.MakeBandsMessage(f.Detector.DAA, bands.DimTrk)
	if gcs.SuppressBandsMessage(msg, DistToNearestTraffic(snap)) {
		return
	}
	if f.Ground != nil {
		if err := f.Ground.SendBands(msg); err != nil {
			f.lg.Errorf("fms: send bands: %v", err)
		}
	}
	if f.Viz != nil {
		f.Viz.Broadcast(msg)
	}
}

func (f *FMS) sendStatus(s string) {
	f.lg.Infof("fms: %s", s)
	if f.Ground != nil {
		_ = f.Ground.SendStatusText(s)
	}
}

func saturate(v, vsat float64) float64 {
	return math.Clamp(v, -vsat, vsat)
}

///////////////////////////////////////////////////////////////////////////
// upload helpers

func missionToPlan(items []gcs.MissionItem, speed float64) traffic.Plan {
	var plan traffic.Plan
	if speed <= 0 {
		speed = 1
	}
	eta := 0.0
	var prev traffic.Position
	for i, it := range items {
		pos := traffic.MakeLatLonAlt(it.Lat, it.Lon, it.Alt)
		if i > 0 {
			s := it.Speed
			if s <= 0 {
				s = speed
			}
			eta += prev.DistanceH(pos) / s
		}
		plan.Add(traffic.NavPoint{Pos: pos, Time: eta})
		prev = pos
	}
	return plan
}

func fenceFromUpload(m gcs.FenceUploadMessage) *geofence.Geofence {
	typ := geofence.KeepOut
	if m.KeepIn {
		typ = geofence.KeepIn
	}
	verts := make([]traffic.Position, len(m.Lat))
	for i := range m.Lat {
		verts[i] = traffic.MakeLatLonAlt(m.Lat[i], m.Lon[i], m.Floor)
	}
	return geofence.MakeGeofence(m.ID, typ, m.Floor, m.Ceiling, verts)
}
