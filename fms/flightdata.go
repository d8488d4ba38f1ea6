// fms/flightdata.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package fms is the top-level flight management system: it owns the
// shared flight data, runs the detector/resolver pipeline at a fixed
// tick rate, and sequences the flight phases.
package fms

import (
	"sort"

	"github.com/brunoga/deep"

	"github.com/peregrine-uas/peregrine/ap"
	"github.com/peregrine-uas/peregrine/geofence"
	"github.com/peregrine-uas/peregrine/log"
	"github.com/peregrine-uas/peregrine/params"
	"github.com/peregrine-uas/peregrine/traffic"
	"github.com/peregrine-uas/peregrine/util"
)

// TrafficObject is an intruder track as delivered by the ground
// station or an onboard sensor feed.
type TrafficObject struct {
	ID  int
	Pos traffic.Position
	Vel traffic.Velocity
}

// FlightData is the shared mutable state between the reader threads
// and the FMS tick. All access goes through the mutex; the FMS takes a
// consistent snapshot at the start of each tick and computes on that.
type FlightData struct {
	mu util.LoggingMutex
	lg *log.Logger

	Params *params.Table

	// Vehicle state from the autopilot.
	AcTime           float64
	Pos              traffic.Position
	Vel              traffic.Velocity
	Roll, Pitch, Yaw float64

	// Plans and progress.
	MissionPlan      traffic.Plan
	ResolutionPlan   traffic.Plan
	NextMissionWP    int
	NextResolutionWP int

	// Deviation bookkeeping, written by the detector.
	CrossTrackDev    float64
	CrossTrackOffset float64

	// Last commanded maneuver.
	ManeuverVn, ManeuverVe, ManeuverVu float64
	ManeuverHeading                    float64

	// Resolution ground speed commanded to the autopilot.
	Speed float64

	fences       []*geofence.Geofence
	trafficList  map[int]TrafficObject
	startMission bool
	reachedWP    int // latest waypoint-reached seq, -1 if none

	haveState bool
}

func NewFlightData(tbl *params.Table, lg *log.Logger) *FlightData {
	fd := &FlightData{
		lg:          lg,
		Params:      tbl,
		trafficList: make(map[int]TrafficObject),
		Speed:       1,
		reachedWP:   -1,
	}
	if tbl != nil {
		if v, ok := tbl.Lookup("RES_SPEED"); ok && v > 0 {
			fd.Speed = v
		}
	}
	return fd
}

///////////////////////////////////////////////////////////////////////////
// reader-side updates

// UpdatePosition ingests a position message from the autopilot reader.
func (fd *FlightData) UpdatePosition(msg ap.PositionMessage) {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.Pos = traffic.MakeLatLonAlt(msg.Lat, msg.Lon, msg.Alt)
	// Autopilot velocities are NED; flip to ENU-up.
	fd.Vel = traffic.MakeVxyz(msg.Vy, msg.Vx, -msg.Vz)
	fd.AcTime = msg.Time
	fd.haveState = true
}

func (fd *FlightData) UpdateAttitude(msg ap.AttitudeMessage) {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.Roll, fd.Pitch, fd.Yaw = msg.Roll, msg.Pitch, msg.Yaw
}

func (fd *FlightData) WaypointReached(seq int) {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.reachedWP = seq
}

// AddTraffic inserts or refreshes an intruder track.
func (fd *FlightData) AddTraffic(id int, pos traffic.Position, vel traffic.Velocity) {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.trafficList[id] = TrafficObject{ID: id, Pos: pos, Vel: vel}
}

func (fd *FlightData) AddFence(g *geofence.Geofence) {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.fences = append(fd.fences, g)
}

func (fd *FlightData) SetMissionPlan(p traffic.Plan) {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.MissionPlan = p
	fd.NextMissionWP = 1
}

func (fd *FlightData) SetStartMission() {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.startMission = true
}

///////////////////////////////////////////////////////////////////////////
// tick-side snapshot

// Snapshot is the immutable per-tick view the detectors and resolver
// compute on. Fence pointers are shared: their lifecycle flags are only
// touched from the FMS tick.
type Snapshot struct {
	AcTime float64
	Pos    traffic.Position
	Vel    traffic.Velocity

	MissionPlan      traffic.Plan
	ResolutionPlan   traffic.Plan
	NextMissionWP    int
	NextResolutionWP int

	CrossTrackDev    float64
	CrossTrackOffset float64
	Speed            float64

	Fences      []*geofence.Geofence
	TrafficPos  []traffic.Position
	TrafficVel  []traffic.Velocity
	HaveState   bool
	StartAsked  bool
	ReachedWP   int
}

// TakeSnapshot copies the shared state under the lock; the compute
// phase then runs lock-free. The waypoint-reached and start-mission
// latches are consumed.
func (fd *FlightData) TakeSnapshot() Snapshot {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)

	snap := Snapshot{
		AcTime:           fd.AcTime,
		Pos:              fd.Pos,
		Vel:              fd.Vel,
		MissionPlan:      deep.MustCopy(fd.MissionPlan),
		ResolutionPlan:   deep.MustCopy(fd.ResolutionPlan),
		NextMissionWP:    fd.NextMissionWP,
		NextResolutionWP: fd.NextResolutionWP,
		CrossTrackDev:    fd.CrossTrackDev,
		CrossTrackOffset: fd.CrossTrackOffset,
		Speed:            fd.Speed,
		Fences:           fd.fences,
		HaveState:        fd.haveState,
		StartAsked:       fd.startMission,
		ReachedWP:        fd.reachedWP,
	}
	fd.startMission = false
	fd.reachedWP = -1

	ids := make([]int, 0, len(fd.trafficList))
	for id := range fd.trafficList {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t := fd.trafficList[id]
		snap.TrafficPos = append(snap.TrafficPos, t.Pos)
		snap.TrafficVel = append(snap.TrafficVel, t.Vel)
	}
	return snap
}

// CommitTick writes back the results of a tick.
func (fd *FlightData) CommitTick(crossTrackDev, crossTrackOffset float64, nextMissionWP, nextResolutionWP int, resolutionPlan *traffic.Plan, vn, ve, vu, heading float64) {
	fd.mu.Lock(fd.lg)
	defer fd.mu.Unlock(fd.lg)
	fd.CrossTrackDev = crossTrackDev
	fd.CrossTrackOffset = crossTrackOffset
	fd.NextMissionWP = nextMissionWP
	fd.NextResolutionWP = nextResolutionWP
	if resolutionPlan != nil {
		fd.ResolutionPlan = *resolutionPlan
	}
	fd.ManeuverVn, fd.ManeuverVe, fd.ManeuverVu = vn, ve, vu
	fd.ManeuverHeading = heading
}
