// fms/e2e_test.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	gomath "math"
	"strings"
	"sync"
	"testing"

	"github.com/peregrine-uas/peregrine/ap"
	"github.com/peregrine-uas/peregrine/bands"
	"github.com/peregrine-uas/peregrine/geofence"
	"github.com/peregrine-uas/peregrine/params"
	"github.com/peregrine-uas/peregrine/resolve"
	"github.com/peregrine-uas/peregrine/traffic"
)

// fakeAutopilot records every command for inspection.
type fakeAutopilot struct {
	mu         sync.Mutex
	commands   []string
	velocities [][3]float64
	positions  [][3]float64
	msgs       chan ap.Message
}

func newFakeAutopilot() *fakeAutopilot {
	return &fakeAutopilot{msgs: make(chan ap.Message, 16)}
}

func (f *fakeAutopilot) record(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
}

func (f *fakeAutopilot) Arm(arm bool) error           { f.record("arm"); return nil }
func (f *fakeAutopilot) Takeoff(alt float64) error    { f.record("takeoff"); return nil }
func (f *fakeAutopilot) SetMode(m ap.Mode) error      { f.record("set-mode " + m.String()); return nil }
func (f *fakeAutopilot) GotoWaypoint(seq int) error   { f.record("goto-wp"); return nil }
func (f *fakeAutopilot) SetYaw(h, r float64, d int, rel bool) error { f.record("set-yaw"); return nil }
func (f *fakeAutopilot) SetSpeed(speed float64) error { f.record("set-speed"); return nil }
func (f *fakeAutopilot) Land() error                  { f.record("land"); return nil }

func (f *fakeAutopilot) SetPosition(lat, lon, alt float64) error {
	f.record("set-position")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = append(f.positions, [3]float64{lat, lon, alt})
	return nil
}

func (f *fakeAutopilot) SetVelocity(vn, ve, vd float64) error {
	f.record("set-velocity")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.velocities = append(f.velocities, [3]float64{vn, ve, vd})
	return nil
}

func (f *fakeAutopilot) Receive() (ap.Message, error) { return <-f.msgs, nil }
func (f *fakeAutopilot) Close() error                 { return nil }

func (f *fakeAutopilot) sent(cmd string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if strings.HasPrefix(c, cmd) {
			return true
		}
	}
	return false
}

// geodetic mission: two waypoints 200 m apart heading east at 5 m/s.
func geodeticMission(lat0, lon0 float64) traffic.Plan {
	var p traffic.Plan
	a := traffic.MakeLatLonAlt(lat0, lon0, 10)
	b := a.LinearEst(0, 200)
	p.Add(traffic.NavPoint{Pos: a, Time: 0})
	p.Add(traffic.NavPoint{Pos: b, Time: 40})
	return p
}

func testFMS(t *testing.T, tblText string) (*FMS, *fakeAutopilot) {
	t.Helper()
	tbl, err := params.Load(strings.NewReader(tblText))
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	fd := NewFlightData(tbl, nil)
	pilot := newFakeAutopilot()
	f := New(fd, pilot, nil, bands.DefaultParameters(), nil)
	return f, pilot
}

// A cross-track deviation in cruise produces a set-velocity command
// steering back toward the path.
func TestCruiseDeviationManeuver(t *testing.T) {
	f, pilot := testFMS(t, "XTRK_DEV = 5\nXTRK_GAIN = 0.3\nRES_SPEED = 5\n")

	// South of the equator the eastbound great-circle leg bows south of
	// the parallel, so a 10 m offset measures just under twice the 5 m
	// allowance and gets the proportional command.
	lat0, lon0 := -0.6, -1.3 // rad
	f.FlightData.SetMissionPlan(geodeticMission(lat0, lon0))

	// 100 m along the leg, 10 m right of it (south of an eastbound
	// path), flying parallel.
	pos := traffic.MakeLatLonAlt(lat0, lon0, 10).LinearEst(-10, 100)
	f.FlightData.UpdatePosition(ap.PositionMessage{
		Lat: pos.Lat(), Lon: pos.Lon(), Alt: 10,
		Vx: 0, Vy: 5, Vz: 0, Time: 100,
	})
	f.phase = PhaseCruise

	f.Tick()

	if !f.Detector.DeviationConflict() {
		t.Fatalf("10 m off a 5 m allowance should conflict")
	}
	if !pilot.sent("set-velocity") {
		t.Fatalf("expected a velocity command, got %v", pilot.commands)
	}
	v := pilot.velocities[len(pilot.velocities)-1]
	// Vs = gain*dev = 3 back toward the path (north), Vf = 4 along it.
	if gomath.Abs(v[0]-3) > 0.1 {
		t.Errorf("vn = %g, expected about 3", v[0])
	}
	if gomath.Abs(v[1]-4) > 0.1 {
		t.Errorf("ve = %g, expected about 4", v[1])
	}
	if f.resState != resolveManeuver {
		t.Errorf("resolve state %v, expected maneuver", f.resState)
	}
	if f.PlanType() != resolve.Maneuver {
		t.Errorf("plan type %v, expected maneuver", f.PlanType())
	}
}

// Once the deviation clears, the FMS resumes the mission and hands
// control back to the autopilot.
func TestManeuverResume(t *testing.T) {
	f, pilot := testFMS(t, "XTRK_DEV = 5\nXTRK_GAIN = 0.3\nRES_SPEED = 5\n")

	// Same geometry as TestCruiseDeviationManeuver: the offset stays
	// within twice the allowance, so the first tick is a maneuver.
	lat0, lon0 := -0.6, -1.3
	f.FlightData.SetMissionPlan(geodeticMission(lat0, lon0))
	f.phase = PhaseCruise

	deviate := traffic.MakeLatLonAlt(lat0, lon0, 10).LinearEst(-10, 100)
	f.FlightData.UpdatePosition(ap.PositionMessage{
		Lat: deviate.Lat(), Lon: deviate.Lon(), Alt: 10, Vy: 5, Time: 100,
	})
	f.Tick()
	if f.resState != resolveManeuver {
		t.Fatalf("setup: expected an active maneuver")
	}

	// Back on the path, inside the release band.
	onPath := traffic.MakeLatLonAlt(lat0, lon0, 10).LinearEst(0, 110)
	f.FlightData.UpdatePosition(ap.PositionMessage{
		Lat: onPath.Lat(), Lon: onPath.Lon(), Alt: 10, Vy: 5, Time: 103,
	})
	f.Tick() // deviation releases, conflict count drops
	f.Tick() // maneuver state notices and resumes

	if f.resState != resolveIdle {
		t.Errorf("resolve state %v, expected idle after resume", f.resState)
	}
	if f.PlanType() != resolve.Mission {
		t.Errorf("plan type %v, expected mission", f.PlanType())
	}
	if !pilot.sent("goto-wp") {
		t.Errorf("resume should re-target the mission waypoint")
	}
	if !pilot.sent("set-mode passive") {
		t.Errorf("resume should hand the mission back to the autopilot")
	}
}

// A keep-out fence across the mission produces a trajectory response
// and position setpoints along it.
func TestCruiseKeepOutTrajectory(t *testing.T) {
	f, pilot := testFMS(t, "XTRK_DEV = 50\nRES_SPEED = 5\nGRIDSIZE = 10\nBUFFER = 2\nLOOKAHEAD = 5\n")

	// Cartesian frame for exact fence geometry.
	var mission traffic.Plan
	mission.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 0, 10), Time: 0})
	mission.Add(traffic.NavPoint{Pos: traffic.MakeXYZ(0, 300, 10), Time: 60})
	f.FlightData.SetMissionPlan(mission)

	f.FlightData.AddFence(geofence.MakeGeofence(1, geofence.KeepOut, 0, 50, []traffic.Position{
		traffic.MakeXYZ(-25, 75, 0),
		traffic.MakeXYZ(25, 75, 0),
		traffic.MakeXYZ(25, 125, 0),
		traffic.MakeXYZ(-25, 125, 0),
	}))

	f.FlightData.mu.Lock(nil)
	f.FlightData.Pos = traffic.MakeXYZ(0, 0, 10)
	f.FlightData.Vel = traffic.MakeTrkGsVs(0, 5, 0)
	f.FlightData.haveState = true
	f.FlightData.mu.Unlock(nil)
	f.phase = PhaseCruise

	f.Tick()

	if !f.Detector.KeepOutConflict() {
		t.Fatalf("fence ahead should be detected")
	}
	if f.PlanType() != resolve.Trajectory {
		t.Fatalf("plan type %v, expected trajectory", f.PlanType())
	}
	if f.resState != resolveTrajectory {
		t.Fatalf("resolve state %v, expected trajectory", f.resState)
	}

	f.Tick() // first trajectory-following tick issues a setpoint
	if !pilot.sent("set-position") {
		t.Errorf("expected position setpoints along the reroute")
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	det := NewConflictDetector(bands.DefaultParameters(), 5, 5, nil)
	snap := &Snapshot{
		AcTime: 42,
		Pos:    traffic.MakeLatLonAlt(0.6, -1.3, 10),
		Vel:    traffic.MakeTrkGsVs(0, 5, 0),
	}
	for i := 0; i < 3; i++ {
		rec.Record(snap, PhaseCruise, resolve.Mission, det)
	}
	path := rec.f.Name()
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	frames, err := ReadFrames(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if frames[0].Time != 42 || frames[0].Phase != "cruise" || frames[0].PlanType != "mission" {
		t.Errorf("frame mangled: %+v", frames[0])
	}
	if gomath.Abs(frames[0].Lat-0.6) > 1e-12 {
		t.Errorf("latitude %g, expected 0.6", frames[0].Lat)
	}
}
