// fms/recorder.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/peregrine-uas/peregrine/log"
	"github.com/peregrine-uas/peregrine/resolve"
)

// Recorder is the flight-data black box: one msgpack frame per tick,
// zstd-compressed on the way to disk. Frames carry the ownship state,
// phase, plan type, detector flags, traffic count and cross-track
// deviation; traffic positions and fences are not recorded.
type Recorder struct {
	mu  sync.Mutex
	f   *os.File
	zw  *zstd.Encoder
	enc *msgpack.Encoder
	lg  *log.Logger
}

// Frame is one recorded tick.
type Frame struct {
	Time     float64 `msgpack:"t"`
	Lat      float64 `msgpack:"lat"`
	Lon      float64 `msgpack:"lon"`
	Alt      float64 `msgpack:"alt"`
	Vn       float64 `msgpack:"vn"`
	Ve       float64 `msgpack:"ve"`
	Vu       float64 `msgpack:"vu"`
	Phase    string  `msgpack:"phase"`
	PlanType string  `msgpack:"plan"`

	KeepIn    bool `msgpack:"keepin"`
	KeepOut   bool `msgpack:"keepout"`
	Traffic   bool `msgpack:"traffic"`
	Deviation bool `msgpack:"dev"`

	NumTraffic int     `msgpack:"ntraffic"`
	XtrkDev    float64 `msgpack:"xtrk"`
}

// NewRecorder opens a session file named by a fresh UUID in dir.
func NewRecorder(dir string, lg *log.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, "flight-"+uuid.NewString()+".mpz")
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	lg.Infof("recorder: session %s", name)
	return &Recorder{
		f:   f,
		zw:  zw,
		enc: msgpack.NewEncoder(zw),
		lg:  lg,
	}, nil
}

// Record appends one tick frame.
func (r *Recorder) Record(snap *Snapshot, phase FlightPhase, planType resolve.PlanType, det *ConflictDetector) {
	frame := Frame{
		Time:       snap.AcTime,
		Lat:        snap.Pos.Lat(),
		Lon:        snap.Pos.Lon(),
		Alt:        snap.Pos.Alt(),
		Vn:         snap.Vel.Y,
		Ve:         snap.Vel.X,
		Vu:         snap.Vel.Z,
		Phase:      phase.String(),
		PlanType:   planType.String(),
		KeepIn:     det.KeepInConflict(),
		KeepOut:    det.KeepOutConflict(),
		Traffic:    det.TrafficConflict(),
		Deviation:  det.DeviationConflict(),
		NumTraffic: len(snap.TrafficPos),
		XtrkDev:    snap.CrossTrackDev,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(frame); err != nil {
		r.lg.Errorf("recorder: encode: %v", err)
	}
}

// Close flushes and closes the session file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.zw.Close(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// ReadFrames decodes a recorded session, for offline replay and tests.
func ReadFrames(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	dec := msgpack.NewDecoder(zr)
	var frames []Frame
	for {
		var fr Frame
		if err := dec.Decode(&fr); err != nil {
			break
		}
		frames = append(frames, fr)
	}
	return frames, nil
}
