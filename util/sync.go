// util/sync.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/peregrine-uas/peregrine/log"
)

///////////////////////////////////////////////////////////////////////////
// AtomicBool

// AtomicBool is a simple wrapper around atomic.Bool that adds support
// for JSON marshaling/unmarshaling.
type AtomicBool struct {
	atomic.Bool
}

func (a AtomicBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Load())
}

func (a *AtomicBool) UnmarshalJSON(data []byte) error {
	var b bool
	err := json.Unmarshal(data, &b)
	if err == nil {
		a.Store(b)
	}
	return err
}

///////////////////////////////////////////////////////////////////////////
// LoggingMutex

// LoggingMutex is a mutex that complains to the log when acquisition
// stalls, which turns silent deadlocks between the reader threads and
// the FMS tick into diagnosable reports.
type LoggingMutex struct {
	sync.Mutex
	acq time.Time
}

const mutexAcquireWarning = time.Second

func (l *LoggingMutex) Lock(lg *log.Logger) {
	if l.Mutex.TryLock() {
		l.acq = time.Now()
		return
	}

	tryTime := time.Now()
	locked := make(chan struct{})
	go func() {
		l.Mutex.Lock()
		close(locked)
	}()

	t := time.NewTicker(mutexAcquireWarning)
	defer t.Stop()
	for {
		select {
		case <-locked:
			l.acq = time.Now()
			if w := time.Since(tryTime); w > mutexAcquireWarning {
				lg.Warn("mutex: slow acquisition", slog.Duration("wait", w))
			}
			return
		case <-t.C:
			lg.Warn("mutex: still waiting", slog.Duration("wait", time.Since(tryTime)))
		}
	}
}

func (l *LoggingMutex) Unlock(lg *log.Logger) {
	if held := time.Since(l.acq); held > mutexAcquireWarning {
		lg.Warn("mutex: held for a long time", slog.Duration("held", held))
	}
	l.Mutex.Unlock()
}
