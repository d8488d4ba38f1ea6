// stats.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/peregrine-uas/peregrine/log"
)

// logRuntimeStats periodically logs process CPU and memory usage so
// long flights leave a resource trail in the logs.
func logRuntimeStats(ctx context.Context, lg *log.Logger, everySec int) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		lg.Warnf("stats: %v", err)
		return
	}

	t := time.NewTicker(time.Duration(everySec) * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			args := []any{
				slog.Uint64("heap_alloc", m.HeapAlloc),
				slog.Uint64("sys", m.Sys),
				slog.Int("goroutines", runtime.NumGoroutine()),
			}
			if pct, err := p.CPUPercentWithContext(ctx); err == nil {
				args = append(args, slog.Float64("proc_cpu_pct", pct))
			}
			if sys, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(sys) > 0 {
				args = append(args, slog.Float64("sys_cpu_pct", sys[0]))
			}
			lg.Info("runtime stats", args...)
		}
	}
}
