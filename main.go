// main.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function, which
// loads the configuration, wires the bridges to the flight management
// system, and runs the tick loop until the system exits.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peregrine-uas/peregrine/bands"
	"github.com/peregrine-uas/peregrine/fms"
	"github.com/peregrine-uas/peregrine/log"
	"github.com/peregrine-uas/peregrine/params"
	"github.com/peregrine-uas/peregrine/util"
)

var (
	paramFile  = flag.String("params", "", "vehicle parameter file")
	daaFile    = flag.String("daa", "", "DAA configuration file")
	logLevel   = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir     = flag.String("logdir", "", "logging directory (default: user config dir)")
	recordDir  = flag.String("record", "", "flight recorder directory (empty: recorder off)")
	statsEvery = flag.Int("stats", 60, "seconds between runtime stats log entries (0: off)")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)

	tbl := params.NewTable()
	if *paramFile != "" {
		var err error
		tbl, err = loadTable(*paramFile)
		if err != nil {
			lg.Errorf("%s: %v", *paramFile, err)
			os.Exit(1)
		}
	}

	daaParams := bands.DefaultParameters()
	if *daaFile != "" {
		daaTbl, err := loadTable(*daaFile)
		if err != nil {
			lg.Errorf("%s: %v", *daaFile, err)
			os.Exit(1)
		}
		daaParams.SetFromTable(daaTbl)
	}
	var el util.ErrorLogger
	if !daaParams.Validate(&el) {
		el.PrintErrors(lg)
		os.Exit(1)
	}

	fd := fms.NewFlightData(tbl, lg)

	// The autopilot and ground-station transports are provided by the
	// integration that embeds the core; this binary exercises the
	// pipeline only when one is registered at build time.
	pilot := registeredAutopilot()
	if pilot == nil {
		fmt.Fprintln(os.Stderr, "no autopilot transport linked into this build")
		os.Exit(1)
	}

	f := fms.New(fd, pilot, registeredGroundStation(), daaParams, lg)

	if *recordDir != "" {
		rec, err := fms.NewRecorder(*recordDir, lg)
		if err != nil {
			lg.Errorf("recorder: %v", err)
			os.Exit(1)
		}
		defer rec.Close()
		f.Recorder = rec
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		lg.Info("signal received, stopping")
		f.Stop()
		cancel()
	}()

	if *statsEvery > 0 {
		go logRuntimeStats(ctx, lg, *statsEvery)
	}

	if err := f.Run(ctx); err != nil && ctx.Err() == nil {
		lg.Errorf("fms: %v", err)
		os.Exit(1)
	}
}

func loadTable(path string) (*params.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return params.Load(f)
}
