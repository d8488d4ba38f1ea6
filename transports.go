// transports.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"github.com/peregrine-uas/peregrine/ap"
	"github.com/peregrine-uas/peregrine/gcs"
)

// Concrete autopilot and ground-station transports live outside the
// core; an integration build registers them from an init function in a
// linked-in package.

var (
	autopilotTransport ap.Autopilot
	groundTransport    gcs.GroundStation
)

// RegisterAutopilot installs the autopilot transport; call from init.
func RegisterAutopilot(a ap.Autopilot) {
	autopilotTransport = a
}

// RegisterGroundStation installs the ground-station transport.
func RegisterGroundStation(g gcs.GroundStation) {
	groundTransport = g
}

func registeredAutopilot() ap.Autopilot        { return autopilotTransport }
func registeredGroundStation() gcs.GroundStation { return groundTransport }
