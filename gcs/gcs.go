// gcs/gcs.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package gcs defines the ground-station bridge: mission and fence
// uploads, parameter traffic, traffic injection, and the visualization
// band messages sent back for display.
package gcs

import (
	"github.com/peregrine-uas/peregrine/bands"
)

// MaxVizBands caps the coloured intervals per dimension in a
// visualization message; ground links are narrow.
const MaxVizBands = 5

// Band colour codes on the wire.
const (
	BandNone     = 0
	BandNear     = 1
	BandRecovery = 2
	BandMid      = 3
	BandFar      = 4
)

func wireType(r bands.Region) int {
	switch r {
	case bands.Near:
		return BandNear
	case bands.Recovery:
		return BandRecovery
	case bands.Mid:
		return BandMid
	case bands.Far:
		return BandFar
	default:
		return BandNone
	}
}

// BandsMessage is the visualization summary of one dimension's bands:
// up to MaxVizBands coloured intervals. Values are in the dimension's
// SI unit (radians for track).
type BandsMessage struct {
	Dimension string     `msgpack:"dim"`
	NumBands  int        `msgpack:"n"`
	Types     [MaxVizBands]int     `msgpack:"types"`
	Min       [MaxVizBands]float64 `msgpack:"min"`
	Max       [MaxVizBands]float64 `msgpack:"max"`
}

// MakeBandsMessage summarizes the current bands of one dimension.
func MakeBandsMessage(b *bands.MultiBands, d bands.Dimension) BandsMessage {
	msg := BandsMessage{Dimension: d.String()}
	n := b.Length(d)
	if n < 0 {
		return msg
	}
	if n > MaxVizBands {
		n = MaxVizBands
	}
	msg.NumBands = n
	for i := 0; i < n; i++ {
		iv := b.Interval(d, i)
		msg.Types[i] = wireType(b.Region(d, i))
		msg.Min[i] = iv.Low
		msg.Max[i] = iv.Up
	}
	return msg
}

// SuppressBandsMessage implements the downlink bandwidth rule: a lone
// NONE band is not worth sending unless traffic is close enough that
// the display should show a definitive all-clear.
func SuppressBandsMessage(msg BandsMessage, distToTraffic float64) bool {
	if msg.NumBands == 0 {
		return true
	}
	const closeTraffic = 20.0
	if distToTraffic < closeTraffic {
		return false
	}
	return msg.NumBands == 1 && msg.Types[0] == BandNone
}

///////////////////////////////////////////////////////////////////////////
// inbound messages

// Message is an inbound ground-station message.
type Message interface {
	isGCSMessage()
}

// MissionItem is one uploaded waypoint record.
type MissionItem struct {
	Seq           int
	Lat, Lon, Alt float64 // rad, rad, m
	Speed         float64
}

type MissionUploadMessage struct {
	Items []MissionItem
}

type ParamSetMessage struct {
	Key   string
	Value float64
}

type ParamGetMessage struct {
	Key string
}

// FenceUploadMessage enables a fence and uploads its vertices.
type FenceUploadMessage struct {
	ID             int
	KeepIn         bool
	Floor, Ceiling float64
	Lat, Lon       []float64 // rad
}

type StartMissionMessage struct{}

type ResetMessage struct{}

// TrafficInjectMessage injects or updates an intruder track.
type TrafficInjectMessage struct {
	ID            int
	Lat, Lon, Alt float64 // rad, rad, m
	Vx, Vy, Vz    float64 // m/s north, east, down
}

func (MissionUploadMessage) isGCSMessage() {}
func (ParamSetMessage) isGCSMessage()      {}
func (ParamGetMessage) isGCSMessage()      {}
func (FenceUploadMessage) isGCSMessage()   {}
func (StartMissionMessage) isGCSMessage()  {}
func (ResetMessage) isGCSMessage()         {}
func (TrafficInjectMessage) isGCSMessage() {}

// GroundStation is the outbound surface plus the blocking inbound
// read, mirroring the autopilot bridge.
type GroundStation interface {
	SendBands(msg BandsMessage) error
	SendStatusText(s string) error
	SendParam(key string, value float64) error

	Receive() (Message, error)
	Close() error
}
