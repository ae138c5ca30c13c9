// Package logic contains pure revision change-tracking logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// EventType classifies a revision event.
type EventType string

const (
	// EventBaseline is emitted for the first reading of a device.
	EventBaseline EventType = "BASELINE"
	// EventChanged is emitted when a device reads a different value.
	EventChanged EventType = "CHANGED"
)

// Event represents a revision reading to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Device    string
	Value     int
	Previous  int // only meaningful for EventChanged
	Pins      int
}

// Input represents a single sampled revision value.
type Input struct {
	Device string
	Value  int
	Pins   int
	Time   time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Baseline int
	Changed  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// Reading is the latest known value of one device.
type Reading struct {
	Value int
	Pins  int
	Since time.Time // when this value was first seen
}
