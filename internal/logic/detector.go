package logic

import (
	"sort"
	"time"
)

// Detector tracks the last revision of each device and reports changes.
// Revision straps are static, so no debouncing is applied: every
// differing sample is a change.
type Detector struct {
	expected      []string
	readings      map[string]Reading
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a detector for the given devices.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(devices []string, startTime time.Time) *Detector {
	expected := append([]string(nil), devices...)
	sort.Strings(expected)
	return &Detector{
		expected:      expected,
		readings:      make(map[string]Reading),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new sample and returns the events it causes: a
// BASELINE event for a device's first sample, a CHANGED event when the
// value differs from the last one, nothing otherwise.
func (d *Detector) Process(input Input) []Event {
	prev, seen := d.readings[input.Device]

	if !seen {
		d.readings[input.Device] = Reading{Value: input.Value, Pins: input.Pins, Since: input.Time}
		d.eventCounts.Baseline++
		return []Event{{
			Timestamp: input.Time,
			Type:      EventBaseline,
			Device:    input.Device,
			Value:     input.Value,
			Pins:      input.Pins,
		}}
	}

	if prev.Value == input.Value {
		return nil
	}

	d.readings[input.Device] = Reading{Value: input.Value, Pins: input.Pins, Since: input.Time}
	d.eventCounts.Changed++
	return []Event{{
		Timestamp: input.Time,
		Type:      EventChanged,
		Device:    input.Device,
		Value:     input.Value,
		Previous:  prev.Value,
		Pins:      input.Pins,
	}}
}

// IsBaselined reports whether every expected device has been sampled.
func (d *Detector) IsBaselined() bool {
	for _, name := range d.expected {
		if _, ok := d.readings[name]; !ok {
			return false
		}
	}
	return true
}

// Readings returns a copy of the latest reading of every device.
func (d *Detector) Readings() map[string]Reading {
	out := make(map[string]Reading, len(d.readings))
	for k, v := range d.readings {
		out[k] = v
	}
	return out
}

// EventCountsSnapshot returns the event counts since startup.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !d.IsBaselined() {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
