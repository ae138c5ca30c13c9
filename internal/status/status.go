// Package status provides a thread-safe status tracker for the hw-revision daemon.
// It is read by the HTTP handlers and by MQTT system events.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/hw-revision/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Backend     string
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	InfluxURL   string
}

// Device is the state of one revision sensor.
type Device struct {
	Name      string
	Pins      []string
	Value     int
	Sampled   bool
	Since     time.Time
	LastError string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type; its Devices slice is never shared with the Tracker.
type Snapshot struct {
	Devices       []Device
	Baselined     bool
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Device returns the named device.
func (s Snapshot) Device(name string) (Device, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// AddDevice registers a device so it is listed before its first sample.
func (t *Tracker) AddDevice(name string, pins []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range t.snap.Devices {
		if d.Name == name {
			return
		}
	}
	t.snap.Devices = append(t.snap.Devices, Device{Name: name, Pins: append([]string(nil), pins...)})
	sort.Slice(t.snap.Devices, func(i, j int) bool {
		return t.snap.Devices[i].Name < t.snap.Devices[j].Name
	})
}

// Update sets device readings, baseline status and event counts.
func (t *Tracker) Update(readings map[string]logic.Reading, baselined bool, counts logic.EventCounts) {
	t.mu.Lock()
	for i := range t.snap.Devices {
		d := &t.snap.Devices[i]
		if r, ok := readings[d.Name]; ok {
			d.Value = r.Value
			d.Since = r.Since
			d.Sampled = true
		}
	}
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetError records the outcome of the last sample of a device.
// A nil error clears the previous one.
func (t *Tracker) SetError(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.snap.Devices {
		if t.snap.Devices[i].Name == name {
			if err != nil {
				t.snap.Devices[i].LastError = err.Error()
			} else {
				t.snap.Devices[i].LastError = ""
			}
			return
		}
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Devices = make([]Device, len(t.snap.Devices))
	copy(s.Devices, t.snap.Devices)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
