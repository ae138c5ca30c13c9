package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/hw-revision/internal/revision"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Devices       []DeviceJSON `json:"devices"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// DeviceJSON is the JSON representation of one revision sensor.
type DeviceJSON struct {
	Name     string   `json:"name"`
	Revision *int     `json:"revision"` // null until first sample
	Bits     string   `json:"bits,omitempty"`
	Pins     []string `json:"pins"`
	Since    string   `json:"since,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Baseline int `json:"baseline"`
	Changed  int `json:"changed"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend     string `json:"backend"`
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	InfluxURL   string `json:"influx_url,omitempty"`
}

// BuildDevice converts a tracked device to its JSON form.
func BuildDevice(d Device) DeviceJSON {
	dj := DeviceJSON{
		Name:  d.Name,
		Pins:  d.Pins,
		Error: d.LastError,
	}
	if dj.Pins == nil {
		dj.Pins = []string{}
	}
	if d.Sampled {
		v := d.Value
		dj.Revision = &v
		dj.Bits = revision.Bits(d.Value, len(d.Pins))
		dj.Since = d.Since.UTC().Format(time.RFC3339)
	}
	return dj
}

func buildInner(snap Snapshot) StatusInner {
	devices := make([]DeviceJSON, 0, len(snap.Devices))
	for _, d := range snap.Devices {
		devices = append(devices, BuildDevice(d))
	}

	inner := StatusInner{
		Devices:       devices,
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Baseline: snap.Counts.Baseline,
			Changed:  snap.Counts.Changed,
		},
		Config: ConfigJSON{
			Backend:     snap.Config.Backend,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			InfluxURL:   snap.Config.InfluxURL,
		},
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatDeviceJSON returns the JSON for a single device, or false if unknown.
func FormatDeviceJSON(snap Snapshot, name string) ([]byte, bool) {
	d, ok := snap.Device(name)
	if !ok {
		return nil, false
	}
	data, _ := json.MarshalIndent(BuildDevice(d), "", "  ")
	return data, true
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
