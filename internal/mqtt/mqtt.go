// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/hw-revision/internal/logic"
	"github.com/sweeney/hw-revision/internal/revision"
)

// TopicPrefix is the root of all hw-revision topics.
const TopicPrefix = "hardware/revision"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = TopicPrefix + "/system"

// DeviceTopic returns the retained topic carrying a device's revision.
func DeviceTopic(device string) string {
	return TopicPrefix + "/" + device
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a revision event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Revision RevisionPayload `json:"revision"`
}

// RevisionPayload contains the revision event details.
type RevisionPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Device    string `json:"device"`
	Value     int    `json:"value"`
	Bits      string `json:"bits"`
	Previous  *int   `json:"previous,omitempty"`
}

// FormatPayload creates the JSON payload for a revision event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := RevisionPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Device:    event.Device,
		Value:     event.Value,
		Bits:      revision.Bits(event.Value, event.Pins),
	}
	if event.Type == logic.EventChanged {
		prev := event.Previous
		p.Previous = &prev
	}
	return json.Marshal(Payload{Revision: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// Message is a serialized MQTT publication.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// EventMessage builds the retained QoS 1 message for a revision event on
// the device's topic. A late subscriber always sees the current revision.
func EventMessage(event logic.Event) (Message, error) {
	payload, err := FormatPayload(event)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: DeviceTopic(event.Device), Payload: payload, QoS: 1, Retained: true}, nil
}

// SystemMessage builds the QoS 1 message for a system event.
func SystemMessage(event SystemEvent) (Message, error) {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: TopicSystem, Payload: payload, QoS: 1, Retained: event.Retained}, nil
}

// willPayload is published by the broker if the connection drops uncleanly.
func willPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"})
	return data
}
