package mqtt

import (
	"github.com/sweeney/hw-revision/internal/logic"
)

// FakePublisher records what would have been sent to the broker.
type FakePublisher struct {
	Events   []logic.Event
	Messages []Message // one per entry in Events

	SystemEvents   []SystemEvent
	SystemMessages []Message // one per entry in SystemEvents

	// Errors returned by Publish and PublishSystem when set. Nothing is
	// recorded for a failed call.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool // returned by IsConnected
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the revision event and the message built for it.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	m, err := EventMessage(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Messages = append(f.Messages, m)
	return nil
}

// PublishSystem records the system event and the message built for it.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	m, err := SystemMessage(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemMessages = append(f.SystemMessages, m)
	return nil
}

// Topics returns the topic of each recorded revision message.
func (f *FakePublisher) Topics() []string {
	out := make([]string, len(f.Messages))
	for i, m := range f.Messages {
		out[i] = m.Topic
	}
	return out
}

// Payloads returns the payload of each recorded revision message.
func (f *FakePublisher) Payloads() [][]byte {
	out := make([][]byte, len(f.Messages))
	for i, m := range f.Messages {
		out[i] = m.Payload
	}
	return out
}

// SystemPayloads returns the payload of each recorded system message.
func (f *FakePublisher) SystemPayloads() [][]byte {
	out := make([][]byte, len(f.SystemMessages))
	for i, m := range f.SystemMessages {
		out[i] = m.Payload
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports the Connected field.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
