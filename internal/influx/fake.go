package influx

import (
	"context"

	"github.com/sweeney/hw-revision/internal/logic"
)

// FakeRecorder records events for test assertions.
type FakeRecorder struct {
	Events []logic.Event

	// RecordError, if set, will be returned by Record.
	RecordError error

	Closed bool
}

// Record stores the event, or returns RecordError.
func (f *FakeRecorder) Record(_ context.Context, event logic.Event) error {
	if f.RecordError != nil {
		return f.RecordError
	}
	f.Events = append(f.Events, event)
	return nil
}

// Close marks the recorder as closed.
func (f *FakeRecorder) Close() error {
	f.Closed = true
	return nil
}
