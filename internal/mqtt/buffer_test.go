package mqtt

import (
	"fmt"
	"testing"
)

func msg(i int) Message {
	return Message{Topic: DeviceTopic(fmt.Sprintf("dev%d", i)), Payload: []byte{byte(i)}}
}

func TestRingBufferDrain(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushed   int
		first    int // payload of the oldest kept message
		drops    int // first-drop signals
	}{
		{"empty", 4, 0, 0, 0},
		{"partial", 4, 3, 0, 0},
		{"full", 4, 4, 0, 0},
		{"overflow by one", 4, 5, 1, 1},
		{"overflow twice around", 4, 11, 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newRingBuffer(tt.capacity)
			drops := 0
			for i := 0; i < tt.pushed; i++ {
				if rb.push(msg(i)) {
					drops++
				}
			}
			if drops != tt.drops {
				t.Errorf("drop signals: got %d, want %d", drops, tt.drops)
			}

			got := rb.drainAll()
			want := tt.pushed
			if want > tt.capacity {
				want = tt.capacity
			}
			if len(got) != want {
				t.Fatalf("drained %d messages, want %d", len(got), want)
			}
			for i, m := range got {
				if int(m.Payload[0]) != tt.first+i {
					t.Errorf("message %d: payload %d, want %d", i, m.Payload[0], tt.first+i)
				}
			}
			if rb.len() != 0 || rb.drainAll() != nil {
				t.Error("buffer should be empty after drain")
			}
		})
	}
}

func TestRingBufferDropSignalResetsAfterDrain(t *testing.T) {
	rb := newRingBuffer(2)
	for i := 0; i < 3; i++ {
		rb.push(msg(i))
	}
	rb.drainAll()

	signals := 0
	for i := 0; i < 5; i++ {
		if rb.push(msg(i)) {
			signals++
		}
	}
	if signals != 1 {
		t.Errorf("expected a new drop signal after drain, got %d", signals)
	}
}

func TestRingBufferKeepsDeliveryOptions(t *testing.T) {
	rb := newRingBuffer(8)
	rb.push(Message{Topic: DeviceTopic("main"), Payload: []byte(`{"test":true}`), QoS: 1, Retained: true})
	rb.push(Message{Topic: TopicSystem, QoS: 1})

	got := rb.drainAll()
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Topic != "hardware/revision/main" || !got[0].Retained || got[0].QoS != 1 {
		t.Errorf("device message: got %+v", got[0])
	}
	if string(got[0].Payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].Payload)
	}
	if got[1].Retained {
		t.Error("system message should not be retained")
	}
}
