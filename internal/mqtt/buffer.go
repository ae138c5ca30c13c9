package mqtt

// bufferCapacity bounds the messages held while the broker is unreachable.
// Revision messages are retained per device, so only the newest matter.
const bufferCapacity = 64

// ringBuffer holds messages while disconnected, oldest first. When full the
// oldest message is overwritten. Callers synchronize access.
type ringBuffer struct {
	slots    []Message
	next     int
	size     int
	dropping bool // a message was overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{slots: make([]Message, capacity)}
}

// push stores m. It reports true only for the first overwrite after a
// drain, so callers log one warning per outage.
func (r *ringBuffer) push(m Message) bool {
	r.slots[r.next] = m
	r.next = (r.next + 1) % len(r.slots)
	if r.size < len(r.slots) {
		r.size++
		return false
	}
	first := !r.dropping
	r.dropping = true
	return first
}

// drainAll empties the buffer and returns its messages oldest first.
func (r *ringBuffer) drainAll() []Message {
	if r.size == 0 {
		return nil
	}
	out := make([]Message, r.size)
	oldest := (r.next - r.size + len(r.slots)) % len(r.slots)
	for i := range out {
		out[i] = r.slots[(oldest+i)%len(r.slots)]
		r.slots[(oldest+i)%len(r.slots)] = Message{}
	}
	r.next, r.size, r.dropping = 0, 0, false
	return out
}

func (r *ringBuffer) len() int {
	return r.size
}
