package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/hw-revision/internal/logic"
)

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *logrus.Entry

	mu     sync.Mutex
	buffer *ringBuffer
}

// ClientID returns a client identifier unique to this process.
func ClientID() string {
	return "hw-revision-" + uuid.New().String()[:8]
}

// NewRealPublisher creates a publisher for the given broker. A broker that
// is unreachable at startup is not an error: the client keeps retrying in
// the background and messages are buffered until it connects.
func NewRealPublisher(broker string, log *logrus.Entry) (*RealPublisher, error) {
	p := &RealPublisher{
		log:    log,
		buffer: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(willPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.WithError(err).Warn("connection lost")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		p.log.Warnf("broker %s not reachable yet, buffering", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect replays what was buffered while the connection was down.
// Holding mu while draining orders it against enqueue: a message either
// lands in the buffer before the drain or sees the connection open.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	p.log.Infof("connected, replaying %d buffered messages", len(pending))
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.log.WithError(err).Warnf("replay to %s", m.Topic)
			p.hold(m)
		}
	}
}

func (p *RealPublisher) send(m Message) error {
	token := p.client.Publish(m.Topic, m.QoS, m.Retained, m.Payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// hold stores m for the next reconnect. Callers must not hold mu.
func (p *RealPublisher) hold(m Message) {
	p.mu.Lock()
	dropped := p.buffer.push(m)
	p.mu.Unlock()
	if dropped {
		p.log.Warnf("buffer full (%d messages), dropping oldest", bufferCapacity)
	}
}

// enqueue sends m now if connected, else buffers it. A send that fails is
// buffered too, so the message goes out on the next reconnect.
func (p *RealPublisher) enqueue(m Message) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		dropped := p.buffer.push(m)
		p.mu.Unlock()
		if dropped {
			p.log.Warnf("buffer full (%d messages), dropping oldest", bufferCapacity)
		}
		return nil
	}
	p.mu.Unlock()

	if err := p.send(m); err != nil {
		p.log.WithError(err).Warnf("send to %s failed, buffering", m.Topic)
		p.hold(m)
	}
	return nil
}

// Publish sends a revision event, retained on the device topic.
func (p *RealPublisher) Publish(event logic.Event) error {
	m, err := EventMessage(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.enqueue(m)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	m, err := SystemMessage(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.enqueue(m)
}

// IsConnected reports whether the client currently has a live connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
