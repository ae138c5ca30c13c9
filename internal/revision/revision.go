// Package revision implements the hardware-revision sensor: a list of
// strapping GPIO inputs whose levels, read together, encode the board
// revision. Bit i of the value is the logical level of pin i.
package revision

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/hw-revision/internal/gpio"
	"github.com/sweeney/hw-revision/internal/sensor"
)

// ChanHWRevision is the private channel the revision value is exposed on.
const ChanHWRevision = sensor.ChanPrivStart + 1

// MaxPins bounds the pin list so the value fits in sensor.Value.Val1.
const MaxPins = 31

// Sampler reads a fixed, ordered list of pins into a revision value.
// Calls must be serialized by the caller.
type Sampler struct {
	name string
	pins []gpio.Pin
	ctrl gpio.Controller
	log  *logrus.Entry

	ready bool
	state int
}

// New creates a Sampler over pins. The slice is copied; its order
// determines bit positions.
func New(name string, pins []gpio.Pin, ctrl gpio.Controller, log *logrus.Entry) *Sampler {
	return &Sampler{
		name: name,
		pins: append([]gpio.Pin(nil), pins...),
		ctrl: ctrl,
		log:  log.WithField("device", name),
	}
}

// Name returns the instance name.
func (s *Sampler) Name() string {
	return s.name
}

// Pins returns a copy of the configured pin list.
func (s *Sampler) Pins() []gpio.Pin {
	return append([]gpio.Pin(nil), s.pins...)
}

// Ready reports whether Init succeeded.
func (s *Sampler) Ready() bool {
	return s.ready
}

// Init checks every pin's chip is ready, then configures each pin as an
// input with pull-up. It stops at the first failure and does not undo
// pins already configured.
func (s *Sampler) Init() error {
	if err := s.checkPins(); err != nil {
		return err
	}

	for _, p := range s.pins {
		if !s.ctrl.Ready(p.Chip) {
			s.log.Errorf("input gpio %s not ready", p)
			return fmt.Errorf("%s: chip %s: %w", s.name, p.Chip, sensor.ErrNotReady)
		}
	}

	for _, p := range s.pins {
		if err := s.ctrl.Configure(p, gpio.InputPullUp); err != nil {
			s.log.WithError(err).Errorf("configure input gpio %s", p)
			return fmt.Errorf("%s: configure %s: %v: %w", s.name, p, err, sensor.ErrInvalidConfig)
		}
	}

	s.ready = true
	s.log.Debugf("configured %d revision pins", len(s.pins))
	return nil
}

func (s *Sampler) checkPins() error {
	if len(s.pins) == 0 {
		s.log.Error("no gpios found")
		return fmt.Errorf("%s: no revision pins described: %w", s.name, sensor.ErrInvalidConfig)
	}
	if len(s.pins) > MaxPins {
		s.log.Errorf("%d gpios described, at most %d supported", len(s.pins), MaxPins)
		return fmt.Errorf("%s: %d revision pins exceeds %d: %w", s.name, len(s.pins), MaxPins, sensor.ErrInvalidConfig)
	}
	return nil
}

// SampleFetch reads every pin and stores the packed value. The channel
// is ignored; all pins are always sampled together.
func (s *Sampler) SampleFetch(_ sensor.Channel) error {
	if err := s.checkPins(); err != nil {
		return err
	}
	if !s.ready {
		return fmt.Errorf("%s: fetch before init: %w", s.name, sensor.ErrNotReady)
	}

	acc := 0
	for i, p := range s.pins {
		high, err := s.ctrl.Get(p)
		if err != nil {
			s.log.WithError(err).Errorf("read input gpio %s", p)
			return fmt.Errorf("%s: read %s: %w", s.name, p, err)
		}
		if high {
			acc |= 1 << i
		}
	}

	s.state = acc
	return nil
}

// ChannelGet copies the last fetched value. Only ChanHWRevision is supported.
func (s *Sampler) ChannelGet(ch sensor.Channel, val *sensor.Value) error {
	if ch != ChanHWRevision {
		return fmt.Errorf("%s: channel %s: %w", s.name, ch, sensor.ErrNotSupported)
	}
	val.Val1 = int32(s.state)
	val.Val2 = 0
	return nil
}

// Read fetches and returns the revision value of d.
func Read(d sensor.Driver) (int, error) {
	if err := d.SampleFetch(sensor.ChanAll); err != nil {
		return 0, err
	}
	var v sensor.Value
	if err := d.ChannelGet(ChanHWRevision, &v); err != nil {
		return 0, err
	}
	return int(v.Val1), nil
}

// PinsOf returns the revision pins behind d, or nil when d does not
// expose them.
func PinsOf(d sensor.Driver) []gpio.Pin {
	if p, ok := d.(interface{ Pins() []gpio.Pin }); ok {
		return p.Pins()
	}
	return nil
}

// Bits renders value as an n-digit binary string, most significant pin first.
func Bits(value, n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%0*b", n, value)
}
