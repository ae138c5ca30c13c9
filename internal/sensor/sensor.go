// Package sensor defines the two-call sensor interface exposed to the host:
// SampleFetch reads hardware into driver state, ChannelGet copies it out.
package sensor

import (
	"errors"
	"fmt"
)

// Channel identifies a logical sensor channel.
type Channel int

// Standard channels. Drivers may define their own starting at ChanPrivStart.
const (
	ChanAccelX Channel = iota
	ChanAccelY
	ChanAccelZ
	ChanDieTemp
	ChanAmbientTemp
	ChanPress
	ChanHumidity
	ChanLight
	ChanVoltage
	ChanCurrent
	ChanPower
	ChanAll

	// ChanPrivStart is the first value of the driver-private range.
	ChanPrivStart Channel = 0x8000
)

var channelNames = map[Channel]string{
	ChanAccelX:      "accel_x",
	ChanAccelY:      "accel_y",
	ChanAccelZ:      "accel_z",
	ChanDieTemp:     "die_temp",
	ChanAmbientTemp: "ambient_temp",
	ChanPress:       "press",
	ChanHumidity:    "humidity",
	ChanLight:       "light",
	ChanVoltage:     "voltage",
	ChanCurrent:     "current",
	ChanPower:       "power",
	ChanAll:         "all",
}

func (c Channel) String() string {
	if n, ok := channelNames[c]; ok {
		return n
	}
	if c >= ChanPrivStart {
		return fmt.Sprintf("priv+%d", int(c-ChanPrivStart))
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Value is a sensor reading split into integer and millionths parts.
type Value struct {
	Val1 int32
	Val2 int32 // fractional part in one-millionth units
}

// Driver is the interface every sensor driver exposes to the host.
// Calls to a single driver are serialized by the caller.
type Driver interface {
	// Name returns the unique instance name.
	Name() string

	// SampleFetch reads the hardware and caches the result.
	SampleFetch(ch Channel) error

	// ChannelGet copies the cached value for ch into val. It performs no I/O.
	ChannelGet(ch Channel, val *Value) error
}

// Error taxonomy shared by drivers and GPIO backends.
var (
	// ErrInvalidConfig reports a missing or unusable hardware description.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotReady reports an underlying device that cannot be used.
	ErrNotReady = errors.New("device not ready")

	// ErrNotSupported reports a request for a channel the driver does not provide.
	ErrNotSupported = errors.New("not supported")
)
