// Package gpio provides GPIO input access with hardware abstraction.
// Real backends use the Linux GPIO character device, the Raspberry Pi
// register map or an MCP23017 I2C expander. The fake backend allows
// testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/hw-revision/internal/sensor"
)

// Flags describes how a line is configured.
type Flags uint8

const (
	Input Flags = 1 << iota
	PullUp
	PullDown

	// InputPullUp is the mode used for revision strapping pins.
	InputPullUp = Input | PullUp
)

func (f Flags) String() string {
	s := ""
	if f&Input != 0 {
		s = "input"
	}
	if f&PullUp != 0 {
		s += "+pull-up"
	}
	if f&PullDown != 0 {
		s += "+pull-down"
	}
	if s == "" {
		return "none"
	}
	return s
}

func (f Flags) validate() error {
	if f&Input == 0 {
		return fmt.Errorf("flags %s: only inputs are supported: %w", f, sensor.ErrInvalidConfig)
	}
	if f&PullUp != 0 && f&PullDown != 0 {
		return fmt.Errorf("flags %s: conflicting bias: %w", f, sensor.ErrInvalidConfig)
	}
	return nil
}

// Controller is the platform GPIO abstraction used by drivers.
type Controller interface {
	// Ready reports whether the named chip exists and can be used.
	Ready(chip string) bool

	// Configure prepares a line. The pin's chip must be Ready.
	Configure(p Pin, flags Flags) error

	// Get returns the logical level of a configured line.
	// Active-low pins are already inverted.
	Get(p Pin) (bool, error)

	// Close releases all lines and chips.
	Close() error
}

// Backend names accepted by NewController.
const (
	BackendCdev     = "cdev"
	BackendRpio     = "rpio"
	BackendMCP23017 = "mcp23017"
)
