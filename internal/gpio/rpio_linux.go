//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/sweeney/hw-revision/internal/sensor"
)

// RpioChip is the only chip name served by RpioController.
// Offsets are BCM pin numbers.
const RpioChip = "rpio"

// RpioController reads GPIO through the Raspberry Pi register map.
type RpioController struct {
	mu         sync.Mutex
	open       bool
	configured map[int]bool
}

// NewRpioController creates a controller. The register map is opened by Ready.
func NewRpioController() *RpioController {
	return &RpioController{configured: make(map[int]bool)}
}

// Ready maps the GPIO registers on first use.
func (r *RpioController) Ready(chip string) bool {
	if chip != RpioChip {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open {
		return true
	}
	if err := rpio.Open(); err != nil {
		return false
	}
	r.open = true
	return true
}

// Configure sets the pin to input with the requested pull.
func (r *RpioController) Configure(p Pin, flags Flags) error {
	if err := flags.validate(); err != nil {
		return err
	}
	if p.Offset > 53 {
		return errors.Errorf("configure %s: bcm pin out of range", p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open || p.Chip != RpioChip {
		return fmt.Errorf("configure %s: %w", p, sensor.ErrNotReady)
	}

	pin := rpio.Pin(p.Offset)
	pin.Input()
	switch {
	case flags&PullUp != 0:
		pin.PullUp()
	case flags&PullDown != 0:
		pin.PullDown()
	default:
		pin.PullOff()
	}
	r.configured[p.Offset] = true
	return nil
}

// Get returns the logical level of the pin.
func (r *RpioController) Get(p Pin) (bool, error) {
	r.mu.Lock()
	ok := r.configured[p.Offset] && p.Chip == RpioChip
	r.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("read %s: pin not configured: %w", p, sensor.ErrNotReady)
	}
	high := rpio.Pin(p.Offset).Read() == rpio.High
	return high != p.ActiveLow, nil
}

// Close unmaps the GPIO registers.
func (r *RpioController) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return nil
	}
	r.open = false
	r.configured = make(map[int]bool)
	return errors.Wrap(rpio.Close(), "close rpio")
}
