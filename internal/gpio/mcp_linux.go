//go:build linux

package gpio

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"

	"github.com/sweeney/hw-revision/internal/sensor"
)

const mcpChipPrefix = "mcp23017-"

// McpController reads inputs on MCP23017 I2C port expanders.
// Chip names have the form mcp23017-<bus>-<address>, e.g. mcp23017-1-0x20.
type McpController struct {
	mu      sync.Mutex
	devices map[string]*mcp23017.Device
}

// NewMcpController creates a controller. Devices are opened by Ready.
func NewMcpController() *McpController {
	return &McpController{devices: make(map[string]*mcp23017.Device)}
}

// ParseMcpChip extracts the I2C bus and device address from a chip name.
func ParseMcpChip(chip string) (bus, addr uint8, err error) {
	rest := strings.TrimPrefix(chip, mcpChipPrefix)
	parts := strings.Split(rest, "-")
	if rest == chip || len(parts) != 2 {
		return 0, 0, fmt.Errorf("chip %q: want %s<bus>-<address>: %w", chip, mcpChipPrefix, sensor.ErrInvalidConfig)
	}
	b, err := strconv.ParseUint(parts[0], 0, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("chip %q: bad bus: %w", chip, sensor.ErrInvalidConfig)
	}
	a, err := strconv.ParseUint(parts[1], 0, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("chip %q: bad address: %w", chip, sensor.ErrInvalidConfig)
	}
	return uint8(b), uint8(a), nil
}

// Ready opens the expander on first use.
func (m *McpController) Ready(chip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.device(chip)
	return err == nil
}

func (m *McpController) device(chip string) (*mcp23017.Device, error) {
	if d, ok := m.devices[chip]; ok {
		return d, nil
	}
	bus, addr, err := ParseMcpChip(chip)
	if err != nil {
		return nil, err
	}
	d, err := mcp23017.Open(bus, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", chip)
	}
	m.devices[chip] = d
	return d, nil
}

// Configure sets the expander pin to input with pull-up.
// The MCP23017 has no pull-down, so PullDown is rejected.
func (m *McpController) Configure(p Pin, flags Flags) error {
	if err := flags.validate(); err != nil {
		return err
	}
	if flags&PullDown != 0 {
		return fmt.Errorf("configure %s: mcp23017 has no pull-down: %w", p, sensor.ErrInvalidConfig)
	}
	if p.Offset > 15 {
		return errors.Errorf("configure %s: mcp23017 pin out of range", p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[p.Chip]
	if !ok {
		return fmt.Errorf("configure %s: %w", p, sensor.ErrNotReady)
	}

	pin := uint8(p.Offset)
	if err := d.PinMode(pin, mcp23017.INPUT); err != nil {
		return errors.Wrapf(err, "set input %s", p)
	}
	if err := d.SetPullUp(pin, flags&PullUp != 0); err != nil {
		return errors.Wrapf(err, "set pull-up %s", p)
	}
	return nil
}

// Get returns the logical level of the expander pin.
func (m *McpController) Get(p Pin) (bool, error) {
	m.mu.Lock()
	d, ok := m.devices[p.Chip]
	m.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("read %s: %w", p, sensor.ErrNotReady)
	}
	level, err := d.DigitalRead(uint8(p.Offset))
	if err != nil {
		return false, errors.Wrapf(err, "read %s", p)
	}
	return bool(level) != p.ActiveLow, nil
}

// Close closes every opened expander.
func (m *McpController) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for chip, d := range m.devices {
		if err := d.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close %s", chip))
		}
		delete(m.devices, chip)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
