package gpio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/hw-revision/internal/sensor"
)

const activeLowSuffix = "active-low"

// Pin identifies one GPIO line.
type Pin struct {
	Chip      string
	Offset    int
	ActiveLow bool
}

// String renders the pin as chip:offset[:active-low].
func (p Pin) String() string {
	s := p.Chip + ":" + strconv.Itoa(p.Offset)
	if p.ActiveLow {
		s += ":" + activeLowSuffix
	}
	return s
}

// ParsePin parses chip:offset or chip:offset:active-low.
func ParsePin(s string) (Pin, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Pin{}, fmt.Errorf("pin %q: want chip:offset[:active-low]: %w", s, sensor.ErrInvalidConfig)
	}

	chip := parts[0]
	if chip == "" {
		return Pin{}, fmt.Errorf("pin %q: empty chip: %w", s, sensor.ErrInvalidConfig)
	}

	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return Pin{}, fmt.Errorf("pin %q: bad offset %q: %w", s, parts[1], sensor.ErrInvalidConfig)
	}

	p := Pin{Chip: chip, Offset: offset}
	if len(parts) == 3 {
		if parts[2] != activeLowSuffix {
			return Pin{}, fmt.Errorf("pin %q: unknown modifier %q: %w", s, parts[2], sensor.ErrInvalidConfig)
		}
		p.ActiveLow = true
	}
	return p, nil
}

// ParsePins parses a comma-separated pin list. An empty string yields no pins.
func ParsePins(s string) ([]Pin, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pins []Pin
	for _, field := range strings.Split(s, ",") {
		p, err := ParsePin(field)
		if err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, nil
}
