//go:build !linux

package gpio

import (
	"fmt"

	"github.com/sweeney/hw-revision/internal/sensor"
)

// NewController is not available on non-Linux platforms.
func NewController(backend string) (Controller, error) {
	switch backend {
	case BackendCdev, BackendRpio, BackendMCP23017, "":
		return nil, fmt.Errorf("gpio backend %q requires Linux: %w", backend, sensor.ErrNotReady)
	}
	return nil, fmt.Errorf("gpio backend %q: %w", backend, sensor.ErrInvalidConfig)
}
