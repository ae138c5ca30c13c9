//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/hw-revision/internal/sensor"
)

// NewController returns the hardware backend with the given name.
func NewController(backend string) (Controller, error) {
	switch backend {
	case BackendCdev, "":
		return NewCdevController(), nil
	case BackendRpio:
		return NewRpioController(), nil
	case BackendMCP23017:
		return NewMcpController(), nil
	}
	return nil, fmt.Errorf("gpio backend %q: %w", backend, sensor.ErrInvalidConfig)
}
