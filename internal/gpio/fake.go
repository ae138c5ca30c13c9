package gpio

import (
	"fmt"
	"sync"

	"github.com/sweeney/hw-revision/internal/sensor"
)

// FakeController is a test double with scripted line levels.
type FakeController struct {
	mu sync.Mutex

	// Levels holds the physical level of each line, keyed by chip:offset.
	// Unset lines read low.
	levels map[string]bool

	// Unready lists chips that report not ready.
	Unready map[string]bool

	// ConfigureError, if set, is returned by Configure.
	ConfigureError error

	// ConfigureErrors fails Configure for single lines, keyed by chip:offset.
	ConfigureErrors map[string]error

	// ReadError, if set, is returned by Get.
	ReadError error

	// Configured records every successful Configure call in order.
	Configured []Pin

	// Flags records the flags applied to each configured line.
	Flags map[string]Flags

	// Reads counts Get calls.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeController creates a FakeController where every chip is ready.
func NewFakeController() *FakeController {
	return &FakeController{
		levels:          make(map[string]bool),
		Unready:         make(map[string]bool),
		ConfigureErrors: make(map[string]error),
		Flags:           make(map[string]Flags),
	}
}

func lineKey(chip string, offset int) string {
	return fmt.Sprintf("%s:%d", chip, offset)
}

// SetLevel sets the physical level of a line.
func (f *FakeController) SetLevel(p Pin, high bool) {
	f.mu.Lock()
	f.levels[lineKey(p.Chip, p.Offset)] = high
	f.mu.Unlock()
}

// SetLevels sets the physical level of each pin from levels, index for index.
func (f *FakeController) SetLevels(pins []Pin, levels []bool) {
	for i, p := range pins {
		f.SetLevel(p, levels[i])
	}
}

// Ready reports whether chip is not listed in Unready.
func (f *FakeController) Ready(chip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Unready[chip]
}

// Configure records the pin, or returns ConfigureError.
func (f *FakeController) Configure(p Pin, flags Flags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unready[p.Chip] {
		return fmt.Errorf("configure %s: %w", p, sensor.ErrNotReady)
	}
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	if err := f.ConfigureErrors[lineKey(p.Chip, p.Offset)]; err != nil {
		return err
	}
	if err := flags.validate(); err != nil {
		return err
	}
	f.Configured = append(f.Configured, p)
	f.Flags[lineKey(p.Chip, p.Offset)] = flags
	return nil
}

// Get returns the scripted level, inverted for active-low pins.
func (f *FakeController) Get(p Pin) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	key := lineKey(p.Chip, p.Offset)
	if _, ok := f.Flags[key]; !ok {
		return false, fmt.Errorf("read %s: line not configured: %w", p, sensor.ErrNotReady)
	}
	return f.levels[key] != p.ActiveLow, nil
}

// Close marks the controller as closed.
func (f *FakeController) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
