// Package board loads the static hardware description: which revision
// sensors exist and which GPIO lines each one samples.
package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/hw-revision/internal/gpio"
	"github.com/sweeney/hw-revision/internal/revision"
	"github.com/sweeney/hw-revision/internal/sensor"
)

// DefaultName is the instance name used when none is given.
const DefaultName = "hw_revision"

// Description is the parsed hardware description.
type Description struct {
	Backend string   `json:"backend"`
	Devices []Device `json:"devices"`
}

// Device describes one revision sensor instance.
type Device struct {
	Name string     `json:"name"`
	Pins []gpio.Pin `json:"-"`

	RawPins []string `json:"pins"`
}

// Load reads and parses a description file.
func Load(path string) (Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Description{}, fmt.Errorf("read board file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON description.
func Parse(data []byte) (Description, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return Description{}, fmt.Errorf("decode board description: %v: %w", err, sensor.ErrInvalidConfig)
	}
	for i := range d.Devices {
		dev := &d.Devices[i]
		for _, raw := range dev.RawPins {
			p, err := gpio.ParsePin(raw)
			if err != nil {
				return Description{}, fmt.Errorf("device %q: %w", dev.Name, err)
			}
			dev.Pins = append(dev.Pins, p)
		}
	}
	if err := d.Validate(); err != nil {
		return Description{}, err
	}
	return d, nil
}

// FromFlags builds a single-device description from command-line values.
func FromFlags(backend, name, pins string) (Description, error) {
	if name == "" {
		name = DefaultName
	}
	parsed, err := gpio.ParsePins(pins)
	if err != nil {
		return Description{}, err
	}
	d := Description{
		Backend: backend,
		Devices: []Device{{Name: name, Pins: parsed}},
	}
	for _, p := range parsed {
		d.Devices[0].RawPins = append(d.Devices[0].RawPins, p.String())
	}
	return d, d.Validate()
}

// Validate checks names are present and unique. Devices with no pins are
// allowed here; the sampler rejects them at Init.
func (d Description) Validate() error {
	if len(d.Devices) == 0 {
		return fmt.Errorf("board description has no devices: %w", sensor.ErrInvalidConfig)
	}
	seen := make(map[string]bool)
	for i, dev := range d.Devices {
		if dev.Name == "" {
			return fmt.Errorf("device %d: empty name: %w", i, sensor.ErrInvalidConfig)
		}
		if seen[dev.Name] {
			return fmt.Errorf("device %q: duplicate name: %w", dev.Name, sensor.ErrInvalidConfig)
		}
		seen[dev.Name] = true
	}
	return nil
}

// Build creates, initializes and registers a Sampler for every device.
// Devices that fail to initialize are skipped; their errors are joined
// into the returned error. The returned samplers are the ones registered.
func Build(d Description, ctrl gpio.Controller, reg *sensor.Registry, log *logrus.Entry) ([]*revision.Sampler, error) {
	var (
		built []*revision.Sampler
		errs  []error
	)
	for _, dev := range d.Devices {
		s := revision.New(dev.Name, dev.Pins, ctrl, log)
		if err := s.Init(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reg.Register(s); err != nil {
			errs = append(errs, err)
			continue
		}
		log.WithField("device", dev.Name).Infof("initialized with %d pins", len(dev.Pins))
		built = append(built, s)
	}
	return built, errors.Join(errs...)
}
