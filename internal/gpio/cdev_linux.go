//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/hw-revision/internal/sensor"
)

const consumer = "hw-revision"

// CdevController reads GPIO through the Linux GPIO character device.
type CdevController struct {
	mu    sync.Mutex
	chips map[string]*gpiocdev.Chip
	lines map[string]*gpiocdev.Line
}

// NewCdevController creates a controller. Chips are opened lazily by Ready.
func NewCdevController() *CdevController {
	return &CdevController{
		chips: make(map[string]*gpiocdev.Chip),
		lines: make(map[string]*gpiocdev.Line),
	}
}

// Ready opens the chip on first use and reports whether that succeeded.
func (c *CdevController) Ready(chip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.chip(chip)
	return err == nil
}

func (c *CdevController) chip(name string) (*gpiocdev.Chip, error) {
	if ch, ok := c.chips[name]; ok {
		return ch, nil
	}
	ch, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, errors.Wrapf(err, "open gpio chip %s", name)
	}
	c.chips[name] = ch
	return ch, nil
}

// Configure requests the line as an input with the requested bias.
// A line that is already requested is reconfigured in place.
func (c *CdevController) Configure(p Pin, flags Flags) error {
	if err := flags.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := lineKey(p.Chip, p.Offset)
	if l, ok := c.lines[key]; ok {
		if err := l.Reconfigure(configOptions(p, flags)...); err != nil {
			return errors.Wrapf(err, "reconfigure %s", p)
		}
		return nil
	}

	ch, err := c.chip(p.Chip)
	if err != nil {
		return fmt.Errorf("%v: %w", err, sensor.ErrNotReady)
	}

	l, err := ch.RequestLine(p.Offset, requestOptions(p, flags)...)
	if err != nil {
		return errors.Wrapf(err, "request %s", p)
	}
	c.lines[key] = l
	return nil
}

func requestOptions(p Pin, flags Flags) []gpiocdev.LineReqOption {
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(consumer), gpiocdev.AsInput}
	if flags&PullUp != 0 {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	if flags&PullDown != 0 {
		opts = append(opts, gpiocdev.WithPullDown)
	}
	if p.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return opts
}

func configOptions(p Pin, flags Flags) []gpiocdev.LineConfigOption {
	opts := []gpiocdev.LineConfigOption{gpiocdev.AsInput}
	if flags&PullUp != 0 {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	if flags&PullDown != 0 {
		opts = append(opts, gpiocdev.WithPullDown)
	}
	if p.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return opts
}

// Get returns the logical value of a requested line.
func (c *CdevController) Get(p Pin) (bool, error) {
	c.mu.Lock()
	l, ok := c.lines[lineKey(p.Chip, p.Offset)]
	c.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("read %s: line not requested: %w", p, sensor.ErrNotReady)
	}

	v, err := l.Value()
	if err != nil {
		return false, errors.Wrapf(err, "read %s", p)
	}
	return v == 1, nil
}

// Close reverts lines to plain inputs, then releases lines and chips.
func (c *CdevController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for key, l := range c.lines {
		if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, errors.Wrapf(err, "reconfigure %s", key))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close %s", key))
		}
		delete(c.lines, key)
	}
	for name, ch := range c.chips {
		if err := ch.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close chip %s", name))
		}
		delete(c.chips, name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
