//go:build linux

package indicator

import (
	"fmt"

	"github.com/sweeney/machine-sensor/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

// GPIO lights one output line per machine.
type GPIO struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewGPIO requests the given BCM lines (machine id -> offset) as outputs, initially off.
func NewGPIO(chipName string, pins map[int]int) (*GPIO, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	g := &GPIO{chip: chip, lines: make(map[int]*gpiocdev.Line, len(pins))}
	for id, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("request LED pin %d for machine %d: %w", pin, id, err)
		}
		g.lines[id] = line
	}
	return g, nil
}

// Set drives the machine's line high while ON.
func (g *GPIO) Set(machineID int, status logic.Status) error {
	line, ok := g.lines[machineID]
	if !ok {
		return nil
	}
	if err := line.SetValue(Level(status)); err != nil {
		return fmt.Errorf("set LED for machine %d: %w", machineID, err)
	}
	return nil
}

// Close releases GPIO resources.
// Lines are returned to input with pull-down (the Pi boot default) before
// closing so LEDs do not stay lit after exit.
func (g *GPIO) Close() error {
	var errs []error

	for id, line := range g.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED for machine %d: %w", id, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED for machine %d: %w", id, err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
