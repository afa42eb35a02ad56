// Package indicator drives per-machine status LEDs.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package indicator

import "github.com/sweeney/machine-sensor/internal/logic"

// Indicator shows machine status on an output.
type Indicator interface {
	// Set shows status for machineID. Machines without an output are ignored.
	Set(machineID int, status logic.Status) error

	// Close releases the outputs.
	Close() error
}

// DefaultChip is the GPIO chip on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Level returns the line value for a status: lit only while ON.
func Level(status logic.Status) int {
	if status == logic.StatusOn {
		return 1
	}
	return 0
}

// Nop is an Indicator with no outputs.
type Nop struct{}

func (Nop) Set(int, logic.Status) error { return nil }
func (Nop) Close() error                { return nil }
