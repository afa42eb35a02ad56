//go:build !linux

package indicator

import (
	"errors"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// GPIO is not available on non-Linux platforms.
type GPIO struct{}

// NewGPIO returns an error on non-Linux platforms.
func NewGPIO(chipName string, pins map[int]int) (*GPIO, error) {
	return nil, errors.New("indicator: gpio not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (g *GPIO) Set(machineID int, status logic.Status) error {
	return errors.New("indicator: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (g *GPIO) Close() error {
	return nil
}
