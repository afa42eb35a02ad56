// Package sensor reads 3-axis magnetometer samples through a bus channel.
package sensor

import (
	"errors"
	"fmt"
)

// Device reads the three field components from whichever sensor is
// currently routed on the bus.
type Device interface {
	ReadAxes() (x, y, z float64, err error)
}

// ErrOverflow is returned when the sensor reports a saturated axis.
var ErrOverflow = errors.New("axis overflow")

// ReadingError is returned when every attempt of a read has failed.
// Err is the last underlying fault.
type ReadingError struct {
	Channel  int
	Attempts int
	Err      error
}

func (e *ReadingError) Error() string {
	return fmt.Sprintf("read channel %d failed after %d attempts: %v", e.Channel, e.Attempts, e.Err)
}

func (e *ReadingError) Unwrap() error { return e.Err }
