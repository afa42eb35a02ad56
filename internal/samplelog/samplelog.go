// Package samplelog persists raw magnetometer samples per machine.
package samplelog

import (
	"fmt"
	"strconv"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Logger appends timestamped samples. Implementations clear each machine's
// log once, when constructed, and make every Append durable before
// returning.
type Logger interface {
	Append(machineID int, elapsed float64, s logic.Sample) error
	Close() error
}

// PersistenceError is returned when a sample could not be stored.
type PersistenceError struct {
	MachineID int
	Op        string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("samplelog %s machine %d: %v", e.Op, e.MachineID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FormatLine renders one record as "elapsed, x, y, z\n".
func FormatLine(elapsed float64, s logic.Sample) string {
	return formatFloat(elapsed) + ", " + formatFloat(s.X) + ", " + formatFloat(s.Y) + ", " + formatFloat(s.Z) + "\n"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
