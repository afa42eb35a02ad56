// Package report delivers machine status to remote collectors.
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Reporter delivers a machine's status.
type Reporter interface {
	// Report sends the status for machineID. A non-nil error means the
	// collector did not accept it; callers treat that as fatal.
	Report(ctx context.Context, machineID int, status logic.Status) error

	// Close releases any connection held by the reporter.
	Close() error
}

// Payload is the JSON body sent to collectors.
type Payload struct {
	Status string `json:"status"`
}

// FormatPayload creates the JSON body for a status report.
func FormatPayload(status logic.Status) ([]byte, error) {
	return json.Marshal(Payload{Status: string(status)})
}

// ReportingError is returned when a collector rejected a report or could
// not be reached. StatusCode is zero for transport failures.
type ReportingError struct {
	MachineID  int
	StatusCode int
	Err        error
}

func (e *ReportingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("report machine %d: collector returned %d", e.MachineID, e.StatusCode)
	}
	return fmt.Sprintf("report machine %d: %v", e.MachineID, e.Err)
}

func (e *ReportingError) Unwrap() error { return e.Err }
