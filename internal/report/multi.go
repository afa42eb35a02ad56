package report

import (
	"context"
	"errors"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Multi fans a report out to several reporters in order. The first error
// stops the fan-out and is returned.
type Multi []Reporter

// Report sends to every reporter until one fails.
func (m Multi) Report(ctx context.Context, machineID int, status logic.Status) error {
	for _, r := range m {
		if err := r.Report(ctx, machineID, status); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every reporter and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
