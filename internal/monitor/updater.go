package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sweeney/machine-sensor/internal/logic"
	"github.com/sweeney/machine-sensor/internal/report"
	"github.com/sweeney/machine-sensor/internal/sensor"
)

// VarianceSource measures field variance on a channel.
// *Classifier implements it.
type VarianceSource interface {
	Variance(ctx context.Context, ch int) (float64, error)
}

// Result is the outcome of one status update.
type Result struct {
	Status   logic.Status
	Variance float64

	// Err is the reading error behind an UNKNOWN status.
	Err error
}

// StatusUpdater infers a machine's status and reports it.
type StatusUpdater struct {
	src       VarianceSource
	reporter  report.Reporter
	threshold float64
}

// NewStatusUpdater creates a StatusUpdater.
func NewStatusUpdater(src VarianceSource, reporter report.Reporter, threshold float64) *StatusUpdater {
	return &StatusUpdater{src: src, reporter: reporter, threshold: threshold}
}

// Update classifies machine m and reports the result.
//
// A sensor that keeps failing yields UNKNOWN, which is still reported.
// Any other classification error, including an unavailable channel, is
// returned without reporting. A failed report is returned wrapped.
func (u *StatusUpdater) Update(ctx context.Context, m Machine) (Result, error) {
	var res Result

	v, err := u.src.Variance(ctx, m.Channel)
	var readErr *sensor.ReadingError
	switch {
	case err == nil:
		res = Result{Status: logic.StatusFor(v, u.threshold), Variance: v}
	case errors.As(err, &readErr):
		res = Result{Status: logic.StatusUnknown, Err: err}
	default:
		return Result{}, err
	}

	if err := u.reporter.Report(ctx, m.ID, res.Status); err != nil {
		return res, fmt.Errorf("report machine %d: %w", m.ID, err)
	}
	return res, nil
}
