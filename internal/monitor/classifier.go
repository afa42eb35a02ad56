package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Classifier measures how much a machine's magnetic field fluctuates.
type Classifier struct {
	src SampleSource

	// WindowSize is the number of samples per measurement.
	WindowSize int

	// SampleInterval is the wait after each sample.
	SampleInterval time.Duration
}

// NewClassifier creates a Classifier with the window from params.
func NewClassifier(src SampleSource, params logic.Params) *Classifier {
	return &Classifier{
		src:            src,
		WindowSize:     params.WindowSize,
		SampleInterval: params.SampleInterval,
	}
}

// Variance draws WindowSize samples from channel ch and returns the
// unbiased variance of their magnitudes.
//
// The first read error aborts the window and is returned unchanged, so
// callers can tell sensor.ReadingError from bus.ErrChannelUnavailable.
func (c *Classifier) Variance(ctx context.Context, ch int) (float64, error) {
	window := make([]logic.Sample, 0, c.WindowSize)
	for range c.WindowSize {
		s, err := c.src.Read(ctx, ch)
		if err != nil {
			return 0, err
		}
		window = append(window, s)

		if err := sleep(ctx, c.SampleInterval); err != nil {
			return 0, err
		}
	}

	v, err := logic.SampleVariance(logic.Magnitudes(window))
	if err != nil {
		return 0, fmt.Errorf("classify channel %d: %w", ch, err)
	}
	return v, nil
}
