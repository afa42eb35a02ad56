package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sweeney/machine-sensor/internal/bus"
	"github.com/sweeney/machine-sensor/internal/logic"
)

// Retry defaults: up to DefaultMaxRetries retries after the first attempt.
const (
	DefaultMaxRetries    = 5
	DefaultRetryInterval = 100 * time.Millisecond
)

// Reader performs single-sample reads with bounded retry.
type Reader struct {
	sel *bus.Selector
	dev Device
	now func() time.Time

	// MaxRetries is the number of retries after the first failed attempt.
	// Negative values mean no retries.
	MaxRetries int

	// RetryInterval is the fixed wait between attempts.
	RetryInterval time.Duration
}

// NewReader creates a Reader with the default retry budget.
func NewReader(sel *bus.Selector, dev Device) *Reader {
	return &Reader{
		sel:           sel,
		dev:           dev,
		now:           time.Now,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
	}
}

// Read returns one sample from the sensor on channel ch.
//
// The channel is acquired for each attempt and released before any wait.
// If the bus is held elsewhere the error matches bus.ErrChannelUnavailable
// and no retry is made. Device and mux faults are retried until MaxRetries
// is exceeded, then a *ReadingError is returned.
func (r *Reader) Read(ctx context.Context, ch int) (logic.Sample, error) {
	attempts := 0
	var lastFault error

	op := func() (logic.Sample, error) {
		attempts++
		s, err := r.attempt(ctx, ch)
		if err == nil {
			return s, nil
		}
		if errors.Is(err, bus.ErrChannelUnavailable) || errors.Is(err, bus.ErrInvalidChannel) || ctx.Err() != nil {
			return logic.Sample{}, backoff.Permanent(err)
		}
		lastFault = err
		return logic.Sample{}, err
	}

	notify := func(err error, next time.Duration) {
		slog.Debug("Sensor read failed, retrying.", "channel", ch, "attempt", attempts, "wait", next, "err", err)
	}

	retries := max(r.MaxRetries, 0)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.RetryInterval), uint64(retries)),
		ctx,
	)

	s, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err == nil {
		return s, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return logic.Sample{}, ctxErr
	}
	if lastFault != nil && errors.Is(err, lastFault) {
		return logic.Sample{}, &ReadingError{Channel: ch, Attempts: attempts, Err: lastFault}
	}
	return logic.Sample{}, err
}

// attempt holds the channel only for the duration of one device read.
func (r *Reader) attempt(ctx context.Context, ch int) (s logic.Sample, err error) {
	g, err := r.sel.Acquire(ctx, ch)
	if err != nil {
		return logic.Sample{}, err
	}
	defer g.Release()

	x, y, z, err := r.dev.ReadAxes()
	if err != nil {
		return logic.Sample{}, fmt.Errorf("read axes: %w", err)
	}
	return logic.Sample{X: x, Y: y, Z: z, Time: r.now()}, nil
}
