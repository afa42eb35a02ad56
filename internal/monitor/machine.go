// Package monitor turns sensor reads into machine status reports and
// sample logs.
package monitor

import (
	"context"
	"time"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Machine is a monitored machine and the mux channel of its sensor.
type Machine struct {
	ID      int
	Channel int
}

// SampleSource returns one sample from the sensor on a channel.
// sensor.Reader implements it.
type SampleSource interface {
	Read(ctx context.Context, ch int) (logic.Sample, error)
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
