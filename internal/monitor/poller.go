package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/machine-sensor/internal/bus"
	"github.com/sweeney/machine-sensor/internal/indicator"
	"github.com/sweeney/machine-sensor/internal/logic"
	"github.com/sweeney/machine-sensor/internal/samplelog"
	"github.com/sweeney/machine-sensor/internal/sensor"
	"github.com/sweeney/machine-sensor/internal/status"
)

// Mode selects what the poller does on each tick.
type Mode string

const (
	ModeStatus  Mode = "status"
	ModeLogging Mode = "logging"
)

// Default tick intervals.
const (
	DefaultPollInterval = time.Second
	DefaultLogInterval  = 500 * time.Millisecond
	MinLogInterval      = 100 * time.Millisecond
)

// ConnectionStatus reports broker connectivity for the status page.
type ConnectionStatus interface {
	IsConnected() bool
}

// Poller services every machine once per tick until cancelled.
type Poller struct {
	mode     Mode
	machines []Machine
	interval time.Duration

	updater *StatusUpdater
	src     SampleSource
	log     samplelog.Logger

	// Tracker, Indicator and Broker are optional.
	Tracker   *status.Tracker
	Indicator indicator.Indicator
	Broker    ConnectionStatus

	now func() time.Time
}

// NewStatusPoller creates a Poller that classifies and reports each machine.
func NewStatusPoller(machines []Machine, updater *StatusUpdater, interval time.Duration) *Poller {
	return &Poller{
		mode:     ModeStatus,
		machines: machines,
		interval: interval,
		updater:  updater,
		now:      time.Now,
	}
}

// NewLogPoller creates a Poller that appends one sample per machine per tick.
func NewLogPoller(machines []Machine, src SampleSource, log samplelog.Logger, interval time.Duration) *Poller {
	return &Poller{
		mode:     ModeLogging,
		machines: machines,
		interval: interval,
		src:      src,
		log:      log,
		now:      time.Now,
	}
}

// Mode returns the poller's mode.
func (p *Poller) Mode() Mode { return p.mode }

// Run polls until ctx is cancelled, which returns nil. A failed report or
// a failed append ends the loop with that error.
func (p *Poller) Run(ctx context.Context) error {
	if p.Tracker != nil {
		for _, m := range p.machines {
			p.Tracker.Register(m.ID, m.Channel)
		}
	}

	start := p.now()
	slog.Info("Poller started.", "mode", p.mode, "machines", len(p.machines), "interval", p.interval)

	for {
		for _, m := range p.machines {
			if ctx.Err() != nil {
				return p.stopped()
			}

			var err error
			if p.mode == ModeStatus {
				err = p.updateStatus(ctx, m)
			} else {
				err = p.logSample(ctx, m, start)
			}
			if err != nil {
				if ctx.Err() != nil {
					return p.stopped()
				}
				return err
			}
		}

		if p.Tracker != nil && p.Broker != nil {
			p.Tracker.SetMQTTConnected(p.Broker.IsConnected())
		}

		if err := sleep(ctx, p.interval); err != nil {
			return p.stopped()
		}
	}
}

func (p *Poller) stopped() error {
	slog.Info("Poller stopped.", "mode", p.mode)
	return nil
}

func (p *Poller) updateStatus(ctx context.Context, m Machine) error {
	res, err := p.updater.Update(ctx, m)
	if err != nil {
		if errors.Is(err, bus.ErrChannelUnavailable) {
			slog.Info("Bus held by another operation, skipping machine.", "machine", m.ID, "channel", m.Channel)
			p.recordSkip(m, err)
			return nil
		}
		if res.Status == "" {
			return err
		}
		// Classified but not reported. Still shown locally before exiting.
		p.recordStatus(m, res)
		return err
	}

	if res.Status == logic.StatusUnknown {
		slog.Warn("Machine status unknown.", "machine", m.ID, "channel", m.Channel, "err", res.Err)
	} else {
		slog.Info("Machine status.", "machine", m.ID, "status", res.Status, "variance", res.Variance)
	}
	p.recordStatus(m, res)
	return nil
}

func (p *Poller) logSample(ctx context.Context, m Machine, start time.Time) error {
	s, err := p.src.Read(ctx, m.Channel)
	if err != nil {
		var readErr *sensor.ReadingError
		switch {
		case errors.Is(err, bus.ErrChannelUnavailable):
			slog.Info("Bus held by another operation, skipping sample.", "machine", m.ID, "channel", m.Channel)
		case errors.As(err, &readErr):
			slog.Warn("Sensor read failed, skipping sample.", "machine", m.ID, "channel", m.Channel, "err", err)
		default:
			return err
		}
		p.recordSkip(m, err)
		return nil
	}

	elapsed := p.now().Sub(start).Seconds()
	if err := p.log.Append(m.ID, elapsed, s); err != nil {
		return fmt.Errorf("log machine %d: %w", m.ID, err)
	}
	if p.Tracker != nil {
		p.Tracker.RecordSample(m.ID, s)
	}
	return nil
}

func (p *Poller) recordStatus(m Machine, res Result) {
	if p.Tracker != nil {
		p.Tracker.RecordStatus(m.ID, res.Status, res.Variance, res.Err, p.now())
	}
	if p.Indicator != nil {
		if err := p.Indicator.Set(m.ID, res.Status); err != nil {
			slog.Warn("Indicator update failed.", "machine", m.ID, "err", err)
		}
	}
}

func (p *Poller) recordSkip(m Machine, cause error) {
	if p.Tracker != nil {
		p.Tracker.RecordSkip(m.ID, cause, p.now())
	}
}
