package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sweeney/machine-sensor/internal/config"
	"github.com/sweeney/machine-sensor/internal/indicator"
	"github.com/sweeney/machine-sensor/internal/logic"
	"github.com/sweeney/machine-sensor/internal/monitor"
	"github.com/sweeney/machine-sensor/internal/report"
	"github.com/sweeney/machine-sensor/internal/samplelog"
	"github.com/sweeney/machine-sensor/internal/sensor"
	"github.com/sweeney/machine-sensor/internal/status"
	"github.com/sweeney/machine-sensor/internal/web"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// runDaemon polls until ctx is cancelled or the poller fails.
func runDaemon(ctx context.Context, cfg *config.Config) error {
	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	machines := make([]monitor.Machine, len(cfg.Machines))
	for i, m := range cfg.Machines {
		machines[i] = monitor.Machine{ID: m.ID, Channel: m.Channel}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Mode:          cfg.Mode,
		PollMs:        cfg.PollInterval.Milliseconds(),
		LogIntervalMs: cfg.LogInterval.Milliseconds(),
		Collector:     cfg.CollectorURL,
		Broker:        cfg.MQTT.Broker,
		HTTPAddr:      cfg.HTTPAddr,
		Store:         cfg.Store,
	})

	reader := sensor.NewReader(hw.sel, hw.dev)

	var poller *monitor.Poller
	switch cfg.Mode {
	case config.ModeStatus:
		rep, broker, err := newReporter(cfg)
		if err != nil {
			return err
		}
		defer rep.Close()

		ind, err := newIndicator(cfg)
		if err != nil {
			return err
		}
		defer ind.Close()

		params := logic.DefaultParams()
		updater := monitor.NewStatusUpdater(monitor.NewClassifier(reader, params), rep, params.Threshold)
		poller = monitor.NewStatusPoller(machines, updater, cfg.PollInterval)
		poller.Indicator = ind
		if broker != nil {
			poller.Broker = broker
		}

	case config.ModeLogging:
		store, err := newSampleLog(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		poller = monitor.NewLogPoller(machines, reader, store, cfg.LogInterval)

	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	poller.Tracker = tracker

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		g.Go(func() error {
			slog.Info("HTTP status server listening.", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Shut down cleanly.")
	return nil
}

// newReporter builds the collector reporter plus the optional MQTT mirror.
// The returned MQTT reporter, if any, exposes broker connectivity.
func newReporter(cfg *config.Config) (report.Reporter, *report.MQTTReporter, error) {
	reporters := report.Multi{report.NewHTTPReporter(cfg.CollectorURL, cfg.ReportTimeout)}
	if cfg.MQTT.Broker == "" {
		return reporters, nil, nil
	}

	mq, err := report.NewMQTTReporter(report.MQTTConfig{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		TopicPrefix: cfg.MQTT.TopicPrefix,
	})
	if err != nil {
		reporters.Close()
		return nil, nil, fmt.Errorf("init mqtt: %w", err)
	}
	return append(reporters, mq), mq, nil
}

func newIndicator(cfg *config.Config) (indicator.Indicator, error) {
	pins := cfg.LEDPins()
	if len(pins) == 0 || cfg.Simulate {
		return indicator.Nop{}, nil
	}
	g, err := indicator.NewGPIO(cfg.GPIOChip, pins)
	if err != nil {
		return nil, fmt.Errorf("init indicator: %w", err)
	}
	return g, nil
}

func newSampleLog(cfg *config.Config) (samplelog.Logger, error) {
	ids := cfg.MachineIDs()
	switch cfg.Store {
	case config.StoreSQLite:
		return samplelog.NewSQLite(cfg.SQLitePath, ids)
	default:
		return samplelog.NewCSV(cfg.DataDir, ids)
	}
}
