package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sweeney/machine-sensor/internal/bus"
	"github.com/sweeney/machine-sensor/internal/config"
	"github.com/sweeney/machine-sensor/internal/sensor"
)

// hardware is the bus selector and the sensor device reached through it.
type hardware struct {
	sel   *bus.Selector
	dev   sensor.Device
	close func() error
}

func (h *hardware) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// openHardware opens the I2C bus, or builds a simulated bus when
// cfg.Simulate is set.
func openHardware(cfg *config.Config) (*hardware, error) {
	if cfg.Simulate {
		return simulatedHardware(cfg), nil
	}

	b, err := bus.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("init i2c: %w", err)
	}
	slog.Info("I2C bus opened.", "bus", b.String(), "mux", fmt.Sprintf("%#x", cfg.MuxAddress), "sensor", fmt.Sprintf("%#x", cfg.SensorAddress))

	return &hardware{
		sel:   bus.NewSelector(bus.NewTCA9548A(b, cfg.MuxAddress)),
		dev:   sensor.NewHMC5883L(b, cfg.SensorAddress),
		close: b.Close,
	}, nil
}

// simulatedHardware routes reads to a noise generator. The first
// configured machine reads as running, the rest as idle.
func simulatedHardware(cfg *config.Config) *hardware {
	var running []int
	if len(cfg.Machines) > 0 {
		running = []int{cfg.Machines[0].Channel}
	}
	sim := sensor.NewSimulator(time.Now().UnixNano(), running)

	mux := &simMux{
		sim:        sim,
		addr:       cfg.MuxAddress,
		sensorAddr: cfg.SensorAddress,
		devices:    map[int]bool{},
		selected:   -1,
	}
	for _, m := range cfg.Machines {
		mux.devices[m.Channel] = true
	}

	slog.Info("Using simulated sensors.", "running_channels", running)
	return &hardware{sel: bus.NewSelector(mux), dev: sim}
}

// simMux tells the simulator which channel is routed. The selector
// serializes every call.
type simMux struct {
	sim        *sensor.Simulator
	addr       uint16
	sensorAddr uint16
	devices    map[int]bool
	selected   int
}

func (m *simMux) Select(ch int) error {
	m.selected = ch
	m.sim.SetChannel(ch)
	return nil
}

func (m *simMux) Release(ch int) error {
	m.selected = -1
	m.sim.SetChannel(-1)
	return nil
}

func (m *simMux) Scan() ([]uint16, error) {
	found := []uint16{m.addr}
	if m.devices[m.selected] {
		found = append(found, m.sensorAddr)
	}
	return found, nil
}

func (m *simMux) Address() uint16 { return m.addr }

// scanChannels prints the responding addresses on every mux channel.
func scanChannels(ctx context.Context, hw *hardware, w io.Writer) error {
	for ch := range bus.NumChannels {
		addrs, err := hw.sel.Scan(ctx, ch)
		if err != nil {
			fmt.Fprintf(w, "Channel %d: %v\n", ch, err)
			continue
		}
		hex := make([]string, len(addrs))
		for i, a := range addrs {
			hex[i] = fmt.Sprintf("%#x", a)
		}
		fmt.Fprintf(w, "Channel %d: [%s]\n", ch, strings.Join(hex, " "))
	}
	return nil
}

// readOnce prints one sample per configured machine.
func readOnce(ctx context.Context, cfg *config.Config, hw *hardware, w io.Writer) error {
	reader := sensor.NewReader(hw.sel, hw.dev)
	for _, m := range cfg.Machines {
		s, err := reader.Read(ctx, m.Channel)
		if err != nil {
			fmt.Fprintf(w, "Machine %d (channel %d): %v\n", m.ID, m.Channel, err)
			continue
		}
		fmt.Fprintf(w, "Machine %d (channel %d): x=%.2f y=%.2f z=%.2f |B|=%.2f\n", m.ID, m.Channel, s.X, s.Y, s.Z, s.Magnitude())
	}
	return ctx.Err()
}
