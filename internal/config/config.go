// Package config loads the machine-sensor daemon configuration.
//
// The file is YAML. Every field is optional: values left out keep their
// defaults from Default.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Machine binds a machine id to the mux channel of its sensor.
type Machine struct {
	ID      int `yaml:"id"`
	Channel int `yaml:"channel"`

	// LEDPin is the BCM line lit while the machine is ON. Zero disables.
	LEDPin int `yaml:"led_pin,omitempty"`
}

// MQTT configures the optional status mirror.
type MQTT struct {
	Broker      string `yaml:"broker,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// Config is the daemon configuration.
type Config struct {
	Mode string `yaml:"mode"`

	Bus           string `yaml:"bus,omitempty"`
	MuxAddress    uint16 `yaml:"mux_address"`
	SensorAddress uint16 `yaml:"sensor_address"`

	Machines []Machine `yaml:"machines"`

	PollInterval time.Duration `yaml:"poll_interval"`
	LogInterval  time.Duration `yaml:"log_interval"`

	CollectorURL  string        `yaml:"collector_url,omitempty"`
	ReportTimeout time.Duration `yaml:"report_timeout"`
	MQTT          MQTT          `yaml:"mqtt,omitempty"`

	HTTPAddr string `yaml:"http_addr,omitempty"`
	GPIOChip string `yaml:"gpio_chip,omitempty"`

	Store      string `yaml:"store"`
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`

	// Simulate replaces the bus and sensors with a noise generator.
	Simulate bool `yaml:"simulate,omitempty"`

	LogLevel string `yaml:"log_level"`
}

// Modes and stores.
const (
	ModeStatus  = "status"
	ModeLogging = "logging"

	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

// Interval limits for logging mode.
const (
	MinLogInterval = 100 * time.Millisecond
	MaxLogInterval = 500 * time.Millisecond
)

// Default returns the built-in configuration: two machines on channels 1
// and 3, logging every 500ms to CSV files in the working directory.
func Default() *Config {
	return &Config{
		Mode:          ModeStatus,
		MuxAddress:    0x70,
		SensorAddress: 0x1E,
		Machines: []Machine{
			{ID: 1, Channel: 1},
			{ID: 3, Channel: 3},
		},
		PollInterval:  time.Second,
		LogInterval:   500 * time.Millisecond,
		ReportTimeout: 5 * time.Second,
		MQTT:          MQTT{ClientID: "machine-sensor", TopicPrefix: "factory/machines"},
		GPIOChip:      "gpiochip0",
		Store:         StoreCSV,
		DataDir:       ".",
		SQLitePath:    "samples.db",
		LogLevel:      "info",
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping fields the document leaves out.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate checks the configuration for the selected mode.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeStatus:
		if c.CollectorURL == "" {
			errs = append(errs, errors.New("collector_url is required in status mode"))
		} else if u, err := url.Parse(c.CollectorURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("collector_url %q is not an absolute URL", c.CollectorURL))
		}
		if c.PollInterval <= 0 {
			errs = append(errs, fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval))
		}
		if c.ReportTimeout <= 0 {
			errs = append(errs, fmt.Errorf("report_timeout must be positive, got %v", c.ReportTimeout))
		}
	case ModeLogging:
		if c.LogInterval < MinLogInterval || c.LogInterval > MaxLogInterval {
			errs = append(errs, fmt.Errorf("log_interval must be between %v and %v, got %v", MinLogInterval, MaxLogInterval, c.LogInterval))
		}
		switch c.Store {
		case StoreCSV:
			if c.DataDir == "" {
				errs = append(errs, errors.New("data_dir is required for the csv store"))
			}
		case StoreSQLite:
			if c.SQLitePath == "" {
				errs = append(errs, errors.New("sqlite_path is required for the sqlite store"))
			}
		default:
			errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreCSV, StoreSQLite, c.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("mode must be %q or %q, got %q", ModeStatus, ModeLogging, c.Mode))
	}

	if len(c.Machines) == 0 {
		errs = append(errs, errors.New("at least one machine is required"))
	}
	ids := make(map[int]bool, len(c.Machines))
	pins := make(map[int]int, len(c.Machines))
	for _, m := range c.Machines {
		if ids[m.ID] {
			errs = append(errs, fmt.Errorf("machine id %d is listed twice", m.ID))
		}
		ids[m.ID] = true
		if m.Channel < 0 || m.Channel > 7 {
			errs = append(errs, fmt.Errorf("machine %d: channel %d out of range 0-7", m.ID, m.Channel))
		}
		if m.LEDPin < 0 {
			errs = append(errs, fmt.Errorf("machine %d: led_pin %d is negative", m.ID, m.LEDPin))
		} else if m.LEDPin > 0 {
			if other, ok := pins[m.LEDPin]; ok {
				errs = append(errs, fmt.Errorf("machine %d: led_pin %d already used by machine %d", m.ID, m.LEDPin, other))
			}
			pins[m.LEDPin] = m.ID
		}
	}

	if c.MuxAddress == c.SensorAddress {
		errs = append(errs, fmt.Errorf("mux_address and sensor_address are both %#x", c.MuxAddress))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	return errors.Join(errs...)
}

// LEDPins returns the machine id to LED line mapping for machines with a pin.
func (c *Config) LEDPins() map[int]int {
	pins := make(map[int]int)
	for _, m := range c.Machines {
		if m.LEDPin > 0 {
			pins[m.ID] = m.LEDPin
		}
	}
	return pins
}

// MachineIDs returns the configured machine ids in order.
func (c *Config) MachineIDs() []int {
	ids := make([]int, len(c.Machines))
	for i, m := range c.Machines {
		ids[i] = m.ID
	}
	return ids
}
