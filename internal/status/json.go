package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Machines      []MachineJSON `json:"machines"`
	Config        ConfigJSON    `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// MachineJSON is the JSON representation of one machine.
type MachineJSON struct {
	ID         int         `json:"id"`
	Channel    int         `json:"channel"`
	State      string      `json:"state"`
	Variance   *float64    `json:"variance,omitempty"`
	LastSample *SampleJSON `json:"last_sample,omitempty"`
	LastError  string      `json:"last_error,omitempty"`
	Updated    string      `json:"updated,omitempty"`
	Counts     CountsJSON  `json:"counts"`
}

// SampleJSON is the JSON representation of a raw sample.
type SampleJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// CountsJSON is the JSON representation of tick counts.
type CountsJSON struct {
	On      int `json:"on"`
	Off     int `json:"off"`
	Unknown int `json:"unknown"`
	Skipped int `json:"skipped"`
	Samples int `json:"samples"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Mode          string `json:"mode"`
	PollMs        int64  `json:"poll_ms"`
	LogIntervalMs int64  `json:"log_interval_ms"`
	Collector     string `json:"collector,omitempty"`
	HTTPAddr      string `json:"http_addr"`
	Store         string `json:"store,omitempty"`
}

// StateOrUnknown maps a machine with no classification yet to UNKNOWN.
func StateOrUnknown(m MachineState) string {
	if m.Status == "" {
		return "UNKNOWN"
	}
	return string(m.Status)
}

func buildMachine(m MachineState) MachineJSON {
	mj := MachineJSON{
		ID:        m.ID,
		Channel:   m.Channel,
		State:     StateOrUnknown(m),
		LastError: m.LastError,
		Counts: CountsJSON{
			On:      m.Counts.On,
			Off:     m.Counts.Off,
			Unknown: m.Counts.Unknown,
			Skipped: m.Counts.Skipped,
			Samples: m.Counts.Samples,
		},
	}
	if m.HasVariance {
		v := m.Variance
		mj.Variance = &v
	}
	if m.LastSample != nil {
		mj.LastSample = &SampleJSON{X: m.LastSample.X, Y: m.LastSample.Y, Z: m.LastSample.Z}
	}
	if !m.Updated.IsZero() {
		mj.Updated = m.Updated.UTC().Format(time.RFC3339)
	}
	return mj
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Machines:      make([]MachineJSON, 0, len(snap.Machines)),
		Config: ConfigJSON{
			Mode:          snap.Config.Mode,
			PollMs:        snap.Config.PollMs,
			LogIntervalMs: snap.Config.LogIntervalMs,
			Collector:     snap.Config.Collector,
			HTTPAddr:      snap.Config.HTTPAddr,
			Store:         snap.Config.Store,
		},
	}
	for _, m := range snap.Machines {
		inner.Machines = append(inner.Machines, buildMachine(m))
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
