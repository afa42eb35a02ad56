// Package status provides a thread-safe status tracker for the machine-sensor daemon.
// It is read by the HTTP status page and updated by the poller.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Mode          string
	PollMs        int64
	LogIntervalMs int64
	Collector     string
	Broker        string
	HTTPAddr      string
	Store         string
}

// Counts tallies tick outcomes for one machine since startup.
type Counts struct {
	On      int
	Off     int
	Unknown int
	Skipped int
	Samples int
}

// MachineState is the latest known state of one machine.
type MachineState struct {
	ID      int
	Channel int

	// Status is empty until the first classification.
	Status      logic.Status
	Variance    float64
	HasVariance bool

	LastSample *logic.Sample
	LastError  string
	Updated    time.Time
	Counts     Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Machines      []MachineState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Machine returns the state for id, if tracked.
func (s Snapshot) Machine(id int) (MachineState, bool) {
	for _, m := range s.Machines {
		if m.ID == id {
			return m, true
		}
	}
	return MachineState{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	startTime     time.Time
	cfg           Config
	machines      map[int]*MachineState
	mqttConnected bool
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		startTime: startTime,
		cfg:       cfg,
		machines:  make(map[int]*MachineState),
	}
}

// Register adds a machine so it is listed before its first tick.
func (t *Tracker) Register(id, channel int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.machines[id]; !ok {
		t.machines[id] = &MachineState{ID: id, Channel: channel}
	}
}

func (t *Tracker) machine(id int) *MachineState {
	m, ok := t.machines[id]
	if !ok {
		m = &MachineState{ID: id}
		t.machines[id] = m
	}
	return m
}

// RecordStatus stores a classification outcome. cause is the reading error
// behind an UNKNOWN status, or nil.
func (t *Tracker) RecordStatus(id int, st logic.Status, variance float64, cause error, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.machine(id)
	m.Status = st
	m.Updated = at
	m.LastError = ""
	if cause != nil {
		m.LastError = cause.Error()
	}

	switch st {
	case logic.StatusOn:
		m.Counts.On++
	case logic.StatusOff:
		m.Counts.Off++
	case logic.StatusUnknown:
		m.Counts.Unknown++
	}

	m.HasVariance = st != logic.StatusUnknown
	if m.HasVariance {
		m.Variance = variance
	}
}

// RecordSample stores the latest raw sample.
func (t *Tracker) RecordSample(id int, s logic.Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.machine(id)
	m.LastSample = &s
	m.LastError = ""
	m.Updated = s.Time
	m.Counts.Samples++
}

// RecordSkip notes a tick that produced nothing for the machine.
func (t *Tracker) RecordSkip(id int, cause error, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.machine(id)
	m.Counts.Skipped++
	m.Updated = at
	if cause != nil {
		m.LastError = cause.Error()
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state, machines
// ordered by id. The Now field is set at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := Snapshot{
		StartTime:     t.startTime,
		MQTTConnected: t.mqttConnected,
		Config:        t.cfg,
		Machines:      make([]MachineState, 0, len(t.machines)),
	}
	for _, m := range t.machines {
		c := *m
		if m.LastSample != nil {
			sample := *m.LastSample
			c.LastSample = &sample
		}
		s.Machines = append(s.Machines, c)
	}
	t.mu.RUnlock()

	sort.Slice(s.Machines, func(i, j int) bool { return s.Machines[i].ID < s.Machines[j].ID })
	s.Now = time.Now()
	return s
}
