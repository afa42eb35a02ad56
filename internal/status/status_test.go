package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/machine-sensor/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Mode: "status", PollMs: 1000, Collector: "http://collector", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 1000 {
		t.Errorf("Config.PollMs: got %d, want 1000", snap.Config.PollMs)
	}
	if len(snap.Machines) != 0 {
		t.Errorf("expected no machines, got %d", len(snap.Machines))
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestRegisterOrdersMachines(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Register(3, 3)
	tr.Register(1, 1)
	tr.Register(1, 7) // duplicate keeps the first registration

	snap := tr.Snapshot()
	if len(snap.Machines) != 2 {
		t.Fatalf("machines: got %d, want 2", len(snap.Machines))
	}
	if snap.Machines[0].ID != 1 || snap.Machines[1].ID != 3 {
		t.Errorf("order: got %d, %d", snap.Machines[0].ID, snap.Machines[1].ID)
	}
	if snap.Machines[0].Channel != 1 {
		t.Errorf("channel: got %d, want 1", snap.Machines[0].Channel)
	}
	if snap.Machines[0].Status != "" {
		t.Errorf("status before first tick: got %q, want empty", snap.Machines[0].Status)
	}
}

func TestRecordStatus(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Register(1, 1)
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.RecordStatus(1, logic.StatusOn, 150.0, nil, at)
	tr.RecordStatus(1, logic.StatusOff, 2.0, nil, at)
	tr.RecordStatus(1, logic.StatusUnknown, 0, errors.New("bus fault"), at)

	m, ok := tr.Snapshot().Machine(1)
	if !ok {
		t.Fatal("machine 1 missing")
	}
	if m.Status != logic.StatusUnknown {
		t.Errorf("Status: got %s, want UNKNOWN", m.Status)
	}
	if m.HasVariance {
		t.Error("UNKNOWN must not carry a variance")
	}
	if m.LastError != "bus fault" {
		t.Errorf("LastError: got %q", m.LastError)
	}
	if m.Counts.On != 1 || m.Counts.Off != 1 || m.Counts.Unknown != 1 {
		t.Errorf("Counts: got %+v", m.Counts)
	}

	tr.RecordStatus(1, logic.StatusOn, 123.0, nil, at)
	m, _ = tr.Snapshot().Machine(1)
	if !m.HasVariance || m.Variance != 123.0 {
		t.Errorf("Variance: got %v (%v), want 123", m.Variance, m.HasVariance)
	}
	if m.LastError != "" {
		t.Errorf("LastError should clear on success, got %q", m.LastError)
	}
}

func TestRecordSampleAndSkip(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.RecordSample(2, logic.Sample{X: 1, Y: 2, Z: 3, Time: at})
	tr.RecordSkip(2, errors.New("channel 2 unavailable: bus busy"), at.Add(time.Second))

	m, ok := tr.Snapshot().Machine(2)
	if !ok {
		t.Fatal("machine 2 missing (unregistered machines are tracked on first record)")
	}
	if m.LastSample == nil || m.LastSample.Z != 3 {
		t.Errorf("LastSample: got %+v", m.LastSample)
	}
	if m.Counts.Samples != 1 || m.Counts.Skipped != 1 {
		t.Errorf("Counts: got %+v", m.Counts)
	}
	if !m.Updated.Equal(at.Add(time.Second)) {
		t.Errorf("Updated: got %v", m.Updated)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.RecordSample(1, logic.Sample{X: 1})
	tr.RecordStatus(1, logic.StatusOn, 200, nil, time.Now())

	snap1 := tr.Snapshot()

	tr.RecordSample(1, logic.Sample{X: 99})
	tr.RecordStatus(1, logic.StatusOff, 1, nil, time.Now())

	m, _ := snap1.Machine(1)
	if m.Status != logic.StatusOn {
		t.Error("snapshot should be a copy; Status was modified")
	}
	if m.LastSample.X != 1 {
		t.Error("snapshot should be a copy; LastSample was modified")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.RecordStatus(i%3, logic.StatusOn, float64(j), nil, time.Now())
				tr.SetMQTTConnected(j%2 == 0)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Mode: "status", PollMs: 1000, LogIntervalMs: 500, Collector: "http://c", Broker: "tcp://b:1883", HTTPAddr: ":8080"},
		Machines: []MachineState{
			{ID: 1, Channel: 1, Status: logic.StatusOn, Variance: 150, HasVariance: true, Updated: start, Counts: Counts{On: 4}},
			{ID: 3, Channel: 3},
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %q", s.StartTime)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("MQTT: got %+v", s.MQTT)
	}
	if len(s.Machines) != 2 {
		t.Fatalf("machines: got %d, want 2", len(s.Machines))
	}
	if s.Machines[0].State != "ON" {
		t.Errorf("machine 1 state: got %q, want ON", s.Machines[0].State)
	}
	if s.Machines[0].Variance == nil || *s.Machines[0].Variance != 150 {
		t.Errorf("machine 1 variance: got %v", s.Machines[0].Variance)
	}
	if s.Machines[0].Counts.On != 4 {
		t.Errorf("machine 1 counts: got %+v", s.Machines[0].Counts)
	}
	if s.Machines[1].State != "UNKNOWN" {
		t.Errorf("machine 3 state before first tick: got %q, want UNKNOWN", s.Machines[1].State)
	}
	if s.Machines[1].Variance != nil {
		t.Error("machine 3 variance should be omitted")
	}
	if s.Config.Mode != "status" || s.Config.PollMs != 1000 {
		t.Errorf("Config: got %+v", s.Config)
	}
}
