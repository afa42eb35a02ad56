package samplelog

import (
	"sync"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Record is one appended sample.
type Record struct {
	MachineID int
	Elapsed   float64
	Sample    logic.Sample
}

// FakeLogger records appended samples in memory.
type FakeLogger struct {
	mu sync.Mutex

	Records []Record

	// AppendError, if set, will be returned by Append.
	AppendError error

	Closed bool
}

// NewFakeLogger creates an empty FakeLogger.
func NewFakeLogger() *FakeLogger {
	return &FakeLogger{}
}

// Append records the sample.
func (f *FakeLogger) Append(machineID int, elapsed float64, s logic.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AppendError != nil {
		return f.AppendError
	}
	f.Records = append(f.Records, Record{MachineID: machineID, Elapsed: elapsed, Sample: s})
	return nil
}

// Close marks the logger as closed.
func (f *FakeLogger) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Recorded returns a copy of the appended records.
func (f *FakeLogger) Recorded() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.Records...)
}
