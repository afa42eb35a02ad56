package report

import (
	"context"
	"sync"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// Call is one recorded Report invocation.
type Call struct {
	MachineID int
	Status    logic.Status
	Payload   []byte
}

// FakeReporter records reports for test assertions.
type FakeReporter struct {
	mu sync.Mutex

	// Calls contains every successful report, in order.
	Calls []Call

	// ReportError, if set, will be returned by Report.
	ReportError error

	// OnReport, if set, is called after each recorded report.
	OnReport func(Call)

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeReporter creates a FakeReporter for testing.
func NewFakeReporter() *FakeReporter {
	return &FakeReporter{}
}

// Report records the status.
func (f *FakeReporter) Report(ctx context.Context, machineID int, status logic.Status) error {
	f.mu.Lock()
	if f.ReportError != nil {
		err := f.ReportError
		f.mu.Unlock()
		return err
	}

	payload, err := FormatPayload(status)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	c := Call{MachineID: machineID, Status: status, Payload: payload}
	f.Calls = append(f.Calls, c)
	hook := f.OnReport
	f.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return nil
}

// Close marks the reporter as closed.
func (f *FakeReporter) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Recorded returns a copy of the recorded calls.
func (f *FakeReporter) Recorded() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.Calls...)
}
