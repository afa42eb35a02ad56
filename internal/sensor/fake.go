package sensor

import (
	"errors"
	"sync"
)

// Result is one scripted ReadAxes outcome.
type Result struct {
	X, Y, Z float64
	Err     error
}

// FakeDevice is a test double that returns scripted readings.
type FakeDevice struct {
	mu sync.Mutex

	// Results contains the scripted outcomes. Each ReadAxes call consumes
	// the next one; once exhausted the last is repeated.
	Results []Result

	index int
	calls int

	// OnRead, if set, is called at the start of every ReadAxes.
	OnRead func()
}

// NewFakeDevice creates a FakeDevice with the given results.
func NewFakeDevice(results ...Result) *FakeDevice {
	return &FakeDevice{Results: results}
}

// ReadAxes returns the next scripted result.
func (f *FakeDevice) ReadAxes() (float64, float64, float64, error) {
	f.mu.Lock()
	hook := f.OnRead
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if len(f.Results) == 0 {
		return 0, 0, 0, errors.New("no results configured")
	}
	r := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	return r.X, r.Y, r.Z, r.Err
}

// Calls returns how many times ReadAxes was called.
func (f *FakeDevice) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Failures returns n results that all fail with err.
func Failures(n int, err error) []Result {
	out := make([]Result, n)
	for i := range out {
		out[i] = Result{Err: err}
	}
	return out
}
