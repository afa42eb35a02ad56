package monitor

import (
	"context"
	"sync"

	"github.com/sweeney/machine-sensor/internal/logic"
)

type readResult struct {
	sample logic.Sample
	err    error
}

// fakeSource returns scripted reads; the last one repeats.
type fakeSource struct {
	mu       sync.Mutex
	results  []readResult
	channels []int
	onRead   func(n int)
}

func (f *fakeSource) Read(ctx context.Context, ch int) (logic.Sample, error) {
	f.mu.Lock()
	f.channels = append(f.channels, ch)
	n := len(f.channels)
	i := min(n-1, len(f.results)-1)
	r := f.results[i]
	hook := f.onRead
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err := ctx.Err(); err != nil {
		return logic.Sample{}, err
	}
	return r.sample, r.err
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels)
}

// fakeVariance returns a fixed variance or error.
type fakeVariance struct {
	v      float64
	err    error
	calls  int
	onCall func(n int)
}

func (f *fakeVariance) Variance(ctx context.Context, ch int) (float64, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	return f.v, f.err
}

// magnitudes builds samples along X with the given magnitudes.
func magnitudes(ms ...float64) []readResult {
	out := make([]readResult, len(ms))
	for i, m := range ms {
		out[i] = readResult{sample: logic.Sample{X: m}}
	}
	return out
}
