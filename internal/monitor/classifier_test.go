package monitor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sweeney/machine-sensor/internal/bus"
	"github.com/sweeney/machine-sensor/internal/logic"
	"github.com/sweeney/machine-sensor/internal/sensor"
)

func testParams() logic.Params {
	p := logic.DefaultParams()
	p.SampleInterval = 0
	return p
}

func TestClassifierConstantField(t *testing.T) {
	src := &fakeSource{results: magnitudes(50)}
	c := NewClassifier(src, testParams())

	v, err := c.Variance(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("variance: got %v, want 0", v)
	}
	if src.calls() != logic.DefaultWindowSize {
		t.Errorf("reads: got %d, want %d", src.calls(), logic.DefaultWindowSize)
	}
	for _, ch := range src.channels {
		if ch != 2 {
			t.Fatalf("read channel %d, want 2", ch)
		}
	}
}

func TestClassifierUnbiasedVariance(t *testing.T) {
	src := &fakeSource{results: magnitudes(10, 10, 10, 10, 10, 10, 10, 10, 10, 30)}
	c := NewClassifier(src, testParams())

	v, err := c.Variance(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(v-40) > 1e-9 {
		t.Errorf("variance: got %v, want 40", v)
	}
}

func TestClassifierReadingErrorAbortsWindow(t *testing.T) {
	readErr := &sensor.ReadingError{Channel: 1, Attempts: 6, Err: errors.New("nack")}
	src := &fakeSource{results: []readResult{{err: readErr}}}
	c := NewClassifier(src, testParams())

	_, err := c.Variance(context.Background(), 1)
	var got *sensor.ReadingError
	if !errors.As(err, &got) {
		t.Fatalf("expected ReadingError, got %v", err)
	}
	if src.calls() != 1 {
		t.Errorf("reads: got %d, want 1", src.calls())
	}
}

func TestClassifierMidWindowFailure(t *testing.T) {
	results := magnitudes(1, 2, 3, 4)
	results = append(results, readResult{err: &bus.ChannelUnavailableError{Channel: 3}})
	src := &fakeSource{results: results}
	c := NewClassifier(src, testParams())

	_, err := c.Variance(context.Background(), 3)
	if !errors.Is(err, bus.ErrChannelUnavailable) {
		t.Fatalf("expected ErrChannelUnavailable, got %v", err)
	}
	var readErr *sensor.ReadingError
	if errors.As(err, &readErr) {
		t.Error("unavailable channel must not look like a reading error")
	}
	if src.calls() != 5 {
		t.Errorf("reads: got %d, want 5", src.calls())
	}
}

func TestClassifierSpacing(t *testing.T) {
	src := &fakeSource{results: magnitudes(1)}
	c := NewClassifier(src, logic.Params{WindowSize: 3, SampleInterval: 10 * time.Millisecond})

	start := time.Now()
	if _, err := c.Variance(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("elapsed %v, want at least 30ms", elapsed)
	}
}

func TestClassifierCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{results: magnitudes(1)}
	c := NewClassifier(src, logic.Params{WindowSize: 10, SampleInterval: time.Hour})

	done := make(chan error, 1)
	go func() {
		_, err := c.Variance(ctx, 0)
		done <- err
	}()

	// First sleep is an hour; cancel it.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Variance did not return after cancel")
	}
}

func TestSleepZero(t *testing.T) {
	if err := sleep(context.Background(), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
