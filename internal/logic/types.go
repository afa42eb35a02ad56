// Package logic contains the pure classification rules for machine state.
// This package has NO external dependencies (no I2C, HTTP, OS, or time.Sleep).
// Time is carried on samples, never read from the clock here.
package logic

import (
	"math"
	"time"
)

// Status represents the inferred running state of a machine.
type Status string

const (
	StatusOn      Status = "ON"
	StatusOff     Status = "OFF"
	StatusUnknown Status = "UNKNOWN"
)

// Classification constants. They are not runtime-configurable; tests
// build their own Params with smaller windows and shorter intervals.
const (
	DefaultWindowSize     = 10
	DefaultSampleInterval = 100 * time.Millisecond
	DefaultThreshold      = 100.0
)

// Sample is a single 3-axis magnetometer reading.
type Sample struct {
	X    float64
	Y    float64
	Z    float64
	Time time.Time
}

// Magnitude returns the Euclidean norm of the sample's components.
func (s Sample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// Params controls how a variance window is drawn and judged.
type Params struct {
	WindowSize     int
	SampleInterval time.Duration
	Threshold      float64
}

// DefaultParams returns the reference classification parameters.
func DefaultParams() Params {
	return Params{
		WindowSize:     DefaultWindowSize,
		SampleInterval: DefaultSampleInterval,
		Threshold:      DefaultThreshold,
	}
}
