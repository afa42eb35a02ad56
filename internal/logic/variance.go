package logic

import (
	"errors"
)

// ErrWindowTooSmall is returned when fewer than two values are supplied.
var ErrWindowTooSmall = errors.New("variance window needs at least 2 values")

// SampleVariance returns the unbiased variance of values
// (sum of squared deviations divided by n-1).
func SampleVariance(values []float64) (float64, error) {
	n := len(values)
	if n < 2 {
		return 0, ErrWindowTooSmall
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(n-1), nil
}

// Magnitudes maps samples to their magnitudes, preserving order.
func Magnitudes(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Magnitude()
	}
	return out
}

// StatusFor classifies a variance: strictly above threshold is ON.
func StatusFor(variance, threshold float64) Status {
	if variance > threshold {
		return StatusOn
	}
	return StatusOff
}
