package indicator

import (
	"sync"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// FakeIndicator records the last level per machine.
type FakeIndicator struct {
	mu sync.Mutex

	// Levels holds the current line value per machine.
	Levels map[int]int

	// Sets counts Set calls.
	Sets int

	// SetError, if set, will be returned by Set.
	SetError error

	Closed bool
}

// NewFakeIndicator creates a FakeIndicator with all lines off.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{Levels: map[int]int{}}
}

// Set records the level for the machine.
func (f *FakeIndicator) Set(machineID int, status logic.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sets++
	if f.SetError != nil {
		return f.SetError
	}
	f.Levels[machineID] = Level(status)
	return nil
}

// Level returns the recorded level for machineID.
func (f *FakeIndicator) Level(machineID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Levels[machineID]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
