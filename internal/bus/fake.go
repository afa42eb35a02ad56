package bus

import "sync"

// FakeMux is a test double that records selections.
type FakeMux struct {
	mu sync.Mutex

	// Selected is the currently routed channel, or -1.
	Selected int

	// Selects and Releases record every call in order.
	Selects  []int
	Releases []int

	// SelectError, if set, will be returned by Select.
	SelectError error

	// ReleaseError, if set, will be returned by Release.
	ReleaseError error

	// Devices maps a channel to the addresses Scan reports on it.
	Devices map[int][]uint16

	// OnSelect, if set, is called after a successful selection.
	OnSelect func(ch int)
}

// NewFakeMux creates a FakeMux with nothing selected.
func NewFakeMux() *FakeMux {
	return &FakeMux{Selected: -1, Devices: map[int][]uint16{}}
}

// Select records the selection.
func (f *FakeMux) Select(ch int) error {
	f.mu.Lock()
	if f.SelectError != nil {
		err := f.SelectError
		f.mu.Unlock()
		return err
	}
	f.Selected = ch
	f.Selects = append(f.Selects, ch)
	hook := f.OnSelect
	f.mu.Unlock()

	if hook != nil {
		hook(ch)
	}
	return nil
}

// Release records the release.
func (f *FakeMux) Release(ch int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Releases = append(f.Releases, ch)
	f.Selected = -1
	return f.ReleaseError
}

// Scan returns the configured devices on the selected channel plus the mux.
func (f *FakeMux) Scan() ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []uint16{DefaultMuxAddress}
	out = append(out, f.Devices[f.Selected]...)
	return out, nil
}

// Address returns DefaultMuxAddress.
func (f *FakeMux) Address() uint16 {
	return DefaultMuxAddress
}

// SelectCount returns how many selections succeeded.
func (f *FakeMux) SelectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Selects)
}
