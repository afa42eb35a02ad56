package sensor

import (
	"math/rand"
	"sync"
)

// Simulator produces plausible readings without hardware. Machines on
// channels marked running vibrate enough to classify as ON.
type Simulator struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	channel int
	running map[int]bool
}

// Baseline field and noise levels in milligauss.
const (
	simBaseX       = 180.0
	simBaseY       = -220.0
	simBaseZ       = 410.0
	simIdleSigma   = 1.5
	simActiveSigma = 40.0
)

// NewSimulator creates a Simulator; channels listed in running read as busy machines.
func NewSimulator(seed int64, running []int) *Simulator {
	m := make(map[int]bool, len(running))
	for _, ch := range running {
		m[ch] = true
	}
	return &Simulator{rnd: rand.New(rand.NewSource(seed)), running: m, channel: -1}
}

// SetChannel tells the simulator which channel the mux routed. It is meant
// to be hooked to the mux's selection callback.
func (s *Simulator) SetChannel(ch int) {
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()
}

// ReadAxes returns the baseline field plus Gaussian noise.
func (s *Simulator) ReadAxes() (float64, float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sigma := simIdleSigma
	if s.running[s.channel] {
		sigma = simActiveSigma
	}
	return simBaseX + s.rnd.NormFloat64()*sigma,
		simBaseY + s.rnd.NormFloat64()*sigma,
		simBaseZ + s.rnd.NormFloat64()*sigma,
		nil
}
