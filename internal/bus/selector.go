package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Selector hands out exclusive, non-blocking guards over mux channels.
// One Selector must exist per physical multiplexer: the mux can only route
// one channel at a time, so a single lock covers every channel.
type Selector struct {
	mu  sync.Mutex // held for the lifetime of a Guard
	mux Mux

	// stateMu protects held; it is never held across mux I/O.
	stateMu sync.Mutex
	held    int
}

// NewSelector wraps the given multiplexer.
func NewSelector(mux Mux) *Selector {
	return &Selector{mux: mux, held: -1}
}

// Guard is exclusive possession of one channel. Release must be called on
// every path; it is safe to call more than once.
type Guard struct {
	s    *Selector
	ch   int
	once sync.Once
	err  error
}

// Acquire claims channel ch without blocking. If the bus is held by another
// guard the returned error matches ErrChannelUnavailable. A failed mux
// selection is a bus fault: the lock is released and the I/O error is
// returned wrapped, so callers can retry it like any other read fault.
func (s *Selector) Acquire(ctx context.Context, ch int) (*Guard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ch < 0 || ch >= NumChannels {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	if !s.mu.TryLock() {
		return nil, &ChannelUnavailableError{Channel: ch}
	}

	if err := s.mux.Select(ch); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("select channel %d: %w", ch, err)
	}

	s.stateMu.Lock()
	s.held = ch
	s.stateMu.Unlock()

	return &Guard{s: s, ch: ch}, nil
}

// Held returns the channel currently held, or -1 if the bus is free.
func (s *Selector) Held() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.held
}

// Scan acquires ch and lists the device addresses answering on it,
// excluding the multiplexer itself.
func (s *Selector) Scan(ctx context.Context, ch int) ([]uint16, error) {
	g, err := s.Acquire(ctx, ch)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	addrs, err := s.mux.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan channel %d: %w", ch, err)
	}

	out := addrs[:0]
	for _, a := range addrs {
		if a != s.mux.Address() {
			out = append(out, a)
		}
	}
	return out, nil
}

// Channel returns the guarded channel.
func (g *Guard) Channel() int {
	return g.ch
}

// Release deselects the channel and frees the bus. The bus is freed even if
// deselection fails; the deselect error is returned.
func (g *Guard) Release() error {
	g.once.Do(func() {
		if err := g.s.mux.Release(g.ch); err != nil {
			slog.Debug("Mux release failed.", "channel", g.ch, "err", err)
			g.err = fmt.Errorf("release channel %d: %w", g.ch, err)
		}
		g.s.stateMu.Lock()
		g.s.held = -1
		g.s.stateMu.Unlock()
		g.s.mu.Unlock()
	})
	return g.err
}
