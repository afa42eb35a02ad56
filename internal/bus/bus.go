// Package bus provides exclusive access to the channels of an I2C multiplexer.
// The real implementation drives a TCA9548A through periph.io.
// The fake implementation allows testing without hardware.
package bus

import (
	"errors"
	"fmt"
)

// NumChannels is the number of downstream channels on the multiplexer.
const NumChannels = 8

// DefaultMuxAddress is the TCA9548A address with A0..A2 tied low.
const DefaultMuxAddress = 0x70

// Mux is the multiplexer primitive. Implementations need not be safe for
// concurrent use; Selector serializes every call.
type Mux interface {
	// Select routes the upstream bus to channel ch.
	Select(ch int) error

	// Release disconnects channel ch from the upstream bus.
	Release(ch int) error

	// Scan returns the 7-bit addresses answering on the selected channel.
	Scan() ([]uint16, error)

	// Address is the mux's own bus address.
	Address() uint16
}

// ErrChannelUnavailable is matched when the bus is held by another guard.
var ErrChannelUnavailable = errors.New("channel unavailable")

// ErrInvalidChannel is returned for channels outside 0..NumChannels-1.
var ErrInvalidChannel = errors.New("invalid channel")

// ChannelUnavailableError reports a channel that could not be acquired
// because the bus was held. Err is an optional cause.
type ChannelUnavailableError struct {
	Channel int
	Err     error
}

func (e *ChannelUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("channel %d unavailable: %v", e.Channel, e.Err)
	}
	return fmt.Sprintf("channel %d unavailable: bus busy", e.Channel)
}

func (e *ChannelUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrChannelUnavailable) hold for this type.
func (e *ChannelUnavailableError) Is(target error) bool {
	return target == ErrChannelUnavailable
}
