package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Open initializes periph.io host drivers and opens the named I2C bus
// (e.g. "1" -> /dev/i2c-1).
func Open(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return b, nil
}

// Scan range for 7-bit addresses; 0x00-0x07 and 0x78-0x7F are reserved.
const (
	firstScanAddr = 0x08
	lastScanAddr  = 0x77
)

// TCA9548A drives a TCA9548A 8-channel I2C switch.
type TCA9548A struct {
	bus i2c.Bus
	dev *i2c.Dev
}

// NewTCA9548A returns a mux at addr on the given bus.
func NewTCA9548A(b i2c.Bus, addr uint16) *TCA9548A {
	return &TCA9548A{bus: b, dev: &i2c.Dev{Addr: addr, Bus: b}}
}

// Select writes the one-hot control byte for ch.
func (m *TCA9548A) Select(ch int) error {
	if ch < 0 || ch >= NumChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	if err := m.dev.Tx([]byte{1 << uint(ch)}, nil); err != nil {
		return fmt.Errorf("write control register: %w", err)
	}
	return nil
}

// Release disables all channels.
func (m *TCA9548A) Release(ch int) error {
	if err := m.dev.Tx([]byte{0x00}, nil); err != nil {
		return fmt.Errorf("clear control register: %w", err)
	}
	return nil
}

// Scan probes every non-reserved address with a one-byte read.
func (m *TCA9548A) Scan() ([]uint16, error) {
	var found []uint16
	buf := make([]byte, 1)
	for a := uint16(firstScanAddr); a <= lastScanAddr; a++ {
		d := i2c.Dev{Addr: a, Bus: m.bus}
		if err := d.Tx(nil, buf); err == nil {
			found = append(found, a)
		}
	}
	return found, nil
}

// Address returns the mux's bus address.
func (m *TCA9548A) Address() uint16 {
	return m.dev.Addr
}
