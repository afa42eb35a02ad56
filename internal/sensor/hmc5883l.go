package sensor

import (
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the fixed HMC5883L bus address.
const DefaultAddress = 0x1E

const (
	regConfigA = 0x00
	regDataX   = 0x03

	configA8Avg15Hz  = 0x70 // 8-sample average, 15 Hz, normal measurement
	configBGain13Ga  = 0x20 // +/-1.3 Ga, 1090 LSB/Ga
	modeSingle       = 0x01
	conversionWait   = 6 * time.Millisecond
	scaleMilliGauss  = 0.92
	overflowRawValue = -4096
)

// HMC5883L reads a Honeywell HMC5883L 3-axis magnetometer. Every channel of
// the mux carries its own chip at the same address, so the chip is
// configured on each read.
type HMC5883L struct {
	dev *i2c.Dev
}

// NewHMC5883L returns a sensor at addr on the given bus.
func NewHMC5883L(b i2c.Bus, addr uint16) *HMC5883L {
	return &HMC5883L{dev: &i2c.Dev{Addr: addr, Bus: b}}
}

// ReadAxes triggers a single measurement and returns the field in milligauss.
func (h *HMC5883L) ReadAxes() (float64, float64, float64, error) {
	// Register pointer auto-increments: CRA, CRB, mode in one burst.
	if err := h.dev.Tx([]byte{regConfigA, configA8Avg15Hz, configBGain13Ga, modeSingle}, nil); err != nil {
		return 0, 0, 0, fmt.Errorf("write config: %w", err)
	}

	time.Sleep(conversionWait)

	buf := make([]byte, 6)
	if err := h.dev.Tx([]byte{regDataX}, buf); err != nil {
		return 0, 0, 0, fmt.Errorf("read data: %w", err)
	}
	return decodeAxes(buf)
}

// decodeAxes converts the X, Z, Y big-endian register block to milligauss.
func decodeAxes(buf []byte) (float64, float64, float64, error) {
	if len(buf) != 6 {
		return 0, 0, 0, fmt.Errorf("short data block: %d bytes", len(buf))
	}
	x := int16(binary.BigEndian.Uint16(buf[0:2]))
	z := int16(binary.BigEndian.Uint16(buf[2:4]))
	y := int16(binary.BigEndian.Uint16(buf[4:6]))

	if x == overflowRawValue || y == overflowRawValue || z == overflowRawValue {
		return 0, 0, 0, ErrOverflow
	}
	return float64(x) * scaleMilliGauss, float64(y) * scaleMilliGauss, float64(z) * scaleMilliGauss, nil
}
