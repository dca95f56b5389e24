// Package adapter implements the u8x8 message protocol on top of a
// periph.io I²C bus.
//
// The display emits a transaction as many small SEND messages. I2C stages
// them in a fixed transmit buffer and issues a single bus write when the
// transfer ends.
package adapter

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/flavioheleno/oledcube/u8x8"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// BufferSize is the capacity of the transmit buffer, the largest payload a
// single transaction can carry. Bytes past it are dropped.
const BufferSize = 128

// DefaultAddr is the usual address of SSD1306 modules.
const DefaultAddr = 0x3C

// ErrNotInitialized is returned when a transfer ends before the bus was
// opened with a ByteInit message.
var ErrNotInitialized = errors.New("adapter: bus not initialized")

// Opener opens the named I²C bus.
type Opener func(name string) (i2c.BusCloser, error)

// Opts is the configuration for the I2C adapter.
type Opts struct {
	// Bus is the i2creg name of the bus, empty for the first available one.
	Bus string

	// Addr is the device address, 7 bit or 8 bit (shifted left, R/W bit
	// clear) form.
	Addr uint16

	// Speed is the bus clock set on ByteInit. Zero leaves the bus as is.
	Speed physic.Frequency

	// Open opens the bus on ByteInit. Defaults to OpenRegistry.
	Open Opener

	// Sleep implements DelayMilli. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// I2C is a u8x8.Handler writing to a single device on an I²C bus.
type I2C struct {
	busName string
	addr    uint16
	speed   physic.Frequency
	open    Opener
	sleep   func(time.Duration)

	bus i2c.BusCloser
	c   conn.Conn

	buf [BufferSize]byte
	n   int
}

// New returns an adapter for the device described by opts. The bus is not
// opened until the display sends ByteInit.
//
// opts can be nil to use the first available bus and DefaultAddr.
func New(opts *Opts) (*I2C, error) {
	if opts == nil {
		opts = &Opts{}
	}
	addr, err := normalizeAddr(opts.Addr)
	if err != nil {
		return nil, err
	}
	a := &I2C{
		busName: opts.Bus,
		addr:    addr,
		speed:   opts.Speed,
		open:    opts.Open,
		sleep:   opts.Sleep,
	}
	if a.open == nil {
		a.open = OpenRegistry
	}
	if a.sleep == nil {
		a.sleep = time.Sleep
	}
	return a, nil
}

// OpenRegistry initializes the host drivers and opens the named bus from
// the periph.io registry.
func OpenRegistry(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("adapter: failed to initialize host: %w", err)
	}
	return i2creg.Open(name)
}

// normalizeAddr converts an 8 bit address to its 7 bit form. Zero selects
// DefaultAddr.
//
// Values up to 0x77 are 7 bit addresses. 0x78 and above are taken as the 8
// bit form and must have the R/W bit clear; the 7 bit range 0x78-0x7F is
// reserved by the I²C specification anyway.
func normalizeAddr(addr uint16) (uint16, error) {
	switch {
	case addr == 0:
		return DefaultAddr, nil
	case addr <= 0x77:
		return addr, nil
	case addr <= 0xFF && addr&1 == 0:
		return addr >> 1, nil
	}
	return 0, fmt.Errorf("adapter: invalid device address %#x", addr)
}

// HandleByte implements u8x8.ByteHandler.
func (a *I2C) HandleByte(msg u8x8.ByteMsg, arg uint8, payload []byte) error {
	switch msg {
	case u8x8.ByteInit:
		return a.init()
	case u8x8.ByteStartTransfer:
		a.n = 0
		return nil
	case u8x8.ByteSend:
		n := min(int(arg), len(payload))
		if w := a.append(payload[:n]); w < n {
			logrus.Debugf("adapter: transmit buffer full, dropped %d bytes", n-w)
		}
		return nil
	case u8x8.ByteEndTransfer:
		return a.flush()
	}
	// ByteSetDC and anything unknown: I²C has no D/C line.
	return nil
}

// HandleGpio implements u8x8.GpioHandler. The adapter drives no GPIO line
// beyond the bus, so only DelayMilli has an effect.
func (a *I2C) HandleGpio(msg u8x8.GpioMsg, arg uint8) error {
	if msg == u8x8.DelayMilli && arg > 0 {
		a.sleep(time.Duration(arg) * time.Millisecond)
	}
	return nil
}

// init opens the bus, once.
func (a *I2C) init() error {
	if a.bus != nil {
		return nil
	}
	b, err := a.open(a.busName)
	if err != nil {
		return fmt.Errorf("adapter: failed to open i2c bus %q: %w", a.busName, err)
	}
	if a.speed > 0 {
		if err := b.SetSpeed(a.speed); err != nil {
			logrus.Warnf("adapter: unable to set %s to %s: %v", b, a.speed, err)
		}
	}
	a.bus = b
	a.c = &i2c.Dev{Bus: b, Addr: a.addr}
	logrus.Debugf("adapter: opened %s, device %#02x", b, a.addr)
	return nil
}

// append copies as much of p as fits in the transmit buffer and returns the
// number of bytes taken.
func (a *I2C) append(p []byte) int {
	w := copy(a.buf[a.n:], p)
	a.n += w
	return w
}

// flush writes the staged bytes as one transaction.
func (a *I2C) flush() error {
	if a.n == 0 {
		return nil
	}
	if a.c == nil {
		return ErrNotInitialized
	}
	data := a.buf[:a.n]
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Tracef("adapter: write %#02x %s", a.addr, hex.EncodeToString(data))
	}
	if err := a.c.Tx(data, nil); err != nil {
		logrus.Debugf("adapter: write of %d bytes to %#02x failed: %v", a.n, a.addr, err)
		return fmt.Errorf("adapter: write of %d bytes to %#02x failed: %w", a.n, a.addr, err)
	}
	return nil
}

// Len returns the number of bytes staged in the current transfer.
func (a *I2C) Len() int {
	return a.n
}

// Addr returns the 7 bit device address.
func (a *I2C) Addr() uint16 {
	return a.addr
}

// Close closes the bus if it was opened.
func (a *I2C) Close() error {
	if a.bus == nil {
		return nil
	}
	err := a.bus.Close()
	a.bus = nil
	a.c = nil
	return err
}

// String returns a string representation of the adapter.
func (a *I2C) String() string {
	return fmt.Sprintf("adapter.I2C{%#02x}", a.addr)
}

// NopCloser returns b with a Close method that does nothing. It lets buses
// that cannot be closed, such as i2ctest.Record, be returned by an Opener.
func NopCloser(b i2c.Bus) i2c.BusCloser {
	return nopCloser{b}
}

type nopCloser struct {
	i2c.Bus
}

func (nopCloser) Close() error {
	return nil
}
