//go:build !tinygo && !baremetal

// Package periph runs the firmware on a Linux board: GPIO lines and the
// transceiver SPI bus come from periph.io.
package periph

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// IRCarrier is the modulation frequency of the IR receivers.
const IRCarrier = 38 * physic.KiloHertz

var ErrNoPin = errors.New("gpio not found")

// Init loads the host drivers. It is safe to call more than once.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph: host init: %w", err)
	}
	return nil
}

// Output is a push-pull output line.
type Output struct{ p gpio.PinOut }

func (o Output) High() { _ = o.p.Out(gpio.High) }
func (o Output) Low()  { _ = o.p.Out(gpio.Low) }

// Halt drives the line low and releases it.
func (o Output) Halt() error {
	_ = o.p.Out(gpio.Low)
	return o.p.Halt()
}

// Input is an input line.
type Input struct{ p gpio.PinIn }

func (i Input) Get() bool { return i.p.Read() == gpio.High }

func (i Input) Halt() error { return i.p.Halt() }

// Emitter drives an IR LED: High starts the modulated carrier, Low stops it.
type Emitter struct {
	p    gpio.PinOut
	Freq physic.Frequency
}

func (e Emitter) High() { _ = e.p.PWM(gpio.DutyHalf, e.Freq) }
func (e Emitter) Low()  { _ = e.p.Out(gpio.Low) }

// Halt stops the carrier and releases the line.
func (e Emitter) Halt() error {
	_ = e.p.Out(gpio.Low)
	return e.p.Halt()
}

// NewOutput wraps p, driving it low.
func NewOutput(p gpio.PinOut) (Output, error) {
	if err := p.Out(gpio.Low); err != nil {
		return Output{}, fmt.Errorf("periph: %s: %w", p, err)
	}
	return Output{p: p}, nil
}

// NewInput wraps p as an input with the given pull.
func NewInput(p gpio.PinIn, pull gpio.Pull) (Input, error) {
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return Input{}, fmt.Errorf("periph: %s: %w", p, err)
	}
	return Input{p: p}, nil
}

// NewEmitter wraps p as an IR emitter, off.
func NewEmitter(p gpio.PinOut) (Emitter, error) {
	if err := p.Out(gpio.Low); err != nil {
		return Emitter{}, fmt.Errorf("periph: %s: %w", p, err)
	}
	return Emitter{p: p, Freq: IRCarrier}, nil
}

func byName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periph: %q: %w", name, ErrNoPin)
	}
	return p, nil
}

// OpenOutput looks up a line by name and makes it an output.
func OpenOutput(name string) (Output, error) {
	p, err := byName(name)
	if err != nil {
		return Output{}, err
	}
	return NewOutput(p)
}

// OpenInput looks up a line by name and makes it a pulled-up input. IR
// receivers and the power button idle high.
func OpenInput(name string) (Input, error) {
	p, err := byName(name)
	if err != nil {
		return Input{}, err
	}
	return NewInput(p, gpio.PullUp)
}

// OpenEmitter looks up a PWM capable line by name.
func OpenEmitter(name string) (Emitter, error) {
	p, err := byName(name)
	if err != nil {
		return Emitter{}, err
	}
	return NewEmitter(p)
}

// Bus is a one-byte-at-a-time view of a SPI connection. Chip select is a
// separate GPIO so it can stay low across a register burst.
type Bus struct {
	c      spi.Conn
	closer spi.PortCloser
	w, r   [1]byte
	err    error
}

// NewBus wraps an open connection.
func NewBus(c spi.Conn) *Bus { return &Bus{c: c} }

// OpenBus opens a SPI port by name (e.g. "SPI0.0") in mode 0 without
// hardware chip select.
func OpenBus(name string, freq physic.Frequency) (*Bus, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periph: spi %q: %w", name, err)
	}
	c, err := port.Connect(freq, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("periph: spi %q connect: %w", name, err)
	}
	return &Bus{c: c, closer: port}, nil
}

func (b *Bus) Transceive(out byte) byte {
	b.w[0] = out
	if err := b.c.Tx(b.w[:], b.r[:]); err != nil {
		if b.err == nil {
			b.err = err
		}
		return 0
	}
	return b.r[0]
}

// Err returns the first transfer error seen, if any.
func (b *Bus) Err() error { return b.err }

func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Ready stands in for the transceiver's ready signal where MISO cannot be
// read as a GPIO while the SPI function owns it.
type Ready struct{}

func (Ready) Get() bool { return false }
