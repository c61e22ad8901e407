//go:build tinygo || baremetal

// Package mcu binds the firmware to TinyGo's machine package.
package mcu

import (
	"errors"
	"machine"

	"github.com/sparques/pwm"
	"tinygo.org/x/drivers"
)

// IRCarrier is the modulation frequency of the IR receivers, in Hz.
const IRCarrier = 38000

var ErrNoChannel = errors.New("pin has no pwm channel")

// Output configures p as an output, driven low.
func Output(p machine.Pin) machine.Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return p
}

// Input configures p as a pulled-up input.
func Input(p machine.Pin) machine.Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return p
}

// Bus adapts a drivers.SPI to a byte bus.
type Bus struct{ spi drivers.SPI }

func NewBus(spi drivers.SPI) Bus { return Bus{spi: spi} }

func (b Bus) Transceive(out byte) byte {
	in, _ := b.spi.Transfer(out)
	return in
}

// Emitter gates a 38 kHz PWM carrier on an IR LED.
type Emitter struct {
	group pwm.Group
	ch    uint8
	duty  uint32
}

// NewEmitter sets up the PWM slice behind pin, carrier off.
func NewEmitter(pin machine.Pin) (*Emitter, error) {
	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	group := pwm.Get(pin)
	if group == nil {
		return nil, ErrNoChannel
	}
	if err := group.Configure(machine.PWMConfig{Period: uint64(1e9) / IRCarrier}); err != nil {
		return nil, err
	}
	ch, err := group.Channel(pin)
	if err != nil {
		return nil, err
	}
	group.Set(ch, 0)
	return &Emitter{group: group, ch: ch, duty: group.Top() / 2}, nil
}

func (e *Emitter) High() { e.group.Set(e.ch, e.duty) }
func (e *Emitter) Low()  { e.group.Set(e.ch, 0) }

// ADC samples the battery divider on demand. The firmware thresholds are in
// 10-bit counts.
type ADC struct {
	adc  machine.ADC
	Sink func(raw uint16)
}

func NewADC(pin machine.Pin, sink func(raw uint16)) *ADC {
	machine.InitADC()
	a := &ADC{adc: machine.ADC{Pin: pin}, Sink: sink}
	a.adc.Configure(machine.ADCConfig{})
	return a
}

// StartConversion samples synchronously and hands the result to Sink.
func (a *ADC) StartConversion() {
	raw := a.adc.Get() >> 6
	if a.Sink != nil {
		a.Sink(raw)
	}
}

// Bind sets the sink conversions are delivered to.
func (a *ADC) Bind(sink func(raw uint16)) { a.Sink = sink }
