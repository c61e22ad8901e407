//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets: a simulated board for
// development and tests, and a Linux board on periph.io.
package gatetimer

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/ystepanoff/gatetimer/display"
	"github.com/ystepanoff/gatetimer/driver/cc1101"
	"github.com/ystepanoff/gatetimer/driver/periph"
	"github.com/ystepanoff/gatetimer/driver/stub"
	"github.com/ystepanoff/gatetimer/irlink"
	proto "github.com/ystepanoff/gatetimer/protocol"
	"github.com/ystepanoff/gatetimer/transport"
)

// Simulated is a board on in-memory hardware, facing a beacon on the
// infrared side and a base station on the radio side. Drive it with Step.
type Simulated struct {
	*Board

	Chain  *stub.ShiftChain
	Beacon *stub.Beacon
	Base   *transport.Responder
	Air    *stub.Radio // the base station's transceiver
	ADC    *stub.ADC
	Button *stub.Pin
	LED    *stub.Pin
	Latch  *stub.Pin // soft-power latch

	battery atomic.Uint32
}

// NewSimulated builds a simulated board with a full battery.
func NewSimulated(cfg Config, log logrus.FieldLogger) (*Simulated, error) {
	local, remote := stub.NewPair()
	remote.SetAutoAnswer(true)

	s := &Simulated{
		Chain:  stub.NewShiftChain(display.FrameWidth),
		Beacon: stub.NewBeacon(),
		Air:    remote,
		Button: stub.NewPin("button", true),
		LED:    stub.NewPin("led", false),
		Latch:  stub.NewPin("power", false),
	}
	s.battery.Store(1000)
	s.ADC = stub.NewADC(func() { s.Monitor.Sample(s.Battery()) })

	b, err := New(Hardware{
		Data:  s.Chain.Data(),
		Clock: s.Chain.Clock(),
		Latch: s.Chain.Latch(),
		Signal: irlink.Pins{
			SenseA:  s.Beacon.SenseA,
			SenseB:  s.Beacon.SenseB,
			Confirm: s.Beacon.Confirm,
			EmitA:   s.Beacon.EmitA,
			EmitB:   s.Beacon.EmitB,
		},
		Radio:  local,
		ADC:    s.ADC,
		Button: s.Button,
		LED:    s.LED,
		Power:  s.Latch,
	}, cfg, log)
	if err != nil {
		return nil, err
	}
	s.Board = b

	s.Base = transport.NewResponderWithDriver(remote, proto.Ack{}, log)
	if err := s.Base.Initialise(); err != nil {
		return nil, fmt.Errorf("gatetimer: base station: %w", err)
	}
	return s, nil
}

// Battery returns the raw reading the simulated ADC reports.
func (s *Simulated) Battery() uint16 { return uint16(s.battery.Load()) }

// SetBattery changes the raw reading reported from the next conversion on.
func (s *Simulated) SetBattery(raw uint16) { s.battery.Store(uint32(raw)) }

// Step advances the beacon, the board and the base station by one tick.
func (s *Simulated) Step() error {
	s.Beacon.Step()
	err := s.Board.Step()
	s.Base.Step()
	return err
}

// PeriphPins names the lines of a Linux board, as known to gpioreg.
// Optional lines may be left empty.
type PeriphPins struct {
	Data, Clock, Latch string

	SenseA, SenseB, Confirm string // SenseB, Confirm optional
	EmitA, EmitB            string // optional

	Button, LED, Power string

	// Transceiver. An empty SPI port leaves the board without a radio.
	SPI     string
	SPIFreq physic.Frequency
	CS      string
	GDO0    string
	GDO2    string
}

// DefaultPeriphPins is the wiring of the Raspberry Pi test rig.
func DefaultPeriphPins() PeriphPins {
	return PeriphPins{
		Data:    "GPIO17",
		Clock:   "GPIO27",
		Latch:   "GPIO22",
		SenseA:  "GPIO5",
		SenseB:  "GPIO6",
		Confirm: "GPIO13",
		EmitA:   "GPIO12",
		EmitB:   "GPIO18",
		Button:  "GPIO26",
		LED:     "GPIO16",
		Power:   "GPIO20",
		SPI:     "SPI0.0",
		SPIFreq: 4 * physic.MegaHertz,
		CS:      "GPIO8",
		GDO0:    "GPIO24",
		GDO2:    "GPIO25",
	}
}

// NewPeriph opens the named lines and builds a board on them. The board has
// no battery monitor: a Linux host has no supply ADC. On error every line
// and the bus opened so far are released.
func NewPeriph(pins PeriphPins, cfg Config, log logrus.FieldLogger) (*Board, error) {
	if err := periph.Init(); err != nil {
		return nil, err
	}
	return openPeriph(pins, cfg, log)
}

func openPeriph(pins PeriphPins, cfg Config, log logrus.FieldLogger) (b *Board, err error) {
	var release []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(release) - 1; i >= 0; i-- {
			_ = release[i]()
		}
	}()

	var bus *periph.Bus
	if pins.SPI != "" {
		if bus, err = periph.OpenBus(pins.SPI, pins.SPIFreq); err != nil {
			return nil, err
		}
		release = append(release, bus.Close)
	}

	var first error
	keep := func(e error, halt func() error) {
		if e != nil {
			if first == nil {
				first = e
			}
			return
		}
		release = append(release, halt)
	}
	out := func(name string) periph.Output {
		o, e := periph.OpenOutput(name)
		keep(e, o.Halt)
		return o
	}
	in := func(name string) periph.Input {
		i, e := periph.OpenInput(name)
		keep(e, i.Halt)
		return i
	}
	emit := func(name string) periph.Emitter {
		em, e := periph.OpenEmitter(name)
		keep(e, em.Halt)
		return em
	}

	var hw Hardware
	hw.Data, hw.Clock, hw.Latch = out(pins.Data), out(pins.Clock), out(pins.Latch)
	hw.Button, hw.LED, hw.Power = in(pins.Button), out(pins.LED), out(pins.Power)
	hw.Signal.SenseA = in(pins.SenseA)
	if pins.SenseB != "" {
		hw.Signal.SenseB = in(pins.SenseB)
	}
	if pins.Confirm != "" {
		hw.Signal.Confirm = in(pins.Confirm)
	}
	if pins.EmitA != "" {
		hw.Signal.EmitA = emit(pins.EmitA)
	}
	if pins.EmitB != "" {
		hw.Signal.EmitB = emit(pins.EmitB)
	}

	var radio cc1101.Pins
	if bus != nil {
		radio = cc1101.Pins{
			CS:   out(pins.CS),
			MISO: periph.Ready{},
			GDO0: in(pins.GDO0),
			GDO2: in(pins.GDO2),
		}
	}
	if first != nil {
		return nil, first
	}
	if bus != nil {
		radio.CS.High()
		hw.Radio = cc1101.New(bus, radio)
	}

	return New(hw, cfg, log)
}
