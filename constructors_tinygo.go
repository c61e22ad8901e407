//go:build tinygo || baremetal

// This file is built only for embedded targets.
package gatetimer

import (
	"machine"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/drivers"

	"github.com/ystepanoff/gatetimer/driver/cc1101"
	"github.com/ystepanoff/gatetimer/driver/mcu"
	"github.com/ystepanoff/gatetimer/hal"
)

// NoPin marks an optional line as not fitted.
const NoPin = machine.NoPin

// DevicePins is the MCU wiring. SPI must already be configured; a nil SPI
// leaves the board without a radio.
type DevicePins struct {
	Data, Clock, Latch machine.Pin

	SenseA, SenseB, Confirm machine.Pin // SenseB, Confirm may be NoPin
	EmitA, EmitB            machine.Pin // may be NoPin

	Button, LED, Power machine.Pin
	Battery            machine.Pin // ADC input, may be NoPin

	SPI        drivers.SPI
	CS, MISO   machine.Pin
	GDO0, GDO2 machine.Pin
}

// NewDevice configures the MCU pins and builds a board on them.
func NewDevice(pins DevicePins, cfg Config, log logrus.FieldLogger) (*Board, error) {
	hw := Hardware{
		Data:   mcu.Output(pins.Data),
		Clock:  mcu.Output(pins.Clock),
		Latch:  mcu.Output(pins.Latch),
		Button: mcu.Input(pins.Button),
		LED:    mcu.Output(pins.LED),
		Power:  mcu.Output(pins.Power),
	}
	hw.Signal.SenseA = mcu.Input(pins.SenseA)
	if pins.SenseB != NoPin {
		hw.Signal.SenseB = mcu.Input(pins.SenseB)
	}
	if pins.Confirm != NoPin {
		hw.Signal.Confirm = mcu.Input(pins.Confirm)
	}

	for _, e := range []struct {
		pin machine.Pin
		dst *hal.OutputPin
	}{
		{pins.EmitA, &hw.Signal.EmitA},
		{pins.EmitB, &hw.Signal.EmitB},
	} {
		if e.pin == NoPin {
			continue
		}
		em, err := mcu.NewEmitter(e.pin)
		if err != nil {
			return nil, err
		}
		*e.dst = em
	}

	if pins.Battery != NoPin {
		// the board binds the sink to its monitor
		hw.ADC = mcu.NewADC(pins.Battery, nil)
	}

	if pins.SPI != nil {
		cs := mcu.Output(pins.CS)
		cs.High()
		hw.Radio = cc1101.New(mcu.NewBus(pins.SPI), cc1101.Pins{
			CS:   cs,
			MISO: pins.MISO,
			GDO0: mcu.Input(pins.GDO0),
			GDO2: mcu.Input(pins.GDO2),
		})
	}
	return New(hw, cfg, log)
}
