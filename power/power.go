// Package power watches the battery, the power button and the warning LED.
package power

import (
	"sync/atomic"

	"github.com/ystepanoff/gatetimer/hal"
)

// Config holds the battery thresholds (raw 10-bit ADC counts) and the
// 50 ms phase counts of the power logic.
type Config struct {
	WarnBelow      uint16 `json:"warn-below"`
	CutoffBelow    uint16 `json:"cutoff-below"`
	StartupPhases  uint16 `json:"adc-startup"`
	IntervalPhases uint16 `json:"adc-interval"`
	HoldPhases     uint16 `json:"hold-phases"`
	BlinkOn        uint8  `json:"blink-on"`
	BlinkOff       uint8  `json:"blink-off"`
}

// DefaultConfig returns the thresholds for the stock divider, calibrated
// 0.5% above nominal.
func DefaultConfig() Config {
	return Config{
		WarnBelow:      900 * 1005 / 1000,
		CutoffBelow:    850 * 1005 / 1000,
		StartupPhases:  10,
		IntervalPhases: 200,
		HoldPhases:     21,
		BlinkOn:        16,
		BlinkOff:       18,
	}
}

// Monitor turns ADC results into the warning and cutoff flags. Sample runs
// in the conversion-complete context, everything else in the main loop.
type Monitor struct {
	adc         hal.ADC
	warnBelow   uint16
	cutoffBelow uint16
	interval    uint16
	countdown   uint16

	warning atomic.Bool
	cutoff  atomic.Bool
	last    atomic.Uint32
}

// NewMonitor returns a monitor that starts its first conversion after the
// startup delay. A nil adc disables sampling.
func NewMonitor(adc hal.ADC, cfg Config) *Monitor {
	return &Monitor{
		adc:         adc,
		warnBelow:   cfg.WarnBelow,
		cutoffBelow: cfg.CutoffBelow,
		interval:    cfg.IntervalPhases,
		countdown:   cfg.StartupPhases,
	}
}

// Sample records a conversion result. Flags only ever get set.
func (m *Monitor) Sample(raw uint16) {
	m.last.Store(uint32(raw))
	if raw < m.warnBelow {
		m.warning.Store(true)
		if raw < m.cutoffBelow {
			m.cutoff.Store(true)
		}
	}
}

// Tick50ms starts a conversion when one is due.
func (m *Monitor) Tick50ms() {
	if m.adc == nil {
		return
	}
	if m.countdown > 0 {
		m.countdown--
		return
	}
	m.countdown = m.interval
	m.adc.StartConversion()
}

func (m *Monitor) Warning() bool { return m.warning.Load() }
func (m *Monitor) Cutoff() bool  { return m.cutoff.Load() }

// Last returns the most recent raw sample.
func (m *Monitor) Last() uint16 { return uint16(m.last.Load()) }

// Button is the power button, active low. It doubles as the mode button:
// a press is an event, holding it turns the device off.
type Button struct {
	pin  hal.InputPin
	hold uint16
	held uint16
}

func NewButton(pin hal.InputPin, cfg Config) *Button {
	return &Button{pin: pin, hold: cfg.HoldPhases}
}

// Pressed reads the line directly.
func (b *Button) Pressed() bool { return !b.pin.Get() }

// Tick50ms samples the button. It reports the press edge once per press and
// shutdown once the button has been held for the hold time.
func (b *Button) Tick50ms() (press, shutdown bool) {
	if !b.Pressed() {
		b.held = 0
		return false, false
	}
	if b.held >= b.hold {
		return false, true
	}
	b.held++
	return b.held == 1, false
}

// WaitRelease spins until the button is released.
func (b *Button) WaitRelease() {
	for b.Pressed() {
	}
}

// Blinker flashes the LED while the battery is low: briefly on, then off
// for the rest of the period. The LED is left alone otherwise.
type Blinker struct {
	led   hal.OutputPin
	on    uint8
	off   uint8
	phase uint8
}

func NewBlinker(led hal.OutputPin, cfg Config) *Blinker {
	return &Blinker{led: led, on: cfg.BlinkOn, off: cfg.BlinkOff}
}

func (b *Blinker) Tick50ms(warning bool) {
	if !warning {
		return
	}
	b.phase++
	switch b.phase {
	case b.on:
		b.led.High()
	case b.off:
		b.led.Low()
		b.phase = 0
	}
}
