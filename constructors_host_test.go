//go:build !tinygo && !baremetal

package gatetimer

import (
	"errors"
	"io"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/ystepanoff/gatetimer/driver/periph"
)

// haltPin counts releases.
type haltPin struct {
	*gpiotest.Pin
	halted int
}

func (p *haltPin) Halt() error {
	p.halted++
	return nil
}

type closePort struct {
	*spitest.RecordRaw
	closed int
}

func (p *closePort) Close() error {
	p.closed++
	return nil
}

type rig struct {
	pins  PeriphPins
	lines map[string]*haltPin
	port  *closePort
}

// newRig registers a full set of lines and a SPI port under names unique to
// prefix.
func newRig(t *testing.T, prefix string) *rig {
	t.Helper()
	r := &rig{
		pins: PeriphPins{
			Data:    prefix + "_DATA",
			Clock:   prefix + "_CLK",
			Latch:   prefix + "_LATCH",
			SenseA:  prefix + "_SENSE_A",
			SenseB:  prefix + "_SENSE_B",
			Confirm: prefix + "_CONFIRM",
			EmitA:   prefix + "_EMIT_A",
			EmitB:   prefix + "_EMIT_B",
			Button:  prefix + "_BUTTON",
			LED:     prefix + "_LED",
			Power:   prefix + "_POWER",
			SPI:     prefix + "_SPI",
			CS:      prefix + "_CS",
			GDO0:    prefix + "_GDO0",
			GDO2:    prefix + "_GDO2",
		},
		lines: map[string]*haltPin{},
		port:  &closePort{RecordRaw: spitest.NewRecordRaw(io.Discard)},
	}
	names := []string{
		r.pins.Data, r.pins.Clock, r.pins.Latch,
		r.pins.SenseA, r.pins.SenseB, r.pins.Confirm,
		r.pins.EmitA, r.pins.EmitB,
		r.pins.Button, r.pins.LED, r.pins.Power,
		r.pins.CS, r.pins.GDO0, r.pins.GDO2,
	}
	for i, name := range names {
		p := &haltPin{Pin: &gpiotest.Pin{N: name, Num: 900 + i}}
		if err := gpioreg.Register(p); err != nil {
			t.Fatalf("gpioreg.Register(%s) error = %v", name, err)
		}
		name := name
		t.Cleanup(func() { _ = gpioreg.Unregister(name) })
		r.lines[name] = p
	}
	opener := func() (spi.PortCloser, error) { return r.port, nil }
	if err := spireg.Register(r.pins.SPI, nil, -1, opener); err != nil {
		t.Fatalf("spireg.Register() error = %v", err)
	}
	t.Cleanup(func() { _ = spireg.Unregister(r.pins.SPI) })
	return r
}

func (r *rig) halted() (n int) {
	for _, p := range r.lines {
		n += p.halted
	}
	return n
}

func TestOpenPeriph(t *testing.T) {
	r := newRig(t, "GT_OK")
	b, err := openPeriph(r.pins, DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("openPeriph() error = %v", err)
	}
	if b.Radio == nil {
		t.Error("board built without a radio")
	}
	if r.port.closed != 0 || r.halted() != 0 {
		t.Errorf("released %d lines and closed the port %d times on success", r.halted(), r.port.closed)
	}
	if r.lines[r.pins.CS].L != gpio.High {
		t.Error("chip select left asserted")
	}
}

func TestOpenPeriphReleasesOnError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PeriphPins, *Config)
		want   error
		lines  int // lines opened before the failure
	}{
		{
			name:   "missing emitter",
			mutate: func(p *PeriphPins, _ *Config) { p.EmitB = "GT_NOWHERE" },
			want:   periph.ErrNoPin,
			lines:  13,
		},
		{
			name:   "missing chip select",
			mutate: func(p *PeriphPins, _ *Config) { p.CS = "GT_NOWHERE" },
			want:   periph.ErrNoPin,
			lines:  13,
		},
		{
			name:   "invalid config",
			mutate: func(_ *PeriphPins, c *Config) { c.Mode = "sundial" },
			lines:  14,
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, "GT_FAIL"+string(rune('A'+i)))
			cfg := DefaultConfig()
			tt.mutate(&r.pins, &cfg)

			b, err := openPeriph(r.pins, cfg, quietLogger())
			if err == nil {
				t.Fatalf("openPeriph() = %v, want an error", b)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("openPeriph() error = %v, want %v", err, tt.want)
			}
			if r.port.closed != 1 {
				t.Errorf("port closed %d times, want 1", r.port.closed)
			}
			if got := r.halted(); got != tt.lines {
				t.Errorf("released %d lines, want %d", got, tt.lines)
			}
			for name, p := range r.lines {
				if p.halted > 1 {
					t.Errorf("%s released %d times", name, p.halted)
				}
			}
		})
	}
}
