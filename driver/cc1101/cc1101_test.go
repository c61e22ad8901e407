package cc1101

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ystepanoff/gatetimer/driver/stub"
	proto "github.com/ystepanoff/gatetimer/protocol"
	"github.com/ystepanoff/gatetimer/transport"
)

var _ transport.RadioDriver = (*Device)(nil)

func newTestDevice(replies ...byte) (*Device, *stub.Bus, Pins) {
	bus := stub.NewBus(replies...)
	pins := Pins{
		CS:   stub.NewPin("cs", true),
		MISO: stub.NewPin("miso", false),
		GDO2: stub.NewPin("gdo2", false),
		GDO0: stub.NewPin("gdo0", false),
	}
	d := New(bus, pins)
	d.CalibrationDelay = 0
	return d, bus, pins
}

func TestConfigure(t *testing.T) {
	d, bus, pins := newTestDevice()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	want := []byte{
		SRES,
		SCAL,
		IOCFG2 | flagBurst, 0x06, 0x2E, 0x07,
		PKTLEN | flagBurst, 0x01, 0x08, 0x44,
		FREQ2 | flagBurst, 0x10, 0x09, 0x7B,
		MDMCFG2, 0x0A,
		MCSM1, 0x0B,
		SCAL,
	}
	if got := bus.Written(); !bytes.Equal(got, want) {
		t.Errorf("bus bytes = % x\nwant       % x", got, want)
	}
	if !pins.CS.(*stub.Pin).Get() {
		t.Error("chip left selected")
	}
	if n := pins.CS.(*stub.Pin).Rises(); n != 8 {
		t.Errorf("transactions = %d, want 8", n)
	}
}

func TestConfigureBadFrequency(t *testing.T) {
	d, bus, _ := newTestDevice()
	d.CrystalKHz = 0
	err := d.Configure()
	if !errors.Is(err, proto.ErrInvalidChannel) {
		t.Fatalf("Configure() error = %v, want %v", err, proto.ErrInvalidChannel)
	}
	if len(bus.Written()) != 0 {
		t.Error("bus touched before the configuration was validated")
	}
}

func TestRadioDriverCommands(t *testing.T) {
	tests := []struct {
		name string
		run  func(d *Device)
		want []byte
	}{
		{"flush tx", func(d *Device) { d.FlushTx() }, []byte{SIDLE, SFTX}},
		{"flush rx", func(d *Device) { d.FlushRx() }, []byte{SIDLE, SFRX}},
		{"write tx", func(d *Device) { d.WriteTx(0xC1) }, []byte{FIFO, 0xC1}},
		{"start tx", func(d *Device) { d.StartTx() }, []byte{STX}},
		{"start rx", func(d *Device) { d.StartRx() }, []byte{SRX}},
		{"read rx", func(d *Device) { d.ReadRx() }, []byte{FIFO | flagRead, 0}},
		{"version", func(d *Device) { d.Version() }, []byte{VERSION | flagBurst | flagRead, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, bus, _ := newTestDevice()
			tt.run(d)
			if got := bus.Written(); !bytes.Equal(got, tt.want) {
				t.Errorf("bus bytes = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestReadRx(t *testing.T) {
	d, _, _ := newTestDevice(0x0F, 0x53)
	if got := d.ReadRx(); got != 0x53 {
		t.Errorf("ReadRx() = %#02x, want 0x53", got)
	}
}

func TestStatusLines(t *testing.T) {
	d, _, pins := newTestDevice()
	if d.Carrier() || d.PacketReady() {
		t.Fatal("status lines asserted at rest")
	}
	pins.GDO2.(*stub.Pin).Set(true)
	pins.GDO0.(*stub.Pin).Set(true)
	if !d.Carrier() || !d.PacketReady() {
		t.Error("status lines not followed")
	}
}
