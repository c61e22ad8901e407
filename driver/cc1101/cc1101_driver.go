// Package cc1101 drives a TI CC1101 sub-GHz transceiver over a byte bus.
//
// The device is set up for one-byte fixed-length packets with whitening and
// CRC, and for automatic turnaround: after a packet is received the chip
// transmits whatever sits in its TX FIFO, after a transmission it returns to
// receive. GDO2 reports the carrier (sync word to end of packet), GDO0
// reports a received packet with a good CRC.
package cc1101

import (
	"fmt"
	"time"

	"github.com/ystepanoff/gatetimer/hal"
	proto "github.com/ystepanoff/gatetimer/protocol"
)

// Pins are the lines besides the bus. MISO is read while CS is low to wait
// for the chip's ready signal.
type Pins struct {
	CS   hal.OutputPin
	MISO hal.InputPin
	GDO2 hal.InputPin
	GDO0 hal.InputPin
}

// Device is a CC1101 on a bus. It implements transport.RadioDriver.
type Device struct {
	bus  hal.Bus
	pins Pins

	CrystalKHz uint32
	CarrierKHz uint32
	// CalibrationDelay is the wait after each calibration strobe.
	CalibrationDelay time.Duration
}

// New returns a device with the default crystal and carrier.
func New(bus hal.Bus, pins Pins) *Device {
	return &Device{
		bus:              bus,
		pins:             pins,
		CrystalKHz:       proto.CrystalKHz,
		CarrierKHz:       proto.CarrierKHz,
		CalibrationDelay: time.Millisecond,
	}
}

// Configure resets the chip and writes the link configuration.
func (d *Device) Configure() error {
	freq, err := proto.CarrierFrequency(d.CrystalKHz, d.CarrierKHz)
	if err != nil {
		return fmt.Errorf("cc1101: carrier %d kHz on %d kHz crystal: %w", d.CarrierKHz, d.CrystalKHz, err)
	}

	d.Strobe(SRES)
	d.calibrate()

	d.WriteBurst(IOCFG2, gdoSyncWord, gdoHighZ, gdoCRCOK)
	d.WriteBurst(PKTLEN, proto.PacketLength, pktctrl1CRCAutoflush, pktctrl0Whitening|pktctrl0CRC)
	d.WriteBurst(FREQ2, byte(freq>>16), byte(freq>>8), byte(freq))
	d.Write(MDMCFG2, mdmcfg2Manchester|mdmcfg2Sync16of16)
	d.Write(MCSM1, mcsm1Turnaround)

	// recalibrate for the new carrier
	d.calibrate()
	return nil
}

func (d *Device) calibrate() {
	d.Strobe(SCAL)
	if d.CalibrationDelay > 0 {
		time.Sleep(d.CalibrationDelay)
	}
}

// FlushTx idles the chip and empties the TX FIFO.
func (d *Device) FlushTx() {
	d.Strobe(SIDLE)
	d.Strobe(SFTX)
}

// FlushRx idles the chip and empties the RX FIFO.
func (d *Device) FlushRx() {
	d.Strobe(SIDLE)
	d.Strobe(SFRX)
}

func (d *Device) WriteTx(b byte) { d.Write(FIFO, b) }

func (d *Device) StartTx() { d.Strobe(STX) }

func (d *Device) StartRx() { d.Strobe(SRX) }

func (d *Device) Carrier() bool { return d.pins.GDO2.Get() }

func (d *Device) PacketReady() bool { return d.pins.GDO0.Get() }

func (d *Device) ReadRx() byte { return d.Read(FIFO) }

// PartNumber and Version identify the chip (0x00 and 0x14 on current parts).
func (d *Device) PartNumber() byte { return d.Read(PARTNUM | flagBurst) }

func (d *Device) Version() byte { return d.Read(VERSION | flagBurst) }

// Strobe issues a command strobe and returns the chip status byte.
func (d *Device) Strobe(cmd byte) byte {
	d.selectChip()
	status := d.bus.Transceive(cmd)
	d.pins.CS.High()
	return status
}

// Write sets a single register.
func (d *Device) Write(addr, v byte) {
	d.selectChip()
	d.bus.Transceive(addr)
	d.bus.Transceive(v)
	d.pins.CS.High()
}

// WriteBurst sets consecutive registers starting at addr.
func (d *Device) WriteBurst(addr byte, values ...byte) {
	d.selectChip()
	d.bus.Transceive(addr | flagBurst)
	for _, v := range values {
		d.bus.Transceive(v)
	}
	d.pins.CS.High()
}

// Read returns a single register.
func (d *Device) Read(addr byte) byte {
	d.selectChip()
	d.bus.Transceive(addr | flagRead)
	v := d.bus.Transceive(0)
	d.pins.CS.High()
	return v
}

// selectChip pulls CS low and waits for the chip to signal ready on MISO.
func (d *Device) selectChip() {
	d.pins.CS.Low()
	for d.pins.MISO.Get() {
	}
}
