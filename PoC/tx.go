//go:build tinygo || baremetal

package main

import (
	"machine"
	"time"

	"github.com/ystepanoff/gatetimer/driver/cc1101"
	"github.com/ystepanoff/gatetimer/driver/mcu"
	proto "github.com/ystepanoff/gatetimer/protocol"
)

var seq uint8

func main() {
	radio := setupRadio()

	for {
		p := proto.Packet{Button: seq&1 == 0, Signal: seq&1 == 1, Seq: seq}

		radio.FlushTx()
		radio.WriteTx(p.Encode())
		radio.StartTx()

		// carrier up, carrier down, then the partner's ack
		if !waitFor(radio.Carrier, true, 50*time.Millisecond) {
			println("no carrier")
		} else if !waitFor(radio.Carrier, false, 50*time.Millisecond) {
			println("carrier stuck")
		} else if !waitFor(radio.PacketReady, true, 10*time.Millisecond) {
			println("sent", p.Seq, "no ack")
		} else {
			a := proto.DecodeAck(radio.ReadRx())
			println("sent", p.Seq, "ack threshold", a.BrokenThreshold, "cooldown", a.Cooldown)
		}

		seq = (seq + 1) & proto.SeqMask
		time.Sleep(1 * time.Second)
	}
}

func waitFor(line func() bool, level bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for line() != level {
		if time.Now().After(deadline) {
			return false
		}
	}
	return true
}

// Pico wiring: SCK=GP18, MOSI=GP19, MISO=GP16, CS=GP17, GDO0=GP20, GDO2=GP21
func setupRadio() *cc1101.Device {
	time.Sleep(2 * time.Second)

	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 4000000,
		Mode:      0,
		SCK:       machine.GP18,
		SDO:       machine.GP19,
		SDI:       machine.GP16,
	})
	if err != nil {
		for {
			println("spi:", err.Error())
			time.Sleep(time.Second)
		}
	}

	cs := mcu.Output(machine.GP17)
	cs.High()
	radio := cc1101.New(mcu.NewBus(machine.SPI0), cc1101.Pins{
		CS:   cs,
		MISO: machine.GP16,
		GDO0: mcu.Input(machine.GP20),
		GDO2: mcu.Input(machine.GP21),
	})
	if err := radio.Configure(); err != nil {
		for {
			println("cc1101:", err.Error())
			time.Sleep(time.Second)
		}
	}
	println("cc1101 part", radio.PartNumber(), "version", radio.Version())
	radio.StartRx()
	return radio
}
