//go:build tinygo || baremetal

package main

import (
	"machine"
	"time"

	"github.com/ystepanoff/gatetimer/driver/cc1101"
	"github.com/ystepanoff/gatetimer/driver/mcu"
	proto "github.com/ystepanoff/gatetimer/protocol"
)

// answered with every packet
var ack = proto.Ack{BrokenThreshold: 4, Cooldown: 100}

func main() {
	radio := setupRadio()
	arm(radio)

	for {
		if !radio.PacketReady() {
			continue
		}
		p := proto.DecodePacket(radio.ReadRx())
		// the ack went out on its own; load the next one
		arm(radio)

		print("got seq ", p.Seq)
		if p.Button {
			print(" button")
		}
		if p.Signal {
			print(" signal")
		}
		println()
	}
}

func arm(radio *cc1101.Device) {
	radio.FlushTx()
	radio.WriteTx(ack.Encode())
	radio.StartRx()
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
	return radio
}
