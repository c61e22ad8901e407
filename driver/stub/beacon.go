//go:build !tinygo && !baremetal

package stub

import "sync/atomic"

// Beacon plays the far side of the infrared link: it opens each cycle on
// channel A, answers the device's channel A pulse on channel B and answers
// the channel B pulse with a confirm pulse. Step it once per tick.
type Beacon struct {
	// Lines the device senses.
	SenseA, SenseB, Confirm *Pin

	// Lines the device emits on.
	EmitA, EmitB *Pin

	// Gap is the wait between seeing a pulse end and answering it, Rest the
	// pause between cycles, Timeout how long to wait for an answer.
	Gap, Rest, Timeout int

	// Blocked cuts the beam: neither side sees the other.
	Blocked atomic.Bool

	phase  int
	wait   int
	cycles atomic.Int64
}

func NewBeacon() *Beacon {
	return &Beacon{
		SenseA:  NewPin("sense-a", true),
		SenseB:  NewPin("sense-b", true),
		Confirm: NewPin("confirm", true),
		EmitA:   NewPin("emit-a", false),
		EmitB:   NewPin("emit-b", false),
		Gap:     80,
		Rest:    30,
		Timeout: 400,
	}
}

// Cycles returns the number of confirm pulses sent.
func (b *Beacon) Cycles() int { return int(b.cycles.Load()) }

func (b *Beacon) pulse(p *Pin, low bool) {
	if low && !b.Blocked.Load() {
		p.Low()
	} else {
		p.High()
	}
}

func (b *Beacon) sees(p *Pin) bool { return p.Get() && !b.Blocked.Load() }

// awaiting counts down the answer timeout and restarts the cycle when it
// runs out.
func (b *Beacon) awaiting() {
	if b.wait--; b.wait <= 0 {
		b.wait = b.Rest
		b.phase = 10
	}
}

func (b *Beacon) Step() {
	switch b.phase {
	case 0:
		b.pulse(b.SenseA, true)
		b.wait = b.Timeout
		b.phase++
	case 1:
		b.pulse(b.SenseA, false)
		b.phase++
	case 2:
		if b.sees(b.EmitA) {
			b.phase++
		} else {
			b.awaiting()
		}
	case 3:
		if !b.EmitA.Get() {
			b.wait = b.Gap
			b.phase++
		}
	case 4:
		if b.wait--; b.wait <= 0 {
			b.pulse(b.SenseB, true)
			b.phase++
		}
	case 5:
		b.pulse(b.SenseB, false)
		b.wait = b.Timeout
		b.phase++
	case 6:
		if b.sees(b.EmitB) {
			b.phase++
		} else {
			b.awaiting()
		}
	case 7:
		if !b.EmitB.Get() {
			b.wait = b.Gap
			b.phase++
		}
	case 8:
		if b.wait--; b.wait <= 0 {
			b.pulse(b.Confirm, true)
			b.phase++
		}
	case 9:
		b.pulse(b.Confirm, false)
		if !b.Blocked.Load() {
			b.cycles.Add(1)
		}
		b.wait = b.Rest
		b.phase++
	case 10:
		if b.wait--; b.wait <= 0 {
			b.phase = 0
		}
	}
}
