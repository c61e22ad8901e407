//go:build !tinygo && !baremetal

package stub

import (
	"sync/atomic"

	"github.com/ystepanoff/gatetimer/hal"
)

// Pin is an in-memory GPIO line. Inputs are scripted with Set; outputs are
// inspected with Get and Rises.
type Pin struct {
	Name  string
	level atomic.Bool
	rises atomic.Uint32
}

// NewPin returns a pin at the given idle level.
func NewPin(name string, level bool) *Pin {
	p := &Pin{Name: name}
	p.level.Store(level)
	return p
}

func (p *Pin) High() {
	if !p.level.Swap(true) {
		p.rises.Add(1)
	}
}

func (p *Pin) Low() { p.level.Store(false) }

func (p *Pin) Get() bool { return p.level.Load() }

// Set drives the pin from the outside (a scripted input).
func (p *Pin) Set(level bool) {
	if level {
		p.High()
	} else {
		p.Low()
	}
}

// Rises returns the number of low-to-high transitions seen.
func (p *Pin) Rises() int { return int(p.rises.Load()) }

// ShiftChain models a chain of serial-in, parallel-out shift registers with
// a storage latch, as driven by the display.
type ShiftChain struct {
	Width int

	data  *Pin
	clock *edgePin
	latch *edgePin
	shift uint64
	count int

	latched uint64
	latches int
}

// NewShiftChain returns a chain holding width bits.
func NewShiftChain(width int) *ShiftChain {
	s := &ShiftChain{Width: width, data: NewPin("data", false)}
	s.clock = &edgePin{rise: s.clockRise}
	s.latch = &edgePin{rise: s.latchRise}
	return s
}

// Data returns the serial data input.
func (s *ShiftChain) Data() *Pin { return s.data }

// Clock returns the shift clock input. Data is sampled on the rising edge.
func (s *ShiftChain) Clock() hal.OutputPin { return s.clock }

// Latch returns the storage latch input.
func (s *ShiftChain) Latch() hal.OutputPin { return s.latch }

func (s *ShiftChain) clockRise() {
	// The first bit shifted in ends up at the far end of the chain, so each
	// new bit enters at the top and earlier bits move down.
	s.shift >>= 1
	if s.data.Get() {
		s.shift |= 1 << uint(s.Width-1)
	}
	s.count++
}

func (s *ShiftChain) latchRise() {
	s.latched = s.shift
	s.latches++
}

// Latched returns the bits presented on the parallel outputs, bit i being the
// i-th bit shifted in during the last full scan.
func (s *ShiftChain) Latched() uint64 { return s.latched }

// Latches returns the number of latch pulses seen.
func (s *ShiftChain) Latches() int { return s.latches }

// Clocks returns the number of shift clock pulses seen.
func (s *ShiftChain) Clocks() int { return s.count }

type edgePin struct {
	level bool
	rise  func()
}

func (e *edgePin) High() {
	if !e.level {
		e.level = true
		e.rise()
	}
}

func (e *edgePin) Low() { e.level = false }
