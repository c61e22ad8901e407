// Package display drives a four-digit seven-segment display through a chain
// of serial-in shift registers.
//
// The visible frame is rebuilt on a slow cadence (Recompute, every 50 ms) and
// shifted out one bit per fast tick (Advance, every 1 ms). A frame is never
// rebuilt while it is being shifted, so the latched image cannot tear.
package display

import "github.com/ystepanoff/gatetimer/hal"

// Digits holds the displayed value, least significant digit first.
type Digits [4]uint8

// DefaultMax is the carry limit used for positions without an explicit one.
const DefaultMax = 10

// Settings describes how digits are rendered. Settings are treated as
// immutable; modes install a different value instead of editing one.
type Settings struct {
	// Suppress hides a position while it holds zero.
	Suppress [4]bool
	// Point lights the decimal point of a position.
	Point [4]bool
	// Always holds segments lit regardless of digits (decimal points).
	Always Frame
}

// NewSettings builds Settings and precomputes the always-on segments.
func NewSettings(suppress, point [4]bool) *Settings {
	s := &Settings{Suppress: suppress, Point: point}
	for i, on := range point {
		if on {
			s.Always |= pointBits[i]
		}
	}
	return s
}

// blank suppresses every zero and lights no points.
var blank = NewSettings([4]bool{true, true, true, true}, [4]bool{})

// Display owns the digits, the active frame and the scan position.
type Display struct {
	data  hal.OutputPin
	clock hal.OutputPin
	latch hal.OutputPin

	digits   Digits
	settings *Settings
	frame    Frame
	dirty    bool

	// bit is the next bit to shift. FrameWidth means the latch is due,
	// anything above means the scan is complete.
	bit int
}

// New returns an idle display showing zero with every zero suppressed.
func New(data, clock, latch hal.OutputPin) *Display {
	d := &Display{
		data:     data,
		clock:    clock,
		latch:    latch,
		settings: blank,
		bit:      FrameWidth + 1,
	}
	d.Zero()
	return d
}

// Increase adds one to the least significant digit and carries through all
// four positions. maxima[i] is the value at which position i wraps to zero;
// missing entries default to DefaultMax. It reports whether the most
// significant position wrapped.
func (d *Display) Increase(maxima ...uint8) bool {
	d.dirty = true
	for i := range d.digits {
		limit := uint8(DefaultMax)
		if i < len(maxima) {
			limit = maxima[i]
		}
		d.digits[i]++
		if d.digits[i] < limit {
			return false
		}
		d.digits[i] = 0
	}
	return true
}

// IncreaseLow increments the two least significant positions only and
// reports whether position 1 wrapped.
func (d *Display) IncreaseLow(max0, max1 uint8) bool {
	return d.increasePair(0, max0, max1)
}

// IncreaseHigh increments the two most significant positions only and
// reports whether position 3 wrapped.
func (d *Display) IncreaseHigh(max2, max3 uint8) bool {
	return d.increasePair(2, max2, max3)
}

func (d *Display) increasePair(at int, lo, hi uint8) bool {
	d.dirty = true
	d.digits[at]++
	if d.digits[at] < lo {
		return false
	}
	d.digits[at] = 0
	d.digits[at+1]++
	if d.digits[at+1] < hi {
		return false
	}
	d.digits[at+1] = 0
	return true
}

// Zero clears all digits.
func (d *Display) Zero() {
	d.dirty = true
	d.digits = Digits{}
}

// Set assigns the digits as given. Values are not range checked and the
// frame is not marked for rebuild; call Refresh when done.
func (d *Display) Set(d0, d1, d2, d3 uint8) {
	d.digits = Digits{d0, d1, d2, d3}
}

// Refresh requests a frame rebuild on the next Recompute.
func (d *Display) Refresh() { d.dirty = true }

// Install swaps the active settings. They take effect on the next rebuild.
func (d *Display) Install(s *Settings) {
	if s == nil {
		s = blank
	}
	d.settings = s
	d.dirty = true
}

// Digits returns the current digits.
func (d *Display) Digits() Digits { return d.digits }

// Value returns the digits read as a decimal number.
func (d *Display) Value() uint16 {
	return uint16(d.digits[0]) + 10*uint16(d.digits[1]) + 100*uint16(d.digits[2]) + 1000*uint16(d.digits[3])
}

// Frame returns the frame currently being (or last) shifted out.
func (d *Display) Frame() Frame { return d.frame }

// Scanning reports whether a scan is in progress.
func (d *Display) Scanning() bool { return d.bit <= FrameWidth }

// Advance performs one step of the scan: shift the next bit, or pulse the
// latch once every bit is out. It does nothing between scans.
func (d *Display) Advance() {
	switch {
	case d.bit < FrameWidth:
		hal.Set(d.data, d.frame&(1<<uint(d.bit)) != 0)
		d.clock.High()
		d.clock.Low()
		d.bit++
	case d.bit == FrameWidth:
		d.latch.High()
		d.latch.Low()
		d.bit++
	}
}

// Recompute rebuilds the frame from digits and settings and starts a new
// scan. It only acts when something changed and the previous scan finished.
func (d *Display) Recompute() {
	if !d.dirty || d.Scanning() {
		return
	}
	f := d.settings.Always
	for i, v := range d.digits {
		if v == 0 && d.settings.Suppress[i] {
			continue
		}
		f |= Mask(i, v)
	}
	d.frame = f
	d.dirty = false
	d.bit = 0
}

// TurnOff shifts an empty frame out immediately and latches it. Used on
// shutdown only.
func (d *Display) TurnOff() {
	d.data.Low()
	for i := 0; i < FrameWidth; i++ {
		d.clock.High()
		d.clock.Low()
	}
	d.latch.High()
	d.latch.Low()
	d.frame = 0
	d.bit = FrameWidth + 1
}
