// Package gatetimer assembles the light-gate timer firmware from its parts.
package gatetimer

import (
	"fmt"

	"github.com/ystepanoff/gatetimer/irlink"
	"github.com/ystepanoff/gatetimer/mode"
	proto "github.com/ystepanoff/gatetimer/protocol"
	"github.com/ystepanoff/gatetimer/scheduler"
)

// The board constructors are split into build-tag specific files:
// - constructors_tinygo.go - for embedded platforms (//go:build tinygo || baremetal)
// - constructors_host.go - for the simulator and Linux boards (//go:build !tinygo && !baremetal)

// Re-exported types
type (
	Mode        = mode.Mode
	Packet      = proto.Packet
	Ack         = proto.Ack
	SignalState = irlink.State
)

// Error constants exposed in the public API
var (
	ErrHalted         = scheduler.ErrHalted
	ErrBusy           = proto.ErrBusy
	ErrLinkDown       = proto.ErrLinkDown
	ErrInvalidChannel = proto.ErrInvalidChannel
)

// Shutdown reasons reported by Board.Reason.
const (
	ReasonButton   = scheduler.ReasonButton
	ReasonBattery  = scheduler.ReasonBattery
	ReasonLinkDown = scheduler.ReasonLinkDown
	ReasonStopped  = scheduler.ReasonStopped
)

// Halted reports whether the board has shut down.
func (b *Board) Halted() bool { return b.Scheduler.Halted() }

// Reason returns why the board shut down, or "".
func (b *Board) Reason() string { return b.Scheduler.Reason() }

// SetMode switches the board to the named mode. The switch happens on the
// loop's next iteration, so it may be called while Run is going.
func (b *Board) SetMode(name string) error {
	m := mode.ByName(name, b.Display)
	if m == nil {
		return fmt.Errorf("gatetimer: unknown mode %q", name)
	}
	b.Scheduler.RequestMode(m)
	return nil
}
