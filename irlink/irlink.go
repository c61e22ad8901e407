// Package irlink implements the infrared presence protocol shared with the
// peer device.
//
// The peer opens each cycle with a short low pulse on our sense line. We
// answer with a pulse of our own after a fixed delay, the peer answers on the
// second channel, we answer again, and a final confirm pulse closes the
// cycle. Every wait for the peer has a timeout; a timeout counts one broken
// cycle and restarts from idle. Enough consecutive broken cycles mean the
// beam between the devices is interrupted (the peer is lost).
package irlink

import (
	"github.com/ystepanoff/gatetimer/hal"
	"github.com/ystepanoff/gatetimer/tick"
)

// State is a position in the pulse-train protocol.
type State uint8

const (
	StateIdle          State = iota // wait for the peer's start pulse on channel A
	StateStartA                     // wait for the end of that pulse
	StateDelayA                     // hold before answering
	StateEmitA                      // emitting our pulse on channel A
	StateGuardA                     // let the lines settle
	StateListenB                    // wait for the peer's pulse on channel B
	StateStartB                     // wait for the end of that pulse
	StateDelayB                     // hold before answering
	StateEmitB                      // emitting our pulse on channel B
	StateGuardB                     // let the lines settle
	StateListenConfirm              // wait for the confirm pulse
	StateConfirm                    // wait for the end of the confirm pulse
	StateSettle                     // quiet time before the next cycle
	StateBroken                     // a wait timed out
)

var stateNames = [...]string{
	"idle", "start-a", "delay-a", "emit-a", "guard-a",
	"listen-b", "start-b", "delay-b", "emit-b", "guard-b",
	"listen-confirm", "confirm", "settle", "broken",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Event is what a Step reports to the caller.
type Event uint8

const (
	EventNone      Event = iota
	EventConnected       // a full cycle completed, the peer is present
	EventPeerLost        // broken cycles reached the threshold
)

// Config holds protocol timings (in ticks) and loss detection limits.
type Config struct {
	IdleTimeout   uint32 `json:"idle-timeout"`
	Delay         uint32 `json:"delay"`
	Pulse         uint32 `json:"pulse"`
	Guard         uint32 `json:"guard"`
	ListenTimeout uint32 `json:"listen-timeout"`
	Settle        uint32 `json:"settle"`

	BrokenCeiling   uint8  `json:"broken-ceiling"`
	BrokenThreshold uint8  `json:"broken-threshold"`
	Cooldown        uint16 `json:"cooldown"`
}

// DefaultConfig returns the timings for the default tick rate.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     85,
		Delay:           24,
		Pulse:           20,
		Guard:           64,
		ListenTimeout:   130,
		Settle:          18,
		BrokenCeiling:   100,
		BrokenThreshold: 3,
		Cooldown:        150,
	}
}

// Pins are the lines the link uses. Sense lines are active low (IR
// receivers idle high). A nil SenseB makes a single-channel link, a nil
// Confirm ends the cycle after the last guard, nil emitters make the link
// detect-only.
type Pins struct {
	SenseA  hal.InputPin
	SenseB  hal.InputPin
	Confirm hal.InputPin
	EmitA   hal.OutputPin
	EmitB   hal.OutputPin
}

// Link is the protocol state machine. It owns its tick counter: nothing else
// may reset it.
type Link struct {
	cfg   Config
	pins  Pins
	ticks *tick.Counter

	state     State
	broken    uint8
	threshold uint8
	cooldown  uint16
	delay     uint16
	connected bool
	reported  bool // peer lost already raised for this run of broken cycles
}

// New returns an idle link.
func New(pins Pins, ticks *tick.Counter, cfg Config) *Link {
	l := &Link{
		cfg:      cfg,
		pins:     pins,
		ticks:    ticks,
		cooldown: cfg.Cooldown,
	}
	l.SetThreshold(cfg.BrokenThreshold)
	l.Reset()
	return l
}

// Reset stops any emission and re-arms from idle. The broken counter and
// cooldown are kept.
func (l *Link) Reset() {
	emit(l.pins.EmitA, false)
	emit(l.pins.EmitB, false)
	l.state = StateIdle
	l.ticks.Reset()
}

// State returns the current protocol state.
func (l *Link) State() State { return l.state }

// Broken returns the consecutive broken cycle count.
func (l *Link) Broken() uint8 { return l.broken }

// Connected reports whether the last completed cycle succeeded and the peer
// has not been declared lost since.
func (l *Link) Connected() bool { return l.connected }

// SetThreshold replaces the number of broken cycles that mean peer lost.
// Zero is ignored; values past the broken ceiling are clamped to it, since
// the count never goes higher.
func (l *Link) SetThreshold(n uint8) {
	if n == 0 {
		return
	}
	if n > l.cfg.BrokenCeiling {
		n = l.cfg.BrokenCeiling
	}
	l.threshold = n
}

// Threshold returns the active broken threshold.
func (l *Link) Threshold() uint8 { return l.threshold }

// SetCooldown replaces the peer-lost debounce, in 10 ms phases.
func (l *Link) SetCooldown(phases uint16) { l.cooldown = phases }

// Cooldown returns the active peer-lost debounce.
func (l *Link) Cooldown() uint16 { return l.cooldown }

// TickCooldown counts down the peer-lost debounce. Call every 10 ms.
func (l *Link) TickCooldown() {
	if l.delay > 0 {
		l.delay--
	}
}

// Step advances the protocol by at most one transition and reports the
// resulting event. It never blocks.
func (l *Link) Step() Event {
	ev := l.advance()

	if l.broken == l.threshold && l.delay == 0 && !l.reported {
		// reported once per run of broken cycles; a completed cycle
		// re-arms it
		l.reported = true
		l.delay = l.cooldown
		l.connected = false
		return EventPeerLost
	}
	return ev
}

func (l *Link) advance() Event {
	n := l.ticks.Load()
	switch l.state {
	case StateIdle:
		if !l.pins.SenseA.Get() {
			l.state = StateStartA
		} else if n >= l.cfg.IdleTimeout {
			l.state = StateBroken
		}
	case StateStartA:
		if l.pins.SenseA.Get() {
			l.ticks.Reset()
			l.state = StateDelayA
		}
	case StateDelayA:
		if n >= l.cfg.Delay {
			emit(l.pins.EmitA, true)
			l.ticks.Reset()
			l.state = StateEmitA
		}
	case StateEmitA:
		if n >= l.cfg.Pulse {
			emit(l.pins.EmitA, false)
			l.state = StateGuardA
		}
	case StateGuardA:
		if n >= l.cfg.Guard {
			switch {
			case l.pins.SenseB != nil:
				l.state = StateListenB
			case l.pins.Confirm != nil:
				l.state = StateListenConfirm
			default:
				return l.complete()
			}
		}
	case StateListenB:
		if !l.pins.SenseB.Get() {
			l.state = StateStartB
		} else if n >= l.cfg.ListenTimeout {
			l.state = StateBroken
		}
	case StateStartB:
		if l.pins.SenseB.Get() {
			l.ticks.Reset()
			l.state = StateDelayB
		}
	case StateDelayB:
		if n >= l.cfg.Delay {
			emit(l.pins.EmitB, true)
			l.ticks.Reset()
			l.state = StateEmitB
		}
	case StateEmitB:
		if n >= l.cfg.Pulse {
			// The confirm window is measured from the end of our last
			// pulse, not its start.
			emit(l.pins.EmitB, false)
			l.ticks.Reset()
			l.state = StateGuardB
		}
	case StateGuardB:
		if n >= l.cfg.Guard {
			if l.pins.Confirm == nil {
				return l.complete()
			}
			l.state = StateListenConfirm
		}
	case StateListenConfirm:
		if !l.pins.Confirm.Get() {
			l.state = StateConfirm
			l.broken = 0
			l.reported = false
			l.connected = true
			return EventConnected
		} else if n >= l.cfg.ListenTimeout {
			l.state = StateBroken
		}
	case StateConfirm:
		if l.pins.Confirm.Get() {
			l.ticks.Reset()
			l.state = StateSettle
		}
	case StateSettle:
		if n >= l.cfg.Settle {
			l.state = StateIdle
		}
	case StateBroken:
		if l.broken < l.cfg.BrokenCeiling {
			l.broken++
		}
		l.Reset()
	}
	return EventNone
}

func (l *Link) complete() Event {
	l.broken = 0
	l.reported = false
	l.connected = true
	l.ticks.Reset()
	l.state = StateSettle
	return EventConnected
}

func emit(p hal.OutputPin, on bool) {
	if p != nil {
		hal.Set(p, on)
	}
}
