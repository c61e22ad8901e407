// Package scheduler is the firmware main loop. One Step polls every state
// machine once; nothing in it blocks except the button waits at startup and
// shutdown.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ystepanoff/gatetimer/display"
	"github.com/ystepanoff/gatetimer/hal"
	"github.com/ystepanoff/gatetimer/irlink"
	"github.com/ystepanoff/gatetimer/mode"
	"github.com/ystepanoff/gatetimer/power"
	proto "github.com/ystepanoff/gatetimer/protocol"
	"github.com/ystepanoff/gatetimer/tick"
	"github.com/ystepanoff/gatetimer/transport"
)

// ErrHalted is returned once the device has shut down.
var ErrHalted = errors.New("device halted")

// Shutdown reasons.
const (
	ReasonButton   = "power button held"
	ReasonBattery  = "battery cutoff"
	ReasonLinkDown = "radio link down"
	ReasonStopped  = "stopped"
)

// Config holds the tick thresholds of the loop phases.
type Config struct {
	DisplayTicks uint32 `json:"display-ticks"`
	Phase10Ticks uint32 `json:"phase10-ticks"`
	Phase50Ticks uint32 `json:"phase50-ticks"`
}

func DefaultConfig() Config {
	return Config{
		DisplayTicks: tick.Ticks1ms,
		Phase10Ticks: tick.Ticks10ms,
		Phase50Ticks: tick.Ticks50ms,
	}
}

// Parts are the long-lived components the loop drives. Radio may be nil on
// boards without a transceiver.
type Parts struct {
	Clock   *tick.Clock
	Display *display.Display
	Signal  *irlink.Link
	Radio   *transport.Link
	Monitor *power.Monitor
	Button  *power.Button
	Blinker *power.Blinker

	LED   hal.OutputPin
	Power hal.OutputPin // soft-power latch, high keeps the device on
	// Emitters are forced off on shutdown.
	Emitters []hal.OutputPin

	Mode mode.Mode
}

// Scheduler owns the main loop and the shutdown sequence.
type Scheduler struct {
	Parts
	cfg Config
	log logrus.FieldLogger

	pendingButton bool
	pendingSignal bool
	warned        bool
	connected     bool

	halted atomic.Bool
	reason atomic.Value
	next   atomic.Pointer[modeRequest]

	// OnShutdown is called once, after outputs are safe and the power latch
	// is released.
	OnShutdown func(reason string)
}

func New(p Parts, cfg Config, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Scheduler{
		Parts: p,
		cfg:   cfg,
		log:   log.WithField("component", "scheduler"),
	}
	if s.Radio != nil {
		s.Radio.OnAck = s.applyAck
	}
	return s
}

// Startup latches power, waits for the power button to be let go and brings
// up the radio. It must run before the first Step.
func (s *Scheduler) Startup() error {
	s.Power.High()
	s.Button.WaitRelease()
	s.LED.High()

	if s.Radio != nil {
		if err := s.Radio.Initialise(); err != nil {
			return fmt.Errorf("scheduler: radio: %w", err)
		}
	}
	s.SetMode(s.Mode)
	s.Clock.Enable()
	s.log.WithField("mode", s.Mode.Name()).Info("started")
	return nil
}

type modeRequest struct{ m mode.Mode }

// RequestMode asks the loop to install m at the start of its next Step. It is
// safe to call while Run is going; a later request replaces an earlier one
// not yet applied.
func (s *Scheduler) RequestMode(m mode.Mode) {
	s.next.Store(&modeRequest{m: m})
}

// PendingMode reports whether a requested mode has not been installed yet.
func (s *Scheduler) PendingMode() bool { return s.next.Load() != nil }

// SetMode installs m: its display settings and its peer-lost cooldown. It
// must not race with Step; use RequestMode from other goroutines.
func (s *Scheduler) SetMode(m mode.Mode) {
	s.Mode = m
	s.Display.Install(m.Settings())
	s.Display.Zero()
	s.Signal.SetCooldown(m.Cooldown())
}

// Halted reports whether the device has shut down.
func (s *Scheduler) Halted() bool { return s.halted.Load() }

// Reason returns why the device shut down, or "".
func (s *Scheduler) Reason() string {
	r, _ := s.reason.Load().(string)
	return r
}

// Run steps the loop until the device halts or ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
		runtime.Gosched()
	}
}

// Step runs one loop iteration.
func (s *Scheduler) Step() error {
	if s.Halted() {
		return ErrHalted
	}
	if r := s.next.Swap(nil); r != nil {
		s.SetMode(r.m)
		s.log.WithField("mode", r.m.Name()).Info("mode changed")
	}

	switch s.Signal.Step() {
	case irlink.EventPeerLost:
		s.connected = false
		s.log.WithField("broken", s.Signal.Broken()).Info("peer lost")
		s.Mode.OnPeerLost()
		s.pendingSignal = true
	case irlink.EventConnected:
		if !s.connected {
			s.connected = true
			s.log.Info("peer connected")
		}
	}

	if s.Radio != nil {
		s.flushRadio()
		if err := s.Radio.Step(); errors.Is(err, proto.ErrLinkDown) {
			s.Shutdown(ReasonLinkDown)
			return ErrHalted
		}
	}

	if s.Clock.Display.Elapsed(s.cfg.DisplayTicks) {
		s.Display.Advance()
	}

	if s.Clock.Phase10.Elapsed(s.cfg.Phase10Ticks) {
		s.Mode.OnEvery10ms()
		s.Signal.TickCooldown()
	}

	if s.Clock.Phase50.Elapsed(s.cfg.Phase50Ticks) {
		return s.phase50()
	}
	return nil
}

func (s *Scheduler) phase50() error {
	s.Display.Recompute()

	warning := s.Monitor.Warning()
	if warning && !s.warned {
		s.warned = true
		s.log.WithField("raw", s.Monitor.Last()).Warn("battery low")
	}
	s.Blinker.Tick50ms(warning)
	s.Monitor.Tick50ms()

	press, hold := s.Button.Tick50ms()
	if press {
		s.Mode.OnButtonPress()
		s.pendingButton = true
	}
	if s.Radio != nil {
		s.Radio.Tick50ms()
	}

	switch {
	case hold:
		s.Shutdown(ReasonButton)
		return ErrHalted
	case s.Monitor.Cutoff():
		s.Shutdown(ReasonBattery)
		return ErrHalted
	}
	return nil
}

// flushRadio sends queued events once the link is free.
func (s *Scheduler) flushRadio() {
	if !s.pendingButton && !s.pendingSignal {
		return
	}
	if s.Radio.SendPacket(s.pendingButton, s.pendingSignal) == nil {
		s.pendingButton, s.pendingSignal = false, false
	}
}

func (s *Scheduler) applyAck(a proto.Ack) {
	if a.BrokenThreshold > 0 {
		s.Signal.SetThreshold(a.BrokenThreshold)
	}
	if a.Cooldown > 0 {
		s.Signal.SetCooldown(a.Cooldown)
	}
	s.log.WithFields(logrus.Fields{
		"threshold": s.Signal.Threshold(),
		"cooldown":  s.Signal.Cooldown(),
	}).Debug("ack")
}

// Shutdown stops the tick, blanks every output, waits for the button to be
// released and drops the power latch. Only the first call has any effect.
func (s *Scheduler) Shutdown(reason string) {
	if s.halted.Swap(true) {
		return
	}
	s.reason.Store(reason)
	s.Clock.Disable()

	s.Display.TurnOff()
	s.LED.Low()
	for _, e := range s.Emitters {
		e.Low()
	}

	s.Button.WaitRelease()
	s.Power.Low()

	s.log.WithField("reason", reason).Warn("shutdown")
	if s.OnShutdown != nil {
		s.OnShutdown(reason)
	}
}
