package gatetimer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ystepanoff/gatetimer/display"
	"github.com/ystepanoff/gatetimer/hal"
	"github.com/ystepanoff/gatetimer/irlink"
	"github.com/ystepanoff/gatetimer/mode"
	"github.com/ystepanoff/gatetimer/power"
	"github.com/ystepanoff/gatetimer/scheduler"
	"github.com/ystepanoff/gatetimer/tick"
	"github.com/ystepanoff/gatetimer/transport"
)

// Hardware is what a board is made of. Radio and ADC may be nil.
type Hardware struct {
	// Display shift register chain
	Data, Clock, Latch hal.OutputPin

	Signal irlink.Pins
	Radio  transport.RadioDriver
	ADC    hal.ADC

	Button hal.InputPin
	LED    hal.OutputPin
	Power  hal.OutputPin
}

// Sampler is an ADC that delivers its results through a callback.
type Sampler interface {
	Bind(sink func(raw uint16))
}

// Board is an assembled device.
type Board struct {
	Clock     *tick.Clock
	Display   *display.Display
	Signal    *irlink.Link
	Radio     *transport.Link
	Monitor   *power.Monitor
	Scheduler *scheduler.Scheduler

	cfg Config
	log logrus.FieldLogger
}

// New wires hw into a device running cfg.
func New(hw Hardware, cfg Config, log logrus.FieldLogger) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gatetimer: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	b := &Board{
		Clock: &tick.Clock{},
		cfg:   cfg,
		log:   log,
	}
	b.Display = display.New(hw.Data, hw.Clock, hw.Latch)
	b.Signal = irlink.New(hw.Signal, &b.Clock.Signal, cfg.Signal)
	if hw.Radio != nil {
		b.Radio = transport.NewLinkWithDriver(hw.Radio, &b.Clock.Radio, cfg.Radio, log)
	}
	b.Monitor = power.NewMonitor(hw.ADC, cfg.Power)
	if s, ok := hw.ADC.(Sampler); ok {
		s.Bind(b.Monitor.Sample)
	}

	var emitters []hal.OutputPin
	for _, e := range []hal.OutputPin{hw.Signal.EmitA, hw.Signal.EmitB} {
		if e != nil {
			emitters = append(emitters, e)
		}
	}

	b.Scheduler = scheduler.New(scheduler.Parts{
		Clock:    b.Clock,
		Display:  b.Display,
		Signal:   b.Signal,
		Radio:    b.Radio,
		Monitor:  b.Monitor,
		Button:   power.NewButton(hw.Button, cfg.Power),
		Blinker:  power.NewBlinker(hw.LED, cfg.Power),
		LED:      hw.LED,
		Power:    hw.Power,
		Emitters: emitters,
		Mode:     mode.ByName(cfg.Mode, b.Display),
	}, cfg.Loop, log)
	return b, nil
}

// Config returns the configuration the board was built with.
func (b *Board) Config() Config { return b.cfg }

// Run starts the device and drives it from a real-time tick until it shuts
// down or ctx is done. A cancelled board is shut down like a halted one.
func (b *Board) Run(ctx context.Context) error {
	if err := b.Scheduler.Startup(); err != nil {
		return err
	}
	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.Clock.Run(tickCtx, b.cfg.TickPeriod)

	err := b.Scheduler.Run(ctx)
	if ctx.Err() != nil {
		b.Scheduler.Shutdown(scheduler.ReasonStopped)
	}
	return err
}

// Start runs the startup sequence without starting the tick. Use Step to
// drive the board in virtual time.
func (b *Board) Start() error { return b.Scheduler.Startup() }

// Step fires the tick once and runs one loop iteration.
func (b *Board) Step() error {
	b.Clock.Fire()
	return b.Scheduler.Step()
}
