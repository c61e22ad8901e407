package mode

import "github.com/ystepanoff/gatetimer/display"

// Timer is a stopwatch started and stopped by peer-lost events. It shows
// seconds and hundredths up to 59.99, then minutes and seconds.
type Timer struct {
	d       *display.Display
	running bool
	minutes bool
	second  uint8
}

func NewTimer(d *display.Display) *Timer { return &Timer{d: d} }

func (*Timer) Name() string                { return "timer" }
func (*Timer) Settings() *display.Settings { return timerSettings }
func (*Timer) Cooldown() uint16            { return 200 }

// Running reports whether the timer is counting.
func (t *Timer) Running() bool { return t.running }

// OnPeerLost starts the timer from zero, or stops it.
func (t *Timer) OnPeerLost() {
	if t.running {
		t.running = false
		t.minutes = false
		return
	}
	t.running = true
	t.d.Zero()
}

func (t *Timer) OnEvery10ms() {
	if !t.running {
		return
	}
	if t.minutes {
		if t.second == 0 {
			t.second = 100
			t.d.Increase(10, 6)
		}
		t.second--
		return
	}
	if t.d.Increase(10, 10, 10, 6) {
		// one minute, no seconds
		t.d.Set(0, 0, 1, 0)
		t.minutes = true
		t.second = 100
	}
}

// OnButtonPress clears a stopped timer.
func (t *Timer) OnButtonPress() {
	if !t.running {
		t.d.Zero()
	}
}
