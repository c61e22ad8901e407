// Package mode holds what the device does with peer-lost events: time
// them, count them or just raise them.
package mode

import "github.com/ystepanoff/gatetimer/display"

// Mode is driven by the scheduler. Callbacks run in the main loop.
type Mode interface {
	Name() string
	// Settings is installed on the display when the mode is selected.
	Settings() *display.Settings
	// Cooldown is the peer-lost debounce, in 10 ms phases.
	Cooldown() uint16
	OnPeerLost()
	OnEvery10ms()
	OnButtonPress()
}

// DefaultCooldown applies to modes without their own.
const DefaultCooldown = 50

var (
	timerSettings = display.NewSettings(
		[4]bool{false, false, false, true},
		[4]bool{false, false, true, false},
	)
	counterSettings = display.NewSettings(
		[4]bool{false, true, true, true},
		[4]bool{},
	)
	alarmSettings = display.NewSettings(
		[4]bool{true, true, true, true},
		[4]bool{true, false, false, false},
	)
)

// Names lists the selectable modes in index order.
var Names = []string{"timer", "counter", "alarm"}

// ByIndex returns the mode at index i of Names, or nil.
func ByIndex(i int, d *display.Display) Mode {
	switch i {
	case 0:
		return NewTimer(d)
	case 1:
		return NewCounter(d)
	case 2:
		return NewAlarm()
	}
	return nil
}

// ByName returns the named mode, or nil.
func ByName(name string, d *display.Display) Mode {
	for i, n := range Names {
		if n == name {
			return ByIndex(i, d)
		}
	}
	return nil
}

// Counter counts peer-lost events. The button clears the count.
type Counter struct {
	d *display.Display
}

func NewCounter(d *display.Display) *Counter { return &Counter{d: d} }

func (*Counter) Name() string                { return "counter" }
func (*Counter) Settings() *display.Settings { return counterSettings }
func (*Counter) Cooldown() uint16            { return 500 }
func (c *Counter) OnPeerLost()               { c.d.IncreaseLow(10, 10) }
func (*Counter) OnEvery10ms()                {}
func (c *Counter) OnButtonPress()            { c.d.Zero() }

// Alarm shows nothing but a point; the peer-lost event itself (relayed over
// the radio) is the point.
type Alarm struct{}

func NewAlarm() *Alarm { return &Alarm{} }

func (*Alarm) Name() string                { return "alarm" }
func (*Alarm) Settings() *display.Settings { return alarmSettings }
func (*Alarm) Cooldown() uint16            { return DefaultCooldown }
func (*Alarm) OnPeerLost()                 {}
func (*Alarm) OnEvery10ms()                {}
func (*Alarm) OnButtonPress()              {}
