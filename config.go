package gatetimer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ystepanoff/gatetimer/irlink"
	"github.com/ystepanoff/gatetimer/mode"
	"github.com/ystepanoff/gatetimer/power"
	"github.com/ystepanoff/gatetimer/scheduler"
	"github.com/ystepanoff/gatetimer/tick"
	"github.com/ystepanoff/gatetimer/transport"
)

// Config is everything tunable about a device. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	Mode       string        `json:"mode"`
	TickPeriod time.Duration `json:"tick-period"`

	Loop   scheduler.Config `json:"loop"`
	Signal irlink.Config    `json:"signal"`
	Radio  transport.Config `json:"radio"`
	Power  power.Config     `json:"power"`
}

// DefaultConfig returns the stock firmware settings: timer mode on the
// 13.25 us tick.
func DefaultConfig() Config {
	return Config{
		Mode:       mode.Names[0],
		TickPeriod: tick.DefaultPeriod,
		Loop:       scheduler.DefaultConfig(),
		Signal:     irlink.DefaultConfig(),
		Radio:      transport.DefaultConfig(),
		Power:      power.DefaultConfig(),
	}
}

// LoadConfig reads a JSON file over the defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	found := false
	for _, n := range mode.Names {
		found = found || n == c.Mode
	}
	if !found {
		return fmt.Errorf("unknown 'mode' %q", c.Mode)
	}

	if c.Loop.DisplayTicks == 0 || c.Loop.Phase10Ticks == 0 || c.Loop.Phase50Ticks == 0 {
		return errors.New("'loop' thresholds must be positive")
	}

	s := c.Signal
	if s.IdleTimeout == 0 || s.ListenTimeout == 0 {
		return errors.New("'signal' timeouts must be positive")
	}
	if s.Guard < s.Pulse {
		return fmt.Errorf("'signal' guard %d shorter than pulse %d", s.Guard, s.Pulse)
	}
	if s.ListenTimeout <= s.Guard {
		return fmt.Errorf("'signal' listen timeout %d not past guard %d", s.ListenTimeout, s.Guard)
	}
	if s.BrokenThreshold == 0 || s.BrokenThreshold > s.BrokenCeiling {
		return fmt.Errorf("'signal' broken threshold %d outside 1..%d", s.BrokenThreshold, s.BrokenCeiling)
	}

	if c.Radio.MaxRetries < 1 {
		return errors.New("'radio' needs at least one try")
	}
	if c.Radio.AckWindow == 0 || c.Radio.TxWatchdog == 0 {
		return errors.New("'radio' windows must be positive")
	}

	if c.Power.CutoffBelow > c.Power.WarnBelow {
		return fmt.Errorf("'power' cutoff %d above warning %d", c.Power.CutoffBelow, c.Power.WarnBelow)
	}
	if c.Power.HoldPhases == 0 {
		return errors.New("'power' hold time must be positive")
	}
	return nil
}
