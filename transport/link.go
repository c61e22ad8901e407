package transport

import (
	"github.com/sirupsen/logrus"

	proto "github.com/ystepanoff/gatetimer/protocol"
	"github.com/ystepanoff/gatetimer/tick"
)

// State is the position of the link's send state machine.
type State uint8

const (
	StateIdle State = iota
	StateTxStart
	StateWaitCarrier
	StateWaitCarrierEnd
	StateWaitAck
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTxStart:
		return "tx-start"
	case StateWaitCarrier:
		return "wait-carrier"
	case StateWaitCarrierEnd:
		return "wait-carrier-end"
	case StateWaitAck:
		return "wait-ack"
	}
	return "unknown"
}

// Config holds the link's retry and timing limits.
type Config struct {
	MaxRetries      int    `json:"max-retries"`
	FailureCeiling  int    `json:"failure-ceiling"`
	AckWindow       uint32 `json:"ack-window"`
	TxWatchdog      uint32 `json:"tx-watchdog"`
	HeartbeatPhases uint16 `json:"heartbeat-phases"`
}

// DefaultConfig returns the limits for the default tick rate.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      proto.MaxRetries,
		FailureCeiling:  proto.FailureCeiling,
		AckWindow:       proto.AckWindow,
		TxWatchdog:      proto.TxWatchdog,
		HeartbeatPhases: proto.HeartbeatPhases,
	}
}

// SendTicks bounds how long one send can stay in flight: each attempt may
// spend the tx watchdog waiting for the carrier to rise, again waiting for it
// to drop, and the whole ack window.
func (c Config) SendTicks() uint32 {
	if c.MaxRetries <= 0 {
		return 0
	}
	return uint32(c.MaxRetries) * (2*c.TxWatchdog + c.AckWindow)
}

// Link sends event packets to the link partner and waits for its ack,
// retrying a bounded number of times. It never blocks: Step advances the
// state machine by at most one transition.
type Link struct {
	cfg    Config
	driver RadioDriver
	ticks  *tick.Counter
	log    logrus.FieldLogger

	state    State
	seq      uint8
	packet   proto.Packet
	retries  int
	failures int
	idle     uint16

	// OnAck is called with every ack received.
	OnAck func(proto.Ack)
}

// NewLinkWithDriver returns an idle link. ticks is the link's own elapsed
// tick counter; the link resets it as it sees fit.
func NewLinkWithDriver(d RadioDriver, ticks *tick.Counter, cfg Config, log logrus.FieldLogger) *Link {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Link{
		cfg:    cfg,
		driver: d,
		ticks:  ticks,
		log:    log.WithField("component", "radio"),
	}
}

// Initialise configures the transceiver and leaves it listening.
func (l *Link) Initialise() error {
	if err := l.driver.Configure(); err != nil {
		return err
	}
	l.driver.StartRx()
	return nil
}

// State returns the current state.
func (l *Link) State() State { return l.state }

// Failures returns the number of sends that exhausted their retries since
// the last ack.
func (l *Link) Failures() int { return l.failures }

// Retries returns the attempts left for the packet in flight.
func (l *Link) Retries() int { return l.retries }

// SendPacket starts sending an event packet. It fails with ErrBusy while a
// previous packet is still in flight. Every attempt restarts the watchdog,
// so the send as a whole settles within cfg.SendTicks.
func (l *Link) SendPacket(button, signal bool) error {
	if l.state != StateIdle {
		return proto.ErrBusy
	}
	l.packet = proto.Packet{Button: button, Signal: signal, Seq: l.seq}
	l.seq = (l.seq + 1) & proto.SeqMask
	l.retries = l.cfg.MaxRetries
	l.idle = 0
	l.ticks.Reset()
	l.state = StateTxStart
	return nil
}

// Tick50ms advances the idle heartbeat timer. When the link has been idle
// for HeartbeatPhases it sends an empty packet and reports true.
func (l *Link) Tick50ms() bool {
	if l.state != StateIdle || l.cfg.HeartbeatPhases == 0 {
		return false
	}
	l.idle++
	if l.idle < l.cfg.HeartbeatPhases {
		return false
	}
	if err := l.SendPacket(false, false); err != nil {
		return false
	}
	l.log.WithField("seq", l.packet.Seq).Debug("heartbeat")
	return true
}

// Step advances the send state machine once. It returns ErrLinkDown when a
// send exhausts its retries and the failure count exceeds FailureCeiling.
func (l *Link) Step() error {
	switch l.state {
	case StateTxStart:
		l.driver.FlushTx()
		l.driver.WriteTx(l.packet.Encode())
		l.driver.StartTx()
		l.ticks.Reset()
		l.state = StateWaitCarrier
	case StateWaitCarrier:
		if l.driver.Carrier() {
			l.ticks.Reset()
			l.state = StateWaitCarrierEnd
		} else if l.ticks.Load() >= l.cfg.TxWatchdog {
			return l.missed()
		}
	case StateWaitCarrierEnd:
		if !l.driver.Carrier() {
			l.ticks.Reset()
			l.state = StateWaitAck
		} else if l.ticks.Load() >= l.cfg.TxWatchdog {
			return l.missed()
		}
	case StateWaitAck:
		if l.driver.PacketReady() {
			ack := proto.DecodeAck(l.driver.ReadRx())
			l.failures = 0
			l.state = StateIdle
			if l.OnAck != nil {
				l.OnAck(ack)
			}
		} else if l.ticks.Load() >= l.cfg.AckWindow {
			return l.missed()
		}
	}
	return nil
}

func (l *Link) missed() error {
	l.retries--
	if l.retries > 0 {
		l.driver.StartTx()
		l.ticks.Reset()
		l.state = StateWaitCarrier
		return nil
	}

	l.state = StateIdle
	l.failures++
	l.log.WithFields(logrus.Fields{
		"seq":      l.packet.Seq,
		"failures": l.failures,
	}).Warn("no ack, retries exhausted")
	if l.failures > l.cfg.FailureCeiling {
		return proto.ErrLinkDown
	}
	return nil
}
