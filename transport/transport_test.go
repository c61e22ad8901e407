package transport

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ystepanoff/gatetimer/driver/stub"
	proto "github.com/ystepanoff/gatetimer/protocol"
	"github.com/ystepanoff/gatetimer/tick"
)

// MockDriver implements the RadioDriver interface for testing. Every StartTx
// puts the carrier up for one poll; acks are queued with InjectRx.
type MockDriver struct {
	configured bool
	flushes    int
	txLog      []byte
	starts     int
	carrier    int
	rxData     []byte
	noCarrier  bool
	stuck      bool // carrier never drops
}

func (d *MockDriver) Configure() error { d.configured = true; return nil }
func (d *MockDriver) FlushTx()         { d.flushes++ }
func (d *MockDriver) WriteTx(b byte)   { d.txLog = append(d.txLog, b) }
func (d *MockDriver) StartRx()         {}

func (d *MockDriver) StartTx() {
	d.starts++
	if !d.noCarrier {
		d.carrier = 1
	}
}

func (d *MockDriver) Carrier() bool {
	if d.stuck {
		return true
	}
	if d.carrier > 0 {
		d.carrier--
		return true
	}
	return false
}

func (d *MockDriver) PacketReady() bool { return len(d.rxData) > 0 }

func (d *MockDriver) ReadRx() byte {
	if len(d.rxData) == 0 {
		return 0
	}
	b := d.rxData[0]
	d.rxData = d.rxData[1:]
	return b
}

func (d *MockDriver) InjectRx(b byte) { d.rxData = append(d.rxData, b) }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() Config {
	return Config{
		MaxRetries:      3,
		FailureCeiling:  1,
		AckWindow:       5,
		TxWatchdog:      8,
		HeartbeatPhases: 4,
	}
}

// runUntilIdle steps the link, one tick per step, until it is idle again.
func runUntilIdle(t *testing.T, l *Link, ticks *tick.Counter) []error {
	t.Helper()
	var errs []error
	for i := 0; i < 10000; i++ {
		ticks.Inc()
		if err := l.Step(); err != nil {
			errs = append(errs, err)
		}
		if l.State() == StateIdle {
			return errs
		}
	}
	t.Fatal("link never returned to idle")
	return nil
}

func TestLink_AckWithinWindow(t *testing.T) {
	driver := &MockDriver{}
	var ticks tick.Counter
	l := NewLinkWithDriver(driver, &ticks, testConfig(), quietLogger())
	l.failures = 1

	var got []proto.Ack
	l.OnAck = func(a proto.Ack) { got = append(got, a) }

	if err := l.SendPacket(true, false); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}

	// tx-start, carrier up, carrier down, then the ack shows up
	for _, want := range []State{StateWaitCarrier, StateWaitCarrierEnd, StateWaitAck} {
		if err := l.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if l.State() != want {
			t.Fatalf("State() = %v, want %v", l.State(), want)
		}
	}
	driver.InjectRx(proto.Ack{BrokenThreshold: 4, Cooldown: 100}.Encode())
	if err := l.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	if l.State() != StateIdle {
		t.Errorf("State() = %v, want idle", l.State())
	}
	if l.Failures() != 0 {
		t.Errorf("Failures() = %d, want 0", l.Failures())
	}
	if len(driver.txLog) != 1 || driver.txLog[0] != 0x80 {
		t.Errorf("tx FIFO writes = %#v, want [0x80]", driver.txLog)
	}
	if len(got) != 1 || got[0] != (proto.Ack{BrokenThreshold: 4, Cooldown: 100}) {
		t.Errorf("acks = %+v", got)
	}
}

func TestLink_RetriesExhausted(t *testing.T) {
	driver := &MockDriver{}
	var ticks tick.Counter
	cfg := testConfig()
	l := NewLinkWithDriver(driver, &ticks, cfg, quietLogger())

	if err := l.SendPacket(false, true); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}
	if errs := runUntilIdle(t, l, &ticks); len(errs) != 0 {
		t.Fatalf("first exhaustion errors = %v, want none", errs)
	}
	if driver.starts != cfg.MaxRetries {
		t.Errorf("transmit strobes = %d, want %d", driver.starts, cfg.MaxRetries)
	}
	if len(driver.txLog) != 1 {
		t.Errorf("FIFO written %d times, want once per packet", len(driver.txLog))
	}
	if l.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", l.Failures())
	}

	if err := l.SendPacket(false, true); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}
	errs := runUntilIdle(t, l, &ticks)
	if len(errs) != 1 || errs[0] != proto.ErrLinkDown {
		t.Fatalf("second exhaustion errors = %v, want [%v]", errs, proto.ErrLinkDown)
	}
	if l.Failures() != 2 {
		t.Errorf("Failures() = %d, want 2", l.Failures())
	}
}

func TestLink_TxWatchdog(t *testing.T) {
	driver := &MockDriver{noCarrier: true}
	var ticks tick.Counter
	cfg := testConfig()
	l := NewLinkWithDriver(driver, &ticks, cfg, quietLogger())

	if err := l.SendPacket(false, false); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}
	l.Step() // tx-start

	steps := 0
	for l.Retries() == cfg.MaxRetries {
		ticks.Inc()
		l.Step()
		steps++
		if steps > 100 {
			t.Fatal("watchdog never expired")
		}
	}
	if steps != int(cfg.TxWatchdog) {
		t.Errorf("watchdog expired after %d ticks, want %d", steps, cfg.TxWatchdog)
	}
	if l.State() != StateWaitCarrier {
		t.Errorf("State() = %v, want retry in wait-carrier", l.State())
	}
}

func TestLink_SendSettlesWithinBound(t *testing.T) {
	tests := []struct {
		name   string
		driver *MockDriver
	}{
		{"carrier never rises", &MockDriver{noCarrier: true}},
		{"carrier never drops", &MockDriver{stuck: true}},
		{"no ack", &MockDriver{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ticks tick.Counter
			cfg := testConfig()
			l := NewLinkWithDriver(tt.driver, &ticks, cfg, quietLogger())
			if err := l.SendPacket(true, false); err != nil {
				t.Fatalf("SendPacket() error = %v", err)
			}

			limit := int(cfg.SendTicks()) + 1 // plus the tx-start step
			n := 0
			for l.State() != StateIdle && n <= limit {
				ticks.Inc()
				l.Step()
				n++
			}
			if l.State() != StateIdle {
				t.Fatalf("send still in flight after %d ticks, bound %d", n, limit)
			}
			if l.Failures() != 1 {
				t.Errorf("Failures() = %d, want 1", l.Failures())
			}
			if tt.driver.starts != cfg.MaxRetries {
				t.Errorf("transmit strobes = %d, want %d", tt.driver.starts, cfg.MaxRetries)
			}
		})
	}
}

func TestLink_Busy(t *testing.T) {
	var ticks tick.Counter
	l := NewLinkWithDriver(&MockDriver{}, &ticks, testConfig(), quietLogger())

	if err := l.SendPacket(false, false); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}
	if err := l.SendPacket(true, false); err != proto.ErrBusy {
		t.Fatalf("SendPacket() while in flight error = %v, want %v", err, proto.ErrBusy)
	}
}

func TestLink_SequenceRolls(t *testing.T) {
	driver := &MockDriver{}
	var ticks tick.Counter
	l := NewLinkWithDriver(driver, &ticks, testConfig(), quietLogger())

	for i := 0; i < 5; i++ {
		if err := l.SendPacket(false, false); err != nil {
			t.Fatalf("SendPacket() error = %v", err)
		}
		l.Step() // tx-start
		l.state = StateIdle
	}

	want := []byte{0, 1, 2, 3, 0}
	for i, b := range driver.txLog {
		if proto.DecodePacket(b).Seq != want[i] {
			t.Errorf("packet %d seq = %d, want %d", i, proto.DecodePacket(b).Seq, want[i])
		}
	}
}

func TestLink_Heartbeat(t *testing.T) {
	var ticks tick.Counter
	cfg := testConfig()
	l := NewLinkWithDriver(&MockDriver{}, &ticks, cfg, quietLogger())

	for i := uint16(1); i < cfg.HeartbeatPhases; i++ {
		if l.Tick50ms() {
			t.Fatalf("heartbeat after %d phases, want %d", i, cfg.HeartbeatPhases)
		}
	}
	if !l.Tick50ms() {
		t.Fatal("no heartbeat after HeartbeatPhases")
	}
	if l.State() != StateTxStart {
		t.Errorf("State() = %v, want tx-start", l.State())
	}
	if l.Tick50ms() {
		t.Error("heartbeat while busy")
	}
}

func TestLink_ResponderOverStubRadios(t *testing.T) {
	a, b := stub.NewPair()
	b.SetAutoAnswer(true)

	var ticks tick.Counter
	link := NewLinkWithDriver(a, &ticks, testConfig(), quietLogger())
	resp := NewResponderWithDriver(b, proto.Ack{BrokenThreshold: 5, Cooldown: 70}, quietLogger())

	var packets []proto.Packet
	resp.OnPacket = func(p proto.Packet) { packets = append(packets, p) }
	var acks []proto.Ack
	link.OnAck = func(ack proto.Ack) { acks = append(acks, ack) }

	if err := link.Initialise(); err != nil {
		t.Fatalf("Initialise() error = %v", err)
	}
	if err := resp.Initialise(); err != nil {
		t.Fatalf("responder Initialise() error = %v", err)
	}

	for _, signal := range []bool{true, false} {
		if err := link.SendPacket(!signal, signal); err != nil {
			t.Fatalf("SendPacket() error = %v", err)
		}
		for i := 0; i < 100 && (link.State() != StateIdle || len(acks) == 0); i++ {
			ticks.Inc()
			if err := link.Step(); err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			resp.Step()
		}
	}

	if len(packets) != 2 || !packets[0].Signal || !packets[1].Button {
		t.Fatalf("responder packets = %+v", packets)
	}
	if len(acks) != 2 || acks[0] != (proto.Ack{BrokenThreshold: 5, Cooldown: 70}) {
		t.Fatalf("acks = %+v", acks)
	}
	if link.Failures() != 0 {
		t.Errorf("Failures() = %d, want 0", link.Failures())
	}
}

func TestLink_UnreachablePartner(t *testing.T) {
	a, b := stub.NewPair()
	b.SetAutoAnswer(true)
	b.Drop.Store(true)

	var ticks tick.Counter
	cfg := testConfig()
	link := NewLinkWithDriver(a, &ticks, cfg, quietLogger())
	resp := NewResponderWithDriver(b, proto.Ack{}, quietLogger())
	_ = resp.Initialise()

	if err := link.SendPacket(false, true); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}
	for i := 0; i < 1000 && link.Failures() == 0; i++ {
		ticks.Inc()
		link.Step()
		resp.Step()
	}
	if link.Failures() != 1 {
		t.Fatalf("Failures() = %d, want 1", link.Failures())
	}
	if got := len(a.Sent()); got != cfg.MaxRetries {
		t.Errorf("transmissions = %d, want %d", got, cfg.MaxRetries)
	}
	if resp.Received() != 1 {
		t.Errorf("responder reported %d packets, want 1 (retransmissions folded)", resp.Received())
	}
}
