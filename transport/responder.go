package transport

import (
	"github.com/sirupsen/logrus"

	proto "github.com/ystepanoff/gatetimer/protocol"
)

// Responder is the link partner's side: it listens for event packets and
// answers each one with an ack carrying its preferred detection parameters.
//
// The ack byte is preloaded in the transmit FIFO; the transceiver sends it
// on its own right after a packet is received (receive-off mode transmit).
type Responder struct {
	driver RadioDriver
	ack    proto.Ack
	log    logrus.FieldLogger

	lastSeq  int
	received int

	// OnPacket is called once per distinct packet. Retransmissions of the
	// packet just seen are acked but not reported again.
	OnPacket func(proto.Packet)
}

func NewResponderWithDriver(d RadioDriver, ack proto.Ack, log logrus.FieldLogger) *Responder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Responder{
		driver:  d,
		ack:     ack,
		log:     log.WithField("component", "responder"),
		lastSeq: -1,
	}
}

// Initialise configures the transceiver, loads the ack and starts listening.
func (r *Responder) Initialise() error {
	if err := r.driver.Configure(); err != nil {
		return err
	}
	r.arm()
	return nil
}

// SetAck replaces the ack sent from the next packet on.
func (r *Responder) SetAck(a proto.Ack) {
	r.ack = a
	r.arm()
}

// Received returns the number of distinct packets reported.
func (r *Responder) Received() int { return r.received }

// Step handles at most one received packet.
func (r *Responder) Step() {
	if !r.driver.PacketReady() {
		return
	}
	p := proto.DecodePacket(r.driver.ReadRx())
	r.arm()

	if int(p.Seq) == r.lastSeq {
		r.log.WithField("seq", p.Seq).Debug("retransmission")
		return
	}
	r.lastSeq = int(p.Seq)
	r.received++
	r.log.WithFields(logrus.Fields{
		"seq":    p.Seq,
		"button": p.Button,
		"signal": p.Signal,
	}).Info("packet received")
	if r.OnPacket != nil {
		r.OnPacket(p)
	}
}

func (r *Responder) arm() {
	r.driver.FlushTx()
	r.driver.WriteTx(r.ack.Encode())
	r.driver.StartRx()
}
