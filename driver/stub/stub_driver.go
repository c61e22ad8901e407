//go:build !tinygo && !baremetal

package stub

import (
	"sync"
	"sync/atomic"
)

// Radio is an in-memory transceiver for host-side simulation and tests.
// Radios created by NewPair share the air between them.
type Radio struct {
	air  *air
	peer *Radio

	// AirTime is the number of Carrier polls a packet stays on air.
	AirTime int
	// Drop loses everything this radio transmits.
	Drop atomic.Bool

	configured bool
	listening  bool
	autoAnswer bool

	tx       ringBuffer
	rx       ringBuffer
	sending  bool
	polls    int
	inFlight byte
	sent     []byte
}

type air struct {
	mu sync.Mutex
}

// New returns a radio with nobody on the other end.
func New() *Radio { return &Radio{air: &air{}, AirTime: 1} }

// NewPair returns two radios in range of each other.
func NewPair() (*Radio, *Radio) {
	a := &air{}
	r1 := &Radio{air: a, AirTime: 1}
	r2 := &Radio{air: a, AirTime: 1}
	r1.peer, r2.peer = r2, r1
	return r1, r2
}

// SetAutoAnswer makes the radio transmit its loaded tx byte as soon as a
// packet is received, like a transceiver whose receive-off mode is transmit.
func (r *Radio) SetAutoAnswer(on bool) {
	r.air.mu.Lock()
	r.autoAnswer = on
	r.air.mu.Unlock()
}

func (r *Radio) Configure() error {
	r.air.mu.Lock()
	r.configured = true
	r.air.mu.Unlock()
	return nil
}

// Configured reports whether Configure was called.
func (r *Radio) Configured() bool {
	r.air.mu.Lock()
	defer r.air.mu.Unlock()
	return r.configured
}

func (r *Radio) WriteTx(b byte) {
	r.air.mu.Lock()
	r.tx.push(b)
	r.air.mu.Unlock()
}

func (r *Radio) StartTx() {
	r.air.mu.Lock()
	defer r.air.mu.Unlock()
	if r.sending {
		return
	}
	b, ok := r.tx.peek()
	if !ok {
		return
	}
	// The FIFO keeps the byte until it is flushed, so a repeated start
	// strobe retransmits it.
	r.inFlight = b
	r.sending = true
	r.polls = 0
}

func (r *Radio) StartRx() {
	r.air.mu.Lock()
	r.listening = true
	r.air.mu.Unlock()
}

func (r *Radio) Carrier() bool {
	r.air.mu.Lock()
	defer r.air.mu.Unlock()
	if !r.sending {
		return false
	}
	r.polls++
	if r.polls <= r.AirTime {
		return true
	}
	r.sending = false
	r.sent = append(r.sent, r.inFlight)
	r.deliver(r.inFlight)
	return false
}

func (r *Radio) deliver(b byte) {
	if r.Drop.Load() || r.peer == nil {
		return
	}
	p := r.peer
	p.rx.push(b)
	if p.autoAnswer {
		if a, ok := p.tx.pop(); ok {
			p.sent = append(p.sent, a)
			if !p.Drop.Load() {
				r.rx.push(a)
			}
		}
	}
}

func (r *Radio) PacketReady() bool {
	r.air.mu.Lock()
	defer r.air.mu.Unlock()
	return r.rx.count > 0
}

func (r *Radio) ReadRx() byte {
	r.air.mu.Lock()
	defer r.air.mu.Unlock()
	b, _ := r.rx.pop()
	return b
}

// FlushTx empties the transmit FIFO.
func (r *Radio) FlushTx() {
	r.air.mu.Lock()
	r.tx = ringBuffer{}
	r.air.mu.Unlock()
}

// InjectRx places b in the receive FIFO as if it came over the air.
func (r *Radio) InjectRx(b byte) {
	r.air.mu.Lock()
	r.rx.push(b)
	r.air.mu.Unlock()
}

// Sent returns every byte that completed transmission.
func (r *Radio) Sent() []byte {
	r.air.mu.Lock()
	defer r.air.mu.Unlock()
	return append([]byte(nil), r.sent...)
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity]byte
	head, tail int // head = next pop, tail = next push
	count      int
}

func (rb *ringBuffer) push(b byte) {
	if rb.count == ringCapacity {
		// Overwrite the oldest when buffer is full to keep memory bounded
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = b
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) peek() (byte, bool) {
	if rb.count == 0 {
		return 0, false
	}
	return rb.data[rb.head], true
}

func (rb *ringBuffer) pop() (byte, bool) {
	b, ok := rb.peek()
	if !ok {
		return 0, false
	}
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return b, true
}
