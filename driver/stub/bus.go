//go:build !tinygo && !baremetal

package stub

import "sync"

// Bus records every byte written and answers with scripted replies (zero
// once the script runs out).
type Bus struct {
	mu      sync.Mutex
	written []byte
	replies []byte
}

// NewBus returns a bus answering with replies in order.
func NewBus(replies ...byte) *Bus {
	return &Bus{replies: append([]byte(nil), replies...)}
}

func (b *Bus) Transceive(out byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.written = append(b.written, out)
	if len(b.replies) == 0 {
		return 0
	}
	in := b.replies[0]
	b.replies = b.replies[1:]
	return in
}

// Written returns a copy of the bytes written so far.
func (b *Bus) Written() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.written...)
}

// ADC counts conversion requests.
type ADC struct {
	mu       sync.Mutex
	requests int
	onStart  func()
}

// NewADC returns an ADC that calls onStart (if not nil) for every
// conversion, standing in for the conversion-complete interrupt.
func NewADC(onStart func()) *ADC { return &ADC{onStart: onStart} }

func (a *ADC) StartConversion() {
	a.mu.Lock()
	a.requests++
	cb := a.onStart
	a.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Requests returns the number of conversions started.
func (a *ADC) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}
