// Package hal declares the hardware collaborators the firmware core talks to.
//
// The core never configures pin direction or bus speed; that is done once by
// the board constructors. TinyGo's machine.Pin satisfies OutputPin and
// InputPin as-is.
package hal

// OutputPin is a single digital output line.
type OutputPin interface {
	High()
	Low()
}

// InputPin is a single digital input line.
type InputPin interface {
	Get() bool
}

// Pin is a line that can be driven and read back.
type Pin interface {
	OutputPin
	InputPin
}

// Bus is a synchronous byte bus. Transceive blocks until the hardware has
// shifted the byte out and returns the byte shifted in.
type Bus interface {
	Transceive(b byte) byte
}

// ADC starts a single supply-voltage conversion. The result is delivered
// asynchronously (conversion-complete interrupt) to power.Monitor.Sample.
type ADC interface {
	StartConversion()
}

// Set drives p to level.
func Set(p OutputPin, level bool) {
	if level {
		p.High()
	} else {
		p.Low()
	}
}

// NopPin is an output that goes nowhere and always reads high (idle).
type NopPin struct{}

func (NopPin) High()     {}
func (NopPin) Low()      {}
func (NopPin) Get() bool { return true }
