package transport

// RadioDriver is the interface that wraps the transceiver operations used by
// the link. Status reads are single polls of the transceiver's output lines.
type RadioDriver interface {
	// Configure runs the one-time register setup.
	Configure() error
	// FlushTx empties the transmit FIFO.
	FlushTx()
	// WriteTx loads one byte into the transmit FIFO.
	WriteTx(b byte)
	// StartTx issues the transmit strobe for the loaded packet.
	StartTx()
	// StartRx puts the transceiver in receive mode.
	StartRx()
	// Carrier reports the sync/carrier status line: asserted while a packet
	// is on air, deasserted when it ends.
	Carrier() bool
	// PacketReady reports that a packet with a valid CRC is waiting.
	PacketReady() bool
	// ReadRx reads one byte from the receive FIFO.
	ReadRx() byte
}
