package protocol

// Radio link constants (platform independent). All higher layers should depend on this file.
const (
	// Packet layout, one byte on air:
	//   bit 7    button event
	//   bit 6    signal (peer lost) event
	//   bits 0-1 rolling sequence number
	PacketLength = 1

	FlagButton = 1 << 7
	FlagSignal = 1 << 6
	SeqMask    = 0x03

	// Ack layout, one byte on air:
	//   bits 0-3 broken threshold to use (0 keeps the local value)
	//   bits 4-7 peer-lost cooldown in units of CooldownUnit 10 ms phases
	//            (0 keeps the local value)
	AckThresholdMask = 0x0F
	AckCooldownShift = 4
	CooldownUnit     = 10

	// Send retry policy
	MaxRetries     = 100
	FailureCeiling = 10

	// Radio tick windows, default tick rate (~75.5 kHz)
	AckWindow  = 760  // ~10 ms to see the ack after our carrier ends
	TxWatchdog = 3810 // ~50 ms without the expected carrier change

	// Idle heartbeat, in 50 ms phases
	HeartbeatPhases = 200

	// Transceiver defaults
	CrystalKHz = 27000
	CarrierKHz = 433000
)
