package protocol

// Packet is the event report sent to the link partner. It is built fresh for
// every send and never outlives it.
type Packet struct {
	Button bool
	Signal bool
	Seq    uint8
}

// Encode packs p into its on-air byte. Seq is truncated to two bits.
func (p Packet) Encode() byte {
	b := p.Seq & SeqMask
	if p.Button {
		b |= FlagButton
	}
	if p.Signal {
		b |= FlagSignal
	}
	return b
}

// DecodePacket unpacks an on-air byte. Bits outside the layout are ignored.
func DecodePacket(b byte) Packet {
	return Packet{
		Button: b&FlagButton != 0,
		Signal: b&FlagSignal != 0,
		Seq:    b & SeqMask,
	}
}

// Ack is the link partner's answer. It carries the parameters the partner
// wants this device to use for signal-loss detection.
type Ack struct {
	// BrokenThreshold is the number of failed detection cycles after which
	// the peer counts as gone. Zero keeps the local value.
	BrokenThreshold uint8
	// Cooldown is the peer-lost debounce in 10 ms phases. Zero keeps the
	// local value. Only multiples of CooldownUnit survive encoding.
	Cooldown uint16
}

// Encode packs a into its on-air byte. Values too large for the layout are
// clamped.
func (a Ack) Encode() byte {
	threshold := a.BrokenThreshold
	if threshold > AckThresholdMask {
		threshold = AckThresholdMask
	}
	units := a.Cooldown / CooldownUnit
	if units > 0x0F {
		units = 0x0F
	}
	return byte(units)<<AckCooldownShift | threshold
}

// DecodeAck unpacks an ack byte.
func DecodeAck(b byte) Ack {
	return Ack{
		BrokenThreshold: b & AckThresholdMask,
		Cooldown:        uint16(b>>AckCooldownShift) * CooldownUnit,
	}
}

// CarrierFrequency returns the 24-bit frequency word for a transceiver
// clocked from crystalKHz and tuned to carrierKHz: (carrier << 16) / crystal.
func CarrierFrequency(crystalKHz, carrierKHz uint32) (uint32, error) {
	if crystalKHz == 0 || carrierKHz == 0 {
		return 0, ErrInvalidChannel
	}
	word := (uint64(carrierKHz) << 16) / uint64(crystalKHz)
	if word > 0xFFFFFF {
		return 0, ErrInvalidChannel
	}
	return uint32(word), nil
}
