package protocol

import "testing"

func TestPacketEncoding(t *testing.T) {
	tests := []struct {
		name   string
		packet Packet
		want   byte
	}{
		{
			name:   "heartbeat",
			packet: Packet{Seq: 0},
			want:   0x00,
		},
		{
			name:   "button",
			packet: Packet{Button: true, Seq: 1},
			want:   0x81,
		},
		{
			name:   "signal",
			packet: Packet{Signal: true, Seq: 2},
			want:   0x42,
		},
		{
			name:   "both flags",
			packet: Packet{Button: true, Signal: true, Seq: 3},
			want:   0xC3,
		},
		{
			name:   "sequence truncated to two bits",
			packet: Packet{Seq: 6},
			want:   0x02,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.packet.Encode(); got != tt.want {
				t.Errorf("Encode() = %#02x, want %#02x", got, tt.want)
			}
		})
	}
}

func TestDecodePacketIgnoresReservedBits(t *testing.T) {
	p := DecodePacket(0x3D)
	if p.Button || p.Signal {
		t.Errorf("DecodePacket(0x3D) flags = %+v, want none", p)
	}
	if p.Seq != 1 {
		t.Errorf("Seq = %d, want 1", p.Seq)
	}
}

func TestAckEncoding(t *testing.T) {
	tests := []struct {
		name string
		ack  Ack
		want Ack
	}{
		{
			name: "keep local values",
			ack:  Ack{},
			want: Ack{},
		},
		{
			name: "threshold and cooldown",
			ack:  Ack{BrokenThreshold: 5, Cooldown: 150},
			want: Ack{BrokenThreshold: 5, Cooldown: 150},
		},
		{
			name: "cooldown rounded down to unit",
			ack:  Ack{BrokenThreshold: 3, Cooldown: 57},
			want: Ack{BrokenThreshold: 3, Cooldown: 50},
		},
		{
			name: "clamped",
			ack:  Ack{BrokenThreshold: 40, Cooldown: 1000},
			want: Ack{BrokenThreshold: 15, Cooldown: 150},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeAck(tt.ack.Encode())
			if got != tt.want {
				t.Errorf("DecodeAck(Encode()) = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCarrierFrequency(t *testing.T) {
	word, err := CarrierFrequency(CrystalKHz, CarrierKHz)
	if err != nil {
		t.Fatalf("CarrierFrequency() error = %v", err)
	}
	if word != 0x10097B {
		t.Errorf("CarrierFrequency() = %#06x, want 0x10097B", word)
	}

	if _, err := CarrierFrequency(0, CarrierKHz); err != ErrInvalidChannel {
		t.Errorf("zero crystal error = %v, want %v", err, ErrInvalidChannel)
	}
	if _, err := CarrierFrequency(1, CarrierKHz); err != ErrInvalidChannel {
		t.Errorf("overflowing word error = %v, want %v", err, ErrInvalidChannel)
	}
}
