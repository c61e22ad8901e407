package display

// Frame is the bitmask shifted into the segment driver chain.
type Frame uint32

// FrameWidth is the number of bits in one scan.
const FrameWidth = 32

// Segment masks per position, indexed by digit value. Position 0 is the least
// significant digit. Read through Mask only.
var masks = [4][10]Frame{
	{
		0b01011111000, // 0
		0b00001100000, // 1
		0b10011011000, // 2
		0b10011110000, // 3
		0b11001100000, // 4
		0b11010110000, // 5
		0b11010111000, // 6
		0b00011100000, // 7
		0b11011111000, // 8
		0b11011110000, // 9
	},
	{
		0b0101100000000111, // 0
		0b0000100000000100, // 1
		0b1001100000000011, // 2
		0b1001100000000110, // 3
		0b1100100000000100, // 4
		0b1101000000000110, // 5
		0b1101000000000111, // 6
		0b0001100000000100, // 7
		0b1101100000000111, // 8
		0b1101100000000110, // 9
	},
	{
		0b11100000000010110000000000000000, // 0
		0b10000000000000010000000000000000, // 1
		0b01100000000100110000000000000000, // 2
		0b11000000000100110000000000000000, // 3
		0b10000000000110010000000000000000, // 4
		0b11000000000110100000000000000000, // 5
		0b11100000000110100000000000000000, // 6
		0b10000000000000110000000000000000, // 7
		0b11100000000110110000000000000000, // 8
		0b11000000000110110000000000000000, // 9
	},
	{
		0b11101011000000000000000000000, // 0
		0b10000001000000000000000000000, // 1
		0b01110011000000000000000000000, // 2
		0b11010011000000000000000000000, // 3
		0b10011001000000000000000000000, // 4
		0b11011010000000000000000000000, // 5
		0b11111010000000000000000000000, // 6
		0b10000011000000000000000000000, // 7
		0b11111011000000000000000000000, // 8
		0b11011011000000000000000000000, // 9
	},
}

// pointBits are the decimal point segments of each position.
var pointBits = [4]Frame{1 << 8, 1 << 13, 1 << 18, 1 << 23}

// Mask returns the segments lighting digit at position. Values outside 0-9
// (or a position outside 0-3) light nothing.
func Mask(position int, digit uint8) Frame {
	if position < 0 || position >= len(masks) || int(digit) >= len(masks[position]) {
		return 0
	}
	return masks[position][digit]
}
