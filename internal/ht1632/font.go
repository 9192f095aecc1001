package ht1632

// 5x7 column-major font, ASCII 32 (space) through 90 ('Z'). Each glyph is
// five column bytes with bit 0 at the top row.
var font5x7 = [...][5]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00}, // 32: space
	{0x00, 0x00, 0x5F, 0x00, 0x00}, // 33: !
	{0x00, 0x07, 0x00, 0x07, 0x00}, // 34: "
	{0x14, 0x7F, 0x14, 0x7F, 0x14}, // 35: #
	{0x24, 0x2A, 0x7F, 0x2A, 0x12}, // 36: $
	{0x23, 0x13, 0x08, 0x64, 0x62}, // 37: %
	{0x36, 0x49, 0x55, 0x22, 0x50}, // 38: &
	{0x00, 0x05, 0x03, 0x00, 0x00}, // 39: '
	{0x00, 0x1C, 0x22, 0x41, 0x00}, // 40: (
	{0x00, 0x41, 0x22, 0x1C, 0x00}, // 41: )
	{0x14, 0x08, 0x3E, 0x08, 0x14}, // 42: *
	{0x08, 0x08, 0x3E, 0x08, 0x08}, // 43: +
	{0x00, 0x50, 0x30, 0x00, 0x00}, // 44: ,
	{0x08, 0x08, 0x08, 0x08, 0x08}, // 45: -
	{0x00, 0x60, 0x60, 0x00, 0x00}, // 46: .
	{0x20, 0x10, 0x08, 0x04, 0x02}, // 47: /
	{0x3E, 0x51, 0x49, 0x45, 0x3E}, // 48: 0
	{0x00, 0x42, 0x7F, 0x40, 0x00}, // 49: 1
	{0x42, 0x61, 0x51, 0x49, 0x46}, // 50: 2
	{0x21, 0x41, 0x45, 0x4B, 0x31}, // 51: 3
	{0x18, 0x14, 0x12, 0x7F, 0x10}, // 52: 4
	{0x27, 0x45, 0x45, 0x45, 0x39}, // 53: 5
	{0x3C, 0x4A, 0x49, 0x49, 0x30}, // 54: 6
	{0x01, 0x71, 0x09, 0x05, 0x03}, // 55: 7
	{0x36, 0x49, 0x49, 0x49, 0x36}, // 56: 8
	{0x06, 0x49, 0x49, 0x29, 0x1E}, // 57: 9
	{0x00, 0x36, 0x36, 0x00, 0x00}, // 58: :
	{0x00, 0x56, 0x36, 0x00, 0x00}, // 59: ;
	{0x08, 0x14, 0x22, 0x41, 0x00}, // 60: <
	{0x14, 0x14, 0x14, 0x14, 0x14}, // 61: =
	{0x00, 0x41, 0x22, 0x14, 0x08}, // 62: >
	{0x02, 0x01, 0x51, 0x09, 0x06}, // 63: ?
	{0x3E, 0x41, 0x5D, 0x55, 0x1E}, // 64: @
	{0x7E, 0x11, 0x11, 0x11, 0x7E}, // 65: A
	{0x7F, 0x49, 0x49, 0x49, 0x36}, // 66: B
	{0x3E, 0x41, 0x41, 0x41, 0x22}, // 67: C
	{0x7F, 0x41, 0x41, 0x22, 0x1C}, // 68: D
	{0x7F, 0x49, 0x49, 0x49, 0x41}, // 69: E
	{0x7F, 0x09, 0x09, 0x09, 0x01}, // 70: F
	{0x3E, 0x41, 0x49, 0x49, 0x7A}, // 71: G
	{0x7F, 0x08, 0x08, 0x08, 0x7F}, // 72: H
	{0x00, 0x41, 0x7F, 0x41, 0x00}, // 73: I
	{0x20, 0x40, 0x41, 0x3F, 0x01}, // 74: J
	{0x7F, 0x08, 0x14, 0x22, 0x41}, // 75: K
	{0x7F, 0x40, 0x40, 0x40, 0x40}, // 76: L
	{0x7F, 0x02, 0x0C, 0x02, 0x7F}, // 77: M
	{0x7F, 0x04, 0x08, 0x10, 0x7F}, // 78: N
	{0x3E, 0x41, 0x41, 0x41, 0x3E}, // 79: O
	{0x7F, 0x09, 0x09, 0x09, 0x06}, // 80: P
	{0x3E, 0x41, 0x51, 0x21, 0x5E}, // 81: Q
	{0x7F, 0x09, 0x19, 0x29, 0x46}, // 82: R
	{0x46, 0x49, 0x49, 0x49, 0x31}, // 83: S
	{0x01, 0x01, 0x7F, 0x01, 0x01}, // 84: T
	{0x3F, 0x40, 0x40, 0x40, 0x3F}, // 85: U
	{0x1F, 0x20, 0x40, 0x20, 0x1F}, // 86: V
	{0x3F, 0x40, 0x38, 0x40, 0x3F}, // 87: W
	{0x63, 0x14, 0x08, 0x14, 0x63}, // 88: X
	{0x07, 0x08, 0x70, 0x08, 0x07}, // 89: Y
	{0x61, 0x51, 0x49, 0x45, 0x43}, // 90: Z
}

const (
	fontFirstChar = 32
	fontLastChar  = 90
	glyphWidth    = 5
	glyphAdvance  = 6 // glyph plus one column gap
)
