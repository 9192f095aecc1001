// Package ht1632 drives an HT1632C LED matrix controller over its
// proprietary 3-wire serial bus (CS, WR, DATA), bit-banged through GPIO.
//
// The protocol has no hardware peripheral equivalent: every transaction is
// clocked out manually, one bit per WR rising edge, MSB first, with CS held
// low for exactly one transaction. A transaction starts with a 3-bit frame
// identifier:
//
//	100 = command
//	101 = RAM write
//
// A command frame is 100 + 8 command bits + 1 don't-care bit. A write frame
// is 101 + 7 address bits + data, with the RAM address auto-incrementing per
// nibble.
//
// The panel served by this driver maps its 24 logical columns onto a
// 96-nibble RAM space: each column occupies two nibbles of live data plus two
// nibbles of inactive sub-rows that must be padded with zeros, and the
// controller's native column order is the mirror of the logical order. See
// Flush for the exact layout.
package ht1632

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Display geometry. One byte per column, bit 0 is the top row.
const (
	Width  = 24
	Height = 8
)

// HT1632C command codes, sent after the 100 frame identifier.
const (
	cmdSysDis   = 0x00 // oscillator off
	cmdSysEn    = 0x01 // oscillator on
	cmdLEDOff   = 0x02
	cmdLEDOn    = 0x03
	cmdBlinkOff = 0x08
	cmdIntRC    = 0x18 // internal RC clock source
	cmdNMOSCom8 = 0x24 // NMOS open drain, 8 COM lines
	cmdPWMBase  = 0xA0 // brightness: cmdPWMBase | level (0..15)
)

const maxBrightness = 15

// Opts is the configuration for the display.
type Opts struct {
	// Brightness is the initial PWM duty level, 0 (dimmest) to 15.
	Brightness int
	// ScrollInterval is the redraw cadence of ScrollText.
	ScrollInterval time.Duration
}

// DefaultOpts matches the panel's power-on defaults used by the appliance.
var DefaultOpts = Opts{
	Brightness:     8,
	ScrollInterval: 120 * time.Millisecond,
}

// Dev is a handle to the display. Methods that only touch the local
// framebuffer never fail; methods that talk to the chip return pin errors.
// The protocol itself has no acknowledgment, so a successful return only
// means every bit was clocked out.
type Dev struct {
	cs   gpio.PinOut
	wr   gpio.PinOut
	data gpio.PinOut

	buf [Width]byte

	scrollText     string
	scrollOffset   int
	scrollInterval time.Duration
	lastScroll     time.Time

	nowFn func() time.Time
}

// New initialises the controller on the three given lines and returns a
// ready display: lines idled, boot command sequence issued, RAM cleared.
func New(cs, wr, data gpio.PinOut, opts *Opts) (*Dev, error) {
	if cs == nil || wr == nil || data == nil {
		return nil, errors.New("ht1632: all three pins are required")
	}
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}

	d := &Dev{
		cs:             cs,
		wr:             wr,
		data:           data,
		scrollInterval: opts.ScrollInterval,
		nowFn:          time.Now,
	}
	if d.scrollInterval <= 0 {
		d.scrollInterval = DefaultOpts.ScrollInterval
	}

	// Idle levels: CS and WR high, DATA low.
	if err := cs.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := wr.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := data.Out(gpio.Low); err != nil {
		return nil, err
	}

	// Boot sequence. Order matters: the oscillator must run before the
	// LED driver accepts configuration.
	for _, cmd := range []byte{cmdSysEn, cmdNMOSCom8, cmdIntRC, cmdLEDOn, cmdBlinkOff} {
		if err := d.sendCommand(cmd); err != nil {
			return nil, err
		}
	}
	if err := d.SetBrightness(opts.Brightness); err != nil {
		return nil, err
	}

	d.Clear()
	if err := d.Flush(); err != nil {
		return nil, err
	}
	return d, nil
}

// writeBits clocks out the low n bits of v, MSB first. DATA is set before
// the WR low-to-high transition that latches it.
func (d *Dev) writeBits(v uint16, n int) error {
	for i := n; i > 0; i-- {
		bit := gpio.Level((v>>(i-1))&1 == 1)
		if err := d.data.Out(bit); err != nil {
			return err
		}
		if err := d.wr.Out(gpio.Low); err != nil {
			return err
		}
		if err := d.wr.Out(gpio.High); err != nil {
			return err
		}
	}
	return nil
}

// sendCommand emits one 12-bit command transaction: 100, 8 command bits,
// one trailing don't-care bit.
func (d *Dev) sendCommand(cmd byte) error {
	if err := d.cs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.writeBits(0b100, 3); err != nil {
		return err
	}
	if err := d.writeBits(uint16(cmd), 8); err != nil {
		return err
	}
	if err := d.writeBits(0, 1); err != nil {
		return err
	}
	return d.cs.Out(gpio.High)
}

// Clear sets the framebuffer to all-off.
func (d *Dev) Clear() {
	d.buf = [Width]byte{}
}

// Fill sets the framebuffer to all-on.
func (d *Dev) Fill() {
	for i := range d.buf {
		d.buf[i] = 0xFF
	}
}

// SetPixel turns on the pixel at (x, y). Out-of-range coordinates are
// ignored.
func (d *Dev) SetPixel(x, y int) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	d.buf[x] |= 1 << y
}

// ClearPixel turns off the pixel at (x, y). Out-of-range coordinates are
// ignored.
func (d *Dev) ClearPixel(x, y int) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	d.buf[x] &^= 1 << y
}

// GetPixel reports whether the pixel at (x, y) is on in the framebuffer.
// Out-of-range coordinates report false.
func (d *Dev) GetPixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return d.buf[x]>>y&1 == 1
}

// SetColumn writes a raw column byte. Out-of-range columns are ignored.
func (d *Dev) SetColumn(col int, b byte) {
	if col < 0 || col >= Width {
		return
	}
	d.buf[col] = b
}

// Flush serialises the whole framebuffer as one continuous write
// transaction starting at RAM address 0.
//
// The RAM layout was derived on hardware, not from the datasheet
// configuration tables: the controller walks its 96 nibbles in the mirror of
// the logical column order, and every live column byte is followed by one
// byte of inactive sub-rows that must receive zeros. Emitting the columns in
// forward order, or omitting the padding, silently lights only half the
// panel. Re-verify this mapping before pointing the driver at a different
// panel variant.
func (d *Dev) Flush() error {
	if err := d.cs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.writeBits(0b101, 3); err != nil {
		return err
	}
	if err := d.writeBits(0, 7); err != nil {
		return err
	}
	for col := Width - 1; col >= 0; col-- {
		if err := d.writeBits(uint16(d.buf[col]), 8); err != nil {
			return err
		}
		if err := d.writeBits(0, 8); err != nil {
			return err
		}
	}
	return d.cs.Out(gpio.High)
}

// SetBrightness sets the PWM duty level, clamped to 0..15.
func (d *Dev) SetBrightness(level int) error {
	if level < 0 {
		level = 0
	}
	if level > maxBrightness {
		level = maxBrightness
	}
	return d.sendCommand(cmdPWMBase | byte(level))
}

// Halt blanks the panel and powers down the LED driver and oscillator.
func (d *Dev) Halt() error {
	d.Clear()
	if err := d.Flush(); err != nil {
		return err
	}
	if err := d.sendCommand(cmdLEDOff); err != nil {
		return err
	}
	return d.sendCommand(cmdSysDis)
}

// DrawBar renders a horizontal bar proportional to value/maxValue across
// the framebuffer, all rows lit in each filled column.
func (d *Dev) DrawBar(value, maxValue int) {
	cols := 0
	if maxValue > 0 {
		if value < 0 {
			value = 0
		}
		if value > maxValue {
			value = maxValue
		}
		cols = value * Width / maxValue
	}
	for x := 0; x < Width; x++ {
		if x < cols {
			d.buf[x] = 0xFF
		} else {
			d.buf[x] = 0x00
		}
	}
}

// DrawChar blits one 5x7 glyph at column x and returns the horizontal
// advance. Characters outside space..'Z' render as space. Columns outside
// the panel are clipped.
func (d *Dev) DrawChar(x int, c byte) int {
	if c < fontFirstChar || c > fontLastChar {
		c = ' '
	}
	glyph := &font5x7[c-fontFirstChar]
	for col := 0; col < glyphWidth; col++ {
		colX := x + col
		if colX < 0 {
			continue
		}
		if colX >= Width {
			break
		}
		d.buf[colX] = glyph[col]
	}
	return glyphAdvance
}

// DrawString blits s left to right starting at column x, clipped at the
// panel edge.
func (d *Dev) DrawString(x int, s string) {
	for i := 0; i < len(s) && x < Width; i++ {
		x += d.DrawChar(x, s[i])
	}
}

// ScrollText scrolls s right-to-left across the panel. It throttles itself:
// each call advances the scroll only when the scroll interval has elapsed,
// so it is safe to call every scheduler tick. Passing a different text
// restarts the scroll from the right edge; use RestartScroll to force a
// reset with unchanged text.
func (d *Dev) ScrollText(s string) error {
	now := d.nowFn()
	if s != d.scrollText {
		d.scrollText = s
		d.scrollOffset = 0
	} else if now.Sub(d.lastScroll) < d.scrollInterval {
		return nil
	}
	d.lastScroll = now

	d.Clear()
	d.DrawString(Width-d.scrollOffset, d.scrollText)
	d.scrollOffset++
	if d.scrollOffset > Width+len(d.scrollText)*glyphAdvance {
		d.scrollOffset = 0
	}
	return d.Flush()
}

// RestartScroll restarts the current scroll from the right edge on the next
// ScrollText call.
func (d *Dev) RestartScroll() {
	d.scrollOffset = 0
	d.lastScroll = time.Time{}
}
