// Package st7789 drives an ST7789V2 colour LCD over SPI with manually
// controlled CS, DC and RST lines.
//
// Two pixel paths exist and they must not share raw buffers:
//
//   - The synchronous path (Fill, BeginDraw/PushPixel/EndDraw) takes RGB565
//     values and explicitly emits the high byte then the low byte.
//   - The asynchronous path (SendFrameAsync) streams a caller-owned byte
//     buffer to the bus in address order. Buffers destined for it must
//     already hold wire-order bytes; use PutPixel to store pixels.
//
// One asynchronous transfer can be in flight at a time. The busy flag is the
// synchronisation signal between the caller and the transfer goroutine: it is
// set before the transfer is armed and cleared by the completion path after
// the bus is released. The transfer outcome is held separately behind a lock
// so it can be polled at any time.
package st7789

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ST7789 command codes.
const (
	cmdSWReset   = 0x01
	cmdSleepIn   = 0x10
	cmdSleepOut  = 0x11
	cmdNormalOn  = 0x13
	cmdInvertOn  = 0x21
	cmdDispOff   = 0x28
	cmdDispOn    = 0x29
	cmdColAddr   = 0x2A
	cmdRowAddr   = 0x2B
	cmdRAMWrite  = 0x2C
	cmdMADCtl    = 0x36
	cmdColMod    = 0x3A
	cmdPorchCtl  = 0xB2
	cmdGateCtl   = 0xB7
	cmdVCOMS     = 0xBB
	cmdLCMCtl    = 0xC0
	cmdVDVVRHEn  = 0xC2
	cmdVRHSet    = 0xC3
	cmdVDVSet    = 0xC4
	cmdFRCtl2    = 0xC6
	cmdPowerCtl1 = 0xD0
	cmdPVGamma   = 0xE0
	cmdNVGamma   = 0xE1
)

// The controller RAM is 240x320; shorter panels sit centred in it.
const ramHeight = 320

// txChunk is the largest single Tx issued on the bus. The asynchronous path
// reads the frame buffer progressively in chunks of this size, so mutating a
// buffer in flight corrupts the visible frame rather than a snapshot.
const txChunk = 4096

// Opts is the configuration for the panel.
type Opts struct {
	W, H int
	// Freq is the SPI bus speed. Defaults to 48MHz.
	Freq physic.Frequency
}

// DefaultOpts matches the Waveshare 1.69" 240x280 panel.
var DefaultOpts = Opts{
	W:    240,
	H:    280,
	Freq: 48 * physic.MegaHertz,
}

// Dev is a handle to the panel.
type Dev struct {
	c   conn.Conn
	cs  gpio.PinOut
	dc  gpio.PinOut
	rst gpio.PinOut

	w, h      int
	rowOffset int

	// busy is the synchronisation signal shared with the transfer
	// goroutine; frameErr carries its outcome and may be polled while a
	// transfer is in flight, so it gets its own lock.
	busy     atomic.Bool
	errMu    sync.Mutex
	frameErr error // guarded by errMu

	// onComplete, if set, runs after the completion path has released the
	// bus and cleared the busy flag.
	onComplete func()

	drawOpen bool
	stream   []byte
}

// NewSPI opens the panel on the given SPI port: bus connect, hardware reset
// pulse, the full power/gamma/timing register sequence, clear to black.
func NewSPI(p spi.Port, cs, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if opts.W <= 0 || opts.H <= 0 || opts.H > ramHeight {
		return nil, errors.New("st7789: invalid panel dimensions")
	}
	freq := opts.Freq
	if freq == 0 {
		freq = DefaultOpts.Freq
	}

	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}

	d := &Dev{
		c:         c,
		cs:        cs,
		dc:        dc,
		rst:       rst,
		w:         opts.W,
		h:         opts.H,
		rowOffset: (ramHeight - opts.H) / 2,
		stream:    make([]byte, 0, txChunk),
	}

	if err := cs.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := dc.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := d.reset(); err != nil {
		return nil, err
	}
	if err := d.initRegisters(); err != nil {
		return nil, err
	}
	if err := d.Fill(0x0000); err != nil {
		return nil, err
	}
	return d, nil
}

// reset pulses the RST line per the controller's power-on timing.
func (d *Dev) reset() error {
	if d.rst == nil {
		return nil
	}
	if err := d.rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.rst.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	return nil
}

// initRegisters issues the fixed initialisation table for the panel. The
// porch, VCOM, power and gamma values are the panel vendor's, not generic
// ST7789 defaults.
func (d *Dev) initRegisters() error {
	seq := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{cmdSWReset, nil, 150 * time.Millisecond},
		{cmdSleepOut, nil, 120 * time.Millisecond},
		{cmdColMod, []byte{0x05}, 0}, // 16-bit RGB565
		{cmdMADCtl, []byte{0x00}, 0},
		{cmdPorchCtl, []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}, 0},
		{cmdGateCtl, []byte{0x35}, 0},
		{cmdVCOMS, []byte{0x19}, 0},
		{cmdLCMCtl, []byte{0x2C}, 0},
		{cmdVDVVRHEn, []byte{0x01}, 0},
		{cmdVRHSet, []byte{0x12}, 0},
		{cmdVDVSet, []byte{0x20}, 0},
		{cmdFRCtl2, []byte{0x0F}, 0},
		{cmdPowerCtl1, []byte{0xA4, 0xA1}, 0},
		{cmdPVGamma, []byte{0xD0, 0x04, 0x0D, 0x11, 0x13, 0x2B, 0x3F, 0x54, 0x4C, 0x18, 0x0D, 0x0B, 0x1F, 0x23}, 0},
		{cmdNVGamma, []byte{0xD0, 0x04, 0x0C, 0x11, 0x13, 0x2C, 0x3F, 0x44, 0x51, 0x2F, 0x1F, 0x1F, 0x20, 0x23}, 0},
		{cmdInvertOn, nil, 0}, // this panel is wired for inverted polarity
		{cmdNormalOn, nil, 0},
		{cmdDispOn, nil, 0},
	}
	for _, s := range seq {
		if err := d.command(s.cmd, s.data...); err != nil {
			return err
		}
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}
	return nil
}

// command sends one command byte and its parameters as a CS-bracketed
// transaction.
func (d *Dev) command(cmd byte, data ...byte) error {
	if err := d.cs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) > 0 {
		if err := d.dc.Out(gpio.High); err != nil {
			return err
		}
		if err := d.c.Tx(data, nil); err != nil {
			return err
		}
	}
	return d.cs.Out(gpio.High)
}

// setWindow sets the RAM addressing window and issues the RAM write command.
// The bus is left in the command state; callers raise DC before streaming.
func (d *Dev) setWindow(x0, y0, x1, y1 int) error {
	y0 += d.rowOffset
	y1 += d.rowOffset
	if err := d.command(cmdColAddr, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(cmdRowAddr, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.command(cmdRAMWrite)
}

// W returns the panel width in pixels.
func (d *Dev) W() int { return d.w }

// H returns the panel height in pixels.
func (d *Dev) H() int { return d.h }

// FrameLen returns the byte length of one full frame buffer.
func (d *Dev) FrameLen() int { return d.w * d.h * 2 }

// Fill streams a full panel of the given colour synchronously. It blocks
// for the whole transfer; diagnostic use only.
func (d *Dev) Fill(colour uint16) error {
	if err := d.BeginDraw(0, 0, d.w-1, d.h-1); err != nil {
		return err
	}
	for i := 0; i < d.w*d.h; i++ {
		if err := d.PushPixel(colour); err != nil {
			return err
		}
	}
	return d.EndDraw()
}

// BeginDraw opens a synchronous pixel stream into the given window. The bus
// is held open until EndDraw; no other driver call may be interleaved.
func (d *Dev) BeginDraw(x0, y0, x1, y1 int) error {
	if err := d.setWindow(x0, y0, x1, y1); err != nil {
		return err
	}
	if err := d.cs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	d.drawOpen = true
	d.stream = d.stream[:0]
	return nil
}

// PushPixel appends one pixel to the open stream, high byte first.
func (d *Dev) PushPixel(colour uint16) error {
	if !d.drawOpen {
		return errors.New("st7789: PushPixel outside BeginDraw/EndDraw")
	}
	d.stream = append(d.stream, byte(colour>>8), byte(colour))
	if len(d.stream) >= txChunk {
		return d.flushStream()
	}
	return nil
}

// EndDraw flushes the stream and releases the bus.
func (d *Dev) EndDraw() error {
	if !d.drawOpen {
		return errors.New("st7789: EndDraw without BeginDraw")
	}
	if err := d.flushStream(); err != nil {
		return err
	}
	d.drawOpen = false
	return d.cs.Out(gpio.High)
}

func (d *Dev) flushStream() error {
	if len(d.stream) == 0 {
		return nil
	}
	err := d.c.Tx(d.stream, nil)
	d.stream = d.stream[:0]
	return err
}

// SendFrameAsync starts an asynchronous transfer of a full frame and
// returns immediately. It reports false, leaving the bus and the buffer
// untouched, when a transfer is already in flight or when buf is not
// exactly one frame long.
//
// On true, ownership of buf passes to the transfer until FrameBusy reports
// false again; the transfer reads it progressively, so the caller must not
// mutate it in flight.
func (d *Dev) SendFrameAsync(buf []byte) bool {
	if d.busy.Load() {
		return false
	}
	if len(buf) != d.FrameLen() {
		return false
	}
	if err := d.setWindow(0, 0, d.w-1, d.h-1); err != nil {
		d.setFrameErr(err)
		return false
	}
	if err := d.cs.Out(gpio.Low); err != nil {
		d.setFrameErr(err)
		return false
	}
	if err := d.dc.Out(gpio.High); err != nil {
		if csErr := d.cs.Out(gpio.High); csErr != nil {
			err = csErr
		}
		d.setFrameErr(err)
		return false
	}

	// The flag must be set before the transfer is armed: arming first
	// would let a fast completion race the flag set.
	d.setFrameErr(nil)
	d.busy.Store(true)
	go d.transfer(buf)
	return true
}

// transfer streams the frame and then runs the completion path. The
// completion path does exactly two things: release the bus and clear the
// busy flag.
func (d *Dev) transfer(buf []byte) {
	var txErr error
	for off := 0; off < len(buf); off += txChunk {
		end := off + txChunk
		if end > len(buf) {
			end = len(buf)
		}
		if txErr = d.c.Tx(buf[off:end], nil); txErr != nil {
			break
		}
	}

	csErr := d.cs.Out(gpio.High)
	if txErr != nil {
		d.setFrameErr(txErr)
	} else {
		d.setFrameErr(csErr)
	}
	d.busy.Store(false)

	if d.onComplete != nil {
		d.onComplete()
	}
}

// SetCompletionHook registers f to run after each asynchronous transfer
// completes, once the bus is released and the busy flag is cleared. It must
// not be called while a transfer is in flight. f runs on the transfer
// goroutine and must not block.
func (d *Dev) SetCompletionHook(f func()) {
	d.onComplete = f
}

// FrameBusy reports whether an asynchronous transfer is in flight.
func (d *Dev) FrameBusy() bool {
	return d.busy.Load()
}

func (d *Dev) setFrameErr(err error) {
	d.errMu.Lock()
	d.frameErr = err
	d.errMu.Unlock()
}

// FrameErr returns the error of the most recent asynchronous transfer, if
// any. It is safe to poll while a transfer is in flight; the result then
// reflects the previous transfer until the current one completes.
func (d *Dev) FrameErr() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.frameErr
}

// Halt blanks and powers down the panel.
func (d *Dev) Halt() error {
	if err := d.command(cmdDispOff); err != nil {
		return err
	}
	return d.command(cmdSleepIn)
}

// PutPixel stores pixel i of an asynchronous frame buffer in wire order.
func PutPixel(buf []byte, i int, colour uint16) {
	buf[2*i] = byte(colour >> 8)
	buf[2*i+1] = byte(colour)
}

// RGB565 packs 8-bit colour components into the panel's 16-bit format.
func RGB565(r, g, b byte) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3
}
