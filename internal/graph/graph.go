// Package graph renders a scrolling history of a scalar signal as a bar
// graph on a 1-bit LED matrix, using spatial dithering to fade older
// columns.
//
// The panel has no per-pixel brightness, so age is faked with density
// masks: older columns keep fewer of their bar pixels lit, in complementary
// even/odd column patterns so the thinning reads as shading rather than
// horizontal stripes. The topmost pixel of every bar (the peak) is never
// masked, which keeps a crisp trace of the signal across the whole history.
package graph

import (
	"math"
	"time"
)

// Panel is the monochrome display surface, satisfied by *ht1632.Dev.
type Panel interface {
	Clear()
	SetColumn(col int, b byte)
	Flush() error
}

// Panel geometry. One history slot per column.
const (
	cols = 24
	rows = 8
)

// Curve selects the response curve that maps a normalised input to a bar
// height. The square-root curve makes low activity visible early; the
// square curve keeps the graph calm until the input approaches its ceiling.
type Curve int

const (
	CurveSqrt Curve = iota
	CurveSquare
)

// Opts is the configuration for the renderer.
type Opts struct {
	// SampleInterval is the history shift cadence, independent of the
	// tick rate.
	SampleInterval time.Duration
	// SmoothingAlpha is the exponential smoothing factor applied to the
	// raw input before sampling, in (0, 1]. 1 disables smoothing.
	SmoothingAlpha float64
	// ResponseCurve selects the input-to-height mapping.
	ResponseCurve Curve
}

// DefaultOpts gives about 2.2 seconds of visible history.
var DefaultOpts = Opts{
	SampleInterval: 90 * time.Millisecond,
	SmoothingAlpha: 0.25,
	ResponseCurve:  CurveSqrt,
}

// Graph holds the sample history and smoothing state.
type Graph struct {
	history [cols]uint8 // bar heights, oldest first
	smooth  float64

	alpha     float64
	interval  time.Duration
	curve     Curve
	lastShift time.Time

	nowFn func() time.Time
}

// New returns an empty graph.
func New(opts *Opts) *Graph {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	g := &Graph{
		alpha:    opts.SmoothingAlpha,
		interval: opts.SampleInterval,
		curve:    opts.ResponseCurve,
		nowFn:    time.Now,
	}
	if g.alpha <= 0 || g.alpha > 1 {
		g.alpha = DefaultOpts.SmoothingAlpha
	}
	if g.interval <= 0 {
		g.interval = DefaultOpts.SampleInterval
	}
	return g
}

// Tick feeds one raw observation and redraws the panel. Call it every
// scheduler tick: smoothing is applied per call, the history shifts at its
// own cadence, and the framebuffer is rebuilt and flushed every time.
func (g *Graph) Tick(raw, maxValue int, panel Panel) error {
	// A transient dip below zero must not drag the smoothed level down.
	if raw < 0 {
		raw = 0
	}
	g.smooth = g.alpha*float64(raw) + (1-g.alpha)*g.smooth

	now := g.nowFn()
	if now.Sub(g.lastShift) >= g.interval {
		g.lastShift = now
		copy(g.history[:], g.history[1:])
		g.history[cols-1] = g.sampleHeight(maxValue)
	}

	panel.Clear()
	for col := 0; col < cols; col++ {
		age := cols - 1 - col
		panel.SetColumn(col, buildColumn(g.history[col], age, col))
	}
	return panel.Flush()
}

// sampleHeight converts the current smoothed level into a bar height,
// normalising against maxValue and applying the response curve.
func (g *Graph) sampleHeight(maxValue int) uint8 {
	if maxValue <= 0 || g.smooth <= 0 {
		return 0
	}
	norm := g.smooth / float64(maxValue)
	if norm > 1 {
		norm = 1
	}
	var curved float64
	switch g.curve {
	case CurveSquare:
		curved = norm * norm
	default:
		curved = math.Sqrt(norm)
	}
	h := int(curved*rows + 0.5)
	if h > rows {
		h = rows
	}
	return uint8(h)
}

// dimMask returns the density mask for a column of the given age (0 =
// newest). Even and odd columns get complementary patterns.
func dimMask(age, col int) byte {
	even := col%2 == 0
	switch {
	case age < 10:
		return 0xFF // full density, newest zone
	case age < 14:
		if even {
			return 0xEE
		}
		return 0xDD // ~75%
	case age < 18:
		if even {
			return 0xAA
		}
		return 0x55 // 50%
	default:
		if even {
			return 0x88
		}
		return 0x22 // 25%, oldest columns
	}
}

// buildColumn combines the solid bar, the age mask and the peak bit into
// one column byte. Bars grow from the bottom (bit 7) upward; the peak is
// the topmost lit bit and survives any mask.
func buildColumn(height uint8, age, col int) byte {
	if height == 0 {
		return 0
	}
	if height > rows {
		height = rows
	}
	bar := byte(^((1 << (rows - height)) - 1))
	peak := byte(1) << (rows - height)
	body := bar &^ peak
	return body&dimMask(age, col) | peak
}
