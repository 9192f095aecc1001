// Package fire runs a cellular-automaton flame simulation and renders it to
// a colour panel through an asynchronous frame publisher.
//
// The classic upward-propagation automaton: a fixed maximum-heat fuel row at
// the bottom, every other cell re-derived each step from the cell below it
// with random cooling and sideways drift. The simulation runs at quarter
// panel resolution; each cell renders as a 4x4 block.
package fire

import (
	"math/rand"
	"time"
)

// Simulation geometry. Width*Scale and Height*Scale must equal the panel
// geometry handed to the publisher.
const (
	Width  = 60
	Height = 70
	Scale  = 4
)

const maxBias = 30

// Publisher is the asynchronous frame sink, satisfied by *st7789.Dev.
type Publisher interface {
	FrameBusy() bool
	SendFrameAsync(buf []byte) bool
}

// Opts is the configuration for the engine.
type Opts struct {
	// FrameInterval throttles simulation and render independently of the
	// scheduler tick rate.
	FrameInterval time.Duration
	// MaxCooling bounds the random per-cell heat loss (heat drops by
	// 0..MaxCooling each row).
	MaxCooling int
	// Seed, if non-zero, makes the automaton deterministic.
	Seed int64
}

// DefaultOpts gives a campfire look at roughly 20 frames per second.
var DefaultOpts = Opts{
	FrameInterval: 50 * time.Millisecond,
	MaxCooling:    2,
}

// Fire is the simulation plus the double-buffered render pipeline. Both
// pixel buffers are owned here; at any instant one is in flight to the
// publisher (read-only) and the other is the render target.
type Fire struct {
	lcd Publisher

	grid [Width * Height]uint8
	bufs [2][]byte
	back int

	bias int
	beat bool

	interval   time.Duration
	maxCooling int
	lastFrame  time.Time
	rnd        *rand.Rand
	nowFn      func() time.Time
}

// New returns an initialised engine: grid cold, fuel row at maximum heat,
// both pixel buffers black.
func New(lcd Publisher, opts *Opts) *Fire {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f := &Fire{
		lcd:        lcd,
		interval:   opts.FrameInterval,
		maxCooling: opts.MaxCooling,
		rnd:        rand.New(rand.NewSource(seed)),
		nowFn:      time.Now,
	}
	if f.interval <= 0 {
		f.interval = DefaultOpts.FrameInterval
	}
	if f.maxCooling <= 0 {
		f.maxCooling = DefaultOpts.MaxCooling
	}
	frameLen := Width * Scale * Height * Scale * 2
	f.bufs[0] = make([]byte, frameLen)
	f.bufs[1] = make([]byte, frameLen)
	f.seedFuelRow()
	return f
}

func (f *Fire) seedFuelRow() {
	for x := 0; x < Width; x++ {
		f.grid[(Height-1)*Width+x] = MaxHeat
	}
}

// SetHeatBias blends an external scalar (clamped to 0..30) into the palette
// lookup of subsequent frames. It never touches the automaton's state.
func (f *Fire) SetHeatBias(bias int) {
	if bias < 0 {
		bias = 0
	}
	if bias > maxBias {
		bias = maxBias
	}
	f.bias = bias
}

// Pulse brightens the next rendered frame one notch further, for beat
// accents.
func (f *Fire) Pulse() {
	f.beat = true
}

// Tick runs at most one simulate/render/publish cycle. When the previous
// frame is still in flight the whole tick is skipped, simulation included;
// the effect degrades to a lower frame rate, never to a torn frame.
func (f *Fire) Tick() {
	now := f.nowFn()
	if now.Sub(f.lastFrame) < f.interval {
		return
	}
	if f.lcd.FrameBusy() {
		return
	}
	f.lastFrame = now

	f.step()
	f.render()
	if f.lcd.SendFrameAsync(f.bufs[f.back]) {
		// The buffer just handed over is now the front buffer; render
		// into the other one next tick.
		f.back ^= 1
	}
}

// step advances the automaton. Rows are walked top to bottom so that
// reading row y+1 always sees that row's pre-step values; the fuel row is
// never written.
func (f *Fire) step() {
	for y := 0; y < Height-1; y++ {
		for x := 0; x < Width; x++ {
			src := int(f.grid[(y+1)*Width+x])

			cooling := f.rnd.Intn(f.maxCooling + 1)

			// Drift -1..+2: one more positive value than negative
			// leans the flame slightly, which reads as wind.
			drift := f.rnd.Intn(4) - 1
			destX := x + drift
			if destX < 0 {
				destX = 0
			}
			if destX >= Width {
				destX = Width - 1
			}

			heat := src - cooling
			if heat < 0 {
				heat = 0
			}
			f.grid[y*Width+destX] = uint8(heat)
		}
	}
}

// render rasterises the grid into the back buffer: every cell becomes a
// Scale x Scale block, written row-major, left to right then top to bottom,
// matching the order the panel consumes a streamed frame.
func (f *Fire) render() {
	bias := f.bias
	if f.beat {
		bias += 4
		f.beat = false
	}
	if bias > maxBias {
		bias = maxBias
	}

	buf := f.bufs[f.back]
	i := 0
	for y := 0; y < Height; y++ {
		row := f.grid[y*Width : (y+1)*Width]
		for rep := 0; rep < Scale; rep++ {
			for x := 0; x < Width; x++ {
				idx := int(row[x])
				// Cold cells stay dark regardless of bias,
				// so the accent lights the flame, not the sky.
				if idx > 0 && bias > 0 {
					idx += bias
					if idx > MaxHeat {
						idx = MaxHeat
					}
				}
				p := wirePalette[idx]
				for rx := 0; rx < Scale; rx++ {
					buf[i] = p[0]
					buf[i+1] = p[1]
					i += 2
				}
			}
		}
	}
}
