package fire

import (
	"bytes"
	"testing"
	"time"
)

// fakePublisher records published buffers and lets a test hold the busy
// state.
type fakePublisher struct {
	busy   bool
	sent   [][]byte // the slices themselves, to check buffer identity
	reject bool
}

func (p *fakePublisher) FrameBusy() bool { return p.busy }

func (p *fakePublisher) SendFrameAsync(buf []byte) bool {
	if p.busy || p.reject {
		return false
	}
	p.sent = append(p.sent, buf)
	return true
}

func newTestFire(p Publisher) *Fire {
	f := New(p, &Opts{Seed: 42})
	now := time.Unix(0, 0)
	f.nowFn = func() time.Time {
		now = now.Add(DefaultOpts.FrameInterval)
		return now
	}
	return f
}

func TestFuelRowInvariant(t *testing.T) {
	f := newTestFire(&fakePublisher{})
	for i := 0; i < 200; i++ {
		f.step()
	}
	for x := 0; x < Width; x++ {
		if got := f.grid[(Height-1)*Width+x]; got != MaxHeat {
			t.Fatalf("fuel row cell %d = %d after 200 steps, want %d", x, got, MaxHeat)
		}
	}
}

func TestHeatStaysInRange(t *testing.T) {
	f := newTestFire(&fakePublisher{})
	for i := 0; i < 100; i++ {
		f.step()
		for c, h := range f.grid {
			if h > MaxHeat {
				t.Fatalf("cell %d = %d after step %d, want <= %d", c, h, i, MaxHeat)
			}
		}
	}
}

func TestHeatPropagatesUpward(t *testing.T) {
	f := newTestFire(&fakePublisher{})
	for i := 0; i < Height; i++ {
		f.step()
	}
	// After a full grid height of steps the row above the fuel row must
	// have caught: cooling is at most 2 per row.
	warm := 0
	for x := 0; x < Width; x++ {
		if f.grid[(Height-2)*Width+x] >= MaxHeat-2 {
			warm++
		}
	}
	if warm < Width/2 {
		t.Errorf("only %d of %d cells above the fuel row are hot", warm, Width)
	}
}

func TestTickSkipsWhileBusy(t *testing.T) {
	p := &fakePublisher{busy: true}
	f := newTestFire(p)

	gridBefore := f.grid
	backBefore := f.back
	f.Tick()

	if f.grid != gridBefore {
		t.Error("busy tick advanced the simulation")
	}
	if f.back != backBefore {
		t.Error("busy tick flipped the buffers")
	}
	if len(p.sent) != 0 {
		t.Error("busy tick attempted a transfer")
	}
}

func TestTickPublishesBackBufferAndFlips(t *testing.T) {
	p := &fakePublisher{}
	f := newTestFire(p)

	f.Tick()
	if len(p.sent) != 1 {
		t.Fatalf("published %d frames, want 1", len(p.sent))
	}
	if &p.sent[0][0] != &f.bufs[0][0] {
		t.Error("first published frame is not the first buffer")
	}
	if f.back != 1 {
		t.Errorf("back = %d after first publish, want 1", f.back)
	}

	f.Tick()
	if len(p.sent) != 2 {
		t.Fatalf("published %d frames, want 2", len(p.sent))
	}
	if &p.sent[1][0] != &f.bufs[1][0] {
		t.Error("second published frame is not the other buffer")
	}
	if f.back != 0 {
		t.Errorf("back = %d after second publish, want 0", f.back)
	}
}

func TestTickKeepsBufferOnRejectedPublish(t *testing.T) {
	p := &fakePublisher{reject: true}
	f := newTestFire(p)
	f.Tick()
	if f.back != 0 {
		t.Error("rejected publish still flipped the buffers")
	}
}

func TestTickThrottle(t *testing.T) {
	p := &fakePublisher{}
	f := New(p, &Opts{Seed: 1})
	now := time.Unix(0, 0)
	f.nowFn = func() time.Time { return now }

	now = now.Add(DefaultOpts.FrameInterval)
	f.Tick()
	f.Tick() // same instant: inside the frame interval
	if len(p.sent) != 1 {
		t.Fatalf("published %d frames within one interval, want 1", len(p.sent))
	}
	now = now.Add(DefaultOpts.FrameInterval)
	f.Tick()
	if len(p.sent) != 2 {
		t.Fatalf("published %d frames after interval elapsed, want 2", len(p.sent))
	}
}

func TestRenderBlockOrder(t *testing.T) {
	f := New(&fakePublisher{}, &Opts{Seed: 1})

	// Freshly initialised grid: everything cold except the fuel row.
	f.render()
	buf := f.bufs[0]

	cold := wirePalette[0]
	hot := wirePalette[MaxHeat]
	rowBytes := Width * Scale * 2

	// First rendered row is cold.
	for i := 0; i < rowBytes; i += 2 {
		if buf[i] != cold[0] || buf[i+1] != cold[1] {
			t.Fatalf("top row pixel %d = %02x %02x, want cold", i/2, buf[i], buf[i+1])
		}
	}
	// The fuel row renders as Scale panel rows of white at the bottom.
	bottom := buf[len(buf)-Scale*rowBytes:]
	for i := 0; i < len(bottom); i += 2 {
		if bottom[i] != hot[0] || bottom[i+1] != hot[1] {
			t.Fatalf("fuel row pixel %d = %02x %02x, want white", i/2, bottom[i], bottom[i+1])
		}
	}
}

func TestHeatBiasBrightensWithoutTouchingGrid(t *testing.T) {
	f := New(&fakePublisher{}, &Opts{Seed: 1})

	// Put a mid-heat cell in the top row and render with and without bias.
	f.grid[0] = 10
	f.render()
	plain := append([]byte(nil), f.bufs[0][:2]...)

	gridBefore := f.grid
	f.SetHeatBias(10)
	f.render()
	if f.grid != gridBefore {
		t.Fatal("bias render mutated the grid")
	}
	biased := f.bufs[0][:2]
	want := wirePalette[20]
	if !bytes.Equal(biased, want[:]) {
		t.Errorf("biased pixel = %x, want palette[20] %x", biased, want)
	}
	if bytes.Equal(biased, plain) {
		t.Error("bias had no effect on a warm cell")
	}

	// Cold cells are untouched by bias. The first cell spans Scale
	// pixels, so the next cell starts at byte offset Scale*2.
	cold := wirePalette[0]
	if !bytes.Equal(f.bufs[0][Scale*2:Scale*2+2], cold[:]) {
		t.Error("bias lit a cold cell")
	}
}

func TestSetHeatBiasClamps(t *testing.T) {
	f := New(&fakePublisher{}, nil)
	f.SetHeatBias(500)
	if f.bias != maxBias {
		t.Errorf("bias = %d, want clamped to %d", f.bias, maxBias)
	}
	f.SetHeatBias(-5)
	if f.bias != 0 {
		t.Errorf("bias = %d, want clamped to 0", f.bias)
	}
}

func TestPulseLastsOneFrame(t *testing.T) {
	f := New(&fakePublisher{}, &Opts{Seed: 1})
	f.grid[0] = 10
	f.Pulse()
	f.render()
	boosted := append([]byte(nil), f.bufs[0][:2]...)
	want := wirePalette[14]
	if !bytes.Equal(boosted, want[:]) {
		t.Errorf("pulsed pixel = %x, want palette[14] %x", boosted, want)
	}

	f.render()
	plain := f.bufs[0][:2]
	base := wirePalette[10]
	if !bytes.Equal(plain, base[:]) {
		t.Errorf("pixel after pulse = %x, want palette[10] %x", plain, base)
	}
}
