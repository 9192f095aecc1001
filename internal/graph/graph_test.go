package graph

import (
	"math/bits"
	"testing"
	"time"
)

// fakePanel captures the last rendered frame.
type fakePanel struct {
	columns [cols]byte
	flushes int
}

func (p *fakePanel) Clear() { p.columns = [cols]byte{} }

func (p *fakePanel) SetColumn(col int, b byte) {
	if col >= 0 && col < cols {
		p.columns[col] = b
	}
}

func (p *fakePanel) Flush() error {
	p.flushes++
	return nil
}

// newTestGraph returns a graph with a controllable clock. Smoothing is
// disabled so tests can reason about exact sample values.
func newTestGraph(opts *Opts) (*Graph, *time.Time) {
	if opts == nil {
		opts = &Opts{SmoothingAlpha: 1}
	}
	g := New(opts)
	now := time.Unix(0, 0)
	g.nowFn = func() time.Time { return now }
	return g, &now
}

func TestHistoryIsStrictFIFO(t *testing.T) {
	g, now := newTestGraph(nil)
	p := &fakePanel{}

	// Feed cols+4 distinct samples, one per interval. Heights for the
	// sqrt curve: value v of 64 gives sqrt(v/64)*8 rounded.
	values := make([]int, cols+4)
	for i := range values {
		values[i] = i * 64 / len(values)
	}
	for _, v := range values {
		*now = now.Add(g.interval)
		if err := g.Tick(v, 64, p); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	// The newest slot holds the last sample, the oldest slot the sample
	// taken exactly cols intervals ago.
	wantNewest := g.heightFor(values[len(values)-1], 64)
	if g.history[cols-1] != wantNewest {
		t.Errorf("history[%d] = %d, want %d", cols-1, g.history[cols-1], wantNewest)
	}
	wantOldest := g.heightFor(values[len(values)-cols], 64)
	if g.history[0] != wantOldest {
		t.Errorf("history[0] = %d, want %d", g.history[0], wantOldest)
	}
}

// heightFor computes the height a single un-smoothed sample of v produces.
func (g *Graph) heightFor(v, maxValue int) uint8 {
	saved := g.smooth
	g.smooth = float64(v)
	h := g.sampleHeight(maxValue)
	g.smooth = saved
	return h
}

func TestNoSampleInsideInterval(t *testing.T) {
	g, now := newTestGraph(nil)
	p := &fakePanel{}

	*now = now.Add(g.interval)
	g.Tick(64, 64, p)
	before := g.history

	// Ticks inside the interval redraw but do not shift.
	g.Tick(0, 64, p)
	g.Tick(0, 64, p)
	if g.history != before {
		t.Error("history shifted inside the sample interval")
	}
	if p.flushes != 3 {
		t.Errorf("flushes = %d, want one per tick (3)", p.flushes)
	}
}

func TestNegativeInputClampedBeforeSmoothing(t *testing.T) {
	g, _ := newTestGraph(&Opts{SmoothingAlpha: 0.5})
	p := &fakePanel{}

	g.Tick(100, 100, p)
	level := g.smooth
	g.Tick(-500, 100, p)
	if g.smooth != level/2 {
		t.Errorf("smoothed level = %v after negative input, want %v (treated as 0)", g.smooth, level/2)
	}
	if g.smooth < 0 {
		t.Error("negative input dragged the smoothed level below zero")
	}
}

func TestSmoothingConverges(t *testing.T) {
	g, now := newTestGraph(&Opts{SmoothingAlpha: 0.25})
	p := &fakePanel{}
	for i := 0; i < 100; i++ {
		*now = now.Add(g.interval)
		g.Tick(80, 80, p)
	}
	if g.history[cols-1] != rows {
		t.Errorf("steady max input converged to height %d, want %d", g.history[cols-1], rows)
	}
}

func TestBuildColumnPeakAlwaysSet(t *testing.T) {
	for height := uint8(1); height <= rows; height++ {
		peak := byte(1) << (rows - height)
		for age := 0; age < cols; age++ {
			for col := 0; col < cols; col++ {
				b := buildColumn(height, age, col)
				if b&peak == 0 {
					t.Fatalf("height %d age %d col %d: peak bit unset in %08b", height, age, col, b)
				}
			}
		}
	}
}

func TestBuildColumnZeroHeight(t *testing.T) {
	for age := 0; age < cols; age++ {
		if b := buildColumn(0, age, age); b != 0 {
			t.Fatalf("zero height built %08b, want 0", b)
		}
	}
}

func TestBuildColumnDensityZones(t *testing.T) {
	// A full-height bar: body is 7 bits (bar minus peak). Count lit body
	// bits per age zone.
	countBody := func(age, col int) int {
		b := buildColumn(rows, age, col)
		return bits.OnesCount8(b &^ 1) // peak of a full bar is bit 0
	}

	if got := countBody(0, 0); got != 7 {
		t.Errorf("age 0 body bits = %d, want 7", got)
	}
	// Older zones are strictly sparser.
	prev := 8
	for _, age := range []int{0, 10, 14, 18} {
		got := countBody(age, 0)
		if got >= prev {
			t.Errorf("age %d body bits = %d, want fewer than %d", age, got, prev)
		}
		prev = got
	}
	// Oldest zone: at most 2 of 8 body bits.
	for col := 0; col < cols; col++ {
		if got := countBody(cols-1, col); got > 2 {
			t.Errorf("oldest zone col %d body bits = %d, want <= 2", col, got)
		}
	}
}

func TestDimMaskAlternatesByColumnParity(t *testing.T) {
	for _, age := range []int{10, 14, 18} {
		even := dimMask(age, 0)
		odd := dimMask(age, 1)
		if even == odd {
			t.Errorf("age %d: even and odd masks identical (%08b)", age, even)
		}
		if bits.OnesCount8(even) != bits.OnesCount8(odd) {
			t.Errorf("age %d: masks %08b and %08b differ in density", age, even, odd)
		}
	}
}

func TestRampToMaxScenario(t *testing.T) {
	g, now := newTestGraph(nil)
	p := &fakePanel{}

	// A monotonically increasing input from 0 to max, one sample per
	// interval, long enough to fill the visible history.
	const maxValue = 600
	for i := 0; i <= cols; i++ {
		*now = now.Add(g.interval)
		if err := g.Tick(i*maxValue/cols, maxValue, p); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	// The history is non-decreasing and ends at full height.
	for i := 1; i < cols; i++ {
		if g.history[i] < g.history[i-1] {
			t.Fatalf("history not non-decreasing at %d: %v", i, g.history)
		}
	}
	if g.history[cols-1] != rows {
		t.Errorf("final height = %d, want %d", g.history[cols-1], rows)
	}

	// The oldest zone shows at most 2 of 8 bits in the body, but always
	// the peak.
	for col := 0; col < cols; col++ {
		h := g.history[col]
		if h == 0 {
			continue
		}
		age := cols - 1 - col
		b := p.columns[col]
		peak := byte(1) << (rows - h)
		if b&peak == 0 {
			t.Errorf("col %d: peak bit missing from %08b", col, b)
		}
		if age >= 18 {
			if body := bits.OnesCount8(b &^ peak); body > 2 {
				t.Errorf("col %d (age %d): %d body bits lit, want <= 2", col, age, body)
			}
		}
	}
}
