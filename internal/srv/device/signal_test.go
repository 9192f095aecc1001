package device

import (
	"testing"
	"time"
)

func TestSignalStaysInRange(t *testing.T) {
	source := NewSignalSource()

	now := source.start
	for i := 0; i < 600; i++ {
		now = now.Add(100 * time.Millisecond)
		signal := source.Sample(now)
		if signal.Arousal < 0 || signal.Arousal > signal.Max {
			t.Fatalf("sample %d: arousal %d outside 0..%d", i, signal.Arousal, signal.Max)
		}
		if signal.HeatBias < 0 || signal.HeatBias > 30 {
			t.Fatalf("sample %d: heat bias %d outside 0..30", i, signal.HeatBias)
		}
	}
}

func TestSignalBeatThrottled(t *testing.T) {
	source := NewSignalSource()

	var lastBeat time.Time
	now := source.start
	for i := 0; i < 2400; i++ {
		now = now.Add(50 * time.Millisecond)
		signal := source.Sample(now)
		if signal.Beat {
			if !lastBeat.IsZero() && now.Sub(lastBeat) <= 2*time.Second {
				t.Fatalf("beats %v apart", now.Sub(lastBeat))
			}
			lastBeat = now
		}
	}
	if lastBeat.IsZero() {
		t.Fatal("no beat over two full swells")
	}
}
