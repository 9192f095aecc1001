package device

import (
	"math"
	"math/rand"
	"time"
)

const signalMax = 4000

// Signal is one sample of the session feed.
type Signal struct {
	Arousal  int
	Max      int
	HeatBias int
	Beat     bool
}

// SignalSource synthesizes a session waveform: a slow swell with jitter,
// plus a beat pulse when the swell crests.
type SignalSource struct {
	start    time.Time
	rnd      *rand.Rand
	lastBeat time.Time
}

func NewSignalSource() *SignalSource {
	return &SignalSource{
		start: time.Now(),
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SignalSource) Sample(now time.Time) Signal {
	elapsed := now.Sub(s.start).Seconds()

	// Swell over ~40s, ride a faster ripple on top.
	swell := (1 - math.Cos(2*math.Pi*elapsed/40)) / 2
	ripple := math.Sin(2*math.Pi*elapsed/3.7) * 0.06
	level := swell + ripple

	arousal := int(level*signalMax) + s.rnd.Intn(201) - 100
	if arousal < 0 {
		arousal = 0
	}
	if arousal > signalMax {
		arousal = signalMax
	}

	signal := Signal{
		Arousal:  arousal,
		Max:      signalMax,
		HeatBias: arousal * 30 / signalMax,
	}

	if swell > 0.9 && now.Sub(s.lastBeat) > 2*time.Second {
		s.lastBeat = now
		signal.Beat = true
	}

	return signal
}
