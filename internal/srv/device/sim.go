package device

import (
	"github.com/dverney/emberdeck/internal/ht1632"
	"github.com/sirupsen/logrus"
)

// simMatrix mirrors the led matrix buffer in memory and renders flushes
// to the debug log.
type simMatrix struct {
	buf [ht1632.Width]byte
}

func newSimMatrix() *simMatrix {
	return &simMatrix{}
}

func (m *simMatrix) Clear() {
	m.buf = [ht1632.Width]byte{}
}

func (m *simMatrix) SetColumn(col int, b byte) {
	if col < 0 || col >= ht1632.Width {
		return
	}
	m.buf[col] = b
}

func (m *simMatrix) Flush() error {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		for row := 0; row < ht1632.Height; row++ {
			line := make([]byte, ht1632.Width)
			for col := 0; col < ht1632.Width; col++ {
				if m.buf[col]&(1<<row) != 0 {
					line[col] = '#'
				} else {
					line[col] = '.'
				}
			}
			logrus.Debugf("matrix |%s|", line)
		}
	}
	return nil
}

func (m *simMatrix) DrawBar(value, maxValue int) {
	if maxValue <= 0 {
		return
	}
	lit := value * ht1632.Width / maxValue
	for col := 0; col < ht1632.Width; col++ {
		if col < lit {
			m.buf[col] = 0xFF
		} else {
			m.buf[col] = 0
		}
	}
}

func (m *simMatrix) DrawString(x int, s string) {
	logrus.Debugf("matrix text at %d: %s", x, s)
}

func (m *simMatrix) ScrollText(s string) error {
	logrus.Debugf("matrix scroll: %s", s)
	return nil
}

func (m *simMatrix) RestartScroll() {}

func (m *simMatrix) SetBrightness(level int) error {
	logrus.Debugf("matrix brightness: %d", level)
	return nil
}

func (m *simMatrix) Halt() error {
	m.Clear()
	return nil
}

// simLcd accepts every frame immediately.
type simLcd struct {
	frameCount int64
}

func newSimLcd() *simLcd {
	return &simLcd{}
}

func (l *simLcd) FrameBusy() bool {
	return false
}

func (l *simLcd) SendFrameAsync(buf []byte) bool {
	l.frameCount++
	if l.frameCount%100 == 0 {
		logrus.Debugf("lcd frame %d (%d bytes)", l.frameCount, len(buf))
	}
	return true
}

func (l *simLcd) FrameErr() error {
	return nil
}

func (l *simLcd) Halt() error {
	return nil
}
