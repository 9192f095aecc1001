package srv

import (
	"github.com/sirupsen/logrus"
	"time"
)

// refreshDisplays advances both panels by one scheduler tick. The fire
// keeps burning in every mode; the matrix shows the bar graph while
// running and a scrolling banner in standby.
func (s *ServerApp) refreshDisplays() {
	sample := s.signalSource.Sample(time.Now())

	if s.currentMode == STANDBY_MODE {
		s.fireEffect.SetHeatBias(0)
	} else {
		s.fireEffect.SetHeatBias(sample.HeatBias)
		if sample.Beat {
			s.fireEffect.Pulse()
		}
	}
	s.fireEffect.Tick()
	if err := s.displayDevice.Lcd().FrameErr(); err != nil {
		logrus.Warnf("Lcd frame failed: %v", err)
	}

	if s.labelHideTimer != nil {
		// Mode label popup masks the graph until its timer fires.
		return
	}

	matrix := s.displayDevice.Matrix()
	if s.currentMode == STANDBY_MODE {
		if err := matrix.ScrollText(s.currentMode.Label()); err != nil {
			logrus.Warnf("Unable to refresh matrix: %v", err)
		}
		return
	}

	if err := s.graphRenderer.Tick(sample.Arousal, sample.Max, matrix); err != nil {
		logrus.Warnf("Unable to refresh matrix: %v", err)
	}
}
