package srv

import (
	"github.com/dverney/emberdeck/internal/srv/event"
	"github.com/sirupsen/logrus"
)

func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.internalEventChannel:
			switch ev.Data.(type) {
			case event.InternalEventLabelHideData:
				if s.labelHideTimer != nil {
					s.labelHideTimer = nil
				}
			}
		case ev := <-s.tickerDevice.EventChannel():
			switch ev.Data.(type) {
			case event.TickerEventTickData:
				s.refreshDisplays()
			}
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %d, %d, %d", ev.ButtonId, ev.ButtonEventType, ev.PressStepCount)
			switch ev.ButtonId {
			case event.MODE_BUTTON:
				if ev.ButtonEventType == event.PRESS_EVENT_TYPE {
					s.currentMode = s.currentMode.Next()
					s.ServerState.SetMode(int64(s.currentMode))
					s.showLabel()
				}
			case event.STANDBY_BUTTON:
				if ev.ButtonEventType == event.PRESS_EVENT_TYPE && ev.PressStepCount == 1 {
					if s.currentMode == STANDBY_MODE {
						s.currentMode = MANUAL_MODE
					} else {
						s.currentMode = STANDBY_MODE
					}
					s.ServerState.SetMode(int64(s.currentMode))
					s.displayDevice.Matrix().RestartScroll()
				}
			case event.MORE_BUTTON:
				if ev.ButtonEventType == event.PRESS_EVENT_TYPE {
					s.adjustBrightness(1)
				}
			case event.LESS_BUTTON:
				if ev.ButtonEventType == event.PRESS_EVENT_TYPE {
					s.adjustBrightness(-1)
				}
			}
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) adjustBrightness(delta int64) {
	brightness := s.ServerState.Brightness() + delta
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 15 {
		brightness = 15
	}
	s.ServerState.SetBrightness(brightness)
	if err := s.displayDevice.Matrix().SetBrightness(int(brightness)); err != nil {
		logrus.Warnf("Unable to set matrix brightness: %v", err)
	}
}
