package device

import (
	"github.com/dverney/emberdeck/internal/srv/config"
	"github.com/dverney/emberdeck/internal/srv/event"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

// Ticker paces the render loop. Both displays are refreshed from its
// events, each renderer throttling itself to its own cadence.
type Ticker struct {
	lock         sync.RWMutex
	eventChannel chan event.TickerEvent

	serverConfig *config.ServerConfig
	frameTicker  *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewTicker(serverConfig *config.ServerConfig) *Ticker {
	ticker := Ticker{
		eventChannel: make(chan event.TickerEvent),
		serverConfig: serverConfig,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
	return &ticker
}

func (d *Ticker) Start() {
	logrus.Infof("Start ticker device")
	d.lock.Lock()
	defer d.lock.Unlock()

	period := time.Second / time.Duration(d.serverConfig.TickFrequency)
	d.frameTicker = time.NewTicker(period)

	go func() {
		for loop := true; loop; {
			select {
			case <-d.frameTicker.C:
				d.eventChannel <- event.TickerEvent{Data: event.TickerEventTickData{}}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Ticker) StopSendingEvent() {
	logrus.Infof("Stop ticker device")
	d.lock.Lock()
	defer d.lock.Unlock()

	d.frameTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Ticker) EventChannel() chan event.TickerEvent {
	return d.eventChannel
}
