package srv

import (
	"github.com/dverney/emberdeck/internal/fire"
	"github.com/dverney/emberdeck/internal/graph"
	"github.com/dverney/emberdeck/internal/srv/config"
	"github.com/dverney/emberdeck/internal/srv/device"
	"github.com/dverney/emberdeck/internal/srv/event"
	"github.com/dverney/emberdeck/internal/version"
	"github.com/sirupsen/logrus"
	"os"
	"os/exec"
	"time"
)

type ServerApp struct {
	*config.ServerConfig
	displayDevice *device.Display
	tickerDevice  *device.Ticker
	buttonsDevice *device.Buttons
	signalSource  *device.SignalSource

	graphRenderer *graph.Graph
	fireEffect    *fire.Fire

	currentMode    Mode
	labelHideTimer *time.Timer

	internalEventChannel chan event.InternalEvent

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of emberdeck server %s ...", version.AppVersion.String())

	app := &ServerApp{
		currentMode:          STANDBY_MODE,
		internalEventChannel: make(chan event.InternalEvent),
		eventLoopAskDone:     make(chan bool),
		eventLoopDone:        make(chan bool),
		ServerConfig:         config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	app.displayDevice = device.NewDisplay(app.ServerConfig)
	app.tickerDevice = device.NewTicker(app.ServerConfig)
	app.buttonsDevice = device.NewButtons(app.SimulationMode)
	app.signalSource = device.NewSignalSource()

	graphOpts := graph.DefaultOpts
	graphParam := app.ServerConfig.GraphParam
	if graphParam.SampleInterval > 0 {
		graphOpts.SampleInterval = time.Duration(graphParam.SampleInterval) * time.Millisecond
	}
	if graphParam.SmoothingAlpha > 0 {
		graphOpts.SmoothingAlpha = graphParam.SmoothingAlpha
	}
	if graphParam.ResponseCurve == "square" {
		graphOpts.ResponseCurve = graph.CurveSquare
	}
	app.graphRenderer = graph.New(&graphOpts)

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting emberdeck server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	s.displayDevice.Start()

	fireOpts := fire.DefaultOpts
	fireParam := s.ServerConfig.FireParam
	if fireParam.FrameInterval > 0 {
		fireOpts.FrameInterval = time.Duration(fireParam.FrameInterval) * time.Millisecond
	}
	if fireParam.MaxCooling > 0 {
		fireOpts.MaxCooling = int(fireParam.MaxCooling)
	}
	s.fireEffect = fire.New(s.displayDevice.Lcd(), &fireOpts)

	// Restore persisted panel state
	matrix := s.displayDevice.Matrix()
	if err := matrix.SetBrightness(int(s.ServerState.Brightness())); err != nil {
		logrus.Warnf("Unable to set matrix brightness: %v", err)
	}
	s.currentMode = Mode(s.ServerState.Mode())
	if s.currentMode < MANUAL_MODE || s.currentMode > STANDBY_MODE {
		s.currentMode = STANDBY_MODE
	}

	// Display startup screen
	matrix.Clear()
	matrix.DrawString(0, "EMBR")
	if err := matrix.Flush(); err != nil {
		logrus.Warnf("Unable to refresh matrix: %v", err)
	}
	time.Sleep(2 * time.Second)

	// Start event loop
	go s.eventLoop()

	// Start ticker device
	s.tickerDevice.Start()

	// Start buttons device
	s.buttonsDevice.Start()
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping emberdeck server ...")

	// Stop buttons device
	s.buttonsDevice.StopSendingEvent()

	// Stop ticker device
	s.tickerDevice.StopSendingEvent()

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop display device
	s.displayDevice.Stop()

	// Flush config backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		err := haltCmd.Run()
		if err != nil {
			logrus.Panicf("Unable to halt the system: %v", err)
		}
	}
	os.Exit(0)
}

// showLabel draws the current mode name on the matrix for a short while,
// masking the graph.
func (s *ServerApp) showLabel() {
	matrix := s.displayDevice.Matrix()
	matrix.Clear()
	matrix.DrawString(0, s.currentMode.Label())
	if err := matrix.Flush(); err != nil {
		logrus.Warnf("Unable to refresh matrix: %v", err)
	}

	if s.labelHideTimer == nil {
		s.labelHideTimer = time.AfterFunc(1500*time.Millisecond, func() {
			s.internalEventChannel <- event.InternalEvent{Data: event.InternalEventLabelHideData{}}
		})
	} else {
		s.labelHideTimer.Reset(1500 * time.Millisecond)
	}
}
