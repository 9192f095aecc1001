package device

import (
	"github.com/dverney/emberdeck/internal/ht1632"
	"github.com/dverney/emberdeck/internal/srv/config"
	"github.com/dverney/emberdeck/internal/st7789"
	"github.com/sirupsen/logrus"
	"log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"sync"
	"time"
)

// MatrixPanel is the led matrix as seen by the event loop.
type MatrixPanel interface {
	Clear()
	SetColumn(col int, b byte)
	Flush() error
	DrawBar(value, maxValue int)
	DrawString(x int, s string)
	ScrollText(s string) error
	RestartScroll()
	SetBrightness(level int) error
	Halt() error
}

// FramePublisher is the lcd as seen by the fire renderer.
type FramePublisher interface {
	FrameBusy() bool
	SendFrameAsync(buf []byte) bool
	FrameErr() error
	Halt() error
}

type Display struct {
	lock           sync.Mutex
	simulationMode bool
	serverConfig   *config.ServerConfig

	matrix  MatrixPanel
	lcd     FramePublisher
	spiPort spi.PortCloser
}

func NewDisplay(serverConfig *config.ServerConfig) *Display {
	if !serverConfig.SimulationMode {
		if _, err := host.Init(); err != nil {
			log.Fatal(err)
		}
	}

	device := Display{
		simulationMode: serverConfig.SimulationMode,
		serverConfig:   serverConfig,
	}

	return &device
}

func outPin(name string) gpio.PinOut {
	pin := gpioreg.ByName(name)
	if pin == nil {
		logrus.Fatalf("Failed to find %s pin", name)
	}
	return pin
}

func (d *Display) Start() {
	logrus.Infof("Start display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.simulationMode {
		d.matrix = newSimMatrix()
		d.lcd = newSimLcd()
		return
	}

	matrixParam := d.serverConfig.MatrixParam
	matrix, err := ht1632.New(
		outPin(matrixParam.CsPin),
		outPin(matrixParam.WrPin),
		outPin(matrixParam.DataPin),
		&ht1632.Opts{
			Brightness:     int(matrixParam.Brightness),
			ScrollInterval: time.Duration(matrixParam.ScrollInterval) * time.Millisecond,
		})
	if err != nil {
		logrus.Fatalf("Unable to initialize led matrix: %v\n", err)
	}
	d.matrix = matrix

	lcdParam := d.serverConfig.LcdParam
	d.spiPort, err = spireg.Open(lcdParam.SpiPort)
	if err != nil {
		logrus.Fatalf("Unable to open spi port: %v\n", err)
	}

	lcdOpts := st7789.DefaultOpts
	if lcdParam.SpiSpeed > 0 {
		lcdOpts.Freq = physic.Frequency(lcdParam.SpiSpeed) * physic.Hertz
	}
	lcd, err := st7789.NewSPI(
		d.spiPort,
		outPin(lcdParam.CsPin),
		outPin(lcdParam.DcPin),
		outPin(lcdParam.RstPin),
		&lcdOpts)
	if err != nil {
		logrus.Fatalf("Unable to initialize lcd display: %v\n", err)
	}
	d.lcd = lcd
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if err := d.matrix.Halt(); err != nil {
		logrus.Warnf("Unable to halt led matrix: %v", err)
	}

	// A last frame may still be streaming; halting mid-transfer would
	// interleave command traffic with the pixel data.
	for deadline := time.Now().Add(500 * time.Millisecond); d.lcd.FrameBusy(); {
		if time.Now().After(deadline) {
			logrus.Warnf("Lcd transfer still in flight, halting anyway")
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := d.lcd.Halt(); err != nil {
		logrus.Warnf("Unable to halt lcd display: %v", err)
	}
	if d.spiPort != nil {
		d.spiPort.Close()
	}
}

func (d *Display) Matrix() MatrixPanel {
	return d.matrix
}

func (d *Display) Lcd() FramePublisher {
	return d.lcd
}
