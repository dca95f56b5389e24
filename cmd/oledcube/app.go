package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/flavioheleno/oledcube/adapter"
	"github.com/flavioheleno/oledcube/internal/config"
	"github.com/flavioheleno/oledcube/render"
	"github.com/flavioheleno/oledcube/u8x8"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

// recordDrainInterval bounds the memory held by the simulated bus.
const recordDrainInterval = 10 * time.Second

type app struct {
	cfg    *config.Config
	frames int

	bus  *adapter.I2C
	dev  *u8x8.Dev
	loop *render.Loop

	// Simulation only
	rec      *i2ctest.Record
	recorded int

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// newApp opens the display described by cfg and powers it on.
func newApp(cfg *config.Config, frames int) (*app, error) {
	a := &app{
		cfg:    cfg,
		frames: frames,
		done:   make(chan struct{}),
	}

	opts := cfg.AdapterOpts()
	if cfg.SimulationMode {
		logrus.Infof("Simulation mode: bus traffic is recorded, not sent")
		a.rec = &i2ctest.Record{}
		opts.Open = func(string) (i2c.BusCloser, error) {
			return adapter.NopCloser(a.rec), nil
		}
	}

	var err error
	if a.bus, err = adapter.New(opts); err != nil {
		return nil, err
	}
	if a.dev, err = u8x8.New(a.bus, cfg.DisplayOpts()); err != nil {
		return nil, err
	}
	face, err := config.FontFace(cfg.Render.Font)
	if err != nil {
		return nil, err
	}
	a.dev.SetFont(face)

	if err := a.dev.InitDisplay(); err != nil {
		a.bus.Close()
		return nil, err
	}
	if err := a.dev.SetPowerSave(false); err != nil {
		a.bus.Close()
		return nil, err
	}
	logrus.Infof("Display initialized: %v on %v", a.dev, a.bus)

	a.loop = render.New(a.dev, cfg.RenderOpts())

	if a.rec != nil {
		a.wg.Add(1)
		go a.drainRecord()
	}
	return a, nil
}

// Run runs the named demo until it ends or Stop is called.
func (a *app) Run(name string) error {
	demo, ok := demos[name]
	if !ok {
		return fmt.Errorf("unknown demo %q", name)
	}
	logrus.Infof("Running %s demo", name)
	return demo(a)
}

// Stop interrupts the running demo. It can be called from any goroutine.
func (a *app) Stop() {
	a.stopOnce.Do(func() {
		a.loop.Stop()
		close(a.done)
	})
}

// wait sleeps for d and reports whether the demo should go on.
func (a *app) wait(d time.Duration) bool {
	select {
	case <-a.done:
		return false
	case <-time.After(d):
		return true
	}
}

// Close turns the display off and releases the bus.
func (a *app) Close() {
	a.Stop()
	a.wg.Wait()

	if err := a.dev.Halt(); err != nil {
		logrus.Warnf("Unable to turn the display off: %v", err)
	}
	if err := a.bus.Close(); err != nil {
		logrus.Warnf("Unable to close the bus: %v", err)
	}
	if a.rec != nil {
		a.drain()
		logrus.Infof("Simulation recorded %d transactions", a.recorded)
	}
}

// SavePNG writes the framebuffer to path.
func (a *app) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return errors.Join(png.Encode(f, a.dev.Image()), f.Close())
}

func (a *app) drainRecord() {
	defer a.wg.Done()
	ticker := time.NewTicker(recordDrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			logrus.Debugf("Simulation: %d transactions in the last %v", a.drain(), recordDrainInterval)
		}
	}
}

// drain empties the recorded operations and returns how many there were.
func (a *app) drain() int {
	a.rec.Lock()
	defer a.rec.Unlock()
	n := len(a.rec.Ops)
	a.rec.Ops = nil
	a.recorded += n
	return n
}
