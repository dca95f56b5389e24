package main

import (
	"time"

	"github.com/flavioheleno/oledcube/u8x8"
	"github.com/sirupsen/logrus"
)

var demos = map[string]func(a *app) error{
	"cube":     runCubeDemo,
	"box":      runBoxDemo,
	"hello":    runHelloDemo,
	"scroll":   runScrollDemo,
	"contrast": runContrastDemo,
}

// runCubeDemo renders the rotating cube
func runCubeDemo(a *app) error {
	if a.frames > 0 {
		a.loop.RunFrames(a.frames)
		logrus.Infof("Rendered %d frames, %d flush failures", a.loop.Frames(), a.loop.Failures())
		return nil
	}
	a.loop.Run()
	return nil
}

// runBoxDemo redraws a filled box once a second
func runBoxDemo(a *app) error {
	for {
		a.dev.ClearBuffer()
		a.dev.DrawBox(10, 10, 100, 100)
		if err := a.dev.SendBuffer(); err != nil {
			logrus.Warnf("Flush failed: %v", err)
		}
		if !a.wait(time.Second) {
			return nil
		}
	}
}

// runHelloDemo draws the overlay text once and keeps it on screen
func runHelloDemo(a *app) error {
	a.dev.ClearBuffer()
	a.dev.DrawStr(a.cfg.Render.TextX, a.cfg.Render.TextY, a.cfg.Render.Text)
	if err := a.dev.SendBuffer(); err != nil {
		return err
	}
	<-a.done
	return nil
}

// runScrollDemo scrolls one cube frame left, then right
func runScrollDemo(a *app) error {
	a.loop.Step()

	pages := byte(a.dev.Bounds().Dy() / 8)
	for _, right := range []bool{false, true} {
		logrus.Infof("Scrolling, right: %v", right)
		if err := a.dev.ScrollHorizontal(0, pages-1, u8x8.Speed5Frames, right); err != nil {
			return err
		}
		ok := a.wait(2 * time.Second)
		if err := a.dev.StopScroll(); err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return nil
}

// runContrastDemo cycles through contrast levels
func runContrastDemo(a *app) error {
	a.dev.ClearBuffer()
	a.dev.DrawBox(0, 0, a.dev.Bounds().Dx(), a.dev.Bounds().Dy()/2)
	a.dev.DrawStr(a.cfg.Render.TextX, a.dev.Bounds().Dy()/2+a.cfg.Render.TextY, a.cfg.Render.Text)
	if err := a.dev.SendBuffer(); err != nil {
		return err
	}

	defer func() {
		if err := a.dev.SetContrast(a.cfg.Display.Contrast); err != nil {
			logrus.Warnf("Unable to restore contrast: %v", err)
		}
	}()
	for c := 0; c < 256; c += 16 {
		if err := a.dev.SetContrast(byte(c)); err != nil {
			logrus.Warnf("Unable to set contrast %d: %v", c, err)
			continue
		}
		logrus.Infof("Contrast: %d", c)
		if !a.wait(500 * time.Millisecond) {
			return nil
		}
	}
	return nil
}
