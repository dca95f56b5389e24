package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flavioheleno/oledcube/adapter"
	"github.com/flavioheleno/oledcube/render"
	"github.com/flavioheleno/oledcube/u8x8"
	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

const paramFilename = "config.yaml"

//go:embed param_default.yaml
var ParamDefaultFile []byte

type Config struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*Param
}

type Param struct {
	Bus      string       `yaml:"bus"`
	Address  uint16       `yaml:"address"`
	SpeedKHz int64        `yaml:"speed_khz"`
	Display  DisplayParam `yaml:"display"`
	Render   RenderParam  `yaml:"render"`
}

type DisplayParam struct {
	Width        int  `yaml:"width"`
	Height       int  `yaml:"height"`
	Rotated      bool `yaml:"rotated"`
	Contrast     byte `yaml:"contrast"`
	ColumnOffset int  `yaml:"column_offset"`
	Differential bool `yaml:"differential"`
}

type RenderParam struct {
	Text         string  `yaml:"text"`
	TextX        int     `yaml:"text_x"`
	TextY        int     `yaml:"text_y"`
	StepX        float64 `yaml:"step_x"`
	StepY        float64 `yaml:"step_y"`
	FrameDelayMs int64   `yaml:"frame_delay_ms"`
	Pacing       string  `yaml:"pacing"`
	Font         string  `yaml:"font"`
}

// Load reads the param file of configDir, creating the folder and a default
// param file when they are missing.
func Load(configDir string, debugMode bool, simulationMode bool) (*Config, error) {
	c := &Config{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check configuration folder
	if _, err := os.Stat(configDir); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to access config folder %s: %w", configDir, err)
		}
		logrus.Printf("Creation of config folder: %s", configDir)
		if err := os.MkdirAll(configDir, 0770); err != nil {
			return nil, fmt.Errorf("unable to create config folder: %w", err)
		}
	}

	// Open param file
	raw, err := os.ReadFile(c.ParamFilename())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to read param file: %w", err)
		}
		logrus.Infof("Create default param file: %s", c.ParamFilename())
		if err := os.WriteFile(c.ParamFilename(), ParamDefaultFile, 0660); err != nil {
			return nil, fmt.Errorf("unable to save param file: %w", err)
		}
		raw = ParamDefaultFile
	}

	c.Param, err = Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("unable to interpret param file %s: %w", c.ParamFilename(), err)
	}
	return c, nil
}

// Parse decodes and validates a param file. Keys it does not set keep
// their default value.
func Parse(raw []byte) (*Param, error) {
	p := &Param{}
	if err := yaml.Unmarshal(ParamDefaultFile, p); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Config) ParamFilename() string {
	return filepath.Join(c.ConfigDir, paramFilename)
}

// Validate checks the values the drivers do not check themselves.
func (p *Param) Validate() error {
	var errs []error
	if _, err := adapter.New(p.AdapterOpts()); err != nil {
		errs = append(errs, err)
	}
	if p.SpeedKHz < 0 {
		errs = append(errs, fmt.Errorf("speed_khz %d is negative", p.SpeedKHz))
	}
	if p.Render.FrameDelayMs < 0 {
		errs = append(errs, fmt.Errorf("render.frame_delay_ms %d is negative", p.Render.FrameDelayMs))
	}
	if _, err := render.ParsePacing(p.Render.Pacing); err != nil {
		errs = append(errs, err)
	}
	if _, err := FontFace(p.Render.Font); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AdapterOpts returns the bus configuration.
func (p *Param) AdapterOpts() *adapter.Opts {
	return &adapter.Opts{
		Bus:   p.Bus,
		Addr:  p.Address,
		Speed: physic.Frequency(p.SpeedKHz) * physic.KiloHertz,
	}
}

// DisplayOpts returns the panel configuration. Data transfers are sized to
// fill the adapter transmit buffer.
func (p *Param) DisplayOpts() *u8x8.Opts {
	opts := u8x8.DefaultOpts
	opts.W = p.Display.Width
	opts.H = p.Display.Height
	opts.Rotated = p.Display.Rotated
	opts.Contrast = p.Display.Contrast
	opts.ColumnOffset = p.Display.ColumnOffset
	opts.Differential = p.Display.Differential
	opts.ChunkSize = adapter.BufferSize - 1
	return &opts
}

// RenderOpts returns the render loop configuration.
func (p *Param) RenderOpts() *render.Opts {
	pacing, _ := render.ParsePacing(p.Render.Pacing)
	return &render.Opts{
		Text:       p.Render.Text,
		TextX:      p.Render.TextX,
		TextY:      p.Render.TextY,
		StepX:      p.Render.StepX,
		StepY:      p.Render.StepY,
		FrameDelay: time.Duration(p.Render.FrameDelayMs) * time.Millisecond,
		Pacing:     pacing,
	}
}

// FontFace returns the face named "bitmap" or "basic7x13". An empty name
// selects "bitmap".
func FontFace(name string) (font.Face, error) {
	switch name {
	case "", "bitmap":
		return bitmapfont.Face, nil
	case "basic7x13":
		return basicfont.Face7x13, nil
	}
	return nil, fmt.Errorf("unknown font %q", name)
}
