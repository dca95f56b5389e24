package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flavioheleno/oledcube/adapter"
	"github.com/flavioheleno/oledcube/render"
	"golang.org/x/image/font/basicfont"
	"periph.io/x/conn/v3/physic"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "oledcube")
	c, err := Load(dir, false, true)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("default param file not written: %v", err)
	}
	if !bytes.Equal(raw, ParamDefaultFile) {
		t.Error("default param file differs from the embedded one")
	}
	if !c.SimulationMode || c.DebugMode {
		t.Errorf("modes = debug %v, simulation %v", c.DebugMode, c.SimulationMode)
	}

	if c.Address != 0x3C {
		t.Errorf("Address = %#x, want 0x3c", c.Address)
	}
	if c.Display.Width != 128 || c.Display.Height != 64 || !c.Display.Differential {
		t.Errorf("Display = %+v", c.Display)
	}
	if c.Render.Text != "Hello World!" || c.Render.TextY != 10 {
		t.Errorf("Render = %+v", c.Render)
	}
}

func TestLoadExisting(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("bus: I2C2\naddress: 0x78\ndisplay:\n  height: 32\nrender:\n  pacing: adaptive\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0660); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if c.Bus != "I2C2" || c.Address != 0x78 {
		t.Errorf("Bus = %q, Address = %#x", c.Bus, c.Address)
	}
	a, err := adapter.New(c.AdapterOpts())
	if err != nil {
		t.Fatal(err)
	}
	if a.Addr() != 0x3C {
		t.Errorf("adapter address = %#x, want 0x3c", a.Addr())
	}
	if c.Display.Height != 32 || c.Display.Width != 128 {
		t.Errorf("Display = %+v, unset keys should keep their default", c.Display)
	}
	if c.Render.Pacing != "adaptive" || c.Render.FrameDelayMs != 16 {
		t.Errorf("Render = %+v", c.Render)
	}

	// The existing file is left alone.
	got, _ := os.ReadFile(c.ParamFilename())
	if !bytes.Equal(got, raw) {
		t.Error("existing param file was rewritten")
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("render: [1, 2"), 0660); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, false, false); err == nil {
		t.Error("Load() should fail on malformed yaml")
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"empty", "", false},
		{"8 bit address", "address: 0x78", false},
		{"8 bit address with read bit", "address: 0x79", true},
		{"address too large", "address: 0x100", true},
		{"negative speed", "speed_khz: -1", true},
		{"negative delay", "render:\n  frame_delay_ms: -5", true},
		{"unknown pacing", "render:\n  pacing: vsync", true},
		{"unknown font", "render:\n  font: comic", true},
		{"basic font", "render:\n  font: basic7x13", false},
		{"wrong type", "display:\n  width: wide", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestOpts(t *testing.T) {
	p, err := Parse([]byte("bus: I2C1\naddress: 0x3d\nspeed_khz: 400\ndisplay:\n  rotated: true\n  column_offset: 2\nrender:\n  frame_delay_ms: 33\n  pacing: adaptive\n"))
	if err != nil {
		t.Fatal(err)
	}

	a := p.AdapterOpts()
	if a.Bus != "I2C1" || a.Addr != 0x3D || a.Speed != 400*physic.KiloHertz {
		t.Errorf("AdapterOpts() = %+v", a)
	}
	bus, err := adapter.New(a)
	if err != nil {
		t.Fatal(err)
	}
	if bus.Addr() != 0x3D {
		t.Errorf("adapter address = %#x, want 0x3d", bus.Addr())
	}

	d := p.DisplayOpts()
	if d.W != 128 || d.H != 64 || !d.Rotated || d.ColumnOffset != 2 || d.Contrast != 207 {
		t.Errorf("DisplayOpts() = %+v", d)
	}
	if d.ChunkSize != adapter.BufferSize-1 {
		t.Errorf("DisplayOpts() chunk size = %d, want %d", d.ChunkSize, adapter.BufferSize-1)
	}
	if d.ResetPulse == 0 || d.PostResetWait == 0 {
		t.Errorf("DisplayOpts() lost the reset timing: %+v", d)
	}

	r := p.RenderOpts()
	if r.FrameDelay != 33*time.Millisecond || r.Pacing != render.PacingAdaptive {
		t.Errorf("RenderOpts() = %+v", r)
	}
	if r.StepX != 0.05 || r.StepY != 0.08 {
		t.Errorf("RenderOpts() steps = %v, %v", r.StepX, r.StepY)
	}
}

func TestFontFace(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"bitmap", false},
		{"basic7x13", false},
		{"Bitmap", true},
	}

	for _, tt := range tests {
		f, err := FontFace(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("FontFace(%q) error = %v", tt.name, err)
		}
		if err != nil {
			continue
		}
		_, basic := f.(*basicfont.Face)
		if f == nil || basic != (tt.name == "basic7x13") {
			t.Errorf("FontFace(%q) returned the wrong face", tt.name)
		}
	}
}
