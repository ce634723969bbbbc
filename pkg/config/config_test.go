package config

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/taigrr/vitrine/pkg/viewer"
)

func TestDefaultValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}

	opts, err := cfg.ViewerOptions()
	if err != nil {
		t.Fatal(err)
	}
	want := viewer.DefaultOptions()
	want.MaxTextureSize = cfg.Render.MaxTextureSize
	if opts.FOV != want.FOV || opts.Near != want.Near || opts.Far != want.Far {
		t.Errorf("camera = %v/%v/%v, want %v/%v/%v", opts.FOV, opts.Near, opts.Far, want.FOV, want.Near, want.Far)
	}
	if opts.Background != want.Background {
		t.Errorf("Background = %v, want %v", opts.Background, want.Background)
	}
	if opts.AmbientIntensity != 0.6 || opts.DirectionalIntensity != 0.6 {
		t.Errorf("intensities = %v, %v", opts.AmbientIntensity, opts.DirectionalIntensity)
	}
	if opts.Controls != want.Controls {
		t.Errorf("Controls = %+v, want %+v", opts.Controls, want.Controls)
	}
	if opts.Framing != viewer.FramingPlain {
		t.Errorf("Framing = %+v, want plain", opts.Framing)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitrine.yaml")
	doc := `
camera:
  fov: 60
background: "0x101820"
framing:
  preset: upright
controls:
  max_distance: 250
remote:
  enabled: true
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Camera.FOV != 60 {
		t.Errorf("fov = %v, want 60", cfg.Camera.FOV)
	}
	if cfg.Camera.Near != 0.1 || cfg.Camera.Far != 1000 {
		t.Errorf("clip planes lost defaults: %+v", cfg.Camera)
	}
	if cfg.Controls.MinDistance != 0.5 || cfg.Controls.MaxDistance != 250 {
		t.Errorf("controls = %+v", cfg.Controls)
	}
	if !cfg.Remote.Enabled || cfg.Remote.Listen != Default().Remote.Listen {
		t.Errorf("remote = %+v", cfg.Remote)
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
	}

	opts, err := cfg.ViewerOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Framing != viewer.FramingUpright {
		t.Errorf("Framing = %+v, want upright", opts.Framing)
	}
	if want := (color.RGBA{0x10, 0x18, 0x20, 255}); opts.Background != want {
		t.Errorf("Background = %v, want %v", opts.Background, want)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Error("Load(\"\") should return the defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestFramingOverrides(t *testing.T) {
	cfg := Default()
	cfg.Framing = Framing{Preset: "upright", DistanceFactor: 2, Rotation: &[3]float64{90, 0, 0}}
	opts, err := cfg.ViewerOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Framing.DistanceFactor != 2 {
		t.Errorf("DistanceFactor = %v, want 2", opts.Framing.DistanceFactor)
	}
	if r := opts.Framing.Rotation; math.Abs(r[0]-math.Pi/2) > 1e-12 || r[1] != 0 || r[2] != 0 {
		t.Errorf("Rotation = %v, want (pi/2, 0, 0)", r)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"fov zero", func(c *Config) { c.Camera.FOV = 0 }, "camera.fov"},
		{"fov too wide", func(c *Config) { c.Camera.FOV = 180 }, "camera.fov"},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }, "clip planes"},
		{"bad background", func(c *Config) { c.Background = "purple" }, "background"},
		{"bad light color", func(c *Config) { c.Lights.Ambient.Color = "#12345" }, "lights.ambient.color"},
		{"negative intensity", func(c *Config) { c.Lights.Directional.Intensity = -1 }, "lights.directional.intensity"},
		{"damping factor", func(c *Config) { c.Controls.DampingFactor = 1.5 }, "damping_factor"},
		{"min distance", func(c *Config) { c.Controls.MinDistance = 0 }, "min_distance"},
		{"max below min", func(c *Config) { c.Controls.MaxDistance = 0.1 }, "max_distance"},
		{"preset", func(c *Config) { c.Framing.Preset = "sideways" }, "framing.preset"},
		{"fps", func(c *Config) { c.Render.FPS = 0 }, "render.fps"},
		{"mode", func(c *Config) { c.Render.Mode = "points" }, "render.mode"},
		{"remote listen", func(c *Config) { c.Remote = Remote{Enabled: true} }, "remote.listen"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"max distance unlimited", func(c *Config) { c.Controls.MaxDistance = 0 }, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errSub == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errSub) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tc.errSub)
			}
		})
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	cfg := Default()
	if err := Parse([]byte("camera: [1, 2"), &cfg); err == nil {
		t.Error("Parse() should fail on malformed YAML")
	}
	if err := Parse([]byte("camera:\n  fov: -5\n"), &cfg); err == nil {
		t.Error("Parse() should validate the result")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#222222", color.RGBA{0x22, 0x22, 0x22, 255}, true},
		{"0xFF8000", color.RGBA{0xff, 0x80, 0x00, 255}, true},
		{"00ff00", color.RGBA{0, 0xff, 0, 255}, true},
		{" #abcdef ", color.RGBA{0xab, 0xcd, 0xef, 255}, true},
		{"#fff", color.RGBA{}, false},
		{"#gggggg", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tc := range tests {
		got, err := ParseColor(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseColor(%q) error = %v, ok want %v", tc.in, err, tc.ok)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
