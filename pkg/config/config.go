// Package config loads vitrine settings from YAML.
package config

import (
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/vitrine/pkg/controls"
	"github.com/taigrr/vitrine/pkg/models"
	"github.com/taigrr/vitrine/pkg/viewer"
)

// Config is the full settings tree. Zero values in a file do not override
// defaults for fields the file leaves out.
type Config struct {
	Camera     Camera   `yaml:"camera"`
	Lights     Lights   `yaml:"lights"`
	Background string   `yaml:"background"`
	Controls   Controls `yaml:"controls"`
	Framing    Framing  `yaml:"framing"`
	Render     Render   `yaml:"render"`
	Remote     Remote   `yaml:"remote"`
	Watch      Watch    `yaml:"watch"`
	Log        Log      `yaml:"log"`
}

type Camera struct {
	FOV  float64 `yaml:"fov"` // degrees
	Near float64 `yaml:"near"`
	Far  float64 `yaml:"far"`
}

type Light struct {
	Color     string  `yaml:"color"`
	Intensity float64 `yaml:"intensity"`
}

type Lights struct {
	Ambient     Light      `yaml:"ambient"`
	Directional Light      `yaml:"directional"`
	Direction   [3]float64 `yaml:"direction,flow"`
}

type Controls struct {
	Damping       bool    `yaml:"damping"`
	DampingFactor float64 `yaml:"damping_factor"`
	MinDistance   float64 `yaml:"min_distance"`
	MaxDistance   float64 `yaml:"max_distance"`
	RotateSpeed   float64 `yaml:"rotate_speed"`
	ZoomSpeed     float64 `yaml:"zoom_speed"`
}

// Framing picks a preset and optionally overrides its values.
type Framing struct {
	Preset         string      `yaml:"preset"`
	DistanceFactor float64     `yaml:"distance_factor,omitempty"`
	Rotation       *[3]float64 `yaml:"rotation,omitempty,flow"` // degrees, XYZ
}

type Render struct {
	FPS            int    `yaml:"fps"`
	Mode           string `yaml:"mode"`
	Textures       bool   `yaml:"textures"`
	MaxTextureSize int    `yaml:"max_texture_size"`
}

type Remote struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type Watch struct {
	Enabled  bool `yaml:"enabled"`
	Debounce int  `yaml:"debounce_ms"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Camera: Camera{FOV: 75, Near: 0.1, Far: 1000},
		Lights: Lights{
			Ambient:     Light{Color: "#ffffff", Intensity: 0.6},
			Directional: Light{Color: "#ffffff", Intensity: 0.6},
			Direction:   [3]float64{0, 1, 0},
		},
		Background: "#222222",
		Controls: Controls{
			Damping:       true,
			DampingFactor: controls.DefaultDampingFactor,
			MinDistance:   controls.DefaultMinDistance,
			MaxDistance:   controls.DefaultMaxDistance,
			RotateSpeed:   controls.DefaultRotateSpeed,
			ZoomSpeed:     controls.DefaultZoomSpeed,
		},
		Framing: Framing{Preset: "plain"},
		Render:  Render{FPS: 30, Mode: "solid", Textures: true, MaxTextureSize: models.DefaultMaxTextureSize},
		Remote:  Remote{Listen: "127.0.0.1:7878"},
		Watch:   Watch{Debounce: 200},
		Log:     Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values the document omits, and
// validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "decode")
	}
	return cfg.Validate()
}

// Validate checks ranges and parses the string-typed fields.
func (c Config) Validate() error {
	if !(c.Camera.FOV > 0 && c.Camera.FOV < 180) {
		return errors.Errorf("camera.fov %v out of range (0, 180)", c.Camera.FOV)
	}
	if !(c.Camera.Near > 0) || c.Camera.Far <= c.Camera.Near {
		return errors.Errorf("camera clip planes near=%v far=%v: need 0 < near < far", c.Camera.Near, c.Camera.Far)
	}
	for name, l := range map[string]Light{"ambient": c.Lights.Ambient, "directional": c.Lights.Directional} {
		if _, err := ParseColor(l.Color); err != nil {
			return errors.Wrapf(err, "lights.%s.color", name)
		}
		if l.Intensity < 0 {
			return errors.Errorf("lights.%s.intensity must not be negative", name)
		}
	}
	if _, err := ParseColor(c.Background); err != nil {
		return errors.Wrap(err, "background")
	}
	if c.Controls.DampingFactor < 0 || c.Controls.DampingFactor > 1 {
		return errors.Errorf("controls.damping_factor %v out of range [0, 1]", c.Controls.DampingFactor)
	}
	if !(c.Controls.MinDistance > 0) {
		return errors.New("controls.min_distance must be positive")
	}
	if c.Controls.MaxDistance > 0 && c.Controls.MaxDistance < c.Controls.MinDistance {
		return errors.Errorf("controls.max_distance %v below min_distance %v", c.Controls.MaxDistance, c.Controls.MinDistance)
	}
	if _, err := c.framing(); err != nil {
		return err
	}
	if c.Render.FPS <= 0 {
		return errors.Errorf("render.fps %d must be positive", c.Render.FPS)
	}
	if _, err := viewer.ParseMode(c.Render.Mode); err != nil {
		return errors.Wrap(err, "render.mode")
	}
	if c.Render.MaxTextureSize < 0 {
		return errors.New("render.max_texture_size must not be negative")
	}
	if c.Remote.Enabled && c.Remote.Listen == "" {
		return errors.New("remote.listen is required when remote is enabled")
	}
	if c.Watch.Debounce < 0 {
		return errors.New("watch.debounce_ms must not be negative")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

func (c Config) framing() (viewer.Framing, error) {
	f, err := viewer.FramingPreset(c.Framing.Preset)
	if err != nil {
		return f, errors.Wrap(err, "framing.preset")
	}
	if c.Framing.DistanceFactor < 0 {
		return f, errors.New("framing.distance_factor must not be negative")
	}
	if c.Framing.DistanceFactor > 0 {
		f.DistanceFactor = c.Framing.DistanceFactor
	}
	if r := c.Framing.Rotation; r != nil {
		f.Rotation = mgl64.Vec3{mgl64.DegToRad(r[0]), mgl64.DegToRad(r[1]), mgl64.DegToRad(r[2])}
	}
	return f, nil
}

// LogLevel returns the parsed log level, info if unset.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// ViewerOptions converts the settings to viewer options. The config must
// have passed Validate.
func (c Config) ViewerOptions() (viewer.Options, error) {
	opts := viewer.DefaultOptions()
	opts.FOV = c.Camera.FOV
	opts.Near = c.Camera.Near
	opts.Far = c.Camera.Far

	var err error
	if opts.Background, err = ParseColor(c.Background); err != nil {
		return opts, errors.Wrap(err, "background")
	}
	if opts.AmbientColor, err = ParseColor(c.Lights.Ambient.Color); err != nil {
		return opts, errors.Wrap(err, "lights.ambient.color")
	}
	if opts.DirectionalColor, err = ParseColor(c.Lights.Directional.Color); err != nil {
		return opts, errors.Wrap(err, "lights.directional.color")
	}
	opts.AmbientIntensity = c.Lights.Ambient.Intensity
	opts.DirectionalIntensity = c.Lights.Directional.Intensity
	opts.LightDirection = mgl64.Vec3(c.Lights.Direction)

	opts.Controls = controls.Options{
		EnableDamping: c.Controls.Damping,
		DampingFactor: c.Controls.DampingFactor,
		MinDistance:   c.Controls.MinDistance,
		MaxDistance:   c.Controls.MaxDistance,
		RotateSpeed:   c.Controls.RotateSpeed,
		ZoomSpeed:     c.Controls.ZoomSpeed,
	}
	if opts.Framing, err = c.framing(); err != nil {
		return opts, err
	}
	opts.MaxTextureSize = c.Render.MaxTextureSize
	return opts, nil
}

// DrawOptions returns the initial draw settings.
func (c Config) DrawOptions() viewer.DrawOptions {
	mode, _ := viewer.ParseMode(c.Render.Mode)
	return viewer.DrawOptions{Mode: mode, Textures: c.Render.Textures}
}

// ParseColor parses "#rrggbb", "0xrrggbb" or "rrggbb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(h, "#"):
		h = h[1:]
	case strings.HasPrefix(h, "0x"), strings.HasPrefix(h, "0X"):
		h = h[2:]
	}
	if len(h) != 6 {
		return color.RGBA{}, errors.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
