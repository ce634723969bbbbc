package viewer

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/controls"
	"github.com/taigrr/vitrine/pkg/models"
	"github.com/taigrr/vitrine/pkg/render"
)

// Framing decides how a freshly loaded model is placed in view.
type Framing struct {
	// DistanceFactor multiplies the bounding box diagonal to get the
	// camera distance.
	DistanceFactor float64

	// Rotation is applied to the model before it is measured, as XYZ Euler
	// angles in radians.
	Rotation mgl64.Vec3
}

// Framing presets.
var (
	// FramingPlain keeps the model as authored.
	FramingPlain = Framing{DistanceFactor: 1.5}

	// FramingUpright turns Z-up exports upright and moves in closer.
	FramingUpright = Framing{
		DistanceFactor: 0.8,
		Rotation:       mgl64.Vec3{-math.Pi / 2, 0, -math.Pi},
	}
)

// FramingPreset returns the preset called name.
func FramingPreset(name string) (Framing, error) {
	switch strings.ToLower(name) {
	case "", "plain":
		return FramingPlain, nil
	case "upright":
		return FramingUpright, nil
	}
	return Framing{}, fmt.Errorf("unknown framing preset %q", name)
}

// Options configures a Viewer.
type Options struct {
	FOV  float64 // vertical field of view in degrees
	Near float64
	Far  float64

	Background       color.RGBA
	AmbientColor     color.RGBA
	AmbientIntensity float64

	DirectionalColor     color.RGBA
	DirectionalIntensity float64
	LightDirection       mgl64.Vec3

	Controls controls.Options
	Framing  Framing

	// Registry maps extensions to loaders. Nil means
	// models.DefaultRegistry(MaxTextureSize).
	Registry       *models.Registry
	MaxTextureSize int

	// Logger receives load errors and progress. Nil means log.Default().
	Logger *log.Logger
}

// DefaultOptions returns the fixed scene setup: 75 degree FOV, clip planes
// 0.1 and 1000, white ambient and directional lights at 0.6 and a 0x222222
// background.
func DefaultOptions() Options {
	return Options{
		FOV:                  75,
		Near:                 0.1,
		Far:                  1000,
		Background:           render.Hex(0x222222),
		AmbientColor:         render.ColorWhite,
		AmbientIntensity:     0.6,
		DirectionalColor:     render.ColorWhite,
		DirectionalIntensity: 0.6,
		LightDirection:       mgl64.Vec3{0, 1, 0},
		Controls:             controls.DefaultOptions(),
		Framing:              FramingPlain,
		MaxTextureSize:       models.DefaultMaxTextureSize,
	}
}

// Mode selects how meshes are drawn.
type Mode int

const (
	ModeSolid Mode = iota
	ModeWireframe
)

func (m Mode) String() string {
	if m == ModeWireframe {
		return "wireframe"
	}
	return "solid"
}

// ParseMode parses "solid" or "wireframe".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "solid":
		return ModeSolid, nil
	case "wireframe":
		return ModeWireframe, nil
	}
	return ModeSolid, fmt.Errorf("unknown render mode %q", s)
}

// DrawOptions selects what Draw renders.
type DrawOptions struct {
	Mode     Mode
	Textures bool // sample material textures in solid mode
	Bounds   bool // outline the model's bounding box
	Axes     bool // draw world axes at the origin
}
