package scene

import (
	"image/color"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/render"
)

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Color     color.RGBA
	Intensity float64
}

// DirectionalLight shines along a direction from infinitely far away.
// Direction points from the surface toward the light.
type DirectionalLight struct {
	Color     color.RGBA
	Intensity float64
	Direction mgl64.Vec3
}

// Scene is the set of objects to draw, with background and lights.
// It is safe for concurrent use.
type Scene struct {
	mu      sync.RWMutex
	objects []*Object

	Background  color.RGBA
	Ambient     AmbientLight
	Directional DirectionalLight
}

// New creates an empty scene with white lights.
func New(background color.RGBA, ambient, directional float64) *Scene {
	white := color.RGBA{255, 255, 255, 255}
	return &Scene{
		Background: background,
		Ambient:    AmbientLight{Color: white, Intensity: ambient},
		Directional: DirectionalLight{
			Color:     white,
			Intensity: directional,
			Direction: mgl64.Vec3{0, 1, 0},
		},
	}
}

// Add attaches o. Adding an object twice is a no-op.
func (s *Scene) Add(o *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.objects, o) {
		return
	}
	s.objects = append(s.objects, o)
}

// Remove detaches o and reports whether it was attached.
func (s *Scene) Remove(o *Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.objects, o)
	if i < 0 {
		return false
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	return true
}

// Contains reports whether o is attached.
func (s *Scene) Contains(o *Object) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.objects, o)
}

// Objects returns a snapshot of the attached objects.
func (s *Scene) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.objects)
}

// Len returns the number of attached objects.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Clear detaches everything.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = nil
}

// Lighting converts the scene lights for the rasterizer.
func (s *Scene) Lighting() render.Lighting {
	return render.Lighting{
		AmbientColor:         s.Ambient.Color,
		AmbientIntensity:     s.Ambient.Intensity,
		DirectionalColor:     s.Directional.Color,
		DirectionalIntensity: s.Directional.Intensity,
		Direction:            s.Directional.Direction,
	}
}
