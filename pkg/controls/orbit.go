// Package controls implements orbit controls: the camera circles a target
// on a sphere, driven by rotate and zoom input.
package controls

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/render"
)

// Defaults match the viewer's fixed setup.
const (
	DefaultDampingFactor = 0.05
	DefaultMinDistance   = 0.5
	DefaultMaxDistance   = 100.0
	DefaultRotateSpeed   = 1.0
	DefaultZoomSpeed     = 1.0

	// polarEpsilon keeps the camera off the poles, where LookAt loses yaw.
	polarEpsilon = 1e-6

	// Zoom spring: angular frequency and damping ratio (critically damped).
	zoomFrequency = 6.0
	zoomDamping   = 1.0

	settleEpsilon = 1e-6
)

// Options configures an Orbit.
type Options struct {
	EnableDamping bool
	DampingFactor float64
	MinDistance   float64
	MaxDistance   float64
	RotateSpeed   float64
	ZoomSpeed     float64
}

// DefaultOptions returns damping enabled with factor 0.05 and distances
// clamped to [0.5, 100].
func DefaultOptions() Options {
	return Options{
		EnableDamping: true,
		DampingFactor: DefaultDampingFactor,
		MinDistance:   DefaultMinDistance,
		MaxDistance:   DefaultMaxDistance,
		RotateSpeed:   DefaultRotateSpeed,
		ZoomSpeed:     DefaultZoomSpeed,
	}
}

// Orbit keeps a camera on a sphere around Target.
//
// Theta is the azimuth around +Y measured from +Z, phi the polar angle
// measured from +Y.
type Orbit struct {
	Options
	Target mgl64.Vec3

	radius float64
	theta  float64
	phi    float64

	// pending rotation, consumed by Update
	dTheta float64
	dPhi   float64

	zoomGoal float64
	zoomVel  float64
}

// New creates orbit controls around the origin.
func New(opts Options) *Orbit {
	o := &Orbit{Options: opts}
	o.radius = o.clampRadius(1)
	o.zoomGoal = o.radius
	o.phi = math.Pi / 2
	return o
}

// Sync derives the spherical state from the camera position, clamps it to
// the allowed ranges and moves the camera onto the result. Pending input
// is dropped.
func (o *Orbit) Sync(cam *render.Camera) {
	offset := cam.Position.Sub(o.Target)
	r := offset.Len()
	if r == 0 {
		o.theta, o.phi = 0, math.Pi/2
	} else {
		o.theta = math.Atan2(offset[0], offset[2])
		o.phi = math.Acos(mgl64.Clamp(offset[1]/r, -1, 1))
	}
	o.phi = o.clampPhi(o.phi)
	o.radius = o.clampRadius(r)
	o.zoomGoal = o.radius
	o.zoomVel = 0
	o.dTheta, o.dPhi = 0, 0
	o.apply(cam)
}

// Rotate queues a rotation in radians. Positive dTheta swings the camera
// from +Z toward -X, positive dPhi raises it toward +Y.
func (o *Orbit) Rotate(dTheta, dPhi float64) {
	o.dTheta -= dTheta * o.RotateSpeed
	o.dPhi -= dPhi * o.RotateSpeed
}

// Zoom scales the goal distance: values above 1 move away, below 1 move
// closer. The camera eases toward the goal over the next updates.
func (o *Orbit) Zoom(scale float64) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}
	o.zoomGoal = o.clampRadius(o.zoomGoal * math.Pow(scale, o.ZoomSpeed))
}

// Distance returns the current camera distance from the target.
func (o *Orbit) Distance() float64 { return o.radius }

// Angles returns the current azimuth and polar angles.
func (o *Orbit) Angles() (theta, phi float64) { return o.theta, o.phi }

// Update advances the controls by dt seconds and repositions the camera.
// It reports whether anything is still moving.
func (o *Orbit) Update(cam *render.Camera, dt float64) bool {
	if o.EnableDamping {
		o.theta += o.dTheta * o.DampingFactor
		o.phi += o.dPhi * o.DampingFactor
		o.dTheta *= 1 - o.DampingFactor
		o.dPhi *= 1 - o.DampingFactor
	} else {
		o.theta += o.dTheta
		o.phi += o.dPhi
		o.dTheta, o.dPhi = 0, 0
	}
	o.phi = o.clampPhi(o.phi)

	if dt > 0 {
		spring := harmonica.NewSpring(dt, zoomFrequency, zoomDamping)
		o.radius, o.zoomVel = spring.Update(o.radius, o.zoomVel, o.zoomGoal)
	} else {
		o.radius, o.zoomVel = o.zoomGoal, 0
	}
	if math.Abs(o.radius-o.zoomGoal) < settleEpsilon && math.Abs(o.zoomVel) < settleEpsilon {
		o.radius, o.zoomVel = o.zoomGoal, 0
	}
	o.radius = o.clampRadius(o.radius)

	o.apply(cam)
	return math.Abs(o.dTheta) > settleEpsilon || math.Abs(o.dPhi) > settleEpsilon || o.radius != o.zoomGoal
}

// apply moves the camera to the current spherical position.
func (o *Orbit) apply(cam *render.Camera) {
	sinPhi := math.Sin(o.phi)
	offset := mgl64.Vec3{
		o.radius * sinPhi * math.Sin(o.theta),
		o.radius * math.Cos(o.phi),
		o.radius * sinPhi * math.Cos(o.theta),
	}
	cam.SetPosition(o.Target.Add(offset))
	cam.LookAt(o.Target)
}

func (o *Orbit) clampRadius(r float64) float64 {
	lo, hi := o.MinDistance, o.MaxDistance
	if hi <= 0 {
		hi = math.Inf(1)
	}
	if math.IsNaN(r) {
		r = lo
	}
	return math.Max(lo, math.Min(hi, r))
}

func (o *Orbit) clampPhi(phi float64) float64 {
	return math.Max(polarEpsilon, math.Min(math.Pi-polarEpsilon, phi))
}
