package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera with position and Euler orientation.
type Camera struct {
	// Position in world space
	Position mgl64.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)
	Roll  float64 // Rotation around Z axis (tilt)

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	viewMatrix     mgl64.Mat4
	projMatrix     mgl64.Mat4
	viewProjMatrix mgl64.Mat4
	viewDirty      bool
	projDirty      bool
	viewProjDirty  bool
}

// NewCamera creates a camera at +Z looking at the origin with a 75 degree
// field of view.
func NewCamera() *Camera {
	return &Camera{
		Position:      mgl64.Vec3{0, 0, 5},
		FOV:           mgl64.DegToRad(75),
		AspectRatio:   16.0 / 9.0,
		Near:          0.1,
		Far:           1000,
		viewDirty:     true,
		projDirty:     true,
		viewProjDirty: true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos mgl64.Vec3) {
	c.Position = pos
	c.markView()
}

// SetRotation sets the camera rotation (pitch, yaw, roll in radians).
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch = pitch
	c.Yaw = yaw
	c.Roll = roll
	c.markView()
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.markProj()
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return
	}
	c.AspectRatio = aspect
	c.markProj()
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.markProj()
}

func (c *Camera) markView() {
	c.viewDirty = true
	c.viewProjDirty = true
}

func (c *Camera) markProj() {
	c.projDirty = true
	c.viewProjDirty = true
}

// Forward returns the forward direction vector.
func (c *Camera) Forward() mgl64.Vec3 {
	// Forward is -Z in camera space, rotated by yaw and pitch
	return mgl64.Vec3{
		-math.Sin(c.Yaw) * math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw) * math.Cos(c.Pitch),
	}
}

// Right returns the right direction vector.
func (c *Camera) Right() mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(c.Yaw), 0, -math.Sin(c.Yaw)}
}

// Up returns the up direction vector.
func (c *Camera) Up() mgl64.Vec3 {
	return c.Right().Cross(c.Forward())
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	if c.viewDirty {
		// View = inverse orientation * translation(-position)
		rot := mgl64.HomogRotate3DZ(-c.Roll).
			Mul4(mgl64.HomogRotate3DX(-c.Pitch)).
			Mul4(mgl64.HomogRotate3DY(-c.Yaw))
		c.viewMatrix = rot.Mul4(mgl64.Translate3D(-c.Position[0], -c.Position[1], -c.Position[2]))
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	if c.projDirty {
		c.projMatrix = mgl64.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() mgl64.Mat4 {
	if c.viewProjDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul4(c.ViewMatrix())
		c.viewProjDirty = false
	}
	return c.viewProjMatrix
}

// LookAt turns the camera toward target. Looking at its own position is a
// no-op.
func (c *Camera) LookAt(target mgl64.Vec3) {
	d := target.Sub(c.Position)
	if d.Len() == 0 {
		return
	}
	dir := d.Normalize()

	c.Pitch = math.Asin(mgl64.Clamp(dir[1], -1, 1))
	c.Yaw = math.Atan2(-dir[0], -dir[2])
	c.Roll = 0
	c.markView()
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos mgl64.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clip := c.ViewProjectionMatrix().Mul4x1(worldPos.Vec4(1))

	// Behind camera
	if clip[3] <= 0 {
		return 0, 0, 0, false
	}

	ndc := clip.Vec3().Mul(1 / clip[3])
	if ndc[0] < -1 || ndc[0] > 1 || ndc[1] < -1 || ndc[1] > 1 || ndc[2] < -1 || ndc[2] > 1 {
		return 0, 0, 0, false
	}

	x = (ndc[0] + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc[1]) * 0.5 * float64(screenHeight) // Y is flipped
	return x, y, ndc[2], true
}
