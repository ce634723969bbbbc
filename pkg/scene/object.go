// Package scene holds the scene graph: the displayed objects and the lights.
package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/bounds"
	"github.com/taigrr/vitrine/pkg/models"
	"github.com/taigrr/vitrine/pkg/render"
)

// Object is a mesh placed in the scene.
type Object struct {
	Name string
	Path string
	Mesh *models.Mesh

	// Surfaces holds one entry per mesh material, ready for the rasterizer.
	Surfaces []render.Surface

	Position mgl64.Vec3
	Rotation mgl64.Vec3 // Euler angles in radians, applied X then Y then Z
	Scale    mgl64.Vec3
}

// NewObject wraps mesh, converting its materials to render surfaces.
func NewObject(name, path string, mesh *models.Mesh) *Object {
	o := &Object{
		Name:  name,
		Path:  path,
		Mesh:  mesh,
		Scale: mgl64.Vec3{1, 1, 1},
	}
	o.Surfaces = make([]render.Surface, mesh.MaterialCount())
	for i := range o.Surfaces {
		o.Surfaces[i] = SurfaceFromMaterial(*mesh.GetMaterial(i))
	}
	return o
}

// SurfaceFromMaterial converts a model material to a render surface.
func SurfaceFromMaterial(m models.Material) render.Surface {
	s := render.Surface{
		Color: color.RGBA{
			R: unitToByte(m.BaseColor[0]),
			G: unitToByte(m.BaseColor[1]),
			B: unitToByte(m.BaseColor[2]),
			A: 255,
		},
	}
	if tex := render.TextureFromImage(m.BaseMap); tex != nil {
		tex.FilterMode = render.FilterBilinear
		s.Texture = tex
	}
	return s
}

func unitToByte(v float64) uint8 {
	return uint8(mgl64.Clamp(v, 0, 1)*255 + 0.5)
}

// Matrix returns the object's local-to-world transform: T * Rx * Ry * Rz * S.
func (o *Object) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(o.Position[0], o.Position[1], o.Position[2]).
		Mul4(mgl64.HomogRotate3DX(o.Rotation[0])).
		Mul4(mgl64.HomogRotate3DY(o.Rotation[1])).
		Mul4(mgl64.HomogRotate3DZ(o.Rotation[2])).
		Mul4(mgl64.Scale3D(o.Scale[0], o.Scale[1], o.Scale[2]))
}

// WorldBounds returns the axis-aligned box around the transformed mesh.
// It transforms every vertex rather than the local box corners, so a
// rotated model gets a tight box.
func (o *Object) WorldBounds() bounds.Box {
	m := o.Matrix()
	b := bounds.Empty()
	for _, v := range o.Mesh.Vertices {
		b = b.Extend(mgl64.TransformCoordinate(v.Position, m))
	}
	return b
}

// TriangleCount returns the mesh triangle count.
func (o *Object) TriangleCount() int {
	if o.Mesh == nil {
		return 0
	}
	return o.Mesh.TriangleCount()
}
