package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/bounds"
)

// Plane is Normal.p + D = 0.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Mul(1 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive is on the side the normal points to.
func (p Plane) DistanceToPoint(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the six planes of a view frustum with inward normals.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts frustum planes from a view-projection matrix
// (Gribb/Hartmann).
func NewFrustumFromMatrix(m mgl64.Mat4) Frustum {
	row := func(i int) mgl64.Vec4 { return m.Row(i) }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes := [6]mgl64.Vec4{
		FrustumLeft:   r3.Add(r0),
		FrustumRight:  r3.Sub(r0),
		FrustumBottom: r3.Add(r1),
		FrustumTop:    r3.Sub(r1),
		FrustumNear:   r3.Add(r2),
		FrustumFar:    r3.Sub(r2),
	}

	var f Frustum
	for i, p := range planes {
		f.Planes[i] = Plane{Normal: p.Vec3(), D: p[3]}
		f.Planes[i].Normalize()
	}
	return f
}

// IntersectBox reports whether any part of box is inside the frustum.
// It tests the corner furthest along each plane normal.
func (f Frustum) IntersectBox(box bounds.Box) bool {
	if box.IsEmpty() {
		return false
	}
	for _, plane := range f.Planes {
		p := mgl64.Vec3{
			pick(plane.Normal[0] >= 0, box.Max[0], box.Min[0]),
			pick(plane.Normal[1] >= 0, box.Max[1], box.Min[1]),
			pick(plane.Normal[2] >= 0, box.Max[2], box.Min[2]),
		}
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsBox reports whether box is entirely inside the frustum.
func (f Frustum) ContainsBox(box bounds.Box) bool {
	if box.IsEmpty() {
		return false
	}
	for _, plane := range f.Planes {
		n := mgl64.Vec3{
			pick(plane.Normal[0] >= 0, box.Min[0], box.Max[0]),
			pick(plane.Normal[1] >= 0, box.Min[1], box.Max[1]),
			pick(plane.Normal[2] >= 0, box.Min[2], box.Max[2]),
		}
		if plane.DistanceToPoint(n) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p mgl64.Vec3) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere tests if a sphere intersects the frustum.
func (f Frustum) IntersectsSphere(center mgl64.Vec3, radius float64) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// Frustum returns the current view frustum of the camera.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}
