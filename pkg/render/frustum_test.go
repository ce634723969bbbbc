package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/bounds"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane y = 2, normal pointing up
	p := Plane{Normal: mgl64.Vec3{0, 1, 0}, D: -2}

	tests := []struct {
		name  string
		point mgl64.Vec3
		want  float64
	}{
		{"above", mgl64.Vec3{0, 5, 0}, 3},
		{"on plane", mgl64.Vec3{4, 2, -1}, 0},
		{"below", mgl64.Vec3{0, 0, 0}, -2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.DistanceToPoint(tc.point); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("DistanceToPoint(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	p := Plane{Normal: mgl64.Vec3{0, 2, 0}, D: 4}
	p.Normalize()
	if math.Abs(p.Normal.Len()-1) > 1e-9 || math.Abs(p.D-2) > 1e-9 {
		t.Errorf("Normalize() = %+v, want unit normal and D=2", p)
	}

	zero := Plane{D: 3}
	zero.Normalize()
	if zero.D != 3 {
		t.Errorf("zero plane D changed to %v", zero.D)
	}
}

func testFrustum(near float64) Frustum {
	// Camera at origin looking down -Z
	return NewFrustumFromMatrix(mgl64.Perspective(math.Pi/3, 16.0/9.0, near, 100))
}

func TestFrustumPlanesNormalized(t *testing.T) {
	for i, plane := range testFrustum(0.1).Planes {
		if l := plane.Normal.Len(); math.Abs(l-1) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1", i, l)
		}
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	frustum := testFrustum(0.1)

	tests := []struct {
		name  string
		point mgl64.Vec3
		want  bool
	}{
		{"center near", mgl64.Vec3{0, 0, -1}, true},
		{"center mid", mgl64.Vec3{0, 0, -50}, true},
		{"center far", mgl64.Vec3{0, 0, -99}, true},
		{"behind camera", mgl64.Vec3{0, 0, 1}, false},
		{"too far", mgl64.Vec3{0, 0, -200}, false},
		{"too close", mgl64.Vec3{0, 0, -0.01}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.ContainsPoint(tc.point); got != tc.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestFrustumIntersectBox(t *testing.T) {
	frustum := testFrustum(1)

	tests := []struct {
		name string
		box  bounds.Box
		want bool
	}{
		{"fully inside", bounds.New(mgl64.Vec3{-1, -1, -10}, mgl64.Vec3{1, 1, -5}), true},
		{"crosses near plane", bounds.New(mgl64.Vec3{-1, -1, -2}, mgl64.Vec3{1, 1, 2}), true},
		{"behind camera", bounds.New(mgl64.Vec3{-1, -1, 5}, mgl64.Vec3{1, 1, 10}), false},
		{"beyond far plane", bounds.New(mgl64.Vec3{-1, -1, -150}, mgl64.Vec3{1, 1, -120}), false},
		{"far to the right", bounds.New(mgl64.Vec3{100, -1, -10}, mgl64.Vec3{110, 1, -5}), false},
		{"contains frustum", bounds.New(mgl64.Vec3{-200, -200, -200}, mgl64.Vec3{200, 200, 200}), true},
		{"empty", bounds.Empty(), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectBox(tc.box); got != tc.want {
				t.Errorf("IntersectBox(%v) = %v, want %v", tc.box, got, tc.want)
			}
		})
	}
}

func TestFrustumContainsBox(t *testing.T) {
	frustum := testFrustum(1)
	inside := bounds.New(mgl64.Vec3{-1, -1, -10}, mgl64.Vec3{1, 1, -5})
	crossing := bounds.New(mgl64.Vec3{-1, -1, -2}, mgl64.Vec3{1, 1, 2})

	if !frustum.ContainsBox(inside) {
		t.Error("box well inside the frustum should be contained")
	}
	if frustum.ContainsBox(crossing) {
		t.Error("box crossing the near plane should not be contained")
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	frustum := testFrustum(1)

	tests := []struct {
		name   string
		center mgl64.Vec3
		radius float64
		want   bool
	}{
		{"inside", mgl64.Vec3{0, 0, -10}, 1, true},
		{"touching near plane", mgl64.Vec3{0, 0, -0.5}, 1, true},
		{"behind", mgl64.Vec3{0, 0, 5}, 1, false},
		{"far behind", mgl64.Vec3{0, 0, 20}, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectsSphere(tc.center, tc.radius); got != tc.want {
				t.Errorf("IntersectsSphere(%v, %v) = %v, want %v", tc.center, tc.radius, got, tc.want)
			}
		})
	}
}

func TestCameraFrustumFollowsLookAt(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(mgl64.Vec3{0, 0, 0})
	cam.LookAt(mgl64.Vec3{10, 0, 0})
	frustum := cam.Frustum()

	if !frustum.ContainsPoint(mgl64.Vec3{10, 0, 0}) {
		t.Error("point in front of rotated camera should be visible")
	}
	if frustum.ContainsPoint(mgl64.Vec3{-10, 0, 0}) {
		t.Error("point behind rotated camera should not be visible")
	}
}

func BenchmarkFrustumIntersectBox(b *testing.B) {
	frustum := testFrustum(1)
	box := bounds.New(mgl64.Vec3{-1, -1, -10}, mgl64.Vec3{1, 1, -5})
	for b.Loop() {
		frustum.IntersectBox(box)
	}
}
