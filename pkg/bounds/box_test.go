package bounds

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBoxBasics(t *testing.T) {
	box := New(mgl64.Vec3{-1, -2, -3}, mgl64.Vec3{1, 2, 3})

	if c := box.Center(); c != (mgl64.Vec3{}) {
		t.Errorf("center = %v, want origin", c)
	}
	if s := box.Size(); s != (mgl64.Vec3{2, 4, 6}) {
		t.Errorf("size = %v, want (2, 4, 6)", s)
	}
	want := math.Sqrt(4 + 16 + 36)
	if d := box.Diagonal(); math.Abs(d-want) > 1e-9 {
		t.Errorf("diagonal = %v, want %v", d, want)
	}
}

func TestEmptyBox(t *testing.T) {
	box := Empty()
	if !box.IsEmpty() {
		t.Fatal("Empty() should report IsEmpty")
	}
	if box.Diagonal() != 0 {
		t.Errorf("empty diagonal = %v, want 0", box.Diagonal())
	}
	if box.Center() != (mgl64.Vec3{}) {
		t.Errorf("empty center = %v, want origin", box.Center())
	}

	box = box.Extend(mgl64.Vec3{1, 2, 3})
	if box.IsEmpty() {
		t.Fatal("box with one point should not be empty")
	}
	if box.Min != box.Max {
		t.Errorf("single point box should have min == max, got %v %v", box.Min, box.Max)
	}
}

func TestBoxUnion(t *testing.T) {
	a := New(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := New(mgl64.Vec3{-1, 2, 0}, mgl64.Vec3{0, 3, 5})

	u := a.Union(b)
	if u.Min != (mgl64.Vec3{-1, 0, 0}) || u.Max != (mgl64.Vec3{1, 3, 5}) {
		t.Errorf("union = %v, want (-1,0,0)-(1,3,5)", u)
	}
	if got := a.Union(Empty()); got != a {
		t.Errorf("union with empty = %v, want %v", got, a)
	}
}

func TestBoxContains(t *testing.T) {
	box := New(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})

	tests := []struct {
		name string
		p    mgl64.Vec3
		want bool
	}{
		{"inside", mgl64.Vec3{5, 5, 5}, true},
		{"corner", mgl64.Vec3{0, 0, 0}, true},
		{"outside x", mgl64.Vec3{11, 5, 5}, false},
		{"outside z", mgl64.Vec3{5, 5, -1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := box.Contains(tc.p); got != tc.want {
				t.Errorf("Contains(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestBoxTransform(t *testing.T) {
	box := New(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})

	moved := box.Transform(mgl64.Translate3D(5, 0, 0))
	if !moved.Min.ApproxEqual(mgl64.Vec3{4, -1, -1}) || !moved.Max.ApproxEqual(mgl64.Vec3{6, 1, 1}) {
		t.Errorf("translated box = %v", moved)
	}

	// A 45 degree turn about Y widens the box in X and Z.
	rotated := box.Transform(mgl64.HomogRotate3DY(math.Pi / 4))
	want := math.Sqrt2
	if math.Abs(rotated.Max[0]-want) > 1e-9 || math.Abs(rotated.Max[2]-want) > 1e-9 {
		t.Errorf("rotated max = %v, want x and z near %v", rotated.Max, want)
	}
	if math.Abs(rotated.Max[1]-1) > 1e-9 {
		t.Errorf("rotation about Y should keep y extent, got %v", rotated.Max[1])
	}
}
