package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/bounds"
)

// boxEdges indexes bounds.Box.Corners pairs that share an edge.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along X
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along Y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along Z
}

// Wireframe draws line overlays through a rasterizer.
type Wireframe struct {
	r *Rasterizer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(r *Rasterizer) *Wireframe {
	return &Wireframe{r: r}
}

// DrawLine3D draws a line in 3D space.
func (w *Wireframe) DrawLine3D(p1, p2 mgl64.Vec3, color Color) {
	w.r.DrawLine3D(p1, p2, color)
}

// DrawBox draws the 12 edges of a world-space box.
func (w *Wireframe) DrawBox(box bounds.Box, color Color) {
	if box.IsEmpty() {
		return
	}
	c := box.Corners()
	for _, e := range boxEdges {
		w.r.DrawLine3D(c[e[0]], c[e[1]], color)
	}
}

// DrawAxes draws X, Y and Z axes from origin in red, green and blue.
func (w *Wireframe) DrawAxes(origin mgl64.Vec3, length float64) {
	w.r.DrawLine3D(origin, origin.Add(mgl64.Vec3{length, 0, 0}), ColorRed)
	w.r.DrawLine3D(origin, origin.Add(mgl64.Vec3{0, length, 0}), ColorGreen)
	w.r.DrawLine3D(origin, origin.Add(mgl64.Vec3{0, 0, length}), ColorBlue)
}

// DrawGrid draws a square grid on the XZ plane at height y.
func (w *Wireframe) DrawGrid(y, size, step float64, color Color) {
	if step <= 0 {
		return
	}
	half := size / 2
	for x := -half; x <= half+1e-9; x += step {
		w.r.DrawLine3D(mgl64.Vec3{x, y, -half}, mgl64.Vec3{x, y, half}, color)
	}
	for z := -half; z <= half+1e-9; z += step {
		w.r.DrawLine3D(mgl64.Vec3{-half, y, z}, mgl64.Vec3{half, y, z}, color)
	}
}
