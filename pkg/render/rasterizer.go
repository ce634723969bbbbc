package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/bounds"
)

// Vertex represents a vertex with all attributes needed for rasterization.
type Vertex struct {
	Position mgl64.Vec3 // World position
	Normal   mgl64.Vec3 // World normal (for lighting)
	UV       mgl64.Vec2 // Texture coordinates
	Color    Color      // Base color before lighting
}

// Triangle represents a triangle to be rasterized.
type Triangle struct {
	V [3]Vertex
}

// Surface is how a material looks to the rasterizer: a base color and an
// optional texture that the color tints.
type Surface struct {
	Color   Color
	Texture *Texture
}

// DefaultSurface is used for faces whose material index is out of range.
var DefaultSurface = Surface{Color: RGB(204, 204, 204)}

// Lighting is an ambient term plus one directional light.
type Lighting struct {
	AmbientColor         Color
	AmbientIntensity     float64
	DirectionalColor     Color
	DirectionalIntensity float64
	Direction            mgl64.Vec3 // from the surface toward the light
}

// DefaultLighting returns white ambient and directional lights at 0.6, the
// directional light shining straight down.
func DefaultLighting() Lighting {
	return Lighting{
		AmbientColor:         ColorWhite,
		AmbientIntensity:     0.6,
		DirectionalColor:     ColorWhite,
		DirectionalIntensity: 0.6,
		Direction:            mgl64.Vec3{0, 1, 0},
	}
}

// Shade returns the per-channel light factor for a surface with normal n.
func (l Lighting) Shade(n mgl64.Vec3) mgl64.Vec3 {
	diffuse := 0.0
	if dl := l.Direction.Len(); dl > 0 && n.Len() > 0 {
		diffuse = math.Max(0, n.Dot(l.Direction.Mul(1/dl)))
	}
	amb := colorVec(l.AmbientColor).Mul(l.AmbientIntensity)
	dir := colorVec(l.DirectionalColor).Mul(l.DirectionalIntensity * diffuse)
	return amb.Add(dir)
}

func colorVec(c Color) mgl64.Vec3 {
	return mgl64.Vec3{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

// applyLight scales c by a per-channel light factor, saturating at 255.
func applyLight(c Color, light mgl64.Vec3) Color {
	return Color{
		R: uint8(math.Min(255, float64(c.R)*light[0])),
		G: uint8(math.Min(255, float64(c.G)*light[1])),
		B: uint8(math.Min(255, float64(c.B)*light[2])),
		A: c.A,
	}
}

// Rasterizer handles software triangle rasterization into a Framebuffer.
type Rasterizer struct {
	camera       *Camera
	fb           *Framebuffer
	frustum      Frustum
	frustumDirty bool

	CullingStats CullingStats

	// DisableBackfaceCulling renders both sides of every triangle.
	DisableBackfaceCulling bool
}

// CullingStats tracks frustum culling per frame.
type CullingStats struct {
	MeshesTested int
	MeshesCulled int
	MeshesDrawn  int
}

// NewRasterizer creates a rasterizer drawing through camera into fb.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	return &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
	}
}

// Camera returns the camera the rasterizer projects with.
func (r *Rasterizer) Camera() *Camera { return r.camera }

// Framebuffer returns the target framebuffer.
func (r *Rasterizer) Framebuffer() *Framebuffer { return r.fb }

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// BeginFrame clears color and depth, resets culling stats and picks up
// camera changes. Call once per frame before drawing.
func (r *Rasterizer) BeginFrame(background Color) {
	r.fb.Clear(background)
	r.CullingStats = CullingStats{}
	r.frustumDirty = true
}

// InvalidateFrustum marks the frustum as needing recalculation.
func (r *Rasterizer) InvalidateFrustum() {
	r.frustumDirty = true
}

// Frustum returns the current frustum, recomputing it if the camera moved.
func (r *Rasterizer) Frustum() Frustum {
	if r.frustumDirty {
		r.frustum = r.camera.Frustum()
		r.frustumDirty = false
	}
	return r.frustum
}

// IsVisible tests if a world-space box is inside the frustum.
func (r *Rasterizer) IsVisible(worldBounds bounds.Box) bool {
	return r.Frustum().IntersectBox(worldBounds)
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y  float64    // Screen coordinates
	Z     float64    // NDC depth
	W     float64    // Clip W (for perspective-correct interpolation)
	Color Color      // Lit color
	Light mgl64.Vec3 // Per-channel light factor
	UV    mgl64.Vec2
}

// minClipW rejects vertices on or behind the camera plane.
const minClipW = 1e-6

// project transforms a world point to screen space. It reports false for
// points behind the camera.
func (r *Rasterizer) project(viewProj mgl64.Mat4, p mgl64.Vec3) (screenVertex, bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip[3] <= minClipW {
		return screenVertex{}, false
	}
	inv := 1 / clip[3]
	return screenVertex{
		X: (clip[0]*inv + 1) * 0.5 * float64(r.Width()),
		Y: (1 - clip[1]*inv) * 0.5 * float64(r.Height()), // Y flipped
		Z: clip[2] * inv,
		W: clip[3],
	}, true
}

// setup projects a triangle and applies backface culling. Triangles that
// cross the camera plane are dropped whole.
func (r *Rasterizer) setup(tri Triangle) ([3]screenVertex, bool) {
	var sv [3]screenVertex
	viewProj := r.camera.ViewProjectionMatrix()
	for i := range 3 {
		v, ok := r.project(viewProj, tri.V[i].Position)
		if !ok {
			return sv, false
		}
		v.UV = tri.V[i].UV
		sv[i] = v
	}

	// Screen-space winding; Y is down so clockwise world triangles come out
	// with a positive cross product.
	cross := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if cross == 0 {
		return sv, false
	}
	if cross < 0 && !r.DisableBackfaceCulling {
		return sv, false
	}
	return sv, true
}

// pixelBounds returns the clamped screen rectangle covering sv.
func (r *Rasterizer) pixelBounds(sv [3]screenVertex) (minX, minY, maxX, maxY int) {
	minX = int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX = int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY = int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY = int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))
	return minX, minY, maxX, maxY
}

// DrawTriangleGouraud rasterizes a triangle with per-vertex lighting
// interpolated across the face.
func (r *Rasterizer) DrawTriangleGouraud(tri Triangle, light Lighting) {
	sv, ok := r.setup(tri)
	if !ok {
		return
	}
	for i := range 3 {
		sv[i].Color = applyLight(tri.V[i].Color, light.Shade(tri.V[i].Normal))
	}

	minX, minY, maxX, maxY := r.pixelBounds(sv)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			bc, inside := barycentric(sv, float64(x)+0.5, float64(y)+0.5)
			if !inside {
				continue
			}
			z := bc[0]*sv[0].Z + bc[1]*sv[1].Z + bc[2]*sv[2].Z
			r.fb.DepthTest(x, y, z, interpolateColor3(sv[0].Color, sv[1].Color, sv[2].Color, bc))
		}
	}
}

// DrawTriangleTexturedGouraud rasterizes a textured triangle with
// perspective-correct UVs. Texels are tinted by the vertex color and lit by
// the interpolated per-vertex light.
func (r *Rasterizer) DrawTriangleTexturedGouraud(tri Triangle, tex *Texture, light Lighting) {
	sv, ok := r.setup(tri)
	if !ok {
		return
	}
	var invW [3]float64
	for i := range 3 {
		sv[i].Light = light.Shade(tri.V[i].Normal)
		invW[i] = 1 / sv[i].W
	}
	tint := tri.V[0].Color

	minX, minY, maxX, maxY := r.pixelBounds(sv)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			bc, inside := barycentric(sv, float64(x)+0.5, float64(y)+0.5)
			if !inside {
				continue
			}
			z := bc[0]*sv[0].Z + bc[1]*sv[1].Z + bc[2]*sv[2].Z
			if z >= r.fb.Depth[y*r.fb.Width+x] {
				continue
			}

			// Interpolate UV/W and 1/W, then divide to get the correct UV.
			w0, w1, w2 := bc[0]*invW[0], bc[1]*invW[1], bc[2]*invW[2]
			oneOverW := w0 + w1 + w2
			if oneOverW == 0 {
				continue
			}
			u := (w0*sv[0].UV[0] + w1*sv[1].UV[0] + w2*sv[2].UV[0]) / oneOverW
			v := (w0*sv[0].UV[1] + w1*sv[1].UV[1] + w2*sv[2].UV[1]) / oneOverW

			lf := sv[0].Light.Mul(bc[0]).Add(sv[1].Light.Mul(bc[1])).Add(sv[2].Light.Mul(bc[2]))
			texel := ModulateColor(tex.Sample(u, v), tint)
			texel.A = 255
			r.fb.DepthTest(x, y, z, applyLight(texel, lf))
		}
	}
}

// barycentric returns the barycentric coordinates of (px, py) in the screen
// triangle and whether the point is inside it.
func barycentric(sv [3]screenVertex, px, py float64) (mgl64.Vec3, bool) {
	v0x, v0y := sv[2].X-sv[0].X, sv[2].Y-sv[0].Y
	v1x, v1y := sv[1].X-sv[0].X, sv[1].Y-sv[0].Y
	v2x, v2y := px-sv[0].X, py-sv[0].Y

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return mgl64.Vec3{}, false
	}
	u := (dot11*dot02 - dot01*dot12) / denom
	v := (dot00*dot12 - dot01*dot02) / denom
	bc := mgl64.Vec3{1 - u - v, v, u}
	return bc, bc[0] >= 0 && bc[1] >= 0 && bc[2] >= 0
}

// interpolateColor3 interpolates between 3 colors using barycentric coords.
func interpolateColor3(c0, c1, c2 Color, bc mgl64.Vec3) Color {
	mix := func(a, b, c uint8) uint8 {
		return uint8(mgl64.Clamp(float64(a)*bc[0]+float64(b)*bc[1]+float64(c)*bc[2]+0.5, 0, 255))
	}
	return RGB(mix(c0.R, c1.R, c2.R), mix(c0.G, c1.G, c2.G), mix(c0.B, c1.B, c2.B))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// MeshRenderer is the view of a mesh the rasterizer needs. It keeps this
// package free of the models package.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal mgl64.Vec3, uv mgl64.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with bounds for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max mgl64.Vec3)
}

// MaterialMeshRenderer extends MeshRenderer with per-face material indices.
type MaterialMeshRenderer interface {
	MeshRenderer
	GetFaceMaterial(i int) int
}

// culled reports whether the mesh bounds fall outside the frustum.
// Meshes without bounds are never culled.
func (r *Rasterizer) culled(mesh MeshRenderer, transform mgl64.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}
	r.CullingStats.MeshesTested++
	lo, hi := bounded.GetBounds()
	if !r.IsVisible(bounds.New(lo, hi).Transform(transform)) {
		r.CullingStats.MeshesCulled++
		return true
	}
	r.CullingStats.MeshesDrawn++
	return false
}

// DrawMesh renders a mesh with Gouraud shading. Each face uses the surface
// at its material index; textures are sampled when textured is set. It
// reports false when the mesh was frustum culled.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, transform mgl64.Mat4, surfaces []Surface, light Lighting, textured bool) bool {
	if r.culled(mesh, transform) {
		return false
	}

	normalMat := transform.Inv().Transpose()
	materials, _ := mesh.(MaterialMeshRenderer)

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)
		if !validFace(face, mesh.VertexCount()) {
			continue
		}

		surface := DefaultSurface
		if materials != nil {
			if m := materials.GetFaceMaterial(i); m >= 0 && m < len(surfaces) {
				surface = surfaces[m]
			}
		}

		var tri Triangle
		for k := range 3 {
			p, n, uv := mesh.GetVertex(face[k])
			tri.V[k] = Vertex{
				Position: mgl64.TransformCoordinate(p, transform),
				Normal:   safeNormalize(mgl64.TransformNormal(n, normalMat)),
				UV:       uv,
				Color:    surface.Color,
			}
		}

		// Vertices without usable normals fall back to the face normal.
		fn := safeNormalize(tri.V[2].Position.Sub(tri.V[0].Position).Cross(tri.V[1].Position.Sub(tri.V[0].Position)))
		for k := range 3 {
			if tri.V[k].Normal.Len() == 0 {
				tri.V[k].Normal = fn
			}
		}

		if textured && surface.Texture != nil {
			r.DrawTriangleTexturedGouraud(tri, surface.Texture, light)
		} else {
			r.DrawTriangleGouraud(tri, light)
		}
	}
	return true
}

// DrawMeshWireframe renders the triangle edges of a mesh.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform mgl64.Mat4, color Color) {
	if r.culled(mesh, transform) {
		return
	}
	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)
		if !validFace(face, mesh.VertexCount()) {
			continue
		}
		var v [3]mgl64.Vec3
		for k := range 3 {
			p, _, _ := mesh.GetVertex(face[k])
			v[k] = mgl64.TransformCoordinate(p, transform)
		}
		r.DrawLine3D(v[0], v[1], color)
		r.DrawLine3D(v[1], v[2], color)
		r.DrawLine3D(v[2], v[0], color)
	}
}

// DrawLine3D draws a world-space line clipped to the view volume.
func (r *Rasterizer) DrawLine3D(a, b mgl64.Vec3, color Color) {
	viewProj := r.camera.ViewProjectionMatrix()
	ca, cb, ok := clipSegment(viewProj.Mul4x1(a.Vec4(1)), viewProj.Mul4x1(b.Vec4(1)))
	if !ok {
		return
	}
	x0, y0 := r.toScreen(ca)
	x1, y1 := r.toScreen(cb)
	r.fb.DrawLine(x0, y0, x1, y1, color)
}

// clipSegment clips a clip-space segment against the side planes and the
// camera plane (Liang-Barsky).
func clipSegment(a, b mgl64.Vec4) (mgl64.Vec4, mgl64.Vec4, bool) {
	dist := func(p mgl64.Vec4, plane int) float64 {
		switch plane {
		case 0:
			return p[3] + p[0]
		case 1:
			return p[3] - p[0]
		case 2:
			return p[3] + p[1]
		case 3:
			return p[3] - p[1]
		default:
			return p[3] - minClipW
		}
	}

	t0, t1 := 0.0, 1.0
	for plane := range 5 {
		da, db := dist(a, plane), dist(b, plane)
		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			t0 = math.Max(t0, da/(da-db))
		case db < 0:
			t1 = math.Min(t1, da/(da-db))
		}
	}
	if t0 > t1 {
		return a, b, false
	}
	d := b.Sub(a)
	return a.Add(d.Mul(t0)), a.Add(d.Mul(t1)), true
}

func (r *Rasterizer) toScreen(clip mgl64.Vec4) (int, int) {
	x := (clip[0]/clip[3] + 1) * 0.5 * float64(r.Width())
	y := (1 - clip[1]/clip[3]) * 0.5 * float64(r.Height())
	return int(x), int(y)
}

func validFace(face [3]int, n int) bool {
	for _, i := range face {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}
