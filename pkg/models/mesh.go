// Package models provides 3D model loading and representation for vitrine.
package models

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/bounds"
)

// Mesh represents a 3D mesh with vertices, faces, and materials.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	bounds bounds.Box
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	UV       mgl64.Vec2
}

// Face is a triangle with vertex indices and a material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material is the subset of a PBR material the rasterizer understands.
type Material struct {
	Name      string
	BaseColor [4]float64  // RGBA in 0-1 range
	Metallic  float64     // 0 = dielectric, 1 = metal
	Roughness float64     // 0 = smooth, 1 = rough
	BaseMap   image.Image // Optional base color texture
}

// HasTexture reports whether the material carries a base color image.
func (m Material) HasTexture() bool {
	return m.BaseMap != nil
}

// DefaultMaterial is used for faces that reference no material.
func DefaultMaterial() Material {
	return Material{
		Name:      "default",
		BaseColor: [4]float64{0.8, 0.8, 0.8, 1},
		Roughness: 1,
	}
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
		bounds:   bounds.Empty(),
	}
}

// CalculateBounds recomputes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	b := bounds.Empty()
	for _, v := range m.Vertices {
		b = b.Extend(v.Position)
	}
	m.bounds = b
}

// Bounds returns the cached bounding box. Call CalculateBounds after
// editing vertices directly.
func (m *Mesh) Bounds() bounds.Box {
	return m.bounds
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateNormals assigns each face's normal to its vertices.
// Vertices shared between faces end up with the normal of the last face.
func (m *Mesh) CalculateNormals() {
	for _, f := range m.Faces {
		n := m.faceNormal(f).Normalize()
		for _, idx := range f.V {
			m.Vertices[idx].Normal = n
		}
	}
}

// CalculateSmoothNormals computes area-weighted averaged normals.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = mgl64.Vec3{}
	}

	for _, f := range m.Faces {
		// Unnormalized, so larger faces weigh more.
		n := m.faceNormal(f)
		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(n)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = safeNormalize(m.Vertices[i].Normal)
	}
}

// HasNormals reports whether any vertex carries a usable normal.
func (m *Mesh) HasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// faceNormal returns the face normal for the renderer's clockwise winding.
func (m *Mesh) faceNormal(f Face) mgl64.Vec3 {
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v2.Sub(v0).Cross(v1.Sub(v0))
}

// Transform applies mat to all positions and normals, then refreshes bounds.
func (m *Mesh) Transform(mat mgl64.Mat4) {
	normalMat := mat.Inv().Transpose()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Position = mgl64.TransformCoordinate(v.Position, mat)
		v.Normal = safeNormalize(mgl64.TransformNormal(v.Normal, normalMat))
	}
	m.CalculateBounds()
}

// Append merges other into m, remapping its face and material indices.
func (m *Mesh) Append(other *Mesh) {
	baseVertex := len(m.Vertices)
	baseMaterial := len(m.Materials)

	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Materials = append(m.Materials, other.Materials...)
	for _, f := range other.Faces {
		nf := Face{
			V:        [3]int{f.V[0] + baseVertex, f.V[1] + baseVertex, f.V[2] + baseVertex},
			Material: -1,
		}
		if f.Material >= 0 {
			nf.Material = f.Material + baseMaterial
		}
		m.Faces = append(m.Faces, nf)
	}
	m.bounds = m.bounds.Union(other.bounds)
}

// Clone creates a deep copy of the mesh. Material images are shared.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
		bounds:    m.bounds,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	return clone
}

// GetVertex returns the position, normal, and UV for vertex i.
func (m *Mesh) GetVertex(i int) (pos, normal mgl64.Vec3, uv mgl64.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetFace returns the vertex indices for face i.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetFaceMaterial returns the material index for face i, or -1.
func (m *Mesh) GetFaceMaterial(i int) int {
	return m.Faces[i].Material
}

// GetMaterial returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// MaterialCount returns the number of materials.
func (m *Mesh) MaterialCount() int {
	return len(m.Materials)
}

// GetBounds returns the bounding box corners for frustum culling.
func (m *Mesh) GetBounds() (min, max mgl64.Vec3) {
	return m.bounds.Min, m.bounds.Max
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}
