package models

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func quadMesh() *Mesh {
	mesh := NewMesh("quad")
	mesh.Vertices = []MeshVertex{
		{Position: mgl64.Vec3{-1, -1, 0}},
		{Position: mgl64.Vec3{1, -1, 0}},
		{Position: mgl64.Vec3{1, 1, 0}},
		{Position: mgl64.Vec3{-1, 1, 0}},
	}
	// CW as seen from +Z.
	mesh.Faces = []Face{
		{V: [3]int{0, 3, 2}, Material: -1},
		{V: [3]int{0, 2, 1}, Material: -1},
	}
	mesh.CalculateBounds()
	return mesh
}

// TestMaterialDefaults verifies default material values.
func TestMaterialDefaults(t *testing.T) {
	m := DefaultMaterial()

	if m.BaseColor[3] != 1 {
		t.Errorf("Expected alpha=1, got %f", m.BaseColor[3])
	}
	if m.HasTexture() {
		t.Errorf("HasTexture should be false by default")
	}
}

// TestFaceMaterialIndex verifies per-face material assignment.
func TestFaceMaterialIndex(t *testing.T) {
	mesh := NewMesh("test")
	mesh.Materials = []Material{
		{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}},
		{Name: "green", BaseColor: [4]float64{0, 1, 0, 1}},
	}
	mesh.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{3, 4, 5}, Material: 1},
		{V: [3]int{6, 7, 8}, Material: -1},
	}

	if mesh.GetFaceMaterial(1) != 1 {
		t.Errorf("Face 1 should have material 1, got %d", mesh.GetFaceMaterial(1))
	}
	if mesh.GetFaceMaterial(2) != -1 {
		t.Errorf("Face 2 should have material -1, got %d", mesh.GetFaceMaterial(2))
	}
	if mat := mesh.GetMaterial(0); mat == nil || mat.Name != "red" {
		t.Errorf("GetMaterial(0) should return 'red' material")
	}
	if mesh.GetMaterial(-1) != nil {
		t.Errorf("GetMaterial(-1) should return nil")
	}
	if mesh.GetMaterial(99) != nil {
		t.Errorf("GetMaterial(99) should return nil for out-of-bounds")
	}
}

func TestMeshCloneIsIndependent(t *testing.T) {
	mesh := quadMesh()
	mesh.Materials = []Material{{Name: "mat1"}}

	clone := mesh.Clone()
	clone.Materials[0].Name = "modified"
	clone.Vertices[0].Position = mgl64.Vec3{9, 9, 9}

	if mesh.Materials[0].Name == "modified" {
		t.Error("Clone should have independent material copy")
	}
	if mesh.Vertices[0].Position == (mgl64.Vec3{9, 9, 9}) {
		t.Error("Clone should have independent vertex copy")
	}
	if clone.Bounds() != mesh.Bounds() {
		t.Error("Clone should keep bounds")
	}
}

func TestCalculateSmoothNormalsFacesViewer(t *testing.T) {
	mesh := quadMesh()
	mesh.CalculateSmoothNormals()

	for i, v := range mesh.Vertices {
		if math.Abs(v.Normal[2]-1) > 1e-9 {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}
}

func TestMeshTransformUpdatesBounds(t *testing.T) {
	mesh := quadMesh()
	mesh.CalculateSmoothNormals()

	mesh.Transform(mgl64.Translate3D(0, 0, 5).Mul4(mgl64.Scale3D(2, 2, 2)))

	b := mesh.Bounds()
	if !b.Min.ApproxEqual(mgl64.Vec3{-2, -2, 5}) || !b.Max.ApproxEqual(mgl64.Vec3{2, 2, 5}) {
		t.Errorf("bounds after transform = %v", b)
	}
	// Uniform scale keeps normals unit length.
	if n := mesh.Vertices[0].Normal; math.Abs(n.Len()-1) > 1e-9 {
		t.Errorf("normal length = %v, want 1", n.Len())
	}
}

func TestMeshAppendRemapsIndices(t *testing.T) {
	a := quadMesh()
	a.Materials = []Material{{Name: "a"}}
	a.Faces[0].Material = 0

	b := quadMesh()
	b.Materials = []Material{{Name: "b"}}
	b.Faces[1].Material = 0
	b.Transform(mgl64.Translate3D(10, 0, 0))

	a.Append(b)

	if a.VertexCount() != 8 || a.TriangleCount() != 4 {
		t.Fatalf("got %d vertices, %d triangles; want 8, 4", a.VertexCount(), a.TriangleCount())
	}
	if got := a.GetFace(3); got != [3]int{4, 6, 5} {
		t.Errorf("appended face = %v, want [4 6 5]", got)
	}
	if a.GetFaceMaterial(2) != -1 {
		t.Errorf("face without material should stay -1, got %d", a.GetFaceMaterial(2))
	}
	if a.GetFaceMaterial(3) != 1 {
		t.Errorf("appended material index = %d, want 1", a.GetFaceMaterial(3))
	}
	if a.Bounds().Max[0] != 11 {
		t.Errorf("union bounds max x = %v, want 11", a.Bounds().Max[0])
	}
}
