package models

import (
	"fmt"
	"os"
	"path/filepath"

	gobj "github.com/flywave/go-obj"
	"github.com/go-gl/mathgl/mgl64"
)

// OBJLoader loads Wavefront OBJ files, with MTL materials when present.
type OBJLoader struct {
	LoadMaterials  bool
	SmoothNormals  bool
	MaxTextureSize int
}

// NewOBJLoader creates an OBJ loader with default options.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{
		LoadMaterials:  true,
		MaxTextureSize: DefaultMaxTextureSize,
	}
}

// LoadOBJ loads an OBJ file with the default options.
func LoadOBJ(path string) (*Mesh, error) {
	return NewOBJLoader().Load(path)
}

// Load parses path and returns a triangulated Mesh.
func (l *OBJLoader) Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	reader := &gobj.ObjReader{}
	if err := reader.Read(f); err != nil {
		return nil, fmt.Errorf("parse obj: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	materialIndex := make(map[string]int)

	var mtl map[string]*gobj.Material
	if l.LoadMaterials && reader.MTL != "" {
		mtlPath := reader.MTL
		if !filepath.IsAbs(mtlPath) {
			mtlPath = filepath.Join(filepath.Dir(path), mtlPath)
		}
		// A missing or broken MTL file is not fatal; faces fall back to the
		// default material.
		if loaded, err := gobj.ReadMaterials(mtlPath); err == nil {
			mtl = loaded
		}
	}

	hasNormals := true
	for _, face := range reader.F {
		if len(face.Corners) < 3 {
			continue
		}

		material := -1
		if face.Material != "" {
			idx, ok := materialIndex[face.Material]
			if !ok {
				idx = len(mesh.Materials)
				mesh.Materials = append(mesh.Materials, l.convertMaterial(face.Material, mtl[face.Material], filepath.Dir(path)))
				materialIndex[face.Material] = idx
			}
			material = idx
		}

		// Fan triangulation; fine for the convex polygons exporters emit.
		for i := 1; i+1 < len(face.Corners); i++ {
			base := len(mesh.Vertices)
			for _, ci := range [3]int{0, i, i + 1} {
				c := face.Corners[ci]
				v, ok := objVertex(reader, int(c.VertexIndex), int(c.TexcoordIndex), int(c.NormalIndex))
				if !ok {
					hasNormals = false
				}
				mesh.Vertices = append(mesh.Vertices, v)
			}
			// OBJ is CCW like GLTF; swap to the rasterizer's CW fronts.
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{base, base + 2, base + 1},
				Material: material,
			})
		}
	}

	if !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()

	return mesh, nil
}

// objVertex resolves one face corner from its position, texcoord and normal
// indices. The second result is false when the corner has no normal.
func objVertex(reader *gobj.ObjReader, vi, ti, ni int) (MeshVertex, bool) {
	var v MeshVertex
	if vi >= 0 && vi < len(reader.V) {
		p := reader.V[vi]
		v.Position = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	if ti >= 0 && ti < len(reader.VT) {
		t := reader.VT[ti]
		v.UV = mgl64.Vec2{float64(t[0]), float64(t[1])}
	}
	if ni >= 0 && ni < len(reader.VN) {
		n := reader.VN[ni]
		v.Normal = safeNormalize(mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])})
		return v, true
	}
	return v, false
}

func (l *OBJLoader) convertMaterial(name string, m *gobj.Material, dir string) Material {
	mat := DefaultMaterial()
	mat.Name = name
	if m == nil {
		return mat
	}

	mat.BaseColor = [4]float64{float64(m.Diffuse[0]), float64(m.Diffuse[1]), float64(m.Diffuse[2]), 1}
	if m.Opacity > 0 {
		mat.BaseColor[3] = float64(m.Opacity)
	}
	mat.Metallic = float64(m.Metallic)
	if m.Roughness > 0 {
		mat.Roughness = float64(m.Roughness)
	}

	if m.DiffuseTexture != "" {
		texPath := m.DiffuseTexture
		if !filepath.IsAbs(texPath) {
			texPath = filepath.Join(dir, texPath)
		}
		if img, err := LoadImage(texPath, l.MaxTextureSize); err == nil {
			mat.BaseMap = img
			// Textured MTL materials often leave Kd at black.
			if mat.BaseColor[0]+mat.BaseColor[1]+mat.BaseColor[2] == 0 {
				mat.BaseColor = [4]float64{1, 1, 1, mat.BaseColor[3]}
			}
		}
	}
	return mat
}
