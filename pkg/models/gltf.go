package models

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
	LoadTextures     bool
	MaxTextureSize   int
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		LoadTextures:     true,
		MaxTextureSize:   DefaultMaxTextureSize,
	}
}

// LoadGLB loads a GLTF or GLB file with the default options.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and flattens its default scene into one Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.FromDocument(doc, path)
}

// FromDocument converts an already decoded document. path is used for the
// mesh name and to resolve external images.
func (l *GLTFLoader) FromDocument(doc *gltf.Document, path string) (*Mesh, error) {
	mesh := NewMesh(filepath.Base(path))
	mesh.Materials = l.readMaterials(doc, filepath.Dir(path))

	roots := sceneRoots(doc)
	if roots == nil {
		// No scene graph: take every mesh untransformed.
		for i, m := range doc.Meshes {
			if err := l.processMesh(doc, m, mgl64.Ident4(), mesh); err != nil {
				return nil, fmt.Errorf("process mesh %d %q: %w", i, m.Name, err)
			}
		}
	} else {
		visited := make(map[int]bool)
		for _, n := range roots {
			if err := l.processNode(doc, n, mgl64.Ident4(), mesh, visited); err != nil {
				return nil, err
			}
		}
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()

	return mesh, nil
}

// sceneRoots returns the root nodes of the default scene, falling back to
// the first scene. Returns nil when the document has no scenes.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) == 0 {
		return nil
	}
	idx := 0
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		idx = *doc.Scene
	}
	return doc.Scenes[idx].Nodes
}

// processNode walks the node hierarchy, accumulating transforms.
func (l *GLTFLoader) processNode(doc *gltf.Document, idx int, parent mgl64.Mat4, mesh *Mesh, visited map[int]bool) error {
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	if visited[idx] {
		return fmt.Errorf("node %d visited twice (cyclic hierarchy)", idx)
	}
	visited[idx] = true

	node := doc.Nodes[idx]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("node %d references mesh %d out of range", idx, *node.Mesh)
		}
		m := doc.Meshes[*node.Mesh]
		if err := l.processMesh(doc, m, world, mesh); err != nil {
			return fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	for _, child := range node.Children {
		if err := l.processNode(doc, child, world, mesh, visited); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns a node's local transform. An explicit matrix wins over
// translation/rotation/scale.
func nodeMatrix(n *gltf.Node) mgl64.Mat4 {
	m := mgl64.Mat4(n.MatrixOrDefault())
	if m != mgl64.Ident4() {
		return m
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}

	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

// processMesh extracts geometry from a GLTF mesh, placing it with world.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, world mgl64.Mat4, mesh *Mesh) error {
	normalMat := world.Inv().Transpose()

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readAccessor(doc, posIdx, modeler.ReadPosition)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readAccessor(doc, normIdx, modeler.ReadNormal)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readAccessor(doc, uvIdx, modeler.ReadTextureCoord)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		baseVertex := len(mesh.Vertices)

		for i, p := range positions {
			pos := mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
			v := MeshVertex{Position: mgl64.TransformCoordinate(pos, world)}
			if i < len(normals) {
				n := mgl64.Vec3{float64(normals[i][0]), float64(normals[i][1]), float64(normals[i][2])}
				v.Normal = safeNormalize(mgl64.TransformNormal(n, normalMat))
			}
			if i < len(uvs) {
				// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				v.UV = mgl64.Vec2{float64(uvs[i][0]), 1.0 - float64(uvs[i][1])}
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = readAccessor(doc, *prim.Indices, modeler.ReadIndices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		// GLTF front faces are CCW; the rasterizer culls with CW fronts
		// (screen Y is flipped), so swap the last two corners.
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
			if a >= len(positions) || b >= len(positions) || c >= len(positions) {
				return fmt.Errorf("index out of range in triangle %d", i/3)
			}
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{baseVertex + a, baseVertex + c, baseVertex + b},
				Material: material,
			})
		}
	}

	return nil
}

// readAccessor range-checks an accessor index, and the buffer view behind
// it, before handing it to a modeler reader.
func readAccessor[T any](doc *gltf.Document, idx int, read func(*gltf.Document, *gltf.Accessor, T) (T, error)) (T, error) {
	var zero T
	if idx < 0 || idx >= len(doc.Accessors) {
		return zero, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView != nil {
		if err := checkBufferView(doc, *acc.BufferView); err != nil {
			return zero, fmt.Errorf("accessor %d: %w", idx, err)
		}
	}
	return read(doc, acc, zero)
}

// checkBufferView verifies a buffer view index and that its byte range
// lies inside its buffer.
func checkBufferView(doc *gltf.Document, idx int) error {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return fmt.Errorf("buffer view %d out of range", idx)
	}
	view := doc.BufferViews[idx]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return fmt.Errorf("buffer view %d references buffer %d out of range", idx, view.Buffer)
	}
	if end := view.ByteOffset + view.ByteLength; end > len(doc.Buffers[view.Buffer].Data) {
		return fmt.Errorf("buffer view %d ends at byte %d past its buffer", idx, end)
	}
	return nil
}

// readMaterials converts every document material. Textures that fail to
// decode are skipped; the material keeps its base color.
func (l *GLTFLoader) readMaterials(doc *gltf.Document, dir string) []Material {
	materials := make([]Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		mat.BaseColor = [4]float64{1, 1, 1, 1}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			mat.BaseColor = pbr.BaseColorFactorOrDefault()
			mat.Metallic = pbr.MetallicFactorOrDefault()
			mat.Roughness = pbr.RoughnessFactorOrDefault()

			if l.LoadTextures && pbr.BaseColorTexture != nil {
				if img, err := l.readTexture(doc, pbr.BaseColorTexture.Index, dir); err == nil {
					mat.BaseMap = img
				}
			}
		}
		materials[i] = mat
	}
	return materials
}

// readTexture decodes the image behind a texture index.
func (l *GLTFLoader) readTexture(doc *gltf.Document, texIdx int, dir string) (image.Image, error) {
	if texIdx < 0 || texIdx >= len(doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", texIdx)
	}
	src := doc.Textures[texIdx].Source
	if src == nil || *src < 0 || *src >= len(doc.Images) {
		return nil, fmt.Errorf("texture %d has no image source", texIdx)
	}
	img := doc.Images[*src]

	var data []byte
	var err error
	switch {
	case img.BufferView != nil:
		if err = checkBufferView(doc, *img.BufferView); err == nil {
			data, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		}
	case img.IsEmbeddedResource():
		data, err = img.MarshalData()
	case img.URI != "":
		data, err = os.ReadFile(filepath.Join(dir, filepath.FromSlash(img.URI)))
	default:
		return nil, fmt.Errorf("image %d has no data", *src)
	}
	if err != nil {
		return nil, fmt.Errorf("read image %d: %w", *src, err)
	}

	return DecodeImage(data, l.MaxTextureSize)
}
