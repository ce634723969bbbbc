package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedFormat is returned when no loader handles a file extension.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Loader reads a model file into a Mesh.
type Loader interface {
	Load(path string) (*Mesh, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (*Mesh, error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) (*Mesh, error) {
	return f(path)
}

// Registry dispatches model files to loaders by extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// DefaultRegistry returns a registry with the GLTF and OBJ loaders.
// maxTextureSize bounds decoded texture edges.
func DefaultRegistry(maxTextureSize int) *Registry {
	r := NewRegistry()

	gltfLoader := NewGLTFLoader()
	gltfLoader.MaxTextureSize = maxTextureSize
	r.Register(".glb", gltfLoader)
	r.Register(".gltf", gltfLoader)

	objLoader := NewOBJLoader()
	objLoader.MaxTextureSize = maxTextureSize
	r.Register(".obj", objLoader)

	return r
}

// Register binds an extension (with or without the leading dot) to a loader.
func (r *Registry) Register(ext string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[normalizeExt(ext)] = l
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// LoaderFor picks the loader for path by its extension.
func (r *Registry) LoaderFor(path string) (Loader, error) {
	ext := Ext(path)

	r.mu.RLock()
	l, ok := r.loaders[ext]
	r.mu.RUnlock()

	if !ok {
		if ext == "" {
			return nil, fmt.Errorf("%w: no extension", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return l, nil
}

// Load dispatches path to the matching loader.
func (r *Registry) Load(path string) (*Mesh, error) {
	l, err := r.LoaderFor(path)
	if err != nil {
		return nil, err
	}
	return l.Load(path)
}

// Ext returns the lower-cased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
