// Package viewer owns the scene, camera, orbit controls and model loaders,
// and keeps at most one model on display.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/bounds"
	"github.com/taigrr/vitrine/pkg/controls"
	"github.com/taigrr/vitrine/pkg/models"
	"github.com/taigrr/vitrine/pkg/render"
	"github.com/taigrr/vitrine/pkg/scene"
)

// ErrSuperseded is returned when a newer load replaced the request before
// it finished.
var ErrSuperseded = errors.New("load superseded by a newer request")

var (
	wireColor   = render.RGB(0, 255, 128)
	boundsColor = render.RGB(255, 200, 0)
)

// Viewer displays at most one model. All methods are safe for concurrent
// use.
type Viewer struct {
	opts     Options
	log      *log.Logger
	registry *models.Registry

	mu      sync.Mutex
	scene   *scene.Scene
	camera  *render.Camera
	orbit   *controls.Orbit
	current *scene.Object

	// gen counts accepted load requests; a load only attaches its model
	// if no newer request arrived meanwhile.
	gen        uint64
	cancelLoad context.CancelFunc
	loads      sync.WaitGroup

	subsMu sync.Mutex
	subs   map[chan Event]struct{}
}

// New creates a viewer with an empty scene.
func New(opts Options) *Viewer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = models.DefaultRegistry(opts.MaxTextureSize)
	}

	sc := scene.New(opts.Background, opts.AmbientIntensity, opts.DirectionalIntensity)
	sc.Ambient.Color = opts.AmbientColor
	sc.Directional.Color = opts.DirectionalColor
	if opts.LightDirection.Len() > 0 {
		sc.Directional.Direction = opts.LightDirection
	}

	cam := render.NewCamera()
	cam.SetFOV(mgl64.DegToRad(opts.FOV))
	cam.SetClipPlanes(opts.Near, opts.Far)

	orbit := controls.New(opts.Controls)
	orbit.Sync(cam)

	return &Viewer{
		opts:     opts,
		log:      logger.WithPrefix("viewer"),
		registry: registry,
		scene:    sc,
		camera:   cam,
		orbit:    orbit,
		subs:     make(map[chan Event]struct{}),
	}
}

// Load synchronously loads path and, on success, replaces the displayed
// model. An unsupported extension or a loader error is logged, reported as
// an event and returned; the scene is left as it was.
func (v *Viewer) Load(ctx context.Context, path string) error {
	if err := v.checkFormat(path); err != nil {
		return err
	}
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	return v.load(ctx, path, gen)
}

// LoadModel starts loading path in the background and returns at once.
// It cancels a load previously started by LoadModel. The outcome is
// reported through Subscribe.
func (v *Viewer) LoadModel(path string) {
	if err := v.checkFormat(path); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	v.mu.Lock()
	if v.cancelLoad != nil {
		v.cancelLoad()
	}
	v.cancelLoad = cancel
	v.gen++
	gen := v.gen
	v.loads.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.loads.Done()
		defer cancel()
		_ = v.load(ctx, path, gen)
	}()
}

// Wait blocks until background loads have finished.
func (v *Viewer) Wait() {
	v.loads.Wait()
}

// checkFormat rejects paths no loader handles.
func (v *Viewer) checkFormat(path string) error {
	if _, err := v.registry.LoaderFor(path); err != nil {
		v.log.Error("unsupported model format", "path", path, "ext", models.Ext(path))
		v.publish(Event{Kind: EventUnsupported, Path: path, Error: err.Error()})
		return err
	}
	return nil
}

func (v *Viewer) load(ctx context.Context, path string, gen uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loader, err := v.registry.LoaderFor(path)
	if err != nil {
		// The registry changed between the check and now.
		v.log.Error("unsupported model format", "path", path, "ext", models.Ext(path))
		v.publish(Event{Kind: EventUnsupported, Path: path, Error: err.Error()})
		return err
	}

	v.log.Debug("loading model", "path", path)
	mesh, err := loadMesh(loader, path)
	if err != nil {
		err = fmt.Errorf("load %s: %w", path, err)
		v.log.Error("failed to load model", "path", path, "err", err)
		v.publish(Event{Kind: EventFailed, Path: path, Error: err.Error()})
		return err
	}

	obj := scene.NewObject(filepath.Base(path), path, mesh)

	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		v.log.Debug("discarding stale model", "path", path)
		v.publish(Event{Kind: EventSuperseded, Path: path, Error: ErrSuperseded.Error()})
		return ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		v.mu.Unlock()
		v.log.Debug("load cancelled", "path", path)
		return err
	}
	distance := v.frameLocked(obj)
	if v.current != nil {
		v.scene.Remove(v.current)
	}
	v.scene.Add(obj)
	v.current = obj
	// Publish before unlocking so subscribers see swaps in order.
	v.publish(Event{Kind: EventLoaded, Path: path, Triangles: mesh.TriangleCount(), Distance: distance})
	v.mu.Unlock()

	v.log.Info("model loaded", "path", path, "triangles", mesh.TriangleCount(), "distance", distance)
	return nil
}

// loadMesh runs a loader, turning a panic on malformed input into an error.
func loadMesh(l models.Loader, path string) (mesh *models.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			mesh, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	return l.Load(path)
}

// ClearModel detaches the displayed model and abandons pending loads.
func (v *Viewer) ClearModel() {
	v.mu.Lock()
	v.gen++
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
	prev := v.current
	if prev != nil {
		v.scene.Remove(prev)
		v.current = nil
		v.publish(Event{Kind: EventCleared, Path: prev.Path})
	}
	v.mu.Unlock()

	if prev != nil {
		v.log.Info("model cleared", "path", prev.Path)
	}
}

// Frame re-applies framing to the displayed model, resetting the view.
// It returns the new camera distance, or 0 with no model.
func (v *Viewer) Frame() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return 0
	}
	return v.frameLocked(v.current)
}

// frameLocked rotates obj per the framing, centers its world box on the
// origin and puts the camera on +Z at diagonal * DistanceFactor.
func (v *Viewer) frameLocked(obj *scene.Object) float64 {
	obj.Position = mgl64.Vec3{}
	obj.Rotation = v.opts.Framing.Rotation

	box := obj.WorldBounds()
	obj.Position = box.Center().Mul(-1)

	distance := box.Diagonal() * v.opts.Framing.DistanceFactor
	if !(distance > 0) || math.IsInf(distance, 0) {
		distance = v.opts.Controls.MinDistance
	}

	v.camera.SetPosition(mgl64.Vec3{0, 0, distance})
	v.camera.LookAt(mgl64.Vec3{})
	v.orbit.Target = mgl64.Vec3{}
	v.orbit.Sync(v.camera)
	return v.orbit.Distance()
}

// Summary describes the displayed model.
type Summary struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Triangles int        `json:"triangles"`
	Vertices  int        `json:"vertices"`
	Materials int        `json:"materials"`
	Distance  float64    `json:"distance"`
	Bounds    bounds.Box `json:"-"`
}

// Current returns a summary of the displayed model and whether there is one.
func (v *Viewer) Current() (Summary, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return Summary{}, false
	}
	obj := v.current
	return Summary{
		Name:      obj.Name,
		Path:      obj.Path,
		Triangles: obj.TriangleCount(),
		Vertices:  obj.Mesh.VertexCount(),
		Materials: obj.Mesh.MaterialCount(),
		Distance:  v.orbit.Distance(),
		Bounds:    obj.Mesh.Bounds().Transform(obj.Matrix()),
	}, true
}

// Scene returns the scene. Objects must not be mutated outside the viewer.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Camera returns the camera. Use the viewer methods to move it while the
// render loop runs.
func (v *Viewer) Camera() *render.Camera { return v.camera }

// Distance returns the current camera distance from the orbit target.
func (v *Viewer) Distance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.orbit.Distance()
}

// Rotate queues an orbit rotation in radians.
func (v *Viewer) Rotate(dTheta, dPhi float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orbit.Rotate(dTheta, dPhi)
}

// Zoom scales the orbit distance; above 1 moves away.
func (v *Viewer) Zoom(scale float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orbit.Zoom(scale)
}

// SetAspectRatio updates the camera aspect ratio.
func (v *Viewer) SetAspectRatio(aspect float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera.SetAspectRatio(aspect)
}

// Step advances the controls by dt seconds. It reports whether the view
// is still moving.
func (v *Viewer) Step(dt float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.orbit.Update(v.camera, dt)
}

// Draw renders the scene through r, which must use the viewer's camera.
func (v *Viewer) Draw(r *render.Rasterizer, opts DrawOptions) {
	v.mu.Lock()
	defer v.mu.Unlock()

	r.BeginFrame(v.scene.Background)
	light := v.scene.Lighting()
	wf := render.NewWireframe(r)

	for _, obj := range v.scene.Objects() {
		m := obj.Matrix()
		if opts.Mode == ModeWireframe {
			r.DrawMeshWireframe(obj.Mesh, m, wireColor)
		} else {
			r.DrawMesh(obj.Mesh, m, obj.Surfaces, light, opts.Textures)
		}
		if opts.Bounds {
			wf.DrawBox(obj.Mesh.Bounds().Transform(m), boundsColor)
		}
	}
	if opts.Axes {
		wf.DrawAxes(mgl64.Vec3{}, math.Max(1, v.orbit.Distance()/4))
	}
}

// Close cancels a pending background load and waits for it to return.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
	v.mu.Unlock()
	v.loads.Wait()
}
