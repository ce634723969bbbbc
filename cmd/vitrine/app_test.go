package main

import (
	"bytes"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/vitrine/pkg/viewer"
)

// near reports whether a and b are within eps of each other.
func near(a, b mgl64.Vec3, eps float64) bool {
	return a.Sub(b).Len() < eps
}

// cubeOBJ is a unit cube with counter-clockwise faces.
const cubeOBJ = `v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
v -1 -1 1
v 1 -1 1
v 1 1 1
v -1 1 1
f 5 6 7 8
f 2 1 4 3
f 6 2 3 7
f 1 5 8 4
f 8 7 3 4
f 1 2 6 5
`

func writeCube(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cube.obj")
	if err := os.WriteFile(path, []byte(cubeOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type fakeScreen struct {
	uv.Screen
	cells    int
	displays int
}

func (s *fakeScreen) SetCell(x, y int, c *uv.Cell) { s.cells++ }

func (s *fakeScreen) Display() error {
	s.displays++
	return nil
}

func newTestApp(t *testing.T) (*app, *fakeScreen) {
	t.Helper()
	opts := viewer.DefaultOptions()
	opts.Logger = log.New(io.Discard)
	v := viewer.New(opts)
	t.Cleanup(v.Close)
	if err := v.Load(context.Background(), writeCube(t)); err != nil {
		t.Fatal(err)
	}
	scr := &fakeScreen{}
	return newApp(v, scr, 40, 12, viewer.DrawOptions{Textures: true}), scr
}

func key(r rune) uv.KeyPressEvent {
	return uv.KeyPressEvent{Code: r, Text: string(r)}
}

func settle(a *app) {
	for range 600 {
		a.viewer.Step(1.0 / 60)
	}
}

func TestHandleToggles(t *testing.T) {
	a, _ := newTestApp(t)

	a.handle(key('x'))
	if a.draw.Mode != viewer.ModeWireframe {
		t.Error("x should switch to wireframe")
	}
	a.handle(key('x'))
	if a.draw.Mode != viewer.ModeSolid {
		t.Error("x should switch back to solid")
	}
	a.handle(key('t'))
	if a.draw.Textures {
		t.Error("t should disable textures")
	}
	a.handle(key('b'))
	if !a.draw.Bounds {
		t.Error("b should enable the bounding box")
	}

	a.handle(key('?'))
	if !a.hud.Visible {
		t.Error("? should show the HUD")
	}
	a.repaint = false
	a.handle(key('?'))
	if a.hud.Visible || !a.repaint {
		t.Errorf("hiding the HUD: visible=%v repaint=%v", a.hud.Visible, a.repaint)
	}

	a.handle(uv.KeyPressEvent{Code: 'c', Mod: uv.ModCtrl})
	if !a.quit {
		t.Error("ctrl+c should quit")
	}
}

func TestHandleZoomAndReset(t *testing.T) {
	a, _ := newTestApp(t)
	framed := a.viewer.Distance()

	tests := []struct {
		name  string
		ev    uv.Event
		scale float64
	}{
		{"wheel up", uv.MouseWheelEvent{Button: uv.MouseWheelUp}, zoomStep},
		{"wheel down", uv.MouseWheelEvent{Button: uv.MouseWheelDown}, 1 / zoomStep},
		{"plus", key('+'), zoomStep},
		{"equals", key('='), zoomStep},
		{"shifted plus", uv.KeyPressEvent{Code: '=', Text: "+", Mod: uv.ModShift}, zoomStep},
		{"minus", key('-'), 1 / zoomStep},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a.viewer.Frame()
			a.handle(tc.ev)
			settle(a)
			if got, want := a.viewer.Distance(), framed*tc.scale; math.Abs(got-want) > 1e-3 {
				t.Errorf("Distance() = %v, want %v", got, want)
			}
		})
	}

	a.handle(key('r'))
	if math.Abs(a.viewer.Distance()-framed) > 1e-9 {
		t.Errorf("after reset Distance() = %v, want %v", a.viewer.Distance(), framed)
	}
}

func TestHandleOrbit(t *testing.T) {
	tests := []struct {
		name   string
		events []uv.Event
		moved  bool
	}{
		{"drag", []uv.Event{
			uv.MouseClickEvent{X: 10, Y: 5, Button: uv.MouseLeft},
			uv.MouseMotionEvent{X: 13, Y: 6},
			uv.MouseReleaseEvent{X: 13, Y: 6},
		}, true},
		{"hover without button", []uv.Event{
			uv.MouseMotionEvent{X: 13, Y: 6},
		}, false},
		{"keys", []uv.Event{key('a'), key('w')}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestApp(t)
			before := a.viewer.Camera().Position
			for _, ev := range tc.events {
				a.handle(ev)
			}
			settle(a)
			after := a.viewer.Camera().Position
			if moved := !near(after, before, 1e-6); moved != tc.moved {
				t.Errorf("camera moved = %v, want %v (%v -> %v)", moved, tc.moved, before, after)
			}
			// Orbiting keeps the distance.
			if math.Abs(after.Len()-before.Len()) > 1e-6 {
				t.Errorf("distance changed from %v to %v", before.Len(), after.Len())
			}
		})
	}
}

func TestHandleResize(t *testing.T) {
	a, _ := newTestApp(t)
	a.handle(uv.WindowSizeEvent{Width: 100, Height: 30})

	if a.fb.Width != 100 || a.fb.Height != 60 {
		t.Errorf("framebuffer = %dx%d, want 100x60", a.fb.Width, a.fb.Height)
	}
	if !a.repaint || !a.resized {
		t.Error("resize should request a repaint")
	}
	if got := a.viewer.Camera().AspectRatio; math.Abs(got-100.0/60.0) > 1e-12 {
		t.Errorf("aspect = %v, want %v", got, 100.0/60.0)
	}
}

func TestTick(t *testing.T) {
	a, scr := newTestApp(t)
	var overlay bytes.Buffer
	var erased int
	var resizedTo [2]int
	a.overlay = &overlay
	a.erase = func() { erased++ }
	a.resizeTerm = func(cols, rows int) { resizedTo = [2]int{cols, rows} }
	a.hud.Visible = true

	a.handle(uv.WindowSizeEvent{Width: 80, Height: 8})
	if err := a.tick(time.Now(), 1.0/30); err != nil {
		t.Fatal(err)
	}

	if erased != 1 || resizedTo != [2]int{80, 8} {
		t.Errorf("erased=%d resized=%v", erased, resizedTo)
	}
	if scr.displays != 1 || scr.cells != 80*8 {
		t.Errorf("displays=%d cells=%d, want 1 and %d", scr.displays, scr.cells, 80*8)
	}
	if !strings.Contains(overlay.String(), "cube.obj") {
		t.Errorf("HUD missing model name: %q", overlay.String())
	}

	erased = 0
	if err := a.tick(time.Now(), 1.0/30); err != nil {
		t.Fatal(err)
	}
	if erased != 0 {
		t.Error("repaint should only happen once")
	}
}

func TestLoopQuits(t *testing.T) {
	a, _ := newTestApp(t)
	input := make(chan uv.Event, 1)
	events, unsubscribe := a.viewer.Subscribe()
	defer unsubscribe()

	done := make(chan error, 1)
	go func() { done <- a.loop(context.Background(), input, events, 60) }()
	input <- uv.KeyPressEvent{Code: 'c', Mod: uv.ModCtrl}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("loop() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopObservesEvents(t *testing.T) {
	a, _ := newTestApp(t)
	events := make(chan viewer.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.loop(ctx, nil, events, 60) }()
	events <- viewer.Event{Kind: viewer.EventFailed, Path: "x.obj", Error: "load x.obj: boom"}
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if !a.hud.failed || a.hud.status != "load x.obj: boom" {
		t.Errorf("HUD status = %q failed=%v", a.hud.status, a.hud.failed)
	}
}
