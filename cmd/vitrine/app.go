package main

import (
	"context"
	"io"
	"math"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/vitrine/pkg/render"
	"github.com/taigrr/vitrine/pkg/viewer"
)

const (
	keyRotateStep = math.Pi / 24 // per key press
	zoomStep      = 0.9          // distance scale per wheel notch or +/-
	maxFrameDT    = 0.1
)

// app is the interactive session state. Only the render loop goroutine
// touches it.
type app struct {
	viewer *viewer.Viewer
	out    *render.TerminalRenderer
	fb     *render.Framebuffer
	raster *render.Rasterizer
	hud    *HUD
	draw   viewer.DrawOptions

	dragging     bool
	lastX, lastY int

	quit    bool
	repaint bool // the terminal must be redrawn from scratch
	resized bool // the terminal itself must be resized

	// Terminal hooks, all optional. overlay receives the HUD after each
	// frame.
	overlay    io.Writer
	erase      func()
	resizeTerm func(cols, rows int)
}

func newApp(v *viewer.Viewer, out render.Display, cols, rows int, draw viewer.DrawOptions) *app {
	tr := render.NewTerminalRenderer(out, cols, rows)
	fb := render.NewFramebuffer(tr.FramebufferSize())
	a := &app{
		viewer: v,
		out:    tr,
		fb:     fb,
		raster: render.NewRasterizer(v.Camera(), fb),
		hud:    NewHUD(time.Now()),
		draw:   draw,
	}
	a.syncAspect()
	return a
}

func (a *app) syncAspect() {
	if a.fb.Width > 0 && a.fb.Height > 0 {
		a.viewer.SetAspectRatio(float64(a.fb.Width) / float64(a.fb.Height))
	}
}

// resize adapts the framebuffer to a terminal of cols x rows cells.
func (a *app) resize(cols, rows int) {
	a.out.Resize(cols, rows)
	a.fb.Resize(a.out.FramebufferSize())
	a.syncAspect()
	a.repaint, a.resized = true, true
}

// handle applies one terminal event.
func (a *app) handle(ev uv.Event) {
	shown := a.hud.Shown()
	defer func() {
		if shown && !a.hud.Shown() {
			a.repaint = true
		}
	}()

	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		a.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
			a.quit = true
		case ev.MatchString("w", "up"):
			a.viewer.Rotate(0, keyRotateStep)
		case ev.MatchString("s", "down"):
			a.viewer.Rotate(0, -keyRotateStep)
		case ev.MatchString("a", "left"):
			a.viewer.Rotate(-keyRotateStep, 0)
		case ev.MatchString("d", "right"):
			a.viewer.Rotate(keyRotateStep, 0)
		// MatchString splits on "+", so the plus key is matched by text.
		case ev.Text == "+", ev.MatchString("="):
			a.viewer.Zoom(zoomStep)
		case ev.MatchString("-", "_"):
			a.viewer.Zoom(1 / zoomStep)
		case ev.MatchString("r"):
			a.viewer.Frame()
		case ev.MatchString("t"):
			a.draw.Textures = !a.draw.Textures
		case ev.MatchString("x"):
			if a.draw.Mode == viewer.ModeWireframe {
				a.draw.Mode = viewer.ModeSolid
			} else {
				a.draw.Mode = viewer.ModeWireframe
			}
		case ev.MatchString("b"):
			a.draw.Bounds = !a.draw.Bounds
		case ev.MatchString("c"):
			a.viewer.ClearModel()
		case ev.MatchString("?"), ev.MatchString("shift+/"):
			a.hud.Visible = !a.hud.Visible
		}

	case uv.MouseClickEvent:
		a.dragging = true
		a.lastX, a.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		a.dragging = false

	case uv.MouseMotionEvent:
		if !a.dragging {
			return
		}
		_, rows := a.out.Size()
		if rows <= 0 {
			return
		}
		// A drag across the full terminal height turns a full circle.
		dx, dy := ev.X-a.lastX, ev.Y-a.lastY
		a.lastX, a.lastY = ev.X, ev.Y
		per := 2 * math.Pi / float64(rows)
		a.viewer.Rotate(float64(dx)*per, float64(dy)*per)

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			a.viewer.Zoom(zoomStep)
		case uv.MouseWheelDown:
			a.viewer.Zoom(1 / zoomStep)
		}
	}
}

// observe folds a viewer event into the HUD.
func (a *app) observe(ev viewer.Event) {
	shown := a.hud.Shown()
	a.hud.Observe(ev)
	if shown && !a.hud.Shown() {
		a.repaint = true
	}
}

// frame advances the controls by dt seconds and draws one frame to the
// terminal buffer.
func (a *app) frame(dt float64) {
	a.viewer.Step(math.Min(dt, maxFrameDT))
	a.viewer.Draw(a.raster, a.draw)
	a.out.Render(a.fb)
}

// loop runs the session at fps frames per second until ctx is done, input
// closes or the user quits. events feeds the HUD status line.
func (a *app) loop(ctx context.Context, input <-chan uv.Event, events <-chan viewer.Event, fps int) error {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-input:
			if !ok {
				return nil
			}
			a.handle(ev)
		case ev := <-events:
			a.observe(ev)
		case now := <-ticker.C:
			if err := a.tick(now, now.Sub(last).Seconds()); err != nil {
				return err
			}
			last = now
		}
		if a.quit {
			return nil
		}
	}
}

// tick renders and presents one frame.
func (a *app) tick(now time.Time, dt float64) error {
	if a.resized && a.resizeTerm != nil {
		a.resizeTerm(a.out.Size())
	}
	if a.repaint && a.erase != nil {
		a.erase()
	}
	a.resized, a.repaint = false, false

	a.frame(dt)
	if err := a.out.Flush(); err != nil {
		return err
	}
	a.hud.Tick(now)
	if a.overlay != nil {
		cur, loaded := a.viewer.Current()
		cols, rows := a.out.Size()
		a.hud.Render(a.overlay, cols, rows, cur, loaded, a.draw)
	}
	return nil
}
