package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/taigrr/vitrine/pkg/viewer"
)

func TestHUDFPS(t *testing.T) {
	start := time.Now()
	h := NewHUD(start)
	for i := 1; i <= 30; i++ {
		h.Tick(start.Add(time.Duration(i) * time.Second / 30))
	}
	if h.fps < 29.9 || h.fps > 30.1 {
		t.Errorf("fps = %v, want 30", h.fps)
	}
}

func TestHUDObserve(t *testing.T) {
	tests := []struct {
		name   string
		ev     viewer.Event
		status string
		failed bool
		busy   bool
	}{
		{"loaded", viewer.Event{Kind: viewer.EventLoaded, Path: "/m/cube.glb"}, "loaded cube.glb", false, false},
		{"failed", viewer.Event{Kind: viewer.EventFailed, Error: "load x: boom"}, "load x: boom", true, false},
		{"unsupported", viewer.Event{Kind: viewer.EventUnsupported, Error: "unsupported model format"}, "unsupported model format", true, false},
		{"cleared", viewer.Event{Kind: viewer.EventCleared}, "cleared", false, false},
		{"superseded", viewer.Event{Kind: viewer.EventSuperseded, Path: "/m/old.obj"}, "loading new.obj", false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHUD(time.Now())
			h.Loading("/m/new.obj")
			h.Observe(tc.ev)
			if h.status != tc.status || h.failed != tc.failed || h.busy != tc.busy {
				t.Errorf("status=%q failed=%v busy=%v", h.status, h.failed, h.busy)
			}
		})
	}
}

func TestHUDLines(t *testing.T) {
	h := NewHUD(time.Now())
	h.Observe(viewer.Event{Kind: viewer.EventLoaded, Path: "cube.obj"})
	cur := viewer.Summary{Name: "cube.obj", Triangles: 12}

	for _, cols := range []int{120, 60, 30, 10} {
		top, bottom := h.Lines(cols, cur, true, viewer.DrawOptions{Mode: viewer.ModeWireframe})
		if w := lipgloss.Width(top); w > cols {
			t.Errorf("cols=%d: top is %d wide", cols, w)
		}
		if w := lipgloss.Width(bottom); w > cols {
			t.Errorf("cols=%d: bottom is %d wide", cols, w)
		}
	}

	top, bottom := h.Lines(120, cur, true, viewer.DrawOptions{Mode: viewer.ModeWireframe, Bounds: true})
	for _, want := range []string{"FPS", "cube.obj", "12 polys"} {
		if !strings.Contains(top, want) {
			t.Errorf("top %q missing %q", top, want)
		}
	}
	for _, want := range []string{"[ ] Texture", "[✓] Wireframe", "[✓] Bounds", "loaded cube.obj"} {
		if !strings.Contains(bottom, want) {
			t.Errorf("bottom %q missing %q", bottom, want)
		}
	}

	top, _ = h.Lines(120, viewer.Summary{}, false, viewer.DrawOptions{})
	if !strings.Contains(top, "no model") || strings.Contains(top, "polys") {
		t.Errorf("empty top = %q", top)
	}
}

func TestHUDRender(t *testing.T) {
	h := NewHUD(time.Now())
	cur := viewer.Summary{Name: "cube.obj", Triangles: 12}

	var buf bytes.Buffer
	h.Render(&buf, 80, 24, cur, true, viewer.DrawOptions{})
	if buf.Len() != 0 {
		t.Errorf("hidden HUD wrote %q", buf.String())
	}

	h.Observe(viewer.Event{Kind: viewer.EventFailed, Error: "load x: boom"})
	h.Render(&buf, 80, 24, cur, true, viewer.DrawOptions{})
	if !strings.Contains(buf.String(), "\x1b[24;1H") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("error line = %q", buf.String())
	}

	buf.Reset()
	h.Visible = true
	h.Render(&buf, 80, 24, cur, true, viewer.DrawOptions{})
	out := buf.String()
	if !strings.Contains(out, "\x1b[1;1H") || !strings.Contains(out, "cube.obj") {
		t.Errorf("visible HUD = %q", out)
	}
}

func TestSpread(t *testing.T) {
	tests := []struct {
		cols                int
		left, middle, right string
		want                string
	}{
		{11, "ab", "c", "de", "ab   c   de"},
		{5, "ab", "c", "de", "abcde"},
		{3, "ab", "c", "de", "abc"},
		{2, "ab", "c", "de", "ab"},
		{1, "ab", "c", "de", ""},
		{8, "ab", "", "de", "ab    de"},
	}
	for _, tc := range tests {
		if got := spread(tc.cols, tc.left, tc.middle, tc.right); got != tc.want {
			t.Errorf("spread(%d) = %q, want %q", tc.cols, got, tc.want)
		}
	}
}
