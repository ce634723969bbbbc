package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/taigrr/vitrine/pkg/viewer"
)

var (
	hudBase   = lipgloss.NewStyle().Background(lipgloss.Color("#000000")).Padding(0, 1)
	fpsStyle  = hudBase.Foreground(lipgloss.Color("#5fff87"))
	nameStyle = hudBase.Bold(true).Foreground(lipgloss.Color("#ffffff"))
	polyStyle = hudBase.Bold(true).Foreground(lipgloss.Color("#5fffff"))
	modeStyle = hudBase.Foreground(lipgloss.Color("#ffffff"))
	okStyle   = hudBase.Foreground(lipgloss.Color("#87d787"))
	busyStyle = hudBase.Faint(true).Foreground(lipgloss.Color("#ffff5f"))
	failStyle = hudBase.Bold(true).Foreground(lipgloss.Color("#ff5f5f"))
)

// HUD draws the top and bottom overlay rows.
type HUD struct {
	Visible bool

	fps       float64
	fpsFrames int
	fpsTime   time.Time

	status string
	failed bool
	busy   bool
}

// NewHUD creates a hidden HUD.
func NewHUD(now time.Time) *HUD {
	return &HUD{fpsTime: now}
}

// Tick counts a frame; call once per frame.
func (h *HUD) Tick(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// Loading marks a load as in flight.
func (h *HUD) Loading(path string) {
	h.status, h.failed, h.busy = "loading "+filepath.Base(path), false, true
}

// Observe records the latest viewer event as the status line.
func (h *HUD) Observe(ev viewer.Event) {
	h.busy = false
	switch ev.Kind {
	case viewer.EventLoaded:
		h.status, h.failed = "loaded "+filepath.Base(ev.Path), false
	case viewer.EventCleared:
		h.status, h.failed = "cleared", false
	case viewer.EventSuperseded:
		// A newer load is still running.
		h.busy = true
	default:
		h.status, h.failed = ev.Error, true
	}
}

// Shown reports whether Render draws anything.
func (h *HUD) Shown() bool { return h.Visible || h.failed }

// Lines returns the top and bottom rows for a terminal width cols.
func (h *HUD) Lines(cols int, cur viewer.Summary, loaded bool, opts viewer.DrawOptions) (top, bottom string) {
	name := "no model"
	if loaded {
		name = cur.Name
	}
	left := fpsStyle.Render(fmt.Sprintf("%.0f FPS", h.fps))
	right := ""
	if loaded {
		right = polyStyle.Render(fmt.Sprintf("%d polys", cur.Triangles))
	}
	middle := nameStyle.MaxWidth(max(cols-lipgloss.Width(left)-lipgloss.Width(right), 0)).Render(name)
	top = spread(cols, left, middle, right)

	mode := modeStyle.Render(fmt.Sprintf("%s Texture  %s Wireframe  %s Bounds",
		check(opts.Textures && opts.Mode != viewer.ModeWireframe),
		check(opts.Mode == viewer.ModeWireframe),
		check(opts.Bounds)))
	status := ""
	if h.status != "" {
		style := okStyle
		switch {
		case h.failed:
			style = failStyle
		case h.busy:
			style = busyStyle
		}
		status = style.MaxWidth(max(cols-lipgloss.Width(mode), 0)).Render(h.status)
	}
	bottom = spread(cols, mode, "", status)
	return top, bottom
}

// Render writes the HUD over the frame already on screen. Hiding the HUD
// needs a full repaint of the terminal to remove it.
func (h *HUD) Render(w io.Writer, cols, rows int, cur viewer.Summary, loaded bool, opts viewer.DrawOptions) {
	const clearLine = "\x1b[2K"
	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	var b strings.Builder
	switch {
	case h.Visible:
		top, bottom := h.Lines(cols, cur, loaded, opts)
		b.WriteString(moveTo(1, 1) + clearLine + top)
		b.WriteString(moveTo(rows, 1) + clearLine + bottom)
	case h.failed:
		// Errors stay visible with the HUD off.
		b.WriteString(moveTo(rows, 1) + clearLine + failStyle.MaxWidth(cols).Render(h.status))
	}
	io.WriteString(w, b.String())
}

// spread lays out left, middle and right across cols cells. Parts that do
// not fit are dropped from the right.
func spread(cols int, left, middle, right string) string {
	lw, mw, rw := lipgloss.Width(left), lipgloss.Width(middle), lipgloss.Width(right)
	if lw+mw+rw > cols {
		right, rw = "", 0
	}
	if lw+mw > cols {
		middle, mw = "", 0
	}
	if lw > cols {
		return ""
	}
	// Center the middle part when there is room on both sides.
	gap := cols - lw - mw - rw
	before := max((cols-mw)/2-lw, 0)
	if before > gap {
		before = gap
	}
	after := gap - before
	if right == "" {
		after = 0
	}
	return left + strings.Repeat(" ", before) + middle + strings.Repeat(" ", after) + right
}

func check(on bool) string {
	if on {
		return "[✓]"
	}
	return "[ ]"
}
