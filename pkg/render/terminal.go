package render

import (
	"fmt"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to half-block cells on scr. Each terminal
// row shows two pixel rows: "▀" with fg=top pixel and bg=bottom pixel.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(x, topY)),
					Bg: rgbaToColor(fb.GetPixel(x, botY)),
				},
			})
		}
	}
}

// rgbaToColor maps transparent pixels to the terminal default color.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// Display is a screen that can push its buffered cells to the terminal.
// *uv.Terminal satisfies it.
type Display interface {
	uv.Screen
	Display() error
}

// TerminalRenderer maps a terminal of cols x rows cells to a framebuffer
// and pushes frames to it.
type TerminalRenderer struct {
	out  Display
	cols int
	rows int
}

// NewTerminalRenderer creates a renderer for a cols x rows terminal.
func NewTerminalRenderer(out Display, cols, rows int) *TerminalRenderer {
	return &TerminalRenderer{out: out, cols: max(cols, 0), rows: max(rows, 0)}
}

// Resize updates the terminal size in cells.
func (t *TerminalRenderer) Resize(cols, rows int) {
	t.cols, t.rows = max(cols, 0), max(rows, 0)
}

// Size returns the terminal size in cells.
func (t *TerminalRenderer) Size() (cols, rows int) {
	return t.cols, t.rows
}

// FramebufferSize returns the pixel size that fills the terminal.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.cols, t.rows * 2
}

// Render draws fb onto the terminal buffer.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(t.out, uv.Rect(0, 0, t.cols, t.rows))
}

// Flush pushes the buffered frame to the terminal.
func (t *TerminalRenderer) Flush() error {
	if err := t.out.Display(); err != nil {
		return fmt.Errorf("display frame: %w", err)
	}
	return nil
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack   = color.RGBA{0, 0, 0, 255}
	ColorWhite   = color.RGBA{255, 255, 255, 255}
	ColorRed     = color.RGBA{255, 0, 0, 255}
	ColorGreen   = color.RGBA{0, 255, 0, 255}
	ColorBlue    = color.RGBA{0, 0, 255, 255}
	ColorYellow  = color.RGBA{255, 255, 0, 255}
	ColorCyan    = color.RGBA{0, 255, 255, 255}
	ColorMagenta = color.RGBA{255, 0, 255, 255}
	ColorGray    = color.RGBA{128, 128, 128, 255}
)

// RGB creates an opaque color.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// Hex creates an opaque color from 0xRRGGBB.
func Hex(v uint32) color.RGBA {
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}
