package u8x8

import (
	"image"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var on = image.NewUniform(image1bit.On)

// ClearBuffer turns every pixel of the framebuffer off.
func (d *Dev) ClearBuffer() {
	clear(d.buf.Pix)
}

// DrawPixel turns on the pixel at (x, y). Pixels outside the display are
// ignored.
func (d *Dev) DrawPixel(x, y int) {
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return
	}
	d.buf.SetBit(x, y, image1bit.On)
}

// DrawLine draws a one pixel wide line from (x0, y0) to (x1, y1), both ends
// included. The part outside the display is clipped.
func (d *Dev) DrawLine(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		d.DrawPixel(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawBox fills the w by h rectangle whose top left corner is (x, y).
func (d *Dev) DrawBox(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	draw.Draw(d.buf, image.Rect(x, y, x+w, y+h), on, image.Point{}, draw.Src)
}

// SetFont selects the face used by DrawStr. nil restores the default
// bitmap font.
func (d *Dev) SetFont(f font.Face) {
	if f == nil {
		f = bitmapfont.Face
	}
	d.face = f
}

// DrawStr draws s with its baseline starting at (x, y) and returns the
// advance in pixels.
func (d *Dev) DrawStr(x, y int, s string) int {
	dr := font.Drawer{
		Dst:  d.buf,
		Src:  on,
		Face: d.face,
		Dot:  fixed.P(x, y),
	}
	dr.DrawString(s)
	return (dr.Dot.X - fixed.I(x)).Round()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
