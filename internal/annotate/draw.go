package annotate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// imageToRGBA converts any image to RGBA for drawing.
func imageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// isWithinBounds checks if a point is within the image bounds.
func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectOutline draws a rectangle outline with the given stroke width,
// clamped to the image bounds.
func drawRectOutline(img *image.RGBA, x1, y1, x2, y2, width int, c color.Color) {
	for i := 0; i < width; i++ {
		drawRect(img, x1+i, y1+i, x2-i, y2-i, c)
	}
}

// drawRect draws a single-pixel rectangle outline.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x < x2; x++ {
		if isWithinBounds(bounds, x, y1) {
			img.Set(x, y1, c)
		}
		if isWithinBounds(bounds, x, y2-1) {
			img.Set(x, y2-1, c)
		}
	}
	for y := y1; y < y2; y++ {
		if isWithinBounds(bounds, x1, y) {
			img.Set(x1, y, c)
		}
		if isWithinBounds(bounds, x2-1, y) {
			img.Set(x2-1, y, c)
		}
	}
}

// fillCircle draws a filled circle centered at (cx, cy).
func fillCircle(img *image.RGBA, cx, cy, radius int, c color.Color) {
	bounds := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius && isWithinBounds(bounds, cx+dx, cy+dy) {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

// drawCrosshair draws a crosshair glyph centered at (cx, cy).
func drawCrosshair(img *image.RGBA, cx, cy, arm int, c color.Color) {
	bounds := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if isWithinBounds(bounds, cx+d, cy) {
			img.Set(cx+d, cy, c)
		}
		if isWithinBounds(bounds, cx, cy+d) {
			img.Set(cx, cy+d, c)
		}
	}
}

// drawLine draws a straight line between two points.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	for {
		if isWithinBounds(bounds, x1, y1) {
			img.Set(x1, y1, c)
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawTextWithOutline draws text at (x, y) with a contrasting outline
// for visibility on arbitrary backgrounds. (x, y) is the top-left of
// the text box.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13 baseline sits ~11px below the text top.
	baseY := y + 11

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(outlineColor),
				Face: basicfont.Face7x13,
				Dot: fixed.Point26_6{
					X: fixed.Int26_6((x + dx) * 64),
					Y: fixed.Int26_6((baseY + dy) * 64),
				},
			}
			d.DrawString(text)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(baseY * 64),
		},
	}
	d.DrawString(text)
}

// textWidth returns the pixel width of text in the annotation font.
func textWidth(text string) int {
	return len(text) * 7
}
