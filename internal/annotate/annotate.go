// Package annotate renders cropped, highlighted evidence images for
// recorded events: the resolved element, its ancestor context, and the
// exact action point.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

const (
	// boundsPadding is added around the target element's bounds.
	boundsPadding = 20

	// contextMaxWidth/Height cap the ancestor used to widen the crop so
	// context never balloons into a full-screen image.
	contextMaxWidth  = 800
	contextMaxHeight = 600

	// fallbackRegionSize is the square captured when no element is known.
	fallbackRegionSize = 400

	// calloutLeaderMin is the distance above which the coordinate
	// callout gets a leader line back to the action point.
	calloutLeaderMin = 20

	labelMaxLen = 30
)

var (
	clickColor     = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	typeColor      = color.RGBA{R: 0, G: 100, B: 255, A: 255}
	otherColor     = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	containerColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	contextColor   = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	textColor      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// actionColor picks the highlight color for an action kind.
func actionColor(kind string) color.RGBA {
	switch kind {
	case "click":
		return clickColor
	case "type":
		return typeColor
	default:
		return otherColor
	}
}

// Annotator produces evidence images from live screen captures.
type Annotator struct {
	screen platform.Screenshotter
}

// New returns an annotator over the given capture backend.
func New(screen platform.Screenshotter) *Annotator {
	return &Annotator{screen: screen}
}

// Annotate renders the evidence image for an action at (x, y). When el
// is nil it falls back to a fixed-size region capture with an explicit
// "no element detected" caption, so any valid point yields an image as
// long as the screen itself can be captured.
func (a *Annotator) Annotate(el *model.Element, x, y int, kind string) (image.Image, error) {
	if el == nil {
		return a.annotateFallback(x, y, kind)
	}

	crop := a.cropRect(el)
	img, err := a.screen.Capture(&crop.Rect)
	if err != nil {
		return nil, fmt.Errorf("capture element region: %w", err)
	}
	rgba := imageToRGBA(img)

	// Ancestor outlines, root first so the target draws on top.
	hierarchy := el.ContextHierarchy
	if len(hierarchy) == 0 {
		hierarchy = []model.Element{*el}
	}
	for i, ancestor := range hierarchy[:len(hierarchy)-1] {
		c := contextColor
		if model.ContainerTypes[ancestor.ControlType] {
			c = containerColor
		}
		bx1, by1 := crop.toImage(ancestor.Bounds.Left, ancestor.Bounds.Top)
		bx2, by2 := crop.toImage(ancestor.Bounds.Right, ancestor.Bounds.Bottom)
		drawRectOutline(rgba, bx1, by1, bx2, by2, 1, c)
		drawTextWithOutline(rgba, ancestorLabel(ancestor), bx1+2, by1+2+i*14, c, outlineColor)
	}

	strong := actionColor(kind)
	tx1, ty1 := crop.toImage(el.Bounds.Left, el.Bounds.Top)
	tx2, ty2 := crop.toImage(el.Bounds.Right, el.Bounds.Bottom)
	drawRectOutline(rgba, tx1, ty1, tx2, ty2, 3, strong)

	px, py := crop.toImage(x, y)
	drawActionGlyph(rgba, px, py, kind, strong)
	drawCoordinateCallout(rgba, px, py, x, y)

	return rgba, nil
}

// annotateFallback captures a fixed region around the point and marks
// it with the glyph, callout, and a "no element detected" caption.
func (a *Annotator) annotateFallback(x, y int, kind string) (image.Image, error) {
	half := fallbackRegionSize / 2
	crop := a.clampToScreen(model.Rect{
		Left:   x - half,
		Top:    y - half,
		Right:  x + half,
		Bottom: y + half,
	})
	img, err := a.screen.Capture(&crop.Rect)
	if err != nil {
		return nil, fmt.Errorf("capture fallback region: %w", err)
	}
	rgba := imageToRGBA(img)

	strong := actionColor(kind)
	px, py := crop.toImage(x, y)
	drawActionGlyph(rgba, px, py, kind, strong)
	drawCoordinateCallout(rgba, px, py, x, y)

	caption := "No UI element detected"
	drawTextWithOutline(rgba, caption, 4, rgba.Bounds().Dy()-16, textColor, outlineColor)

	return rgba, nil
}

// cropView is a screen-space crop plus the coordinate translation into
// the captured image.
type cropView struct {
	model.Rect
}

// toImage converts absolute screen coordinates to image pixels.
func (c cropView) toImage(sx, sy int) (int, int) {
	return sx - c.Left, sy - c.Top
}

// cropRect picks the crop rectangle for an element: its padded bounds,
// widened to the outermost context ancestor that stays under the size
// ceiling.
func (a *Annotator) cropRect(el *model.Element) cropView {
	base := el.Bounds
	for _, ancestor := range el.ContextHierarchy {
		if ancestor.Bounds == el.Bounds {
			continue
		}
		if ancestor.Bounds.Width() <= contextMaxWidth && ancestor.Bounds.Height() <= contextMaxHeight {
			base = ancestor.Bounds
			break
		}
	}
	padded := model.Rect{
		Left:   base.Left - boundsPadding,
		Top:    base.Top - boundsPadding,
		Right:  base.Right + boundsPadding,
		Bottom: base.Bottom + boundsPadding,
	}
	return a.clampToScreen(padded)
}

// clampToScreen keeps a crop inside the visible screen.
func (a *Annotator) clampToScreen(r model.Rect) cropView {
	w, h, err := a.screen.ScreenSize()
	if err != nil {
		return cropView{r}
	}
	if r.Left < 0 {
		r.Left = 0
	}
	if r.Top < 0 {
		r.Top = 0
	}
	if r.Right > w {
		r.Right = w
	}
	if r.Bottom > h {
		r.Bottom = h
	}
	return cropView{r}
}

// ancestorLabel formats a truncated "type: text" label.
func ancestorLabel(el model.Element) string {
	text := el.Text
	if len(text) > labelMaxLen {
		text = text[:labelMaxLen-3] + "..."
	}
	if text == "" {
		return el.ControlType
	}
	return fmt.Sprintf("%s: %s", el.ControlType, text)
}

// drawActionGlyph marks the exact action point: a filled circle for
// clicks, a crosshair for text entry.
func drawActionGlyph(img *image.RGBA, px, py int, kind string, c color.RGBA) {
	if kind == "type" {
		drawCrosshair(img, px, py, 10, c)
		return
	}
	fillCircle(img, px, py, 5, c)
	fillCircle(img, px, py, 2, color.RGBA{R: 255, A: 255})
}

// drawCoordinateCallout stamps the absolute screen coordinates near the
// point, connected by a leader line when the label sits far away.
func drawCoordinateCallout(img *image.RGBA, px, py, sx, sy int) {
	label := fmt.Sprintf("(%d, %d)", sx, sy)
	lx := px + 15
	ly := py - 25

	bounds := img.Bounds()
	if lx+textWidth(label) > bounds.Max.X {
		lx = px - 15 - textWidth(label)
	}
	if ly < bounds.Min.Y {
		ly = py + 15
	}
	if lx < bounds.Min.X {
		lx = bounds.Min.X
	}

	dx := lx - px
	dy := ly - py
	if dx*dx+dy*dy > calloutLeaderMin*calloutLeaderMin {
		drawLine(img, px, py, lx, ly+6, outlineColor)
	}
	drawTextWithOutline(img, label, lx, ly, textColor, outlineColor)
}
