//go:build windows

package windows

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

// Screenshotter captures screen contents via robotgo.
type Screenshotter struct{}

// NewScreenshotter returns the robotgo-backed capturer.
func NewScreenshotter() *Screenshotter {
	return &Screenshotter{}
}

// Capture grabs the given region, or the full screen when region is nil.
func (s *Screenshotter) Capture(region *model.Rect) (image.Image, error) {
	var img image.Image
	if region == nil {
		img = robotgo.CaptureImg()
	} else {
		if region.Width() <= 0 || region.Height() <= 0 {
			return nil, fmt.Errorf("empty capture region %+v", *region)
		}
		img = robotgo.CaptureImg(region.Left, region.Top, region.Width(), region.Height())
	}
	if img == nil {
		return nil, fmt.Errorf("screen capture failed")
	}
	return img, nil
}

// ScreenSize returns the primary screen dimensions.
func (s *Screenshotter) ScreenSize() (int, int, error) {
	w, h := robotgo.GetScreenSize()
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("screen size unavailable")
	}
	return w, h, nil
}
