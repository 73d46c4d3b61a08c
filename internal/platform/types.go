package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// String returns the lowercase button name used in macro payloads.
func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// ParseRegion parses a "left,top,right,bottom" string into a model.Rect.
func ParseRegion(s string) (*model.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid region %q: expected left,top,right,bottom", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid region %q: %w", s, err)
		}
		vals[i] = v
	}
	r := &model.Rect{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}
	if r.Right < r.Left || r.Bottom < r.Top {
		return nil, fmt.Errorf("invalid region %q: right/bottom must not be less than left/top", s)
	}
	return r, nil
}

// EventKind classifies a global input event.
type EventKind int

const (
	EventMouseDown EventKind = iota
	EventMouseUp
	EventMouseMove
	EventMouseScroll
	EventKeyDown
	EventKeyUp
)

// InputEvent is one global mouse/keyboard event from an InputListener.
type InputEvent struct {
	Kind   EventKind
	X, Y   int
	Button MouseButton

	// DX, DY carry the scroll delta for EventMouseScroll.
	DX, DY int

	// Key is the normalized key name ("a", "enter", "backspace", "f9", ...)
	// for keyboard events. Char is the printable rune, 0 when none.
	Key  string
	Char rune
}
