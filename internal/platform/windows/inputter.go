//go:build windows

package windows

import (
	"fmt"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

// Inputter simulates mouse and keyboard input via robotgo.
type Inputter struct{}

// NewInputter returns the robotgo-backed input simulator.
func NewInputter() *Inputter {
	return &Inputter{}
}

// MoveMouse moves the pointer to absolute screen coordinates.
func (i *Inputter) MoveMouse(x, y int) error {
	if err := checkOnScreen(x, y); err != nil {
		return err
	}
	robotgo.Move(x, y)
	return nil
}

// Click moves to (x, y) and presses the given button.
func (i *Inputter) Click(x, y int, button platform.MouseButton, double bool) error {
	if err := checkOnScreen(x, y); err != nil {
		return err
	}
	robotgo.Move(x, y)
	robotgo.Click(button.String(), double)
	return nil
}

// Scroll moves to (x, y) and scrolls by the given delta.
func (i *Inputter) Scroll(x, y, dx, dy int) error {
	if err := checkOnScreen(x, y); err != nil {
		return err
	}
	robotgo.Move(x, y)
	robotgo.Scroll(dx, dy)
	return nil
}

// TypeText sends literal text, optionally pausing between keystrokes.
func (i *Inputter) TypeText(text string, delayMs int) error {
	if delayMs <= 0 {
		robotgo.TypeStr(text)
		return nil
	}
	for _, r := range text {
		robotgo.TypeStr(string(r))
		time.Sleep(time.Duration(delayMs) * time.Millisecond)
	}
	return nil
}

// KeyTap presses and releases a named key.
func (i *Inputter) KeyTap(key string) error {
	return robotgo.KeyTap(key)
}

// Cursor reports the live pointer position via robotgo.
type Cursor struct{}

// NewCursor returns the robotgo-backed cursor reader.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Position returns the current pointer location.
func (c *Cursor) Position() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

// checkOnScreen rejects coordinates outside the virtual screen so a
// bad macro fails as a dispatch error instead of clicking at a clamp.
func checkOnScreen(x, y int) error {
	w, h := robotgo.GetScreenSize()
	if x < 0 || y < 0 || x >= w || y >= h {
		return fmt.Errorf("point (%d, %d) outside screen %dx%d", x, y, w, h)
	}
	return nil
}
