package platform

import (
	"image"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

// WindowHandle is an opaque native window identifier.
type WindowHandle uintptr

// WindowQuerier answers native window-identity questions for a point on
// screen. These queries bypass the accessibility tree entirely; the
// resolver uses them for shell containers the tree does not expose.
type WindowQuerier interface {
	// WindowAt returns the window owning the given screen point, or 0
	// when no window is found.
	WindowAt(x, y int) (WindowHandle, error)

	WindowRect(h WindowHandle) (model.Rect, error)
	WindowClass(h WindowHandle) (string, error)
	WindowTitle(h WindowHandle) (string, error)

	// EnumChildren returns the direct child windows of h in z-order.
	EnumChildren(h WindowHandle) ([]WindowHandle, error)

	// ProcessOf returns the PID owning the window.
	ProcessOf(h WindowHandle) (int, error)

	// ProcessName returns the executable name for a PID, without extension.
	ProcessName(pid int) (string, error)

	// RunningProcessNames returns the lowercase names of all running
	// processes, without extension. Order is unspecified.
	RunningProcessNames() ([]string, error)
}

// TreeReader reads the UI element hierarchy from the OS accessibility layer.
type TreeReader interface {
	// Snapshot returns the element tree for a screen region (nil = full
	// screen), traversed to maxDepth (0 = unlimited), excluding elements
	// smaller than minSize pixels in either dimension.
	Snapshot(region *model.Rect, maxDepth, minSize int) ([]model.Element, error)
}

// Inputter simulates mouse and keyboard input.
type Inputter interface {
	MoveMouse(x, y int) error
	Click(x, y int, button MouseButton, double bool) error
	Scroll(x, y, dx, dy int) error
	TypeText(text string, delayMs int) error
	KeyTap(key string) error
}

// Screenshotter captures screen contents.
type Screenshotter interface {
	// Capture grabs the given region, or the full screen when region is nil.
	Capture(region *model.Rect) (image.Image, error)

	ScreenSize() (width, height int, err error)
}

// Cursor reports the live pointer position.
type Cursor interface {
	Position() (x, y int, err error)
}

// InputListener delivers global mouse/keyboard events on a channel.
// Callbacks arrive on the platform's event thread; consumers must not
// mutate shared state without their own synchronization.
type InputListener interface {
	// Events returns the event channel. The channel is closed by Stop.
	Events() <-chan InputEvent

	// Stop detaches the global hook and closes the event channel.
	// Safe to call more than once.
	Stop()
}

// ListenerFactory attaches a fresh global input hook. Each recording
// session opens its own listener and closes it on every exit path.
type ListenerFactory interface {
	Open() (InputListener, error)
}
