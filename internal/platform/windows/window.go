//go:build windows

package windows

import (
	"fmt"
	"strings"
	"syscall"
	"unsafe"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

var (
	user32                       = syscall.NewLazyDLL("user32.dll")
	procWindowFromPoint          = user32.NewProc("WindowFromPoint")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procEnumChildWindows         = user32.NewProc("EnumChildWindows")
	procGetParent                = user32.NewProc("GetParent")
)

// rect mirrors the Windows RECT structure.
type rect struct {
	Left, Top, Right, Bottom int32
}

// WindowQuerier answers native window-identity questions via user32.
type WindowQuerier struct{}

// NewWindowQuerier returns the user32-backed window querier.
func NewWindowQuerier() *WindowQuerier {
	return &WindowQuerier{}
}

// WindowAt returns the window owning the given screen point.
func (q *WindowQuerier) WindowAt(x, y int) (platform.WindowHandle, error) {
	// WindowFromPoint takes POINT by value; on 64-bit it is packed into
	// a single argument with y in the high dword.
	pt := uintptr(uint32(x)) | uintptr(uint32(y))<<32
	hwnd, _, _ := procWindowFromPoint.Call(pt)
	return platform.WindowHandle(hwnd), nil
}

// WindowRect returns the window's bounding rectangle in screen coordinates.
func (q *WindowQuerier) WindowRect(h platform.WindowHandle) (model.Rect, error) {
	var r rect
	ret, _, _ := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return model.Rect{}, fmt.Errorf("GetWindowRect failed for handle %#x", uintptr(h))
	}
	return model.Rect{
		Left:   int(r.Left),
		Top:    int(r.Top),
		Right:  int(r.Right),
		Bottom: int(r.Bottom),
	}, nil
}

// WindowClass returns the window's registered class name.
func (q *WindowQuerier) WindowClass(h platform.WindowHandle) (string, error) {
	buf := make([]uint16, 256)
	ret, _, _ := procGetClassNameW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if ret == 0 {
		return "", fmt.Errorf("GetClassName failed for handle %#x", uintptr(h))
	}
	return syscall.UTF16ToString(buf), nil
}

// WindowTitle returns the window's title text, "" when it has none.
func (q *WindowQuerier) WindowTitle(h platform.WindowHandle) (string, error) {
	length, _, _ := procGetWindowTextLengthW.Call(uintptr(h))
	if length == 0 {
		return "", nil
	}
	buf := make([]uint16, length+1)
	procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), length+1)
	return syscall.UTF16ToString(buf), nil
}

// EnumChildren returns the direct child windows of h in z-order.
// EnumChildWindows itself enumerates all descendants, so results are
// filtered to windows whose parent is h.
func (q *WindowQuerier) EnumChildren(h platform.WindowHandle) ([]platform.WindowHandle, error) {
	var children []platform.WindowHandle
	callback := syscall.NewCallback(func(hwnd syscall.Handle, _ uintptr) uintptr {
		parent, _, _ := procGetParent.Call(uintptr(hwnd))
		if platform.WindowHandle(parent) == h {
			children = append(children, platform.WindowHandle(hwnd))
		}
		return 1
	})
	procEnumChildWindows.Call(uintptr(h), callback, 0)
	return children, nil
}

// ProcessOf returns the PID owning the window.
func (q *WindowQuerier) ProcessOf(h platform.WindowHandle) (int, error) {
	var pid uint32
	procGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return 0, fmt.Errorf("no process for handle %#x", uintptr(h))
	}
	return int(pid), nil
}

// ProcessName returns the executable name for a PID, without extension.
func (q *WindowQuerier) ProcessName(pid int) (string, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("process %d: %w", pid, err)
	}
	name, err := proc.Name()
	if err != nil {
		return "", fmt.Errorf("process %d name: %w", pid, err)
	}
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")
	return name, nil
}

// RunningProcessNames returns the lowercase names of all running
// processes, without extension.
func (q *WindowQuerier) RunningProcessNames() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.ToLower(name), ".exe"))
	}
	return names, nil
}
