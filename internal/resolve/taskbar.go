package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

// shellResolver handles one recognized shell container class. New
// shell-specific heuristics are added to the table, not the resolver.
type shellResolver func(r *Resolver, h platform.WindowHandle, x, y int) (*model.Element, error)

// shellResolvers keys recognized shell window classes to their
// specialized sub-resolver.
var shellResolvers = map[string]shellResolver{
	"Shell_TrayWnd":          resolveTaskbar,
	"Shell_SecondaryTrayWnd": resolveTaskbar,
	"MSTaskSwWClass":         resolveTaskbar,
	"MSTaskListWClass":       resolveTaskbar,
}

// knownApps maps process names to taskbar display names. Used both to
// rank native enumeration candidates and to label heuristic guesses.
var knownApps = map[string]string{
	"firefox":  "Firefox",
	"chrome":   "Chrome",
	"msedge":   "Edge",
	"notepad":  "Notepad",
	"explorer": "File Explorer",
	"code":     "Visual Studio Code",
	"outlook":  "Outlook",
	"teams":    "Teams",
	"winword":  "Word",
	"excel":    "Excel",
	"powerpnt": "PowerPoint",
}

// Taskbar zone extents in pixels from the container edges.
const (
	startZoneWidth    = 60
	searchZoneWidth   = 300
	taskViewZoneWidth = 60
	trayZoneWidth     = 200
)

// resolveTaskbar finds the taskbar button under a point. Tiers:
// native child/grandchild enumeration, then process identity, then
// coordinate-zone guessing. The last tier is approximate and is tagged
// low-confidence so callers can discount it.
func resolveTaskbar(r *Resolver, h platform.WindowHandle, x, y int) (*model.Element, error) {
	if el := r.taskbarEnumerate(h, x, y); el != nil {
		return el, nil
	}
	if el := r.taskbarProcessIdentity(h, x, y); el != nil {
		return el, nil
	}
	return r.taskbarCoordinateZones(h, x, y)
}

// taskbarCandidate is one native window considered during enumeration.
type taskbarCandidate struct {
	handle   platform.WindowHandle
	bounds   model.Rect
	text     string
	class    string
	depth    int
	knownApp bool
}

// taskbarEnumerate walks the container's children and grandchildren
// natively and ranks those containing the point. Best-effort: returns
// nil rather than an error so the next tier can fire.
func (r *Resolver) taskbarEnumerate(h platform.WindowHandle, x, y int) *model.Element {
	var candidates []taskbarCandidate

	children, err := r.windows.EnumChildren(h)
	if err != nil {
		return nil
	}
	for _, child := range children {
		if c, ok := r.describeCandidate(child, 1, x, y); ok {
			candidates = append(candidates, c)
		}
		grandchildren, err := r.windows.EnumChildren(child)
		if err != nil {
			continue
		}
		for _, gc := range grandchildren {
			if c, ok := r.describeCandidate(gc, 2, x, y); ok {
				candidates = append(candidates, c)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if betterTaskbarCandidate(c, best, x, y) {
			best = c
		}
	}

	text := best.text
	if text == "" {
		text = best.class
	}
	el := &model.Element{
		ControlType: model.ControlButton,
		Text:        text,
		Bounds:      best.bounds,
		Depth:       best.depth,
		Properties:  map[string]string{"class_name": best.class},
	}
	el.SetDetectionMethod(MethodTaskbarEnum)
	return el
}

// describeCandidate builds a candidate for a native window if its
// bounds contain the point.
func (r *Resolver) describeCandidate(h platform.WindowHandle, depth, x, y int) (taskbarCandidate, bool) {
	bounds, err := r.windows.WindowRect(h)
	if err != nil || !bounds.Contains(x, y) {
		return taskbarCandidate{}, false
	}
	text, _ := r.windows.WindowTitle(h)
	class, _ := r.windows.WindowClass(h)
	return taskbarCandidate{
		handle:   h,
		bounds:   bounds,
		text:     text,
		class:    class,
		depth:    depth,
		knownApp: matchesKnownApp(text) || matchesKnownApp(class),
	}, true
}

// betterTaskbarCandidate ranks candidates: known-application match
// first, then hierarchy depth (deeper is more specific), then center
// distance to the click point.
func betterTaskbarCandidate(c, best taskbarCandidate, x, y int) bool {
	if c.knownApp != best.knownApp {
		return c.knownApp
	}
	if c.depth != best.depth {
		return c.depth > best.depth
	}
	return c.bounds.CenterDistance(x, y) < best.bounds.CenterDistance(x, y)
}

// matchesKnownApp reports whether text mentions a known application.
func matchesKnownApp(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for proc, display := range knownApps {
		if strings.Contains(lower, proc) || strings.Contains(lower, strings.ToLower(display)) {
			return true
		}
	}
	return false
}

// taskbarProcessIdentity maps the window under the point to its owning
// process and names the element after a recognized application.
func (r *Resolver) taskbarProcessIdentity(h platform.WindowHandle, x, y int) *model.Element {
	pid, err := r.windows.ProcessOf(h)
	if err != nil {
		return nil
	}
	name, err := r.windows.ProcessName(pid)
	if err != nil {
		return nil
	}
	display, ok := knownApps[name]
	if !ok {
		return nil
	}
	bounds, err := r.windows.WindowRect(h)
	if err != nil {
		return nil
	}
	el := &model.Element{
		ControlType: model.ControlButton,
		Text:        display,
		Bounds:      bounds,
		Properties:  map[string]string{"process_name": name},
	}
	el.SetDetectionMethod(MethodProcessIdentity)
	return el
}

// taskbarCoordinateZones divides the container's bounds into named
// zones and guesses which taskbar control sits under the point. The
// app-button guess correlates the position proportionally against the
// currently running known applications; it is a low-confidence hint.
func (r *Resolver) taskbarCoordinateZones(h platform.WindowHandle, x, y int) (*model.Element, error) {
	bar, err := r.windows.WindowRect(h)
	if err != nil {
		return nil, fmt.Errorf("taskbar rect: %w", err)
	}
	if !bar.Contains(x, y) {
		return nil, nil
	}

	var (
		text   string
		bounds model.Rect
	)
	switch {
	case x < bar.Left+startZoneWidth:
		text = "Start button"
		bounds = model.Rect{Left: bar.Left, Top: bar.Top, Right: bar.Left + startZoneWidth, Bottom: bar.Bottom}
	case x < bar.Left+startZoneWidth+searchZoneWidth:
		text = "Search box"
		bounds = model.Rect{Left: bar.Left + startZoneWidth, Top: bar.Top, Right: bar.Left + startZoneWidth + searchZoneWidth, Bottom: bar.Bottom}
	case x < bar.Left+startZoneWidth+searchZoneWidth+taskViewZoneWidth:
		text = "Task View button"
		bounds = model.Rect{Left: bar.Left + startZoneWidth + searchZoneWidth, Top: bar.Top, Right: bar.Left + startZoneWidth + searchZoneWidth + taskViewZoneWidth, Bottom: bar.Bottom}
	case x >= bar.Right-trayZoneWidth:
		text = "System tray area"
		bounds = model.Rect{Left: bar.Right - trayZoneWidth, Top: bar.Top, Right: bar.Right, Bottom: bar.Bottom}
	default:
		text, bounds = r.guessAppButton(bar, x)
	}

	el := &model.Element{
		ControlType: model.ControlButton,
		Text:        text,
		Bounds:      bounds,
		Properties:  map[string]string{"confidence": "low"},
	}
	el.SetDetectionMethod(MethodCoordinate)
	return el, nil
}

// guessAppButton estimates which running application's taskbar button
// occupies the point, mapping the position proportionally across the
// app-button area against the sorted list of running known apps.
func (r *Resolver) guessAppButton(bar model.Rect, x int) (string, model.Rect) {
	areaLeft := bar.Left + startZoneWidth + searchZoneWidth + taskViewZoneWidth
	areaRight := bar.Right - trayZoneWidth
	bounds := model.Rect{Left: areaLeft, Top: bar.Top, Right: areaRight, Bottom: bar.Bottom}

	apps := r.runningKnownApps()
	if len(apps) == 0 || areaRight <= areaLeft {
		return "Taskbar application area", bounds
	}

	slot := (x - areaLeft) * len(apps) / (areaRight - areaLeft)
	if slot >= len(apps) {
		slot = len(apps) - 1
	}
	slotWidth := (areaRight - areaLeft) / len(apps)
	bounds = model.Rect{
		Left:   areaLeft + slot*slotWidth,
		Top:    bar.Top,
		Right:  areaLeft + (slot+1)*slotWidth,
		Bottom: bar.Bottom,
	}
	return fmt.Sprintf("Taskbar app button (likely %s)", apps[slot]), bounds
}

// runningKnownApps returns the display names of recognized applications
// currently running, sorted for a stable slot mapping.
func (r *Resolver) runningKnownApps() []string {
	names, err := r.windows.RunningProcessNames()
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var apps []string
	for _, n := range names {
		if display, ok := knownApps[n]; ok && !seen[display] {
			seen[display] = true
			apps = append(apps, display)
		}
	}
	sort.Strings(apps)
	return apps
}
