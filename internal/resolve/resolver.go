package resolve

import (
	"fmt"
	"log/slog"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

// Detection method tags recorded into resolved elements so downstream
// consumers can tell which fallback tier fired.
const (
	MethodUIAutomation    = "ui_automation"
	MethodTaskbarEnum     = "enhanced_taskbar_enum_deep"
	MethodProcessIdentity = "process_identification"
	MethodCoordinate      = "coordinate_heuristic"
	MethodHierarchy       = "hierarchy_analysis"
	MethodBasicWindow     = "basic_window_api"
)

// fallbackRegionSize is the square region analyzed around the point
// when tree descent finds nothing.
const fallbackRegionSize = 100

// Strategy is one resolution tier: a named function mapping a point to
// an element or nil. Strategies are evaluated in order with early exit
// on first success; a strategy error degrades to the next tier.
type Strategy struct {
	Name    string
	Resolve func(x, y int) (*model.Element, error)
}

// Resolver maps screen points to UI elements.
type Resolver struct {
	windows    platform.WindowQuerier
	tree       platform.TreeReader
	strategies []Strategy
	log        *slog.Logger
}

// NewResolver builds a resolver over the given platform backends.
func NewResolver(windows platform.WindowQuerier, tree platform.TreeReader) *Resolver {
	r := &Resolver{
		windows: windows,
		tree:    tree,
		log:     slog.Default(),
	}
	r.strategies = []Strategy{
		{Name: "shell_container", Resolve: r.resolveShellContainer},
		{Name: "tree_descent", Resolve: r.resolveTreeDescent},
		{Name: "region_fallback", Resolve: r.resolveRegionFallback},
		{Name: "basic_window", Resolve: r.resolveBasicWindow},
	}
	return r
}

// Strategies exposes the ordered tier list so each tier can be tested
// in isolation.
func (r *Resolver) Strategies() []Strategy {
	return r.strategies
}

// ResolveAtPoint returns the most specific element at a screen point,
// or nil when every strategy comes up empty. It never returns an error
// for a valid coordinate: strategy failures degrade to the next tier.
func (r *Resolver) ResolveAtPoint(x, y int) *model.Element {
	for _, s := range r.strategies {
		el, err := s.Resolve(x, y)
		if err != nil {
			r.log.Debug("resolution strategy failed", "strategy", s.Name, "x", x, "y", y, "error", err)
			continue
		}
		if el != nil {
			r.log.Debug("resolved element", "strategy", s.Name, "control_type", el.ControlType, "method", el.DetectionMethod())
			return el
		}
	}
	return nil
}

// resolveShellContainer routes points inside recognized system shell
// windows (taskbar, tray) to the specialized sub-resolver. Those
// containers are often not exposed through the accessibility tree.
func (r *Resolver) resolveShellContainer(x, y int) (*model.Element, error) {
	h, err := r.windows.WindowAt(x, y)
	if err != nil || h == 0 {
		return nil, err
	}
	class, err := r.windows.WindowClass(h)
	if err != nil {
		return nil, err
	}
	sub, ok := shellResolvers[class]
	if !ok {
		return nil, nil
	}
	return sub(r, h, x, y)
}

// resolveTreeDescent searches the accessibility subtree of the window
// under the point for the most specific containing element.
func (r *Resolver) resolveTreeDescent(x, y int) (*model.Element, error) {
	h, err := r.windows.WindowAt(x, y)
	if err != nil || h == 0 {
		return nil, err
	}
	winRect, err := r.windows.WindowRect(h)
	if err != nil {
		return nil, err
	}
	if !winRect.Contains(x, y) {
		return nil, nil
	}

	elements, err := r.tree.Snapshot(&winRect, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("window snapshot: %w", err)
	}
	el := resolveDescent(elements, x, y)
	if el == nil {
		return nil, nil
	}
	el.SetDetectionMethod(MethodUIAutomation)
	return el, nil
}

// resolveRegionFallback analyzes a small fixed-size region around the
// point. This catches custom-drawn UI the tree descent cannot see.
func (r *Resolver) resolveRegionFallback(x, y int) (*model.Element, error) {
	half := fallbackRegionSize / 2
	region := model.Rect{
		Left:   x - half,
		Top:    y - half,
		Right:  x + half,
		Bottom: y + half,
	}
	elements, err := r.tree.Snapshot(&region, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("region snapshot: %w", err)
	}
	el := ResolveInSnapshot(elements, x, y)
	if el == nil {
		return nil, nil
	}
	el.SetDetectionMethod(MethodHierarchy)
	return el, nil
}

// resolveBasicWindow reports the owning window itself when nothing more
// specific can be found.
func (r *Resolver) resolveBasicWindow(x, y int) (*model.Element, error) {
	h, err := r.windows.WindowAt(x, y)
	if err != nil || h == 0 {
		return nil, err
	}
	winRect, err := r.windows.WindowRect(h)
	if err != nil {
		return nil, err
	}
	title, _ := r.windows.WindowTitle(h)
	class, _ := r.windows.WindowClass(h)

	el := &model.Element{
		ControlType: model.ControlWindow,
		Text:        title,
		Bounds:      winRect,
		Properties:  map[string]string{"class_name": class},
	}
	el.SetDetectionMethod(MethodBasicWindow)
	return el, nil
}
