package model

import "math"

// Rect is a screen rectangle in absolute coordinates.
// Invariant: Right >= Left and Bottom >= Top.
type Rect struct {
	Left   int `json:"left"   yaml:"left"`
	Top    int `json:"top"    yaml:"top"`
	Right  int `json:"right"  yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Area returns the rectangle's area in square pixels.
func (r Rect) Area() int { return r.Width() * r.Height() }

// Contains reports whether the point (x, y) lies within the rectangle.
// Edges are inclusive on the left/top and exclusive on the right/bottom,
// except that zero-width or zero-height rects contain nothing.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Center returns the rectangle's center point.
func (r Rect) Center() (int, int) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// CenterDistance returns the Euclidean distance from the rectangle's
// center to the point (x, y).
func (r Rect) CenterDistance(x, y int) float64 {
	cx, cy := r.Center()
	dx := float64(cx - x)
	dy := float64(cy - y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Element is a read-only projection of one node in the live accessibility
// tree at query time. Elements are constructed fresh on every resolution
// call and never cached across calls; the tree mutates continuously.
type Element struct {
	ControlType string `json:"control_type"   yaml:"control_type"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	Bounds      Rect   `json:"bounds"         yaml:"bounds"`

	// Depth is the distance from the search root. Deeper elements are
	// more specific and preferred during disambiguation.
	Depth int `json:"depth,omitempty" yaml:"depth,omitempty"`

	// Distance is zero for exact containment hits. A nonzero value marks
	// a best-effort nearest-element guess (center distance to the query
	// point) so callers can discount it.
	Distance float64 `json:"distance,omitempty" yaml:"distance,omitempty"`

	// Properties carries free-form attributes: class name, automation id,
	// and the detection_method tag naming which resolution tier produced
	// this element.
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`

	// ContextHierarchy is the ancestor chain from the search root down to
	// this element, inclusive. Present only from window-hierarchy search.
	ContextHierarchy []Element `json:"context_hierarchy,omitempty" yaml:"context_hierarchy,omitempty"`

	Children []Element `json:"children,omitempty" yaml:"children,omitempty"`
}

// DetectionMethod returns the properties tag naming the resolution tier
// that produced this element, or "" when untagged.
func (e *Element) DetectionMethod() string {
	if e == nil || e.Properties == nil {
		return ""
	}
	return e.Properties["detection_method"]
}

// SetDetectionMethod tags the element with the resolution tier that
// produced it, allocating the properties map if needed.
func (e *Element) SetDetectionMethod(method string) {
	if e.Properties == nil {
		e.Properties = make(map[string]string, 1)
	}
	e.Properties["detection_method"] = method
}
