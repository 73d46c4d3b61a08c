// Package resolve maps screen points to UI elements through an ordered
// cascade of fallback strategies.
package resolve

import "github.com/modularflow/mcp-ui-explorer/internal/model"

// ResolveInSnapshot finds the element for a point in an already-captured
// hierarchy tree. It is pure and deterministic: given the same tree and
// point it always returns the same element.
//
// Among elements whose bounds contain the point, the smallest-area one
// wins; equal areas tie-break to the first encountered in depth-first
// order. When nothing contains the point, the element with the closest
// center is returned with a nonzero Distance so callers can tell exact
// hits from best-effort guesses. Returns nil only for an empty tree.
func ResolveInSnapshot(elements []model.Element, x, y int) *model.Element {
	var (
		best        *model.Element
		bestArea    int
		bestPath    []model.Element
		nearest     *model.Element
		nearestDist float64
	)

	var walk func(els []model.Element, ancestors []model.Element)
	walk = func(els []model.Element, ancestors []model.Element) {
		for i := range els {
			el := &els[i]
			path := append(append([]model.Element(nil), ancestors...), *el)

			if el.Bounds.Contains(x, y) {
				area := el.Bounds.Area()
				if best == nil || area < bestArea {
					best = el
					bestArea = area
					bestPath = path
				}
			} else if el.Bounds.Area() > 0 {
				d := el.Bounds.CenterDistance(x, y)
				if nearest == nil || d < nearestDist {
					nearest = el
					nearestDist = d
				}
			}

			walk(el.Children, path)
		}
	}
	walk(elements, nil)

	if best != nil {
		result := *best
		result.Children = nil
		result.ContextHierarchy = stripHierarchy(bestPath)
		return &result
	}
	if nearest != nil {
		result := *nearest
		result.Children = nil
		if nearestDist == 0 {
			// A degenerate zero-area element exactly at the point still
			// counts as a guess, not a containment hit.
			nearestDist = 1
		}
		result.Distance = nearestDist
		return &result
	}
	return nil
}

// stripHierarchy removes child and hierarchy links from an ancestor
// path so serialized context stays shallow.
func stripHierarchy(path []model.Element) []model.Element {
	out := make([]model.Element, len(path))
	for i, el := range path {
		el.Children = nil
		el.ContextHierarchy = nil
		out[i] = el
	}
	return out
}

// resolveDescent finds the most specific element containing a point in
// an accessibility subtree, preferring inherently interactive control
// types over generic containers.
//
// Disambiguation among containing elements (tried in order):
//  1. Interactive control types beat containers.
//  2. Greater depth (more specific) wins.
//  3. Smaller bounding area wins.
func resolveDescent(elements []model.Element, x, y int) *model.Element {
	var (
		best     *model.Element
		bestPath []model.Element
	)

	var walk func(els []model.Element, ancestors []model.Element)
	walk = func(els []model.Element, ancestors []model.Element) {
		for i := range els {
			el := &els[i]
			path := append(append([]model.Element(nil), ancestors...), *el)
			if el.Bounds.Contains(x, y) {
				if best == nil || betterDescentCandidate(el, best) {
					best = el
					bestPath = path
				}
			}
			walk(el.Children, path)
		}
	}
	walk(elements, nil)

	if best == nil {
		return nil
	}
	result := *best
	result.Children = nil
	result.ContextHierarchy = stripHierarchy(bestPath)
	return &result
}

// betterDescentCandidate reports whether candidate should replace the
// current best containing element.
func betterDescentCandidate(candidate, best *model.Element) bool {
	ci, bi := model.IsInteractive(candidate.ControlType), model.IsInteractive(best.ControlType)
	if ci != bi {
		return ci
	}
	if candidate.Depth != best.Depth {
		return candidate.Depth > best.Depth
	}
	return candidate.Bounds.Area() < best.Bounds.Area()
}
