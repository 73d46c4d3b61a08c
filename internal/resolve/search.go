package resolve

import (
	"strings"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

// Query describes an element by content instead of position.
type Query struct {
	// Text matches case-insensitively against element text; substring
	// by default, whole-string when Exact is set.
	Text  string
	Exact bool

	// ControlType restricts matches to one control type when set.
	ControlType string
}

// matches reports whether a single element satisfies the query.
func (q Query) matches(el *model.Element) bool {
	if q.ControlType != "" && el.ControlType != q.ControlType {
		return false
	}
	if q.Text == "" {
		return q.ControlType != ""
	}
	if q.Exact {
		return strings.EqualFold(el.Text, q.Text)
	}
	return strings.Contains(strings.ToLower(el.Text), strings.ToLower(q.Text))
}

// FindInSnapshot returns the elements in an already-captured hierarchy
// that match the query. Matching is leaf-preferring: when an element
// and one of its descendants both match, only the descendant is
// returned, since it is the more specific target.
func FindInSnapshot(elements []model.Element, q Query) []*model.Element {
	var results []*model.Element
	for i := range elements {
		el := &elements[i]

		childMatches := FindInSnapshot(el.Children, q)
		if len(childMatches) > 0 {
			results = append(results, childMatches...)
			continue
		}
		if q.matches(el) {
			results = append(results, el)
		}
	}
	return results
}

// ResolveByDescription finds the element best matching a content query
// in a fresh full-screen snapshot. Among multiple matches it prefers
// interactive control types, then deeper elements, then smaller bounds,
// mirroring the point-descent disambiguation. Returns nil when nothing
// matches; snapshot failures also degrade to nil.
func (r *Resolver) ResolveByDescription(q Query) *model.Element {
	elements, err := r.tree.Snapshot(nil, 0, 0)
	if err != nil {
		r.log.Debug("description snapshot failed", "error", err)
		return nil
	}

	matches := FindInSnapshot(elements, q)
	if len(matches) == 0 {
		return nil
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if betterDescriptionMatch(m, best) {
			best = m
		}
	}

	el := *best
	el.Children = nil
	el.SetDetectionMethod(MethodUIAutomation)
	return &el
}

// betterDescriptionMatch ranks content-query matches the same way the
// point descent disambiguates containing elements.
func betterDescriptionMatch(c, best *model.Element) bool {
	ci, bi := model.IsInteractive(c.ControlType), model.IsInteractive(best.ControlType)
	if ci != bi {
		return ci
	}
	if c.Depth != best.Depth {
		return c.Depth > best.Depth
	}
	return c.Bounds.Area() < best.Bounds.Area()
}
