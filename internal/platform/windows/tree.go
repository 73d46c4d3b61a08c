//go:build windows

package windows

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

// snapshotTimeout bounds one UI Automation traversal. Deep trees on
// busy desktops can take several seconds.
const snapshotTimeout = 30 * time.Second

// TreeReader reads the UI Automation hierarchy through a pywinauto
// subprocess. The bridge keeps the COM apartment threading out of the
// Go process; the script prints one JSON document on stdout.
type TreeReader struct {
	python string
}

// NewTreeReader returns a UIA-backed tree reader using the python
// interpreter found on PATH.
func NewTreeReader() *TreeReader {
	return &TreeReader{python: "python"}
}

// uiaNode is the JSON shape emitted by the bridge script.
type uiaNode struct {
	ControlType string `json:"control_type"`
	Text        string `json:"text"`
	Rect        struct {
		Left   int `json:"left"`
		Top    int `json:"top"`
		Right  int `json:"right"`
		Bottom int `json:"bottom"`
	} `json:"rect"`
	ClassName    string    `json:"class_name"`
	AutomationID string    `json:"automation_id"`
	Children     []uiaNode `json:"children"`
}

const snapshotScript = `
import json, sys

def rect_of(el):
    r = el.rectangle()
    return {"left": r.left, "top": r.top, "right": r.right, "bottom": r.bottom}

def dump(el, depth, max_depth, min_size, region):
    r = el.rectangle()
    if min_size > 0 and (r.width() < min_size or r.height() < min_size):
        return None
    if region and (r.right < region[0] or r.left > region[2] or r.bottom < region[1] or r.top > region[3]):
        return None
    node = {
        "control_type": el.element_info.control_type or "Pane",
        "text": el.element_info.name or "",
        "rect": rect_of(el),
        "class_name": el.element_info.class_name or "",
        "automation_id": el.element_info.automation_id or "",
        "children": [],
    }
    if max_depth == 0 or depth < max_depth:
        for child in el.children():
            c = dump(child, depth + 1, max_depth, min_size, region)
            if c:
                node["children"].append(c)
    return node

def main():
    params = json.loads(sys.argv[1])
    from pywinauto import Desktop
    desktop = Desktop(backend="uia")
    out = []
    for w in desktop.windows():
        n = dump(w, 1, params["max_depth"], params["min_size"], params.get("region"))
        if n:
            out.append(n)
    print(json.dumps(out))

main()
`

// Snapshot returns the element tree for a screen region.
func (t *TreeReader) Snapshot(region *model.Rect, maxDepth, minSize int) ([]model.Element, error) {
	params := map[string]interface{}{
		"max_depth": maxDepth,
		"min_size":  minSize,
	}
	if region != nil {
		params["region"] = []int{region.Left, region.Top, region.Right, region.Bottom}
	}
	arg, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot params: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.python, "-c", snapshotScript, string(arg))
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("uia snapshot: %w", err)
	}

	var nodes []uiaNode
	if err := json.Unmarshal(out, &nodes); err != nil {
		return nil, fmt.Errorf("parse uia snapshot: %w", err)
	}

	elements := make([]model.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, convertNode(n, 1))
	}
	return elements, nil
}

// convertNode maps a bridge node to a model.Element, assigning depth
// from the traversal root.
func convertNode(n uiaNode, depth int) model.Element {
	el := model.Element{
		ControlType: n.ControlType,
		Text:        n.Text,
		Bounds: model.Rect{
			Left:   n.Rect.Left,
			Top:    n.Rect.Top,
			Right:  n.Rect.Right,
			Bottom: n.Rect.Bottom,
		},
		Depth: depth,
	}
	if n.ClassName != "" || n.AutomationID != "" {
		el.Properties = make(map[string]string, 2)
		if n.ClassName != "" {
			el.Properties["class_name"] = n.ClassName
		}
		if n.AutomationID != "" {
			el.Properties["automation_id"] = n.AutomationID
		}
	}
	for _, c := range n.Children {
		el.Children = append(el.Children, convertNode(c, depth+1))
	}
	return el
}
