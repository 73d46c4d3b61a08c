package cmd

import (
	"fmt"

	"github.com/modularflow/mcp-ui-explorer/internal/annotate"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
	"github.com/modularflow/mcp-ui-explorer/internal/recorder"
	"github.com/modularflow/mcp-ui-explorer/internal/resolve"
)

// explorer bundles the platform provider with the resolution and
// annotation layers built on top of it. Commands share one of these.
type explorer struct {
	provider  *platform.Provider
	resolver  *resolve.Resolver
	annotator *annotate.Annotator
}

// newExplorer builds the full capability stack for the current platform.
func newExplorer() (*explorer, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	e := &explorer{provider: provider}
	if provider.Windows != nil && provider.Tree != nil {
		e.resolver = resolve.NewResolver(provider.Windows, provider.Tree)
	}
	if provider.Screenshotter != nil {
		e.annotator = annotate.New(provider.Screenshotter)
	}
	return e, nil
}

// recorderFactory builds a session factory over the explorer's
// capabilities. Resolution and annotation degrade to nil on platforms
// that lack them; recording then proceeds without UI context.
func (e *explorer) recorderFactory() (*recorder.Factory, error) {
	if e.provider.Listeners == nil {
		return nil, fmt.Errorf("global input capture not available on this platform")
	}
	var resolver recorder.ElementResolver
	if e.resolver != nil {
		resolver = e.resolver
	}
	var annotator recorder.ImageAnnotator
	if e.annotator != nil {
		annotator = e.annotator
	}
	return recorder.NewFactory(e.provider.Listeners, resolver, annotator), nil
}

// StringParam reads a string MCP tool argument with a default.
func StringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

// IntParam reads a numeric MCP tool argument with a default. JSON
// numbers arrive as float64.
func IntParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// FloatParam reads a float MCP tool argument with a default.
func FloatParam(params map[string]interface{}, key string, def float64) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return def
}

// BoolParam reads a boolean MCP tool argument with a default.
func BoolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
