//go:build windows

package windows

import "github.com/modularflow/mcp-ui-explorer/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		querier := NewWindowQuerier()
		return &platform.Provider{
			Windows:       querier,
			Tree:          NewTreeReader(),
			Inputter:      NewInputter(),
			Screenshotter: NewScreenshotter(),
			Cursor:        NewCursor(),
			Listeners:     NewListenerFactory(),
		}, nil
	}
}
