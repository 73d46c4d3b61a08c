package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles all platform backends for the current OS.
type Provider struct {
	Windows       WindowQuerier
	Tree          TreeReader
	Inputter      Inputter
	Screenshotter Screenshotter
	Cursor        Cursor
	Listeners     ListenerFactory
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("mcp-ui-explorer is not supported on %s/%s; supported: windows/amd64", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/windows/init.go for the Windows registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
