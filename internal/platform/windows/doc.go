//go:build windows

// Package windows provides the Windows platform backend: native window
// queries via user32, UI Automation snapshots, simulated input via
// robotgo, and global input hooks via gohook.
package windows
