// Package recorder captures global input events into replayable macros.
package recorder

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

// State is the recorder session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

var (
	// ErrAlreadyRecording is returned when a second session is started
	// while one is active.
	ErrAlreadyRecording = errors.New("a recording session is already active")

	// ErrInvalidTransition is returned for state-machine operations the
	// current state forbids.
	ErrInvalidTransition = errors.New("invalid recorder state transition")
)

// ToggleKey is the recorder's own start/stop hotkey. Presses of it are
// filtered out of the recorded stream and surfaced on Session.Toggle.
const ToggleKey = "f9"

// defaultCommitKeys flush the pending text buffer when pressed.
var defaultCommitKeys = []string{"enter", "tab", "escape"}

// modifierKeys are never recorded standalone.
var modifierKeys = map[string]bool{
	"shift": true, "shift_r": true,
	"ctrl": true, "ctrl_r": true,
	"alt": true, "alt_r": true,
	"cmd": true, "cmd_r": true,
}

// navigationKeys are pure cursor movement and are suppressed entirely.
var navigationKeys = map[string]bool{
	"left": true, "right": true, "up": true, "down": true,
	"home": true, "end": true, "page_up": true, "page_down": true,
}

// ElementResolver is the resolver capability the recorder consumes.
type ElementResolver interface {
	ResolveAtPoint(x, y int) *model.Element
}

// ImageAnnotator renders evidence images for captured events.
type ImageAnnotator interface {
	Annotate(el *model.Element, x, y int, kind string) (image.Image, error)
}

// Options configures one recording session. MouseMoveThreshold is the
// minimum pointer travel in pixels before the tracked cursor position
// updates; smaller moves are treated as jitter.
type Options struct {
	Name               string
	Description        string
	CaptureUIContext   bool
	CaptureScreenshots bool
	MouseMoveThreshold float64
	CommitKeys         []string
	OutputDir          string
}

// applyDefaults fills unset fields.
func (o *Options) applyDefaults() {
	if o.Name == "" {
		o.Name = "macro"
	}
	if len(o.CommitKeys) == 0 {
		o.CommitKeys = append([]string(nil), defaultCommitKeys...)
	}
	if o.MouseMoveThreshold <= 0 {
		o.MouseMoveThreshold = 5.0
	}
	if o.OutputDir == "" {
		o.OutputDir = "macros"
	}
}

// Factory owns the single-active-session invariant: it refuses to
// create a second concurrent session, so "one recording per process"
// holds by construction.
type Factory struct {
	mu        sync.Mutex
	active    *Session
	listeners platform.ListenerFactory
	resolver  ElementResolver
	annotator ImageAnnotator
}

// NewFactory builds a session factory over the platform capabilities.
// resolver and annotator may be nil; capture options that need them are
// then silently unavailable.
func NewFactory(listeners platform.ListenerFactory, resolver ElementResolver, annotator ImageAnnotator) *Factory {
	return &Factory{
		listeners: listeners,
		resolver:  resolver,
		annotator: annotator,
	}
}

// Active returns the current session, or nil when none was started.
func (f *Factory) Active() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Start begins a new recording session. It fails with
// ErrAlreadyRecording while a previous session is still recording or
// paused, and with a listener error when the global hook cannot attach
// (recording never proceeds without input capture).
func (f *Factory) Start(opts Options) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active != nil {
		st := f.active.State()
		if st == StateRecording || st == StatePaused {
			return nil, ErrAlreadyRecording
		}
	}

	opts.applyDefaults()

	s := &Session{
		id:        uuid.NewString(),
		opts:      opts,
		factory:   f,
		resolver:  f.resolver,
		annotator: f.annotator,
		start:     time.Now(),
		toggle:    make(chan struct{}, 8),
		log:       slog.Default(),
		macro: &model.Macro{
			FormatVersion: model.MacroFormatVersion,
			Name:          opts.Name,
			Description:   opts.Description,
			CreatedAt:     time.Now(),
		},
	}
	s.macro.Metadata.Settings = model.RecordingSettings{
		CaptureUIContext:   opts.CaptureUIContext,
		CaptureScreenshots: opts.CaptureScreenshots,
		MouseMoveThreshold: opts.MouseMoveThreshold,
		CommitKeys:         append([]string(nil), opts.CommitKeys...),
	}
	s.packageDir = filepath.Join(opts.OutputDir,
		fmt.Sprintf("%s_%s", sanitizeName(opts.Name), s.start.Format("20060102-150405")))

	if opts.CaptureScreenshots {
		if err := os.MkdirAll(filepath.Join(s.PackageDir(), "screenshots"), 0o755); err != nil {
			return nil, fmt.Errorf("create package directory: %w", err)
		}
	}

	listener, err := f.listeners.Open()
	if err != nil {
		return nil, fmt.Errorf("attach input listener: %w", err)
	}

	s.mu.Lock()
	s.state = StateRecording
	s.listener = listener
	s.mu.Unlock()

	s.appendMarker("initial")
	go s.consume(listener)

	f.active = s
	return s, nil
}
