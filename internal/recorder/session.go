package recorder

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

// Session is one recording: a state machine fed by a global input
// listener. The mutex guards state, the event list, and the text
// buffer; it is held only for state mutation, never across resolver
// calls, screenshot capture, or disk writes.
type Session struct {
	id        string
	opts      Options
	factory   *Factory
	resolver  ElementResolver
	annotator ImageAnnotator
	log       *slog.Logger

	mu       sync.Mutex
	state    State
	listener platform.InputListener
	macro    *model.Macro
	buffer   []rune
	lastX    int
	lastY    int
	shots    int

	start      time.Time
	packageDir string

	// toggle surfaces presses of the recorder's own hotkey. They are
	// filtered from the recording; the owning control flow drains this
	// channel and decides what to do, so state changes never happen on
	// the listener thread.
	toggle chan struct{}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Toggle is the queued hotkey-command channel. The CLI drains it from
// its main loop.
func (s *Session) Toggle() <-chan struct{} { return s.toggle }

// PackageDir returns the directory this session's package is written to.
func (s *Session) PackageDir() string { return s.packageDir }

// Status is a structured snapshot of the session.
type Status struct {
	SessionID   string  `yaml:"session_id"        json:"session_id"`
	State       string  `yaml:"state"             json:"state"`
	Name        string  `yaml:"name"              json:"name"`
	EventCount  int     `yaml:"event_count"       json:"event_count"`
	Elapsed     float64 `yaml:"elapsed"           json:"elapsed"`
	PackageDir  string  `yaml:"package_dir,omitempty" json:"package_dir,omitempty"`
	BufferedLen int     `yaml:"buffered_text_len,omitempty" json:"buffered_text_len,omitempty"`
}

// Status reports the session's current state and progress.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SessionID:   s.id,
		State:       s.state.String(),
		Name:        s.opts.Name,
		EventCount:  len(s.macro.Events),
		Elapsed:     time.Since(s.start).Seconds(),
		PackageDir:  s.packageDir,
		BufferedLen: len(s.buffer),
	}
}

// Pause toggles between RECORDING and PAUSED. Pausing detaches the
// global listener; resuming attaches a fresh one. Any other transition
// fails with ErrInvalidTransition.
func (s *Session) Pause(pause bool) error {
	s.mu.Lock()
	switch {
	case pause && s.state == StateRecording:
		listener := s.listener
		s.state = StatePaused
		s.listener = nil
		s.mu.Unlock()
		if listener != nil {
			listener.Stop()
		}
		return nil
	case !pause && s.state == StatePaused:
		s.mu.Unlock()
		listener, err := s.factory.listeners.Open()
		if err != nil {
			return fmt.Errorf("reattach input listener: %w", err)
		}
		s.mu.Lock()
		if s.state != StatePaused {
			s.mu.Unlock()
			listener.Stop()
			return fmt.Errorf("%w: session no longer paused", ErrInvalidTransition)
		}
		s.state = StateRecording
		s.listener = listener
		s.mu.Unlock()
		go s.consume(listener)
		return nil
	default:
		state := s.state
		s.mu.Unlock()
		if pause {
			return fmt.Errorf("%w: cannot pause from %s", ErrInvalidTransition, state)
		}
		return fmt.Errorf("%w: cannot resume from %s", ErrInvalidTransition, state)
	}
}

// StopResult is the structured outcome of stopping a recording.
type StopResult struct {
	OK         bool   `yaml:"ok"                    json:"ok"`
	State      string `yaml:"state"                 json:"state"`
	EventCount int    `yaml:"event_count"           json:"event_count"`
	PackageDir string `yaml:"package_dir,omitempty" json:"package_dir,omitempty"`
	ZipPath    string `yaml:"zip_path,omitempty"    json:"zip_path,omitempty"`
	Error      string `yaml:"error,omitempty"       json:"error,omitempty"`
}

// Stop ends the recording: detaches the listener, flushes any pending
// text buffer, appends the final state marker, and optionally saves the
// package. A save failure is reported in the result while the in-memory
// events survive, so the save can be retried with Save.
func (s *Session) Stop(save bool) (StopResult, error) {
	s.mu.Lock()
	if s.state != StateRecording && s.state != StatePaused {
		state := s.state
		s.mu.Unlock()
		return StopResult{State: state.String()}, fmt.Errorf("%w: cannot stop from %s", ErrInvalidTransition, state)
	}
	listener := s.listener
	s.state = StateStopped
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		listener.Stop()
	}

	s.commitBuffer()
	s.appendMarker("final")

	s.mu.Lock()
	s.macro.ComputeMetadata()
	count := len(s.macro.Events)
	s.mu.Unlock()

	result := StopResult{
		OK:         true,
		State:      StateStopped.String(),
		EventCount: count,
	}
	if !save {
		return result, nil
	}

	zipPath, err := s.Save()
	if err != nil {
		result.OK = false
		result.Error = err.Error()
		return result, nil
	}
	result.PackageDir = s.PackageDir()
	result.ZipPath = zipPath
	return result, nil
}

// Macro returns the session's macro document. Callers must not mutate
// it while the session is still recording.
func (s *Session) Macro() *model.Macro {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.macro
}

// consume drains one listener's event channel. It exits when the
// listener is stopped (pause or stop detaches it).
func (s *Session) consume(l platform.InputListener) {
	for ev := range l.Events() {
		s.handleEvent(ev)
	}
}

// handleEvent processes one global input event. Events arriving in any
// state but RECORDING are dropped.
func (s *Session) handleEvent(ev platform.InputEvent) {
	if s.State() != StateRecording {
		return
	}

	switch ev.Kind {
	case platform.EventMouseMove:
		// Moves are tracked for marker and text-event positions, never
		// recorded. Sub-threshold jitter is ignored.
		s.mu.Lock()
		dx := float64(ev.X - s.lastX)
		dy := float64(ev.Y - s.lastY)
		if min := s.opts.MouseMoveThreshold; dx*dx+dy*dy >= min*min {
			s.lastX, s.lastY = ev.X, ev.Y
		}
		s.mu.Unlock()

	case platform.EventMouseDown:
		// Button-down is the atomic click action; typed text that came
		// before it is committed first so order is preserved.
		s.mu.Lock()
		s.lastX, s.lastY = ev.X, ev.Y
		s.mu.Unlock()
		s.commitBuffer()
		s.appendResolved(model.MacroEvent{
			EventType: model.EventMouseClick,
			Data: model.EventData{
				X:      ev.X,
				Y:      ev.Y,
				Button: ev.Button.String(),
			},
		}, ev.X, ev.Y, "click")

	case platform.EventMouseScroll:
		s.appendResolved(model.MacroEvent{
			EventType: model.EventMouseScroll,
			Data: model.EventData{
				X:  ev.X,
				Y:  ev.Y,
				DX: ev.DX,
				DY: ev.DY,
			},
		}, ev.X, ev.Y, "scroll")

	case platform.EventKeyDown:
		s.handleKey(ev)
	}
}

// handleKey applies the keystroke-buffering policy.
func (s *Session) handleKey(ev platform.InputEvent) {
	key := ev.Key

	switch {
	case key == ToggleKey:
		// The recorder never records its own hotkey.
		select {
		case s.toggle <- struct{}{}:
		default:
		}

	case modifierKeys[key]:
		// Modifiers surface only as part of hotkey sequences recorded
		// by the surrounding application layer.

	case navigationKeys[key]:

	case key == "backspace" || key == "delete":
		s.mu.Lock()
		if len(s.buffer) > 0 {
			s.buffer = s.buffer[:len(s.buffer)-1]
		}
		s.mu.Unlock()

	case s.isCommitKey(key):
		s.commitBuffer()
		s.appendKeyEvent(key)

	case isPrintable(ev):
		s.mu.Lock()
		if key == "space" {
			s.buffer = append(s.buffer, ' ')
		} else {
			s.buffer = append(s.buffer, ev.Char)
		}
		s.mu.Unlock()

	default:
		// Named non-text key (function keys, insert, ...): flush the
		// buffer, then record the key press itself.
		s.commitBuffer()
		s.appendKeyEvent(key)
	}
}

// isCommitKey reports whether key flushes the text buffer.
func (s *Session) isCommitKey(key string) bool {
	for _, k := range s.opts.CommitKeys {
		if k == key {
			return true
		}
	}
	return false
}

// isPrintable reports whether the event carries a bufferable character.
func isPrintable(ev platform.InputEvent) bool {
	if ev.Key == "space" {
		return true
	}
	return len([]rune(ev.Key)) == 1 && ev.Char != 0
}

// commitBuffer flushes pending keystrokes as one text event carrying
// the final, corrected content. No-op when the buffer is empty.
func (s *Session) commitBuffer() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	text := string(s.buffer)
	s.buffer = s.buffer[:0]
	x, y := s.lastX, s.lastY
	s.mu.Unlock()

	s.appendResolved(model.MacroEvent{
		EventType: model.EventKeyboardType,
		Data:      model.EventData{Text: text},
	}, x, y, "type")
}

// appendKeyEvent records a discrete key press.
func (s *Session) appendKeyEvent(key string) {
	s.append(model.MacroEvent{
		EventType: model.EventKeyboardKey,
		Data:      model.EventData{Key: key},
	})
}

// appendMarker records a state-marker event.
func (s *Session) appendMarker(state string) {
	ev := model.MacroEvent{
		EventType: model.EventStateMarker,
		Data:      model.EventData{State: state},
	}
	if s.opts.CaptureScreenshots {
		x, y := s.lastPosition()
		if path, err := s.writeScreenshot(nil, x, y, state); err == nil {
			ev.ScreenshotPath = path
		}
	}
	s.append(ev)
}

// appendResolved enriches an event with UI context and an evidence
// screenshot before appending it. All I/O happens before the final
// locked append.
func (s *Session) appendResolved(ev model.MacroEvent, x, y int, kind string) {
	var el *model.Element
	if s.opts.CaptureUIContext && s.resolver != nil {
		el = s.resolver.ResolveAtPoint(x, y)
		ev.UIContext = el
	}
	if s.opts.CaptureScreenshots {
		path, err := s.writeScreenshot(el, x, y, kind)
		if err != nil {
			s.log.Debug("screenshot capture failed", "kind", kind, "error", err)
		} else {
			ev.ScreenshotPath = path
		}
	}
	s.append(ev)
}

// append timestamps and stores an event. Stop itself appends the
// flushed buffer and final marker after the state flip; listener
// events are gated by handleEvent instead.
func (s *Session) append(ev model.MacroEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.Timestamp = time.Since(s.start).Seconds()
	s.macro.Events = append(s.macro.Events, ev)
}

// writeScreenshot renders and writes one evidence image, returning its
// package-relative path.
func (s *Session) writeScreenshot(el *model.Element, x, y int, kind string) (string, error) {
	if s.annotator == nil {
		return "", fmt.Errorf("no annotator configured")
	}
	img, err := s.annotator.Annotate(el, x, y, kind)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.shots++
	n := s.shots
	s.mu.Unlock()

	rel := filepath.Join("screenshots", fmt.Sprintf("%03d_%s.png", n, kind))
	if err := writePNG(filepath.Join(s.PackageDir(), rel), img); err != nil {
		return "", err
	}
	return rel, nil
}

// writePNG writes an image to disk, creating parent directories.
func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return nil
}

// lastPosition returns the most recent pointer position.
func (s *Session) lastPosition() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastX, s.lastY
}

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeName makes a macro name filesystem-safe.
func sanitizeName(name string) string {
	clean := nameSanitizer.ReplaceAllString(strings.TrimSpace(name), "_")
	if clean == "" {
		clean = "macro"
	}
	return clean
}
