package recorder

import (
	"archive/zip"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

type fakeListener struct {
	ch      chan platform.InputEvent
	stopped bool
}

func (l *fakeListener) Events() <-chan platform.InputEvent { return l.ch }

func (l *fakeListener) Stop() {
	if !l.stopped {
		l.stopped = true
		close(l.ch)
	}
}

type fakeListeners struct {
	fail   bool
	opened []*fakeListener
}

func (f *fakeListeners) Open() (platform.InputListener, error) {
	if f.fail {
		return nil, fmt.Errorf("hook refused to attach")
	}
	l := &fakeListener{ch: make(chan platform.InputEvent)}
	f.opened = append(f.opened, l)
	return l, nil
}

type fakeResolver struct {
	el    *model.Element
	calls int
}

func (r *fakeResolver) ResolveAtPoint(x, y int) *model.Element {
	r.calls++
	if r.el == nil {
		return nil
	}
	copy := *r.el
	return &copy
}

type fakeAnnotator struct{}

func (fakeAnnotator) Annotate(el *model.Element, x, y int, kind string) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func newTestFactory(t *testing.T) (*Factory, *fakeListeners, *fakeResolver) {
	t.Helper()
	listeners := &fakeListeners{}
	resolver := &fakeResolver{el: &model.Element{
		ControlType: model.ControlButton,
		Text:        "Submit",
		Bounds:      model.Rect{Left: 480, Top: 290, Right: 520, Bottom: 310},
	}}
	return NewFactory(listeners, resolver, fakeAnnotator{}), listeners, resolver
}

func startSession(t *testing.T, f *Factory, opts Options) *Session {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	s, err := f.Start(opts)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func key(name string, char rune) platform.InputEvent {
	return platform.InputEvent{Kind: platform.EventKeyDown, Key: name, Char: char}
}

func click(x, y int) platform.InputEvent {
	return platform.InputEvent{Kind: platform.EventMouseDown, X: x, Y: y, Button: platform.MouseLeft}
}

// nonMarker filters out state-marker events.
func nonMarker(events []model.MacroEvent) []model.MacroEvent {
	var out []model.MacroEvent
	for _, ev := range events {
		if ev.EventType != model.EventStateMarker {
			out = append(out, ev)
		}
	}
	return out
}

func TestSecondStartFails(t *testing.T) {
	f, _, _ := newTestFactory(t)
	startSession(t, f, Options{Name: "first"})

	if _, err := f.Start(Options{Name: "second", OutputDir: t.TempDir()}); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second start: got %v, want ErrAlreadyRecording", err)
	}
}

func TestStartAfterStopSucceeds(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "first"})
	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := f.Start(Options{Name: "second", OutputDir: t.TempDir()}); err != nil {
		t.Errorf("start after stop: %v", err)
	}
}

func TestListenerFailureAbortsStart(t *testing.T) {
	listeners := &fakeListeners{fail: true}
	f := NewFactory(listeners, nil, nil)
	if _, err := f.Start(Options{Name: "x", OutputDir: t.TempDir()}); err == nil {
		t.Error("recording must not proceed without input capture")
	}
	if f.Active() != nil {
		t.Error("failed start must not leave an active session")
	}
}

func TestTransitionGuards(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "guards"})

	// RECORDING: resume is invalid.
	if err := s.Pause(false); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("resume while recording: got %v, want ErrInvalidTransition", err)
	}

	if err := s.Pause(true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	// PAUSED: pausing again is invalid.
	if err := s.Pause(true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pause while paused: got %v, want ErrInvalidTransition", err)
	}

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("stop from paused: %v", err)
	}
	// STOPPED is terminal.
	if _, err := s.Stop(false); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("stop when stopped: got %v, want ErrInvalidTransition", err)
	}
	if err := s.Pause(true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pause when stopped: got %v, want ErrInvalidTransition", err)
	}
}

func TestTextBuffering(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "typing"})

	for _, r := range "hello" {
		s.handleEvent(key(string(r), r))
	}
	s.handleEvent(key("backspace", 0))
	s.handleEvent(key("!", '!'))
	s.handleEvent(key("enter", 0))

	result, err := s.Stop(false)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !result.OK {
		t.Errorf("stop result not ok: %+v", result)
	}

	events := nonMarker(s.Macro().Events)
	if len(events) != 2 {
		t.Fatalf("got %d non-marker events, want 2: %+v", len(events), events)
	}
	if events[0].EventType != model.EventKeyboardType || events[0].Data.Text != "hell!" {
		t.Errorf("text event = %s %q, want keyboard_type \"hell!\"", events[0].EventType, events[0].Data.Text)
	}
	if events[1].EventType != model.EventKeyboardKey || events[1].Data.Key != "enter" {
		t.Errorf("key event = %s %q, want keyboard_key enter", events[1].EventType, events[1].Data.Key)
	}
}

func TestClickCommitsPendingText(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "mixed"})

	s.handleEvent(key("h", 'h'))
	s.handleEvent(key("i", 'i'))
	s.handleEvent(click(100, 100))

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	events := nonMarker(s.Macro().Events)
	if len(events) != 2 {
		t.Fatalf("got %d events, want text then click: %+v", len(events), events)
	}
	if events[0].EventType != model.EventKeyboardType || events[0].Data.Text != "hi" {
		t.Errorf("first event = %s %q, want the committed text", events[0].EventType, events[0].Data.Text)
	}
	if events[1].EventType != model.EventMouseClick {
		t.Errorf("second event = %s, want mouse_click", events[1].EventType)
	}
	if events[0].Timestamp > events[1].Timestamp {
		t.Error("timestamps must be non-decreasing")
	}
}

func TestStopFlushesBuffer(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "flush"})

	s.handleEvent(key("o", 'o'))
	s.handleEvent(key("k", 'k'))

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events := nonMarker(s.Macro().Events)
	if len(events) != 1 || events[0].Data.Text != "ok" {
		t.Fatalf("expected uncommitted text flushed on stop, got %+v", events)
	}

	all := s.Macro().Events
	last := all[len(all)-1]
	if last.EventType != model.EventStateMarker || last.Data.State != "final" {
		t.Errorf("last event = %+v, want final state marker", last)
	}
	if all[0].EventType != model.EventStateMarker || all[0].Data.State != "initial" {
		t.Errorf("first event = %+v, want initial state marker", all[0])
	}
}

func TestSuppressedKeys(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "suppressed"})

	for _, name := range []string{"shift", "ctrl", "alt", "cmd", "ctrl_r", "left", "right", "up", "down", "home", "end", "page_up", "page_down"} {
		s.handleEvent(key(name, 0))
	}

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if events := nonMarker(s.Macro().Events); len(events) != 0 {
		t.Errorf("modifiers and navigation keys must not be recorded, got %+v", events)
	}
}

func TestToggleKeyFilteredAndQueued(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "toggle"})

	s.handleEvent(key(ToggleKey, 0))

	select {
	case <-s.Toggle():
	default:
		t.Error("toggle press should be queued for the control flow")
	}

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if events := nonMarker(s.Macro().Events); len(events) != 0 {
		t.Errorf("the recorder must never record its own hotkey, got %+v", events)
	}
}

func TestFunctionKeyRecordedDiscretely(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "fkeys"})

	s.handleEvent(key("a", 'a'))
	s.handleEvent(key("f5", 0))

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events := nonMarker(s.Macro().Events)
	if len(events) != 2 {
		t.Fatalf("got %d events, want buffered text then key: %+v", len(events), events)
	}
	if events[0].Data.Text != "a" || events[1].Data.Key != "f5" {
		t.Errorf("got %+v", events)
	}
}

func TestPausedEventsDropped(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "paused"})

	if err := s.Pause(true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	s.handleEvent(click(10, 10))
	if err := s.Pause(false); err != nil {
		t.Fatalf("resume: %v", err)
	}
	s.handleEvent(click(20, 20))

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events := nonMarker(s.Macro().Events)
	if len(events) != 1 || events[0].Data.X != 20 {
		t.Errorf("only the post-resume click should be recorded, got %+v", events)
	}
}

func TestPauseDetachesListener(t *testing.T) {
	f, listeners, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "detach"})

	if err := s.Pause(true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !listeners.opened[0].stopped {
		t.Error("pausing must detach the global listener")
	}
	if err := s.Pause(false); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(listeners.opened) != 2 {
		t.Errorf("resuming must attach a fresh listener, saw %d", len(listeners.opened))
	}

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !listeners.opened[1].stopped {
		t.Error("stop must detach the listener")
	}
}

func TestMouseMoveThreshold(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "jitter", MouseMoveThreshold: 5})

	move := func(x, y int) platform.InputEvent {
		return platform.InputEvent{Kind: platform.EventMouseMove, X: x, Y: y}
	}

	s.handleEvent(move(100, 100))
	if x, y := s.lastPosition(); x != 100 || y != 100 {
		t.Fatalf("position = (%d, %d), want (100, 100)", x, y)
	}
	// 2px of travel is under the 5px threshold.
	s.handleEvent(move(102, 101))
	if x, y := s.lastPosition(); x != 100 || y != 100 {
		t.Errorf("jitter moved the tracked position to (%d, %d)", x, y)
	}
	s.handleEvent(move(110, 100))
	if x, y := s.lastPosition(); x != 110 || y != 100 {
		t.Errorf("position = (%d, %d), want (110, 100)", x, y)
	}
}

func TestMouseMoveNotRecorded(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "moves"})

	s.handleEvent(platform.InputEvent{Kind: platform.EventMouseMove, X: 5, Y: 6})
	s.handleEvent(platform.InputEvent{Kind: platform.EventMouseMove, X: 7, Y: 8})

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if events := nonMarker(s.Macro().Events); len(events) != 0 {
		t.Errorf("mouse movement is noise and must not be recorded, got %+v", events)
	}
}

func TestScrollRecorded(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "scroll"})

	s.handleEvent(platform.InputEvent{Kind: platform.EventMouseScroll, X: 300, Y: 400, DY: -3})

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events := nonMarker(s.Macro().Events)
	if len(events) != 1 || events[0].EventType != model.EventMouseScroll || events[0].Data.DY != -3 {
		t.Errorf("got %+v, want one scroll event with delta", events)
	}
}

func TestRecordClickEndToEnd(t *testing.T) {
	f, _, resolver := newTestFactory(t)
	dir := t.TempDir()
	s := startSession(t, f, Options{
		Name:               "e2e",
		CaptureUIContext:   true,
		CaptureScreenshots: true,
		OutputDir:          dir,
	})

	s.handleEvent(click(500, 300))

	result, err := s.Stop(true)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !result.OK {
		t.Fatalf("stop result: %+v", result)
	}

	events := nonMarker(s.Macro().Events)
	if len(events) != 1 {
		t.Fatalf("got %d non-marker events, want 1", len(events))
	}
	ev := events[0]
	if ev.EventType != model.EventMouseClick {
		t.Errorf("event type = %s, want mouse_click", ev.EventType)
	}
	if ev.UIContext == nil || ev.UIContext.ControlType != model.ControlButton {
		t.Errorf("ui_context = %+v, want the resolved Button", ev.UIContext)
	}
	if ev.ScreenshotPath == "" {
		t.Error("click event should carry a screenshot path")
	}
	if resolver.calls == 0 {
		t.Error("resolver was never consulted")
	}

	if _, err := os.Stat(filepath.Join(s.PackageDir(), ev.ScreenshotPath)); err != nil {
		t.Errorf("screenshot file missing: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "roundtrip", Description: "demo"})

	s.handleEvent(click(100, 200))
	for _, r := range "ab" {
		s.handleEvent(key(string(r), r))
	}
	s.handleEvent(key("tab", 0))

	result, err := s.Stop(true)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !result.OK || result.PackageDir == "" || result.ZipPath == "" {
		t.Fatalf("stop result: %+v", result)
	}

	for _, name := range []string{"macro.json", "replay.sh", "README.md"} {
		if _, err := os.Stat(filepath.Join(result.PackageDir, name)); err != nil {
			t.Errorf("package missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(result.ZipPath); err != nil {
		t.Errorf("zip bundle missing: %v", err)
	}

	loaded, err := model.LoadMacro(result.PackageDir)
	if err != nil {
		t.Fatalf("LoadMacro: %v", err)
	}
	orig := s.Macro()
	if len(loaded.Events) != len(orig.Events) {
		t.Fatalf("reloaded %d events, want %d", len(loaded.Events), len(orig.Events))
	}
	for i := range orig.Events {
		if loaded.Events[i].EventType != orig.Events[i].EventType {
			t.Errorf("event %d type = %s, want %s", i, loaded.Events[i].EventType, orig.Events[i].EventType)
		}
		if loaded.Events[i].Data != orig.Events[i].Data {
			t.Errorf("event %d payload = %+v, want %+v", i, loaded.Events[i].Data, orig.Events[i].Data)
		}
	}
	if loaded.Metadata.TotalEvents != len(orig.Events) {
		t.Errorf("metadata total = %d, want %d", loaded.Metadata.TotalEvents, len(orig.Events))
	}
}

func TestSaveZipIsReadable(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "bundle"})

	s.handleEvent(click(50, 60))

	result, err := s.Stop(true)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !result.OK {
		t.Fatalf("stop result: %+v", result)
	}

	// A zip whose central directory never flushed opens as corrupt.
	r, err := zip.OpenReader(result.ZipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()

	names := make(map[string]bool, len(r.File))
	for _, entry := range r.File {
		names[entry.Name] = true
	}
	base := filepath.Base(result.PackageDir)
	for _, want := range []string{"macro.json", "replay.sh", "README.md"} {
		if !names[base+"/"+want] {
			t.Errorf("zip missing %s/%s, has %v", base, want, names)
		}
	}
}

func TestStatus(t *testing.T) {
	f, _, _ := newTestFactory(t)
	s := startSession(t, f, Options{Name: "status"})

	st := s.Status()
	if st.State != "recording" || st.Name != "status" || st.SessionID == "" {
		t.Errorf("status = %+v", st)
	}
	if st.EventCount != 1 {
		t.Errorf("EventCount = %d, want the initial marker", st.EventCount)
	}

	if _, err := s.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if st := s.Status(); st.State != "stopped" {
		t.Errorf("state after stop = %s", st.State)
	}
}
