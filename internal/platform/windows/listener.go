//go:build windows

package windows

import (
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

// ListenerFactory opens gohook-backed global input listeners. The OS
// supports one low-level hook per process; the factory enforces that.
type ListenerFactory struct {
	mu     sync.Mutex
	active *Listener
}

// NewListenerFactory returns the gohook listener factory.
func NewListenerFactory() *ListenerFactory {
	return &ListenerFactory{}
}

// Open attaches the global hook and starts translating events.
func (f *ListenerFactory) Open() (platform.InputListener, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != nil {
		f.active.Stop()
	}

	raw := hook.Start()
	l := &Listener{
		out:  make(chan platform.InputEvent, 64),
		done: make(chan struct{}),
	}
	f.active = l
	go l.translate(raw)
	return l, nil
}

// Listener adapts the gohook event stream to platform.InputEvent.
type Listener struct {
	out      chan platform.InputEvent
	done     chan struct{}
	stopOnce sync.Once
}

// Events returns the translated event channel.
func (l *Listener) Events() <-chan platform.InputEvent {
	return l.out
}

// Stop detaches the hook and closes the event channel.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		hook.End()
	})
}

// translate runs on its own goroutine for the listener's lifetime.
func (l *Listener) translate(raw chan hook.Event) {
	defer close(l.out)
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-raw:
			if !ok {
				return
			}
			out, keep := convertEvent(ev)
			if !keep {
				continue
			}
			select {
			case l.out <- out:
			case <-l.done:
				return
			default:
				// Drop rather than stall the hook thread when the
				// consumer falls behind.
			}
		}
	}
}

// convertEvent maps a raw hook event to the platform event type.
func convertEvent(ev hook.Event) (platform.InputEvent, bool) {
	switch ev.Kind {
	case hook.MouseDown:
		return platform.InputEvent{
			Kind:   platform.EventMouseDown,
			X:      int(ev.X),
			Y:      int(ev.Y),
			Button: hookButton(ev.Button),
		}, true
	case hook.MouseUp:
		return platform.InputEvent{
			Kind:   platform.EventMouseUp,
			X:      int(ev.X),
			Y:      int(ev.Y),
			Button: hookButton(ev.Button),
		}, true
	case hook.MouseMove:
		return platform.InputEvent{
			Kind: platform.EventMouseMove,
			X:    int(ev.X),
			Y:    int(ev.Y),
		}, true
	case hook.MouseWheel:
		return platform.InputEvent{
			Kind: platform.EventMouseScroll,
			X:    int(ev.X),
			Y:    int(ev.Y),
			DY:   int(ev.Rotation),
		}, true
	case hook.KeyDown, hook.KeyHold:
		name := keyName(ev.Rawcode, ev.Keychar)
		if name == "" {
			return platform.InputEvent{}, false
		}
		return platform.InputEvent{
			Kind: platform.EventKeyDown,
			Key:  name,
			Char: ev.Keychar,
		}, true
	case hook.KeyUp:
		name := keyName(ev.Rawcode, ev.Keychar)
		if name == "" {
			return platform.InputEvent{}, false
		}
		return platform.InputEvent{
			Kind: platform.EventKeyUp,
			Key:  name,
			Char: ev.Keychar,
		}, true
	default:
		return platform.InputEvent{}, false
	}
}

// hookButton maps gohook button numbering to MouseButton.
func hookButton(b uint16) platform.MouseButton {
	switch b {
	case 2:
		return platform.MouseRight
	case 3:
		return platform.MouseMiddle
	default:
		return platform.MouseLeft
	}
}
