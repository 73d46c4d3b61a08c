package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// MacroFormatVersion is written into every saved macro.json and checked
// on load. Bump when the event schema changes incompatibly.
const MacroFormatVersion = "1.0"

// Event types recorded into a macro.
const (
	EventMouseClick   = "mouse_click"
	EventMouseScroll  = "mouse_scroll"
	EventKeyboardType = "keyboard_type"
	EventKeyboardKey  = "keyboard_key"
	EventStateMarker  = "state_marker"
	EventWait         = "wait"
)

// EventData is the event-specific payload. Fields are populated per
// event type; unused fields are omitted from serialization.
type EventData struct {
	X      int    `json:"x,omitempty"      yaml:"x,omitempty"`
	Y      int    `json:"y,omitempty"      yaml:"y,omitempty"`
	Button string `json:"button,omitempty" yaml:"button,omitempty"`
	DX     int    `json:"dx,omitempty"     yaml:"dx,omitempty"`
	DY     int    `json:"dy,omitempty"     yaml:"dy,omitempty"`
	Text   string `json:"text,omitempty"   yaml:"text,omitempty"`
	Key    string `json:"key,omitempty"    yaml:"key,omitempty"`
	State  string `json:"state,omitempty"  yaml:"state,omitempty"`

	// Seconds is set only for explicit wait events.
	Seconds float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`
}

// MacroEvent is one immutable captured user action.
type MacroEvent struct {
	EventType string    `json:"event_type" yaml:"event_type"`
	Timestamp float64   `json:"timestamp"  yaml:"timestamp"`
	Data      EventData `json:"data"       yaml:"data"`

	// UIContext is the element resolved under the action point at
	// capture time, when UI-context capture was enabled.
	UIContext *Element `json:"ui_context,omitempty" yaml:"ui_context,omitempty"`

	// ScreenshotPath is relative to the macro package directory so
	// packages stay portable.
	ScreenshotPath string `json:"screenshot_path,omitempty" yaml:"screenshot_path,omitempty"`
}

// RecordingSettings echoes the configuration a macro was captured with.
type RecordingSettings struct {
	CaptureUIContext   bool     `json:"capture_ui_context"   yaml:"capture_ui_context"`
	CaptureScreenshots bool     `json:"capture_screenshots"  yaml:"capture_screenshots"`
	MouseMoveThreshold float64  `json:"mouse_move_threshold" yaml:"mouse_move_threshold"`
	CommitKeys         []string `json:"commit_keys"          yaml:"commit_keys"`
}

// MacroMetadata aggregates statistics over a frozen event list.
type MacroMetadata struct {
	TotalEvents        int               `json:"total_events"          yaml:"total_events"`
	Duration           float64           `json:"duration"              yaml:"duration"`
	EventCounts        map[string]int    `json:"event_counts"          yaml:"event_counts"`
	UIElementsDetected int               `json:"ui_elements_detected"  yaml:"ui_elements_detected"`
	ElementTypes       []string          `json:"element_types"         yaml:"element_types"`
	Settings           RecordingSettings `json:"recording_settings"    yaml:"recording_settings"`
}

// Macro is the persisted unit: a named, ordered, replayable recording.
// Once saved it is read-only; the player never mutates a loaded macro.
type Macro struct {
	FormatVersion string        `json:"format_version" yaml:"format_version"`
	Name          string        `json:"name"           yaml:"name"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt     time.Time     `json:"created_at"     yaml:"created_at"`
	Events        []MacroEvent  `json:"events"         yaml:"events"`
	Metadata      MacroMetadata `json:"metadata"       yaml:"metadata"`
}

// ComputeMetadata rebuilds the aggregate metadata from the event list,
// preserving the recording-settings echo already present.
func (m *Macro) ComputeMetadata() {
	meta := MacroMetadata{
		TotalEvents: len(m.Events),
		EventCounts: make(map[string]int),
		Settings:    m.Metadata.Settings,
	}
	typeSet := make(map[string]bool)
	for _, ev := range m.Events {
		meta.EventCounts[ev.EventType]++
		if ev.UIContext != nil {
			meta.UIElementsDetected++
			if ev.UIContext.ControlType != "" {
				typeSet[ev.UIContext.ControlType] = true
			}
		}
	}
	if n := len(m.Events); n > 1 {
		meta.Duration = m.Events[n-1].Timestamp - m.Events[0].Timestamp
	}
	for t := range typeSet {
		meta.ElementTypes = append(meta.ElementTypes, t)
	}
	sort.Strings(meta.ElementTypes)
	m.Metadata = meta
}

// SaveJSON writes the macro document to path as indented JSON.
func (m *Macro) SaveJSON(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal macro: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write macro: %w", err)
	}
	return nil
}

// LoadMacro reads a macro document from a macro.json file or from a
// package directory containing one.
func LoadMacro(path string) (*Macro, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("macro not found: %w", err)
	}
	if info.IsDir() {
		path = path + string(os.PathSeparator) + "macro.json"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read macro: %w", err)
	}
	var m Macro
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse macro: %w", err)
	}
	if m.FormatVersion == "" {
		m.FormatVersion = MacroFormatVersion
	}
	return &m, nil
}
