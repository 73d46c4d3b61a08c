package cmd

import (
	"testing"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

func TestEventDetail(t *testing.T) {
	tests := []struct {
		ev   model.MacroEvent
		want string
	}{
		{
			model.MacroEvent{EventType: model.EventMouseClick, Data: model.EventData{X: 500, Y: 300, Button: "left"}},
			"left at (500, 300)",
		},
		{
			model.MacroEvent{EventType: model.EventKeyboardType, Data: model.EventData{Text: "hello"}},
			`"hello"`,
		},
		{
			model.MacroEvent{EventType: model.EventKeyboardKey, Data: model.EventData{Key: "enter"}},
			"enter",
		},
		{
			model.MacroEvent{EventType: model.EventStateMarker, Data: model.EventData{State: "initial"}},
			"initial",
		},
		{
			model.MacroEvent{EventType: model.EventMouseScroll, Data: model.EventData{X: 1, Y: 2, DX: 0, DY: -3}},
			"(0, -3) at (1, 2)",
		},
	}
	for _, tt := range tests {
		if got := eventDetail(tt.ev); got != tt.want {
			t.Errorf("eventDetail(%s) = %q, want %q", tt.ev.EventType, got, tt.want)
		}
	}
}

func TestElementSummary(t *testing.T) {
	el := &model.Element{ControlType: model.ControlButton, Text: "Save"}
	if got := elementSummary(el); got != "Button: Save" {
		t.Errorf("got %q", got)
	}
	bare := &model.Element{ControlType: model.ControlPane}
	if got := elementSummary(bare); got != "Pane" {
		t.Errorf("got %q", got)
	}
}
