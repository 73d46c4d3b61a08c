package player

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
	"github.com/modularflow/mcp-ui-explorer/internal/verify"
)

// fakeInput records dispatched actions and can fail the Nth action.
type fakeInput struct {
	actions []string
	failAt  int // 1-based action count, 0 = never
}

func (f *fakeInput) act(s string) error {
	f.actions = append(f.actions, s)
	if f.failAt > 0 && len(f.actions) == f.failAt {
		return fmt.Errorf("injected dispatch failure")
	}
	return nil
}

func (f *fakeInput) MoveMouse(x, y int) error { return nil }

func (f *fakeInput) Click(x, y int, button platform.MouseButton, double bool) error {
	return f.act(fmt.Sprintf("click %d,%d %s", x, y, button))
}

func (f *fakeInput) Scroll(x, y, dx, dy int) error {
	return f.act(fmt.Sprintf("scroll %d,%d", dx, dy))
}

func (f *fakeInput) TypeText(text string, delayMs int) error {
	return f.act("type " + text)
}

func (f *fakeInput) KeyTap(key string) error {
	return f.act("key " + key)
}

// fakeVerifier fails verification for the listed event indexes.
type fakeVerifier struct {
	failIndexes map[int]bool
	calls       int
}

func (f *fakeVerifier) Verify(ctx context.Context, req verify.Request) verify.Outcome {
	defer func() { f.calls++ }()
	if f.failIndexes[f.calls] {
		return verify.Outcome{Passed: false, Details: "mismatch"}
	}
	return verify.Outcome{Passed: true, Details: "ok"}
}

func newTestPlayer(input *fakeInput, v Verifier) (*Player, *[]time.Duration) {
	p := New(input, v)
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, &slept
}

func clickEvent(ts float64, x, y int) model.MacroEvent {
	return model.MacroEvent{
		EventType: model.EventMouseClick,
		Timestamp: ts,
		Data:      model.EventData{X: x, Y: y, Button: "left"},
	}
}

func fiveClickMacro() *model.Macro {
	m := &model.Macro{FormatVersion: model.MacroFormatVersion, Name: "five"}
	for i := 0; i < 5; i++ {
		m.Events = append(m.Events, clickEvent(float64(i), 100+i, 200))
	}
	return m
}

func TestPacing(t *testing.T) {
	input := &fakeInput{}
	p, slept := newTestPlayer(input, nil)

	macro := &model.Macro{Events: []model.MacroEvent{
		clickEvent(1.0, 10, 10),
		clickEvent(3.0, 20, 20),
	}}

	result, err := p.Play(context.Background(), macro, Options{Speed: 2.0})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !result.Success || result.EventsExecuted != 2 {
		t.Errorf("result = %+v", result)
	}

	// 2.0s apart at speed 2.0 is a 1.0s wait before the second event.
	if len(*slept) != 1 {
		t.Fatalf("slept %d times, want 1: %v", len(*slept), *slept)
	}
	if got := (*slept)[0]; got != time.Second {
		t.Errorf("wait = %v, want 1s", got)
	}
}

func TestNegativeDelayClamped(t *testing.T) {
	input := &fakeInput{}
	p, slept := newTestPlayer(input, nil)

	// Out-of-order timestamps must never produce a negative wait.
	macro := &model.Macro{Events: []model.MacroEvent{
		clickEvent(5.0, 10, 10),
		clickEvent(4.0, 20, 20),
	}}

	if _, err := p.Play(context.Background(), macro, Options{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no waits", *slept)
	}
}

func TestMarkersAreNoOps(t *testing.T) {
	input := &fakeInput{}
	p, _ := newTestPlayer(input, nil)

	macro := &model.Macro{Events: []model.MacroEvent{
		{EventType: model.EventStateMarker, Data: model.EventData{State: "initial"}},
		clickEvent(0.5, 10, 10),
		{EventType: model.EventStateMarker, Timestamp: 1.0, Data: model.EventData{State: "final"}},
	}}

	result, err := p.Play(context.Background(), macro, Options{})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if result.EventsExecuted != 1 {
		t.Errorf("EventsExecuted = %d, markers must not count", result.EventsExecuted)
	}
	if len(input.actions) != 1 {
		t.Errorf("actions = %v, markers must not dispatch", input.actions)
	}
}

func TestDispatchSequence(t *testing.T) {
	input := &fakeInput{}
	p, _ := newTestPlayer(input, nil)

	macro := &model.Macro{Events: []model.MacroEvent{
		clickEvent(0, 500, 300),
		{EventType: model.EventKeyboardType, Timestamp: 1, Data: model.EventData{Text: "hello"}},
		{EventType: model.EventKeyboardKey, Timestamp: 2, Data: model.EventData{Key: "enter"}},
		{EventType: model.EventMouseScroll, Timestamp: 3, Data: model.EventData{X: 1, Y: 2, DX: 0, DY: -3}},
	}}

	result, err := p.Play(context.Background(), macro, Options{})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !result.Success || result.EventsExecuted != 4 {
		t.Errorf("result = %+v", result)
	}
	want := []string{"click 500,300 left", "type hello", "key enter", "scroll 0,-3"}
	if len(input.actions) != len(want) {
		t.Fatalf("actions = %v, want %v", input.actions, want)
	}
	for i := range want {
		if input.actions[i] != want[i] {
			t.Errorf("action %d = %q, want %q", i, input.actions[i], want[i])
		}
	}
}

func TestStopOnVerificationFailure(t *testing.T) {
	input := &fakeInput{}
	verifier := &fakeVerifier{failIndexes: map[int]bool{2: true}} // third verified event
	p, _ := newTestPlayer(input, verifier)

	result, err := p.Play(context.Background(), fiveClickMacro(), Options{
		Verify:        true,
		StopOnFailure: true,
	})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	// The failing event was attempted, so it counts.
	if result.EventsExecuted != 3 {
		t.Errorf("EventsExecuted = %d, want 3", result.EventsExecuted)
	}
	if result.Success {
		t.Error("failed playback must not report success")
	}
	if result.FailedEvent == nil || result.FailedIndex != 2 {
		t.Errorf("FailedEvent = %+v at %d, want the third event", result.FailedEvent, result.FailedIndex)
	}
	if len(result.Verifications) != 3 {
		t.Errorf("verifications = %d, want partial history of 3", len(result.Verifications))
	}
}

func TestContinueOnVerificationFailure(t *testing.T) {
	input := &fakeInput{}
	verifier := &fakeVerifier{failIndexes: map[int]bool{2: true}}
	p, _ := newTestPlayer(input, verifier)

	result, err := p.Play(context.Background(), fiveClickMacro(), Options{Verify: true})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if result.EventsExecuted != 5 {
		t.Errorf("EventsExecuted = %d, want all 5", result.EventsExecuted)
	}
	if result.Success {
		t.Error("a verification failure must mark the run unsuccessful")
	}
	if len(result.Verifications) != 5 {
		t.Fatalf("verifications = %d, want 5", len(result.Verifications))
	}
	passed := 0
	for _, v := range result.Verifications {
		if v.Passed {
			passed++
		}
	}
	if passed != 4 {
		t.Errorf("passed = %d, want 4", passed)
	}
}

func TestStopOnDispatchFailure(t *testing.T) {
	input := &fakeInput{failAt: 2}
	p, _ := newTestPlayer(input, nil)

	result, err := p.Play(context.Background(), fiveClickMacro(), Options{StopOnFailure: true})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if result.EventsExecuted != 2 {
		t.Errorf("EventsExecuted = %d, want 2 (failing event counted)", result.EventsExecuted)
	}
	if result.Success || result.FailedEvent == nil {
		t.Errorf("result = %+v", result)
	}
}

func TestContinueOnDispatchFailure(t *testing.T) {
	input := &fakeInput{failAt: 2}
	p, _ := newTestPlayer(input, nil)

	result, err := p.Play(context.Background(), fiveClickMacro(), Options{})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if result.EventsExecuted != 5 {
		t.Errorf("EventsExecuted = %d, want 5", result.EventsExecuted)
	}
	if result.Success {
		t.Error("a dispatch failure must mark the run unsuccessful")
	}
	if result.FailedEvent != nil {
		t.Error("continue mode reports aggregate outcome, not a single failed event")
	}
}

func TestDryRunDispatchesNothing(t *testing.T) {
	input := &fakeInput{}
	p, slept := newTestPlayer(input, nil)

	result, err := p.Play(context.Background(), fiveClickMacro(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !result.Success || result.EventsExecuted != 5 {
		t.Errorf("result = %+v", result)
	}
	if len(input.actions) != 0 {
		t.Errorf("dry run dispatched %v", input.actions)
	}
	if len(*slept) != 0 {
		t.Errorf("dry run waited %v", *slept)
	}
}

func TestConcurrentPlaybackFailsFast(t *testing.T) {
	input := &fakeInput{}
	p, _ := newTestPlayer(input, nil)

	p.playing.Store(true)
	if _, err := p.Play(context.Background(), fiveClickMacro(), Options{}); !errors.Is(err, ErrPlaybackActive) {
		t.Errorf("got %v, want ErrPlaybackActive", err)
	}
	p.playing.Store(false)

	if _, err := p.Play(context.Background(), fiveClickMacro(), Options{}); err != nil {
		t.Errorf("playback after release: %v", err)
	}
}

func TestCancellationBetweenEvents(t *testing.T) {
	input := &fakeInput{}
	p, _ := newTestPlayer(input, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Play(ctx, fiveClickMacro(), Options{})
	if err == nil {
		t.Error("cancelled playback should return an error")
	}
	if result.EventsExecuted != 0 {
		t.Errorf("EventsExecuted = %d, want 0", result.EventsExecuted)
	}
}

func TestVerifierUnavailable(t *testing.T) {
	input := &fakeInput{}
	p, _ := newTestPlayer(input, nil)

	result, err := p.Play(context.Background(), fiveClickMacro(), Options{Verify: true, StopOnFailure: true})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	// Without a service every verification fails; stop-on-failure halts
	// at the first event.
	if result.EventsExecuted != 1 || result.Success {
		t.Errorf("result = %+v", result)
	}
}

func TestDescribeEvent(t *testing.T) {
	ev := clickEvent(0, 500, 300)
	ev.UIContext = &model.Element{ControlType: model.ControlButton, Text: "Save"}
	if got := describeEvent(&ev); got != `left click on Button "Save" at (500, 300)` {
		t.Errorf("describeEvent = %q", got)
	}

	plain := clickEvent(0, 10, 20)
	if got := describeEvent(&plain); got != "left click at (10, 20)" {
		t.Errorf("describeEvent = %q", got)
	}
}
