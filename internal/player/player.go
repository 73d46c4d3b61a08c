// Package player replays stored macros against the live desktop.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
	"github.com/modularflow/mcp-ui-explorer/internal/verify"
)

// ErrPlaybackActive is returned when a second playback is started while
// one is running.
var ErrPlaybackActive = errors.New("a playback is already active")

// typeDelayMs paces synthesized keystrokes so target applications keep up.
const typeDelayMs = 12

// Verifier judges whether a replayed step had its expected effect.
// Implemented by verify.Client.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) verify.Outcome
}

// Options configures one playback run.
type Options struct {
	// Speed divides recorded inter-event delays. 2.0 plays twice as
	// fast. Zero or negative means 1.0.
	Speed float64

	// Verify asks the vision service to confirm each step's effect.
	Verify bool

	// StopOnFailure aborts at the first dispatch or verification
	// failure instead of continuing.
	StopOnFailure bool

	// DryRun walks the event stream without dispatching input or
	// waiting, printing what would happen.
	DryRun bool
}

// Verification is one step's recorded verdict.
type Verification struct {
	EventIndex int    `yaml:"event_index" json:"event_index"`
	EventType  string `yaml:"event_type"  json:"event_type"`
	Passed     bool   `yaml:"passed"      json:"passed"`
	Details    string `yaml:"details,omitempty" json:"details,omitempty"`
}

// Result is the structured outcome of a playback run. Ordinary
// failures land here; Play returns an error only for faults that
// prevent playback from running at all.
type Result struct {
	Success        bool              `yaml:"success"         json:"success"`
	EventsExecuted int               `yaml:"events_executed" json:"events_executed"`
	TotalDuration  float64           `yaml:"total_duration"  json:"total_duration"`
	FailedEvent    *model.MacroEvent `yaml:"failed_event,omitempty" json:"failed_event,omitempty"`
	FailedIndex    int               `yaml:"failed_index,omitempty" json:"failed_index,omitempty"`
	Verifications  []Verification    `yaml:"verifications,omitempty" json:"verifications,omitempty"`
}

// Player dispatches macro events through the platform input layer.
// One playback at a time per process.
type Player struct {
	input    platform.Inputter
	verifier Verifier
	log      *slog.Logger

	// sleep is swappable for tests.
	sleep func(time.Duration)

	playing atomic.Bool
}

// New builds a player. verifier may be nil; verification is then
// reported as unavailable when requested.
func New(input platform.Inputter, verifier Verifier) *Player {
	return &Player{
		input:    input,
		verifier: verifier,
		log:      slog.Default(),
		sleep:    time.Sleep,
	}
}

// Play replays the macro's events in stored order, reproducing the
// recorded pacing divided by opts.Speed. A failing event is counted in
// EventsExecuted: it was attempted. Cancellation is honored at event
// granularity only; an in-progress wait completes first.
func (p *Player) Play(ctx context.Context, macro *model.Macro, opts Options) (Result, error) {
	if !p.playing.CompareAndSwap(false, true) {
		return Result{}, ErrPlaybackActive
	}
	defer p.playing.Store(false)

	speed := opts.Speed
	if speed <= 0 {
		speed = 1.0
	}

	result := Result{Success: true}
	started := time.Now()
	defer func() {
		result.TotalDuration = time.Since(started).Seconds()
	}()

	prev := 0.0
	if len(macro.Events) > 0 {
		prev = macro.Events[0].Timestamp
	}

	for i := range macro.Events {
		ev := &macro.Events[i]

		if err := ctx.Err(); err != nil {
			result.Success = false
			return result, fmt.Errorf("playback cancelled: %w", err)
		}

		if delay := (ev.Timestamp - prev) / speed; delay > 0 && !opts.DryRun {
			p.sleep(time.Duration(delay * float64(time.Second)))
		}
		prev = ev.Timestamp

		if ev.EventType == model.EventStateMarker {
			continue
		}

		result.EventsExecuted++

		if opts.DryRun {
			p.log.Info("dry run", "index", i, "event", ev.EventType, "detail", describeEvent(ev))
			continue
		}

		if err := p.dispatch(ev); err != nil {
			p.log.Warn("dispatch failed", "index", i, "event", ev.EventType, "error", err)
			result.Success = false
			if opts.StopOnFailure {
				result.FailedEvent = ev
				result.FailedIndex = i
				return result, nil
			}
			continue
		}

		if opts.Verify {
			v := p.verifyStep(ctx, i, ev)
			result.Verifications = append(result.Verifications, v)
			if !v.Passed {
				result.Success = false
				if opts.StopOnFailure {
					result.FailedEvent = ev
					result.FailedIndex = i
					return result, nil
				}
			}
		}
	}

	return result, nil
}

// dispatch delivers one event through the platform input layer.
func (p *Player) dispatch(ev *model.MacroEvent) error {
	switch ev.EventType {
	case model.EventMouseClick:
		button, err := platform.ParseMouseButton(ev.Data.Button)
		if err != nil {
			return err
		}
		if err := p.input.MoveMouse(ev.Data.X, ev.Data.Y); err != nil {
			return err
		}
		return p.input.Click(ev.Data.X, ev.Data.Y, button, false)

	case model.EventMouseScroll:
		return p.input.Scroll(ev.Data.X, ev.Data.Y, ev.Data.DX, ev.Data.DY)

	case model.EventKeyboardType:
		return p.input.TypeText(ev.Data.Text, typeDelayMs)

	case model.EventKeyboardKey:
		return p.input.KeyTap(ev.Data.Key)

	case model.EventWait:
		p.sleep(time.Duration(ev.Data.Seconds * float64(time.Second)))
		return nil

	default:
		return fmt.Errorf("unknown event type %q", ev.EventType)
	}
}

// verifyStep asks the vision service whether the step took effect.
func (p *Player) verifyStep(ctx context.Context, index int, ev *model.MacroEvent) Verification {
	v := Verification{EventIndex: index, EventType: ev.EventType}
	if p.verifier == nil {
		v.Details = "no verification service configured"
		return v
	}

	out := p.verifier.Verify(ctx, verify.Request{
		ActionDescription: describeEvent(ev),
		ExpectedResult:    expectedResult(ev),
	})
	v.Passed = out.Passed
	v.Details = out.Details
	return v
}

// describeEvent renders a human-readable action description for the
// verification request.
func describeEvent(ev *model.MacroEvent) string {
	switch ev.EventType {
	case model.EventMouseClick:
		if ev.UIContext != nil {
			return fmt.Sprintf("%s click on %s %q at (%d, %d)",
				ev.Data.Button, ev.UIContext.ControlType, ev.UIContext.Text, ev.Data.X, ev.Data.Y)
		}
		return fmt.Sprintf("%s click at (%d, %d)", ev.Data.Button, ev.Data.X, ev.Data.Y)
	case model.EventMouseScroll:
		return fmt.Sprintf("scroll (%d, %d) at (%d, %d)", ev.Data.DX, ev.Data.DY, ev.Data.X, ev.Data.Y)
	case model.EventKeyboardType:
		return fmt.Sprintf("type %q", ev.Data.Text)
	case model.EventKeyboardKey:
		return fmt.Sprintf("press %s", ev.Data.Key)
	case model.EventWait:
		return fmt.Sprintf("wait %.2fs", ev.Data.Seconds)
	default:
		return ev.EventType
	}
}

// expectedResult derives the expected-outcome text from the event's
// recorded UI context.
func expectedResult(ev *model.MacroEvent) string {
	if ev.UIContext == nil {
		return "the action completes without visible errors"
	}
	return fmt.Sprintf("the %s %q responds to the action",
		ev.UIContext.ControlType, ev.UIContext.Text)
}
