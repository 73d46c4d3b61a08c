package cmd

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/output"
	"github.com/modularflow/mcp-ui-explorer/internal/player"
	"github.com/modularflow/mcp-ui-explorer/internal/recorder"
	"github.com/modularflow/mcp-ui-explorer/internal/resolve"
	"github.com/modularflow/mcp-ui-explorer/internal/verify"
)

// resultToText serializes a tool result to YAML for the MCP response.
func resultToText(v interface{}) string {
	s, err := output.MarshalYAML(v)
	if err != nil {
		return fmt.Sprintf("ok: false\nerror: %s", err)
	}
	return s
}

// activeSession returns the current recording session or an error
// suitable for a tool response.
func (s *mcpServer) activeSession() (*recorder.Session, error) {
	session := s.factory.Active()
	if session == nil {
		return nil, fmt.Errorf("no recording session: call record_start first")
	}
	return session, nil
}

func (s *mcpServer) handleRecordStart(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	session, err := s.factory.Start(recorder.Options{
		Name:               StringParam(params, "name", "macro"),
		Description:        StringParam(params, "description", ""),
		CaptureUIContext:   BoolParam(params, "capture_ui_context", true),
		CaptureScreenshots: BoolParam(params, "capture_screenshots", true),
		OutputDir:          s.outputDir,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(session.Status())), nil
}

func (s *mcpServer) handleRecordStop(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	save := BoolParam(params, "save", true)

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	session, err := s.activeSession()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := session.Stop(save)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !result.OK {
		return mcp.NewToolResultError(resultToText(result)), nil
	}
	return mcp.NewToolResultText(resultToText(result)), nil
}

func (s *mcpServer) handleRecordPause(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	pause := BoolParam(params, "pause", true)

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	session, err := s.activeSession()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := session.Pause(pause); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(session.Status())), nil
}

func (s *mcpServer) handleRecordStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session := s.factory.Active()
	if session == nil {
		return mcp.NewToolResultText("state: idle\n"), nil
	}
	return mcp.NewToolResultText(resultToText(session.Status())), nil
}

func (s *mcpServer) handlePlayMacro(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	path := StringParam(params, "path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	doVerify := BoolParam(params, "verify", false)
	if doVerify && s.verifier == nil {
		return mcp.NewToolResultError(fmt.Sprintf("verify requires %s to be set", verify.EnvServiceURL)), nil
	}

	macro, err := model.LoadMacro(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.explorer.provider.Inputter == nil {
		return mcp.NewToolResultError("input dispatch not available on this platform"), nil
	}

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	result, err := s.player.Play(ctx, macro, player.Options{
		Speed:         FloatParam(params, "speed", 1.0),
		Verify:        doVerify,
		StopOnFailure: BoolParam(params, "stop_on_failure", false),
		DryRun:        BoolParam(params, "dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !result.Success {
		return mcp.NewToolResultError(resultToText(result)), nil
	}
	return mcp.NewToolResultText(resultToText(result)), nil
}

func (s *mcpServer) handleResolveElement(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	if s.explorer.resolver == nil {
		return mcp.NewToolResultError("element resolution not available on this platform"), nil
	}

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	var (
		el   *model.Element
		x, y int
	)
	if text, controlType := StringParam(params, "text", ""), StringParam(params, "control_type", ""); text != "" || controlType != "" {
		el = s.explorer.resolver.ResolveByDescription(resolve.Query{
			Text:        text,
			Exact:       BoolParam(params, "exact", false),
			ControlType: controlType,
		})
	} else {
		x, y = IntParam(params, "x", 0), IntParam(params, "y", 0)
		el = s.explorer.resolver.ResolveAtPoint(x, y)
	}

	result := output.ResolveResult{X: x, Y: y}
	if el != nil {
		result.Found = true
		result.DetectionMethod = el.DetectionMethod()
		result.Element = el
	}
	return mcp.NewToolResultText(resultToText(result)), nil
}
