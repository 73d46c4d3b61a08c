package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
	"github.com/modularflow/mcp-ui-explorer/internal/player"
	"github.com/modularflow/mcp-ui-explorer/internal/verify"
)

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText flattens a tool result's text content.
func resultText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func writeTestMacro(t *testing.T) string {
	t.Helper()
	macro := &model.Macro{
		FormatVersion: model.MacroFormatVersion,
		Name:          "demo",
		CreatedAt:     time.Now(),
		Events: []model.MacroEvent{
			{EventType: model.EventStateMarker, Data: model.EventData{State: "initial"}},
		},
	}
	path := filepath.Join(t.TempDir(), "macro.json")
	if err := macro.SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	return path
}

func TestPlayMacroVerifyWithoutService(t *testing.T) {
	s := &mcpServer{
		explorer: &explorer{provider: &platform.Provider{}},
		player:   player.New(nil, nil),
	}

	res, err := s.handlePlayMacro(context.Background(), toolRequest(map[string]interface{}{
		"path":   writeTestMacro(t),
		"verify": true,
	}))
	if err != nil {
		t.Fatalf("handlePlayMacro: %v", err)
	}
	if !res.IsError {
		t.Fatal("verify without a configured service must fail up front, not per step")
	}
	if !strings.Contains(resultText(res), verify.EnvServiceURL) {
		t.Errorf("error should name %s, got %q", verify.EnvServiceURL, resultText(res))
	}
}

func TestPlayMacroRequiresPath(t *testing.T) {
	s := &mcpServer{
		explorer: &explorer{provider: &platform.Provider{}},
		player:   player.New(nil, nil),
	}

	res, err := s.handlePlayMacro(context.Background(), toolRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handlePlayMacro: %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result without a path argument")
	}
}
