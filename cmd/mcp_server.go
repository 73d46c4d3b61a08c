package cmd

import (
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/modularflow/mcp-ui-explorer/internal/player"
	"github.com/modularflow/mcp-ui-explorer/internal/recorder"
	"github.com/modularflow/mcp-ui-explorer/internal/verify"
)

// mcpServer wraps the MCP server with the recorder factory and player.
// providerMu serializes tool calls that touch the desktop: concurrent
// input dispatch interleaves pointer movement.
type mcpServer struct {
	explorer   *explorer
	factory    *recorder.Factory
	player     *player.Player
	verifier   player.Verifier
	outputDir  string
	providerMu sync.Mutex
	mcp        *mcpserver.MCPServer
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
	OutputDir string
}

// newMCPServer creates and configures an MCP server with the recorder,
// player, and resolver tools.
func newMCPServer(cfg MCPConfig) (*mcpServer, error) {
	e, err := newExplorer()
	if err != nil {
		return nil, err
	}
	factory, err := e.recorderFactory()
	if err != nil {
		return nil, err
	}

	var verifier player.Verifier
	if c := verify.ClientFromEnv(); c != nil {
		verifier = c
	}

	s := &mcpServer{
		explorer:  e,
		factory:   factory,
		player:    player.New(e.provider.Inputter, verifier),
		verifier:  verifier,
		outputDir: cfg.OutputDir,
	}

	s.mcp = mcpserver.NewMCPServer(
		"mcp-ui-explorer",
		"1.0.0",
	)

	s.registerTools()
	return s, nil
}

// serve starts the MCP server with the configured transport.
func (s *mcpServer) serve(cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) registerTools() {
	// record_start
	s.mcp.AddTool(
		mcp.NewTool("record_start",
			mcp.WithDescription("Start recording global mouse and keyboard input into a macro. Fails if a recording is already active."),
			mcp.WithString("name", mcp.Description("Macro name (used for the package directory)")),
			mcp.WithString("description", mcp.Description("Free-text description stored in the macro")),
			mcp.WithBoolean("capture_ui_context", mcp.Description("Resolve each event to the UI element under it (default: true)")),
			mcp.WithBoolean("capture_screenshots", mcp.Description("Capture annotated screenshot evidence (default: true)")),
		),
		s.handleRecordStart,
	)

	// record_stop
	s.mcp.AddTool(
		mcp.NewTool("record_stop",
			mcp.WithDescription("Stop the active recording and save the macro package (macro.json, screenshots, replay script, zip bundle)."),
			mcp.WithBoolean("save", mcp.Description("Save the package to disk (default: true)")),
		),
		s.handleRecordStop,
	)

	// record_pause
	s.mcp.AddTool(
		mcp.NewTool("record_pause",
			mcp.WithDescription("Pause or resume the active recording. Pausing detaches the global input listener."),
			mcp.WithBoolean("pause", mcp.Description("true to pause, false to resume"), mcp.Required()),
		),
		s.handleRecordPause,
	)

	// record_status
	s.mcp.AddTool(
		mcp.NewTool("record_status",
			mcp.WithDescription("Report the active recording session's state, event count, and elapsed time."),
		),
		s.handleRecordStatus,
	)

	// play_macro
	s.mcp.AddTool(
		mcp.NewTool("play_macro",
			mcp.WithDescription("Replay a saved macro package at adjustable speed, optionally verifying each step's effect."),
			mcp.WithString("path", mcp.Description("Macro package directory or macro.json path"), mcp.Required()),
			mcp.WithNumber("speed", mcp.Description("Speed multiplier (default: 1.0)")),
			mcp.WithBoolean("verify", mcp.Description("Verify each step via the vision service")),
			mcp.WithBoolean("stop_on_failure", mcp.Description("Abort at the first failed step")),
			mcp.WithBoolean("dry_run", mcp.Description("Walk the event stream without dispatching input")),
		),
		s.handlePlayMacro,
	)

	// resolve_element
	s.mcp.AddTool(
		mcp.NewTool("resolve_element",
			mcp.WithDescription("Resolve a UI element by screen point (x, y) or by content description (text, control_type), reporting its control type, text, bounds, and the detection method used."),
			mcp.WithNumber("x", mcp.Description("X screen coordinate")),
			mcp.WithNumber("y", mcp.Description("Y screen coordinate")),
			mcp.WithString("text", mcp.Description("Find element by text (case-insensitive substring)")),
			mcp.WithBoolean("exact", mcp.Description("Require whole-string text match")),
			mcp.WithString("control_type", mcp.Description("Restrict matches to a control type (e.g. Button)")),
		),
		s.handleResolveElement,
	)
}
