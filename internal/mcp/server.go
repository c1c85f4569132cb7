package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/anaphor-dev/anaphor/internal/orchestrator"
	"github.com/anaphor-dev/anaphor/internal/reference"
	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/session"
	"github.com/anaphor-dev/anaphor/internal/vocab"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Deps bundles the engine and stores the MCP tools operate on.
type Deps struct {
	Engine   *orchestrator.Engine
	Recorder *session.Recorder
	States   *session.StateStore
	Detector *reference.Detector
	Tables   *vocab.Tables

	DisplayField string
	Log          zerolog.Logger
}

// Server wraps an MCP server that exposes reference and selection
// resolution tools to agent hosts.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	if deps.DisplayField == "" {
		deps.DisplayField = selection.DefaultDisplayField
	}
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"anaphor",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(handleMessageTool, s.handleHandleMessage)
	s.mcp.AddTool(resolveSelectionTool, s.handleResolveSelection)
	s.mcp.AddTool(detectReferenceTool, s.handleDetectReference)
	s.mcp.AddTool(addTurnTool, s.handleAddTurn)
	s.mcp.AddTool(listTurnsTool, s.handleListTurns)
	s.mcp.AddTool(getSessionStateTool, s.handleGetSessionState)
	s.mcp.AddTool(clearSessionStateTool, s.handleClearSessionState)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
