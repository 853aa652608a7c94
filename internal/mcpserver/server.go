package mcpserver

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/oncp/resolution-mcp/internal/tools"
)

const serverName = "Application Resolution MCP Server"

// Server bundles the MCP server with its SSE transport so the caller can
// mount the transport on an existing router.
type Server struct {
	MCP *server.MCPServer
	SSE *server.SSEServer
}

// New builds the MCP server with the resolution tools registered and an SSE
// transport bound to the given port.
func New(port int, deps tools.Deps) *Server {
	mcpServer := server.NewMCPServer(
		serverName,
		"1.0.0",
		server.WithInstructions("Trigger, monitor, and inspect automated resolution jobs for application issues."),
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	tools.Register(mcpServer, deps)

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
	)

	return &Server{MCP: mcpServer, SSE: sseServer}
}
