package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all flowstruct MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	if h == nil {
		h = NewHandlerSet(nil)
	}

	// Tool 1: structure_graph - Structure control-flow graphs into statements
	s.AddTool(mcp.NewTool("structure_graph",
		mcp.WithDescription("Recover structured statements (if, loops, switch, try/catch, synchronized) from control-flow graph documents"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a graph document (.yaml, .json, .msgpack) or a directory of them")),
		mcp.WithString("output_mode",
			mcp.Enum("summary", "full"),
			mcp.Description("summary returns counts and per-method status, full returns the complete report with token streams (default: summary)")),
	), h.HandleStructureGraph)

	// Tool 2: check_reducibility - Report irreducible methods
	s.AddTool(mcp.NewTool("check_reducibility",
		mcp.WithDescription("Check whether every method of the graph documents structures without irreducible regions"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a graph document or a directory of them")),
	), h.HandleCheckReducibility)
}
