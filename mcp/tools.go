package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all vespera MCP tools with the server.
func RegisterTools(s *server.MCPServer) {
	handlers := NewHandlerSet(nil)

	s.AddTool(mcp.NewTool("build_cfg",
		mcp.WithDescription("Lower Python source into a control-flow graph of basic blocks, with exception-aware invoke/landing-pad edges"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to Python source (file or directory) to lower")),
		mcp.WithString("format",
			mcp.Description("Output format: text, json, yaml, dot (default: json)")),
		mcp.WithBoolean("recursive",
			mcp.Description("Recurse into subdirectories when path is a directory (default: true)")),
		mcp.WithBoolean("verbose",
			mcp.Description("Passed through on the CFG request; the returned output does not change with it (default: false)")),
	), handlers.HandleBuildCFG)
}
