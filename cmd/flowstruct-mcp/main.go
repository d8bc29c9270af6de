package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ludo-technologies/flowstruct/internal/version"
	"github.com/ludo-technologies/flowstruct/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"
)

const serverName = "flowstruct"

func main() {
	configPath := pflag.StringP("config", "c", "", "configuration file (default: discover .flowstruct.toml from each tool path)")
	pflag.Parse()

	// stdout carries JSON-RPC
	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(mcp.NewDependencies(*configPath, logger)))

	logger.Printf("Starting %s MCP server %s\n", serverName, version.Short())
	logger.Println("Registered tools:")
	logger.Println("  - structure_graph: Structured statements from control-flow graphs")
	logger.Println("  - check_reducibility: Irreducible method report")
	logger.Println("Server ready - waiting for MCP client connection...")

	// Blocks until the client disconnects
	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
