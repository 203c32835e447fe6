package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normsqa/internal/adapters/driving/mcp"
	"github.com/custodia-labs/normsqa/internal/core/domain"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

The server answers from the index at the configured index directory, which
is brought up to date before serving.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  normsqa mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  normsqa mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "normsqa": {
        "command": "/path/to/normsqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	p, err := requirePipeline(cmd)
	if err != nil {
		return err
	}

	paths := p.Settings.Paths
	handle, report, err := p.Builder.GetOrCreate(cmd.Context(), paths.PDFDir, paths.IndexDir, false)
	if report != nil && report.State != domain.BuildReuse {
		// stdout carries the protocol in stdio mode.
		printBuildReport(cmd.ErrOrStderr(), report)
	}
	if err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}
	defer handle.Close()

	ports := &mcp.Ports{
		QA:      p.QA,
		Catalog: p.Catalog,
		Index:   handle,
	}

	server, err := mcp.NewServer(ports, mcp.Options{Version: version})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
