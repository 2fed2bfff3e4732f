package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	packmcp "github.com/copperpack/copper-pack/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  sync_table              read one page of opportunities, companies or people
  get_record              fetch one enriched record by URL or id
  set_opportunity_status  change status (Open, Won, Lost, Abandoned)
  set_opportunity_stage   move an opportunity within its pipeline
  assign_record           assign a record to a user by email
  add_tag / remove_tag    edit record tags
  set_custom_field        set a custom field by name

If Copper credentials are missing the server still starts; every tool call
then returns an MCP error result.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			sess, closeFn, sessErr := newSession(cmd.Context(), logger)
			if sessErr != nil {
				logger.Error("mcp: no Copper session; tool calls will fail", "error", sessErr)
			} else {
				defer closeFn()
			}

			srv := packmcp.NewServer(sess, version, logger)

			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: copper-pack MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
