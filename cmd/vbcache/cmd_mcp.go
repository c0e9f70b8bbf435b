package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Laura-lc/AllenSDK/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Run the MCP server over stdio.

Exposes the dataset to MCP clients (analysis assistants) through the
vb_manifest, vb_session_info, vb_session_table, and vb_validate tools and
the vb://manifest resource. Blocks until the client disconnects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer pc.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "vbcache",
				Version: version,
				Cache:   pc,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			fmt.Fprintln(os.Stderr, "vbcache MCP server listening on stdio")
			return server.Run(context.Background())
		},
	}
}
