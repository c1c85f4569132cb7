package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/anaphor-dev/anaphor/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing reference and selection resolution tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "anaphor MCP server started on stdio (db=%s, scorer=%s)\n",
			a.cfg.DatabasePath(), a.cfg.Resolver.TopicalScorer)

		srv := mcpserver.NewServer(mcpserver.Deps{
			Engine:       a.engine,
			Recorder:     a.recorder,
			States:       a.states,
			Detector:     a.detector,
			Tables:       a.tables,
			DisplayField: a.cfg.Resolver.DisplayField,
			Log:          a.log,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
