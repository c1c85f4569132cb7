package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/db"
	"github.com/anaphor-dev/anaphor/internal/session"
	"github.com/anaphor-dev/anaphor/internal/transcript"
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a session transcript as a standalone HTML page",
	Long:  `Renders the recorded turns of a session as a self-contained HTML transcript, to stdout or a file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	output, _ := cmd.Flags().GetString("output")

	// Export needs only the turn store, not the full engine, so no
	// embedding credentials are required here.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	exporter, err := transcript.NewExporter(session.NewTurnStore(database))
	if err != nil {
		return fmt.Errorf("creating transcript exporter: %w", err)
	}

	ctx := context.Background()
	if output != "" {
		if err := exporter.ExportToFile(ctx, sessionID, output); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Transcript written to %s\n", output)
		return nil
	}

	html, err := exporter.Export(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(html)
	return err
}
