package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/progress"
	"github.com/anaphor-dev/anaphor/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay [path]",
	Short: "Replay conversation scripts through the engine",
	Long: `Runs JSON Lines conversation scripts through the full resolution engine
and prints aggregate outcome statistics. The path may be a single .jsonl
file or a directory searched recursively for scripts.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	path := args[0]

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	runner := replay.NewRunner(a.engine, a.recorder, a.log)
	reporter := progress.NewReporter()

	ctx := context.Background()
	var stats replay.Stats
	if info.IsDir() {
		stats, err = runner.RunDir(ctx, path, reporter)
	} else {
		stats, err = runner.Run(ctx, path, reporter)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Replay complete!")
	fmt.Printf("  Events:         %d\n", stats.Events)
	fmt.Printf("  Recorded turns: %d\n", stats.Recorded)
	fmt.Printf("  New queries:    %d\n", stats.NewQueries)
	fmt.Printf("  Resolved:       %d\n", stats.Resolved)
	fmt.Printf("  Clarifications: %d\n", stats.Clarifications)
	if stats.Failures > 0 {
		fmt.Printf("  Failures:       %d\n", stats.Failures)
	}
	return nil
}
