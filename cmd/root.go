package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "anaphor",
	Short: "Conversational reference and selection resolution",
	Long: `Anaphor resolves back-references in conversational queries ("the second
one", "yung una", "that database thing") against session history, and
interprets user replies to clarification questions. It keeps per-session
turn history and pending clarification state in a local SQLite database.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Pick up API keys from a local .env when present.
		_ = godotenv.Load()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
