package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/reference"
	"github.com/anaphor-dev/anaphor/internal/vocab"
)

var detectCmd = &cobra.Command{
	Use:   "detect [query]",
	Short: "Detect the reference intent of an utterance",
	Long: `Classifies an utterance as ordinal, temporal, relative, or topical
back-reference, or reports that it carries no reference signal at all.
Runs entirely locally with no session state.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().Bool("json", false, "output the intent as JSON")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	detector := reference.NewDetector(vocab.Default(), 0)
	intent := detector.Detect(args[0])

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(intent)
	}

	if intent == nil {
		fmt.Println("No reference signal; treat the message as a fresh query.")
		return nil
	}

	fmt.Printf("Intent:     %s\n", intent.Type)
	fmt.Printf("Confidence: %.0f%%\n", intent.Confidence*100)
	if len(intent.Indicators) > 0 {
		fmt.Printf("Indicators: %s\n", strings.Join(intent.Indicators, ", "))
	}
	switch intent.Type {
	case reference.IntentOrdinal:
		fmt.Printf("Position:   turn %d\n", intent.Position)
	case reference.IntentRelative:
		fmt.Printf("Offset:     %d turns back\n", intent.Offset)
	}
	return nil
}
