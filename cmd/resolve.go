package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/vocab"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [input]",
	Short: "Resolve a selection reply against a list of options",
	Long: `Interprets a user reply ("2", "the second one", "yung una", "the blue
one please") against a candidate option list and reports which option it
selects, if any. Runs entirely locally with no session state.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("options", "", "comma-separated option names")
	resolveCmd.Flags().String("options-json", "", "options as a JSON array of objects")
	resolveCmd.Flags().String("display-field", selection.DefaultDisplayField, "option field matched by name")
	resolveCmd.Flags().Bool("json", false, "output the result as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	input := args[0]

	namesFlag, _ := cmd.Flags().GetString("options")
	rawFlag, _ := cmd.Flags().GetString("options-json")
	displayField, _ := cmd.Flags().GetString("display-field")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	options, err := parseOptionFlags(namesFlag, rawFlag, displayField)
	if err != nil {
		return err
	}
	if len(options) == 0 {
		return fmt.Errorf("no options given; use --options or --options-json")
	}

	resolver := selection.NewResolver(vocab.Default(), displayField)
	result := resolver.Resolve(input, options)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Matched() {
		fmt.Println("No option matched; the reply looks like a new query.")
		return nil
	}

	name, ok := options[*result.Index].Display(displayField)
	if !ok {
		name = fmt.Sprintf("%v", options[*result.Index])
	}

	fmt.Printf("Matched option %d of %d: %s\n", *result.Index+1, len(options), name)
	fmt.Printf("  Strategy:   %s\n", *result.Strategy)
	fmt.Printf("  Confidence: %.0f%%\n", result.Confidence*100)
	if result.MatchedText != "" {
		fmt.Printf("  Matched:    %q\n", result.MatchedText)
	}
	return nil
}

// parseOptionFlags builds the option list from either flag form. The JSON
// form wins when both are given.
func parseOptionFlags(names, raw, displayField string) ([]selection.Option, error) {
	if raw != "" {
		var options []selection.Option
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			return nil, fmt.Errorf("parsing --options-json: %w", err)
		}
		return options, nil
	}

	var options []selection.Option
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		options = append(options, selection.Option{displayField: name})
	}
	return options, nil
}
