package cmd

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize anaphor configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure anaphor and generates a .anaphor.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("%s already exists, overwrite", config.DefaultPath),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				fmt.Println("Aborted.")
				return nil
			}
		}
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
