package cmd

import (
	"log"

	"github.com/fatih/color"
	"github.com/skiffsh/skiff/core/config"
	"github.com/spf13/cobra"
)

// initCmd scaffolds the configuration directory.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		if _, err := config.Initialize(cfgPath, logger); err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Configuration ready in %s\n", cfgPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
