package cmd

import (
	"fmt"
	"sort"

	"github.com/skiffsh/skiff/core/shell"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the commands the shell itself implements.
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the shell's builtin commands.",
	RunE: func(cmd *cobra.Command, args []string) error {
		builtins := shell.BuiltinNames()
		sort.Strings(builtins)

		for _, v := range builtins {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
