package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X tgbridge/cmd.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args
		fmt.Fprintln(cmd.OutOrStdout(), "tgbridge", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
