package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the replaysim version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("replaysim", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
