package main

import (
	"fmt"

	"github.com/aretw0/emergence"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of emergence",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "emergence version %s\n", emergence.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
