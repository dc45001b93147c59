package main

import (
	"fmt"
	"os"

	"github.com/aretw0/emergence/pkg/editor"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the built-in document to start from",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "emergence.json"
		if len(args) > 0 {
			path = args[0]
		}
		example, _ := cmd.Flags().GetBool("example")
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		data := editor.DefaultJSON()
		if example {
			data = editor.ExampleJSON()
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("example", false, "Write the media example instead of the default document")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
