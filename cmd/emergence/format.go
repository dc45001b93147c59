package main

import (
	"fmt"
	"os"

	"github.com/aretw0/emergence/pkg/adapters/file"
	"github.com/aretw0/emergence/pkg/editor"
	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format [document]",
	Short: "Re-indent a JSON document, or convert a YAML one to JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, args)
		if err != nil {
			return err
		}
		write, _ := cmd.Flags().GetBool("write")

		data, err := os.ReadFile(a.cfg.Document)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		var out string
		if file.Format(a.cfg.Document) == "yaml" {
			out, err = editor.Upload(a.cfg.Document, data)
		} else {
			out, err = editor.Format(string(data))
		}
		if err != nil {
			return err
		}

		if !write {
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		if file.Format(a.cfg.Document) == "yaml" {
			return fmt.Errorf("--write is only supported for JSON documents")
		}
		return os.WriteFile(a.cfg.Document, []byte(out+"\n"), 0o644)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [document]",
	Short: "Count lines, characters and nodes of a JSON document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, args)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(a.cfg.Document)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		st := editor.ComputeStats(string(data))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "lines: %d\nchars: %d\n", st.Lines, st.Chars)
		if st.Nodes < 0 {
			fmt.Fprintln(out, "nodes: -")
		} else {
			fmt.Fprintf(out, "nodes: %d\n", st.Nodes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(statsCmd)
	formatCmd.Flags().BoolP("write", "w", false, "Write the result back to the file")
}
