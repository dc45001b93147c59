package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/emergence/pkg/adapters/file"
	"github.com/aretw0/emergence/pkg/editor"
	"github.com/aretw0/emergence/pkg/graph"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("document is not valid")

var validateCmd = &cobra.Command{
	Use:   "validate [document]",
	Short: "Check a document against the content graph rules",
	Long: `Parses the document and reports every structural violation. Unreachable nodes and
dangling follow-ups are reported as warnings; --strict makes dangling follow-ups fatal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, args)
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")
		out := cmd.OutOrStdout()

		data, err := os.ReadFile(a.cfg.Document)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		st := editor.CheckFormat(data, file.Format(a.cfg.Document))
		fmt.Fprintf(out, "%s: %s\n", st.Level, st.Message)
		for _, v := range st.Violations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
		if !st.OK() {
			return errInvalid
		}

		report := graph.Inspect(st.Document)
		for _, id := range report.Unreachable {
			fmt.Fprintf(out, "warning: node %q is unreachable from %q\n", id, report.StartNode)
		}
		for _, e := range report.Dangling {
			fmt.Fprintf(out, "warning: %s[%d] %q leads to missing node %q\n", e.From, e.Index, e.Prompt, e.To)
		}
		if strict {
			if err := report.Err(); err != nil {
				return fmt.Errorf("%w: %v", errInvalid, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Fail on follow-ups whose target node does not exist")
}
