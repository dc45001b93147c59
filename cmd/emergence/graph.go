package main

import (
	"encoding/json"
	"fmt"

	mermaid "github.com/aretw0/emergence/internal/presentation/graph"
	"github.com/aretw0/emergence/pkg/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [document]",
	Short: "Export the content graph",
	Long:  `Outputs a Mermaid diagram (graph TD) of the document, or the inspection report as JSON.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, args)
		if err != nil {
			return err
		}
		doc, err := a.source().Fetch(cmd.Context())
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), mermaid.GenerateMermaid(doc, nil))
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(graph.Inspect(doc))
		default:
			return fmt.Errorf("unknown format %q, expected mermaid or json", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or json")
}
