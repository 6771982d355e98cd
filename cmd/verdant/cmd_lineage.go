package main

import (
	"fmt"

	"github.com/nvandessel/verdant/internal/visualization"
	"github.com/spf13/cobra"
)

func newLineageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Render the garden's breeding lineage",
		Long: `Render plants and seeds with edges from each parent to its offspring.
Parents that have been harvested away are drawn as dashed ancestors.

The DOT output can be piped to Graphviz.

Examples:
  verdant lineage | dot -Tsvg > lineage.svg
  verdant lineage --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			format, err := visualization.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if a.jsonOut {
				format = visualization.FormatJSON
			}

			state, err := a.svc.Load(cmd.Context(), a.gardenID)
			if err != nil {
				return err
			}
			graph := visualization.Build(state)

			if format == visualization.FormatJSON {
				return printJSON(cmd.OutOrStdout(), graph)
			}
			fmt.Fprint(cmd.OutOrStdout(), visualization.RenderDOT(graph))
			return nil
		},
	}
	cmd.Flags().String("format", string(visualization.FormatDOT), "Output format: dot or json")
	return cmd
}
