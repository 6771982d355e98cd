package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nvandessel/verdant/internal/census"
	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/pathutil"
	"github.com/nvandessel/verdant/internal/store"
	"github.com/spf13/cobra"
)

func newMemoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Show the garden's history, newest first",
		Long: `Show what happened in the garden: blooms, mutations, season changes,
level-ups and achievements.

Examples:
  verdant memories
  verdant memories --kind bloomed --kind mutation
  verdant memories --since 24h --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, _ := cmd.Flags().GetStringSlice("kind")
			plant, _ := cmd.Flags().GetString("plant")
			since, _ := cmd.Flags().GetDuration("since")
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := garden.MemoryFilter{PlantID: plant}
			for _, k := range kinds {
				filter.Kinds = append(filter.Kinds, models.MemoryKind(k))
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			memories, err := a.svc.Memories(cmd.Context(), a.gardenID, filter, limit)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"memories": memories,
					"count":    len(memories),
				})
			}

			w := cmd.OutOrStdout()
			if len(memories) == 0 {
				fmt.Fprintln(w, "Nothing to remember yet.")
				return nil
			}
			for _, m := range memories {
				fmt.Fprintf(w, "%s  %-20s %s\n", m.At.Local().Format("2006-01-02 15:04"), m.Kind, m.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("kind", nil, "Only show these memory kinds (repeatable)")
	cmd.Flags().String("plant", "", "Only show memories about this plant id")
	cmd.Flags().Duration("since", 0, "Only show memories from this far back (e.g. 24h)")
	cmd.Flags().Int("limit", 20, "Maximum memories to show (0 for all)")
	return cmd
}

func newCensusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "census",
		Short: "Summarize the garden's population and gene pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.svc.Load(cmd.Context(), a.gardenID)
			if err != nil {
				return err
			}
			summary := census.Summarize(g)

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			writeCensus(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func writeCensus(w io.Writer, s census.Summary) {
	fmt.Fprintf(w, "Census of %s: %d plants, %d seeds\n", s.GardenID, s.Plants, s.Seeds)
	if s.Plants > 0 {
		fmt.Fprintln(w, "\nStages:")
		for _, stage := range sortedKeys(s.Stages) {
			fmt.Fprintf(w, "  %-8s %d\n", stage, s.Stages[stage])
		}
		fmt.Fprintln(w, "\nCondition:")
		fmt.Fprintf(w, "  health    mean %5.1f  sd %5.1f  [%5.1f, %5.1f]\n", s.Health.Mean, s.Health.StdDev, s.Health.Min, s.Health.Max)
		fmt.Fprintf(w, "  water     mean %5.1f  sd %5.1f  [%5.1f, %5.1f]\n", s.Water.Mean, s.Water.StdDev, s.Water.Min, s.Water.Max)
		fmt.Fprintf(w, "  progress  mean %5.2f  sd %5.2f  [%5.2f, %5.2f]\n", s.Progress.Mean, s.Progress.StdDev, s.Progress.Min, s.Progress.Max)
	}

	if len(s.Alleles) == 0 {
		return
	}
	fmt.Fprintln(w, "\nGene pool:")
	for _, t := range models.TraitTypes {
		freqs := s.Alleles[t]
		if len(freqs) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s:", t)
		for _, f := range freqs {
			fmt.Fprintf(w, " %s %.0f%%", f.Allele, f.Frequency*100)
		}
		fmt.Fprintln(w)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export plants as CSV",
		Long: `Write one CSV row per plant. Without --output the CSV goes to stdout.
Files may only be written under ~/.verdant/exports or <root>/.verdant/exports.

Examples:
  verdant export > plants.csv
  verdant export --output .verdant/exports/plants.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.svc.Load(cmd.Context(), a.gardenID)
			if err != nil {
				return err
			}

			if outputPath == "" {
				return census.WriteCSV(cmd.OutOrStdout(), g.Plants)
			}

			if err := pathutil.ValidateExportPath(outputPath, a.root); err != nil {
				return fmt.Errorf("export path rejected: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
				return fmt.Errorf("failed to create export directory: %w", err)
			}
			f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := census.WriteCSV(f, g.Plants); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write export file: %w", err)
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"path":   outputPath,
					"plants": len(g.Plants),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d plants to %s\n", len(g.Plants), outputPath)
			return nil
		},
	}
	cmd.Flags().String("output", "", "Output file (default: stdout; must be under "+filepath.Join(store.DirName, pathutil.ExportsDir)+")")
	return cmd
}
