package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/store"
	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "verdant",
		Short: "Verdant - a garden that keeps growing while you are away",
		Long: `verdant simulates a small persistent garden.

Plants grow in real time between visits. Water and fertilize them, cross
mature plants to breed new varieties, and harvest seeds to replant.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("garden", constants.DefaultGardenID, "Garden id")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newStatusCmd(),
		newGardensCmd(),
		newSeedsCmd(),
		newPlantsCmd(),
		// Actions
		newPlantCmd(),
		newWaterCmd(),
		newFertilizeCmd(),
		newCrossCmd(),
		newHarvestCmd(),
		// History and reports
		newMemoriesCmd(),
		newCensusCmd(),
		newExportCmd(),
		newLineageCmd(),
		// Maintenance
		newBackupCmd(),
		newRestoreCmd(),
		newConfigCmd(),
		newMetricsCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verdant version %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new garden",
		Long: `Create the .verdant directory and a fresh garden with one starter seed.

Examples:
  verdant init                  # Create the default garden
  verdant init --garden patio   # Create a second garden`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, _ := cmd.Flags().GetString("root")

			dir := store.LocalVerdantPath(root)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.svc.CreateNew(cmd.Context(), a.gardenID)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"status":     "initialized",
					"garden":     g.ID,
					"path":       dir,
					"seed":       g.Resources.Seeds[0].ID,
					"created_at": g.CreatedAt.Format(time.RFC3339),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized garden %q in %s\n", g.ID, filepath.Clean(dir))
			fmt.Fprintf(cmd.OutOrStdout(), "  Starter seed: %s\n", shortID(g.Resources.Seeds[0].ID))
			fmt.Fprintln(cmd.OutOrStdout(), "  Run 'verdant plant <seed> <x> <y>' to plant it.")
			return nil
		},
	}
	return cmd
}

// printJSON writes v as a single JSON document.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
