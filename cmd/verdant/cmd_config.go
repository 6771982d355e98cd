package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/verdant/internal/config"
	"github.com/nvandessel/verdant/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect verdant configuration",
		Long: `View verdant configuration settings.

Configuration is read from ~/.verdant/config.yaml, then VERDANT_*
environment variables override individual settings.

Examples:
  verdant config show          # Effective settings, secrets masked
  verdant config show --json
  verdant config path          # Where the config file lives`,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			redacted := cfg.Redacted()

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), redacted)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(redacted); err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			dir, err := store.GlobalVerdantPath()
			if err != nil {
				return err
			}
			path := filepath.Join(dir, config.FileName)
			_, statErr := os.Stat(path)
			exists := statErr == nil

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"path":   path,
					"exists": exists,
				})
			}
			if exists {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (not created; defaults in use)\n", path)
			}
			return nil
		},
	}
}
