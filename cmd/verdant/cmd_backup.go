package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/verdant/internal/backup"
	"github.com/nvandessel/verdant/internal/config"
	"github.com/nvandessel/verdant/internal/pathutil"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up every garden to a file",
		Long: `Back up every garden in the configured store to a single file.

Default location: ~/.verdant/backups/verdant-backup-YYYYMMDD-HHMMSS.json.gz
Keeps backups according to the retention policy (default: last 10).

Examples:
  verdant backup                                           # V2 compressed, default location
  verdant backup --output .verdant/backups/before.json.gz  # Specific file
  verdant backup --no-compress                             # V1 plain JSON
  verdant backup list                                      # List all backups
  verdant backup verify <file>                             # Verify backup integrity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")
			noCompress, _ := cmd.Flags().GetBool("no-compress")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			compress := a.cfg.Backup.Compress && !noCompress
			now := time.Now()

			if outputPath == "" {
				dir, err := backupDir(a.cfg)
				if err != nil {
					return err
				}
				outputPath = backup.GenerateBackupPath(dir, compress, now)
			} else if err := pathutil.ValidateBackupPath(outputPath, a.root); err != nil {
				return fmt.Errorf("backup path rejected: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
				return fmt.Errorf("failed to create backup directory: %w", err)
			}

			result, err := backup.Backup(cmd.Context(), a.store, outputPath, backup.Options{Compress: compress, Now: now})
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			deleted, err := backup.Prune(filepath.Dir(outputPath), backup.Retention(a.cfg.Backup.Retention), now)
			if err != nil {
				a.logger.Warn("failed to apply backup retention", "error", err)
			}

			if a.jsonOut {
				var sizeBytes int64
				if info, err := os.Stat(outputPath); err == nil {
					sizeBytes = info.Size()
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"path":         outputPath,
					"garden_count": len(result.Gardens),
					"compressed":   compress,
					"size_bytes":   sizeBytes,
					"pruned":       deleted,
					"message":      fmt.Sprintf("Backup created: %d gardens", len(result.Gardens)),
				})
			}

			versionLabel := "v2/gzip"
			if !compress {
				versionLabel = "v1/json"
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Backup created: %d gardens (%s)\n", len(result.Gardens), versionLabel)
			fmt.Fprintf(w, "  Path: %s\n", outputPath)
			if len(deleted) > 0 {
				fmt.Fprintf(w, "  Pruned %d old backup(s)\n", len(deleted))
			}
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file path (default: auto-generated in ~/.verdant/backups/)")
	cmd.Flags().Bool("no-compress", false, "Create V1 uncompressed backup instead of V2 compressed")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
		newBackupPruneCmd(),
	)

	return cmd
}

// backupDir returns backup.dir from config, or ~/.verdant/backups.
func backupDir(cfg *config.VerdantConfig) (string, error) {
	if cfg.Backup.Dir != "" {
		return cfg.Backup.Dir, nil
	}
	dir, err := backup.DefaultBackupDir()
	if err != nil {
		return "", fmt.Errorf("failed to get backup directory: %w", err)
	}
	return dir, nil
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore gardens from a backup file",
		Long: `Restore gardens from a V1 or V2 backup. Every record is checked before
the store is modified.

Modes:
  merge    keep existing gardens, add the missing ones (default)
  replace  delete every existing garden first

Examples:
  verdant restore ~/.verdant/backups/verdant-backup-20260401-120000.json.gz
  verdant restore backup.json --mode replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeFlag, _ := cmd.Flags().GetString("mode")
			mode, err := backup.ParseRestoreMode(modeFlag)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := backup.Restore(cmd.Context(), a.store, args[0], mode)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"file":   args[0],
					"mode":   string(mode),
					"result": result,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d garden(s), skipped %d, removed %d (%s)\n",
				result.GardensRestored, result.GardensSkipped, result.GardensRemoved, mode)
			return nil
		},
	}
	cmd.Flags().String("mode", string(backup.RestoreMerge), "Restore mode: merge or replace")
	return cmd
}
