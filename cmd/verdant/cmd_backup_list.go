package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/nvandessel/verdant/internal/backup"
	"github.com/nvandessel/verdant/internal/config"
	"github.com/spf13/cobra"
)

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups with metadata",
		Long: `List all backup files in the backup directory with version, format,
size and garden count.

Examples:
  verdant backup list
  verdant backup list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			dir, err := backupDir(cfg)
			if err != nil {
				return err
			}

			backups, err := backup.ListBackups(dir)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			if jsonOut {
				type jsonEntry struct {
					Path        string `json:"path"`
					Version     int    `json:"version"`
					Size        int64  `json:"size_bytes"`
					CreatedAt   string `json:"created_at"`
					GardenCount int    `json:"garden_count,omitempty"`
					Checksum    string `json:"checksum,omitempty"`
				}
				entries := make([]jsonEntry, 0, len(backups))
				for _, b := range backups {
					entry := jsonEntry{
						Path:      b.Path,
						Version:   b.Version,
						Size:      b.Size,
						CreatedAt: b.CreatedAt.Format(time.RFC3339),
					}
					if b.Version == backup.FormatV2 {
						if header, err := backup.ReadV2Header(b.Path); err == nil {
							entry.GardenCount = header.GardenCount
							entry.Checksum = header.Checksum
						}
					}
					entries = append(entries, entry)
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"backups":     entries,
					"total_count": len(entries),
					"directory":   dir,
				})
			}

			w := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(w, "No backups found in %s\n", dir)
				return nil
			}

			fmt.Fprintf(w, "Backups in %s:\n", dir)
			var totalSize int64
			for _, b := range backups {
				totalSize += b.Size

				versionStr, formatStr, gardens := "v1", "json", "?"
				if b.Version == backup.FormatV2 {
					versionStr, formatStr = "v2", "gzip"
					if header, err := backup.ReadV2Header(b.Path); err == nil {
						gardens = fmt.Sprintf("%d", header.GardenCount)
					}
				}

				fmt.Fprintf(w, "  %s  %s  %s  %8s  %s gardens  %s\n",
					b.CreatedAt.Local().Format("2006-01-02 15:04"),
					versionStr,
					formatStr,
					formatBytes(b.Size),
					gardens,
					filepath.Base(b.Path),
				)
			}
			fmt.Fprintf(w, "Total: %d backups, %s\n", len(backups), formatBytes(totalSize))
			return nil
		},
	}
}

func newBackupPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old backups according to a retention policy",
		Long: `Delete backups that fall outside every given limit. Without flags the
retention settings from config are used.

Examples:
  verdant backup prune --keep 5
  verdant backup prune --max-age 30d --max-size 100MB`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAgeStr, _ := cmd.Flags().GetString("max-age")
			maxSizeStr, _ := cmd.Flags().GetString("max-size")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			r := backup.Retention(cfg.Backup.Retention)
			if cmd.Flags().Changed("keep") || maxAgeStr != "" || maxSizeStr != "" {
				r = backup.Retention{MaxCount: keep}
				if maxAgeStr != "" {
					if r.MaxAge, err = backup.ParseDuration(maxAgeStr); err != nil {
						return fmt.Errorf("invalid --max-age: %w", err)
					}
				}
				if maxSizeStr != "" {
					if r.MaxBytes, err = backup.ParseSize(maxSizeStr); err != nil {
						return fmt.Errorf("invalid --max-size: %w", err)
					}
				}
			}

			dir, err := backupDir(cfg)
			if err != nil {
				return err
			}
			deleted, err := backup.Prune(dir, r, time.Now())
			if err != nil {
				return fmt.Errorf("failed to prune backups: %w", err)
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"directory": dir,
					"deleted":   deleted,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d backup(s) from %s\n", len(deleted), dir)
			return nil
		},
	}
	cmd.Flags().Int("keep", 0, "Keep at most this many backups")
	cmd.Flags().String("max-age", "", "Delete backups older than this (e.g. 30d, 2w, 720h)")
	cmd.Flags().String("max-size", "", "Keep total backup size under this (e.g. 100MB)")
	return cmd
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1fGB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1fMB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1fKB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%dB", b)
	}
}
