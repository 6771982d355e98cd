package main

import (
	"fmt"
	"strings"

	"github.com/nvandessel/verdant/internal/backup"
	"github.com/spf13/cobra"
)

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify backup file integrity",
		Long: `Verify a backup file: the SHA-256 checksum for V2 files, and that every
garden record in it can be read back.

Examples:
  verdant backup verify ~/.verdant/backups/verdant-backup-20260401-120000.json.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")
			w := cmd.OutOrStdout()

			res, err := backup.Verify(filePath)
			if err != nil {
				if jsonOut {
					if encErr := printJSON(w, map[string]interface{}{
						"file":    filePath,
						"valid":   false,
						"error":   err.Error(),
						"message": "Verification FAILED",
					}); encErr != nil {
						return encErr
					}
				} else {
					fmt.Fprintf(w, "FAILED: %v\n", err)
					fmt.Fprintf(w, "  File: %s\n", filePath)
				}
				return fmt.Errorf("backup verification failed")
			}

			msg := "Checksum OK"
			if res.Version == backup.FormatV1 {
				msg = "V1 format: no checksum, records OK"
			}

			if jsonOut {
				return printJSON(w, map[string]interface{}{
					"file":       filePath,
					"version":    res.Version,
					"valid":      true,
					"created_at": res.CreatedAt,
					"gardens":    res.Gardens,
					"message":    msg,
				})
			}

			fmt.Fprintf(w, "OK: %s\n", msg)
			fmt.Fprintf(w, "  File: %s\n", filePath)
			fmt.Fprintf(w, "  Gardens (%d): %s\n", len(res.Gardens), strings.Join(res.Gardens, ", "))
			return nil
		},
	}
}
