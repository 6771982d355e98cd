// Package backup provides backup and restore functionality for verdant gardens.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/store"
)

// FilePrefix starts every backup file name.
const FilePrefix = "verdant-backup-"

// BackupFormat is the JSON payload of a backup: one encoded garden record per entry.
type BackupFormat struct {
	Version   int               `json:"version"`
	CreatedAt string            `json:"created_at"`
	Gardens   []json.RawMessage `json:"gardens"`
}

// Options controls how a backup is written.
type Options struct {
	// Compress selects the V2 format (header line + gzip + checksum).
	Compress bool
	// Now stamps the backup; zero means time.Now.
	Now time.Time
}

// DefaultBackupDir returns the default backup directory (~/.verdant/backups/).
func DefaultBackupDir() (string, error) {
	global, err := store.GlobalVerdantPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(global, "backups"), nil
}

// Collect encodes every garden in the store into a backup payload.
func Collect(ctx context.Context, st store.GardenStore, now time.Time) (*BackupFormat, error) {
	ids, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gardens: %w", err)
	}

	b := &BackupFormat{
		Version:   FormatV1,
		CreatedAt: now.UTC().Format(time.RFC3339Nano),
		Gardens:   make([]json.RawMessage, 0, len(ids)),
	}
	for _, id := range ids {
		state, err := st.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load garden %s: %w", id, err)
		}
		data, err := store.Encode(state)
		if err != nil {
			return nil, fmt.Errorf("failed to encode garden %s: %w", id, err)
		}
		b.Gardens = append(b.Gardens, data)
	}
	return b, nil
}

// Backup writes every garden in the store to outputPath.
func Backup(ctx context.Context, st store.GardenStore, outputPath string, opts Options) (*BackupFormat, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	b, err := Collect(ctx, st, now)
	if err != nil {
		return nil, err
	}

	write := WriteV1
	if opts.Compress {
		write = WriteV2
	}
	if err := write(outputPath, b); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	return b, nil
}

// Read loads a backup of either format.
func Read(path string) (*BackupFormat, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if version == FormatV2 {
		return ReadV2(path)
	}
	return ReadV1(path)
}

// Decode parses every garden record in the backup.
func (b *BackupFormat) Decode() ([]*models.GardenState, error) {
	states := make([]*models.GardenState, 0, len(b.Gardens))
	seen := make(map[string]bool, len(b.Gardens))
	for i, raw := range b.Gardens {
		state, err := store.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("garden %d: %w", i, err)
		}
		if seen[state.ID] {
			return nil, fmt.Errorf("garden %s appears twice", state.ID)
		}
		seen[state.ID] = true
		states = append(states, state)
	}
	return states, nil
}

// VerifyResult describes a backup that passed verification.
type VerifyResult struct {
	Path      string   `json:"path"`
	Version   int      `json:"version"`
	CreatedAt string   `json:"created_at"`
	Gardens   []string `json:"gardens"`
}

// Verify checks a backup's checksum (V2) and that every garden record decodes.
func Verify(path string) (*VerifyResult, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	b, err := Read(path)
	if err != nil {
		return nil, err
	}
	states, err := b.Decode()
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{Path: path, Version: version, CreatedAt: b.CreatedAt}
	for _, s := range states {
		res.Gardens = append(res.Gardens, s.ID)
	}
	return res, nil
}

// RestoreMode controls how restore handles existing data.
type RestoreMode string

const (
	// RestoreMerge skips gardens that already exist (default).
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace clears the store before restoring.
	RestoreReplace RestoreMode = "replace"
)

// ParseRestoreMode accepts "merge", "replace" or "" (merge).
func ParseRestoreMode(s string) (RestoreMode, error) {
	switch RestoreMode(strings.ToLower(strings.TrimSpace(s))) {
	case RestoreMerge, "":
		return RestoreMerge, nil
	case RestoreReplace:
		return RestoreReplace, nil
	default:
		return "", fmt.Errorf("invalid restore mode %q (valid: merge, replace)", s)
	}
}

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	GardensRestored int `json:"gardens_restored"`
	GardensSkipped  int `json:"gardens_skipped"`
	GardensRemoved  int `json:"gardens_removed"`
}

// Restore imports gardens from a backup file into the store.
// Every record is decoded before the store is touched.
func Restore(ctx context.Context, st store.GardenStore, inputPath string, mode RestoreMode) (*RestoreResult, error) {
	b, err := Read(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	states, err := b.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}

	result := &RestoreResult{}

	if mode == RestoreReplace {
		existing, err := st.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list gardens: %w", err)
		}
		for _, id := range existing {
			if err := st.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("failed to remove garden %s: %w", id, err)
			}
			result.GardensRemoved++
		}
	}

	for _, state := range states {
		if mode == RestoreMerge {
			_, err := st.Load(ctx, state.ID)
			if err == nil {
				result.GardensSkipped++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("failed to check existing garden %s: %w", state.ID, err)
			}
		}
		if err := st.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to restore garden %s: %w", state.ID, err)
		}
		result.GardensRestored++
	}

	return result, nil
}

// GenerateBackupPath creates a timestamped backup filename in the given directory.
func GenerateBackupPath(dir string, compressed bool, now time.Time) string {
	name := FilePrefix + now.UTC().Format("20060102-150405") + ".json"
	if compressed {
		name += ".gz"
	}
	return filepath.Join(dir, name)
}

func isBackupFile(name string) bool {
	if !strings.HasPrefix(name, FilePrefix) {
		return false
	}
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz")
}
