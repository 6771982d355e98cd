package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
	Version   int
}

// Retention bounds the backups kept in a directory. A zero field disables
// that limit; a backup survives only if it is within every set limit.
type Retention struct {
	MaxCount int
	MaxAge   time.Duration
	MaxBytes int64
}

// IsZero reports whether no limit is set.
func (r Retention) IsZero() bool {
	return r.MaxCount <= 0 && r.MaxAge <= 0 && r.MaxBytes <= 0
}

// Keep returns the backups to retain from a newest-first list. The newest
// backup is never dropped for size alone.
func (r Retention) Keep(backups []BackupInfo, now time.Time) []BackupInfo {
	var (
		keep  []BackupInfo
		total int64
	)
	for i, b := range backups {
		if r.MaxCount > 0 && i >= r.MaxCount {
			break
		}
		if r.MaxAge > 0 && !b.CreatedAt.After(now.Add(-r.MaxAge)) {
			continue
		}
		if r.MaxBytes > 0 && len(keep) > 0 && total+b.Size > r.MaxBytes {
			break
		}
		keep = append(keep, b)
		total += b.Size
	}
	return keep
}

// ListBackups scans dir for verdant-backup-* files and returns them sorted newest-first.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		bi := BackupInfo{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if ts, ok := timestampFromName(e.Name()); ok {
			bi.CreatedAt = ts
		}

		if version, err := DetectFormat(bi.Path); err == nil {
			bi.Version = version
		}

		backups = append(backups, bi)
	}

	// Names embed a sortable UTC stamp.
	sort.Slice(backups, func(i, j int) bool {
		return filepath.Base(backups[i].Path) > filepath.Base(backups[j].Path)
	})

	return backups, nil
}

// timestampFromName reads the UTC stamp embedded by GenerateBackupPath.
func timestampFromName(name string) (time.Time, bool) {
	stamp := strings.TrimPrefix(name, FilePrefix)
	if len(stamp) < len("20060102-150405") {
		return time.Time{}, false
	}
	ts, err := time.Parse("20060102-150405", stamp[:len("20060102-150405")])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Prune deletes the backups in dir that r does not keep and returns their paths.
func Prune(dir string, r Retention, now time.Time) ([]string, error) {
	if r.IsZero() {
		return nil, nil
	}
	backups, err := ListBackups(dir)
	if err != nil {
		return nil, err
	}

	kept := make(map[string]struct{}, len(backups))
	for _, b := range r.Keep(backups, now) {
		kept[b.Path] = struct{}{}
	}

	var deleted []string
	for _, b := range backups {
		if _, ok := kept[b.Path]; ok {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}

var durationUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseDuration accepts Go durations ("720h") plus whole days and weeks ("30d", "2w").
func ParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	unit, ok := durationUnits[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("unknown duration unit in %q (want h, d or w)", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	return time.Duration(n) * unit, nil
}

// sizeUnits is ordered longest suffix first so "MB" is not read as "B".
var sizeUnits = []struct {
	suffix string
	bytes  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize parses "500KB", "100MB" or "1GB" into bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, u := range sizeUnits {
		num, found := strings.CutSuffix(s, u.suffix)
		if !found {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		return n * u.bytes, nil
	}
	return 0, fmt.Errorf("invalid size: %q (want B, KB, MB or GB)", s)
}
