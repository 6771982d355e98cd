package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var retentionNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// hourly returns n backups, newest first, one hour apart, each size bytes.
func hourly(n int, size int64) []BackupInfo {
	out := make([]BackupInfo, n)
	for i := range out {
		out[i] = BackupInfo{
			Path:      filepath.Join("/b", GenerateBackupPath("", true, retentionNow.Add(-time.Duration(i)*time.Hour))),
			CreatedAt: retentionNow.Add(-time.Duration(i) * time.Hour),
			Size:      size,
		}
	}
	return out
}

func TestRetentionKeep(t *testing.T) {
	tests := []struct {
		name  string
		r     Retention
		input []BackupInfo
		want  int
	}{
		{"no limits keeps all", Retention{}, hourly(4, 100), 4},
		{"count keeps newest", Retention{MaxCount: 3}, hourly(5, 100), 3},
		{"count with fewer", Retention{MaxCount: 5}, hourly(1, 100), 1},
		{"age cutoff", Retention{MaxAge: 150 * time.Minute}, hourly(5, 100), 3},
		{"size limit", Retention{MaxBytes: 1200}, hourly(4, 500), 2},
		{"size keeps one oversized", Retention{MaxBytes: 10}, hourly(3, 500), 1},
		{"every limit applies", Retention{MaxCount: 4, MaxBytes: 250}, hourly(5, 100), 2},
		{"count and age", Retention{MaxCount: 4, MaxAge: 150 * time.Minute}, hourly(6, 10), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep := tt.r.Keep(tt.input, retentionNow)
			if len(keep) != tt.want {
				t.Fatalf("Keep() kept %d, want %d", len(keep), tt.want)
			}
			if keep[0].Path != tt.input[0].Path {
				t.Errorf("first kept = %s, want newest %s", keep[0].Path, tt.input[0].Path)
			}
		})
	}
}

func TestRetentionIsZero(t *testing.T) {
	if !(Retention{}).IsZero() {
		t.Error("empty Retention should be zero")
	}
	if (Retention{MaxAge: time.Hour}).IsZero() {
		t.Error("Retention with MaxAge should not be zero")
	}
}

func TestListBackups_MixedFormats(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"verdant-backup-20260201-120000.json":    `{"version":1,"created_at":"2026-02-01T12:00:00Z","gardens":[]}`,
		"verdant-backup-20260202-120000.json.gz": "fake",
		"verdant-backup-20260203-120000.json":    `{"version":1,"created_at":"2026-02-03T12:00:00Z","gardens":[]}`,
		"not-a-backup.txt":                       "ignore this",
		"verdant-backup-notes.md":                "ignore this too",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := ListBackups(dir)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("ListBackups() found %d, want 3", len(backups))
	}
	if backups[0].Path != filepath.Join(dir, "verdant-backup-20260203-120000.json") {
		t.Errorf("first backup = %s, want the 0203 backup", filepath.Base(backups[0].Path))
	}
	if backups[0].Version != FormatV1 {
		t.Errorf("expected V1 detection, got %d", backups[0].Version)
	}
	want := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	if !backups[0].CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want stamp from name %v", backups[0].CreatedAt, want)
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "absent"))
	if err != nil || backups != nil {
		t.Errorf("ListBackups(missing) = %v, %v; want nil, nil", backups, err)
	}
}

func TestPrune_DeletesOldest(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		path := GenerateBackupPath(dir, true, retentionNow.Add(time.Duration(i)*time.Hour))
		if err := os.WriteFile(path, []byte("data"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := Prune(dir, Retention{MaxCount: 2}, retentionNow)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(deleted) != 3 {
		t.Errorf("deleted %d files, want 3", len(deleted))
	}

	remaining, _ := ListBackups(dir)
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
	newest := GenerateBackupPath(dir, true, retentionNow.Add(5*time.Hour))
	if remaining[0].Path != newest {
		t.Errorf("newest kept = %s, want %s", remaining[0].Path, newest)
	}

	if deleted, err := Prune(dir, Retention{}, retentionNow); err != nil || deleted != nil {
		t.Errorf("zero Retention should be a no-op, got %v, %v", deleted, err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"720h", 720 * time.Hour, false},
		{"", 0, true},
		{"abc", 0, true},
		{"3y", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"100MB", 100 * 1024 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{"500KB", 500 * 1024, false},
		{"1024B", 1024, false},
		{"2 mb", 2 << 20, false},
		{"-1KB", 0, true},
		{"", 0, true},
		{"12", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
