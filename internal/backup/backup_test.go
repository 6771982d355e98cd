package backup

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/random"
	"github.com/nvandessel/verdant/internal/store"
)

var backupNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// seededStore returns a memory store holding one fresh garden per id,
// each with its starter seed planted.
func seededStore(t *testing.T, ids ...string) store.GardenStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := garden.NewService(st,
		garden.WithClock(garden.ClockFunc(func() time.Time { return backupNow })),
		garden.WithRandom(random.New(7)),
	)
	for _, id := range ids {
		g, err := svc.CreateNew(ctx, id)
		if err != nil {
			t.Fatalf("CreateNew(%s) error = %v", id, err)
		}
		if _, err := svc.PlantSeed(ctx, id, g.Resources.Seeds[0].ID, models.Position{X: 1, Y: 1}); err != nil {
			t.Fatalf("PlantSeed(%s) error = %v", id, err)
		}
	}
	return st
}

func mustLoad(t *testing.T, st store.GardenStore, id string) *models.GardenState {
	t.Helper()
	g, err := st.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load(%s) error = %v", id, err)
	}
	return g
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "v1"
		if compress {
			name = "v2"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			src := seededStore(t, "north", "south")
			path := GenerateBackupPath(t.TempDir(), compress, backupNow)

			b, err := Backup(ctx, src, path, Options{Compress: compress, Now: backupNow})
			if err != nil {
				t.Fatalf("Backup() error = %v", err)
			}
			if len(b.Gardens) != 2 {
				t.Fatalf("backup holds %d gardens, want 2", len(b.Gardens))
			}

			wantVersion := FormatV1
			if compress {
				wantVersion = FormatV2
			}
			if v, _ := DetectFormat(path); v != wantVersion {
				t.Errorf("DetectFormat() = %d, want %d", v, wantVersion)
			}

			dst := store.NewMemoryStore()
			res, err := Restore(ctx, dst, path, RestoreMerge)
			if err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if res.GardensRestored != 2 || res.GardensSkipped != 0 {
				t.Errorf("unexpected result %+v", res)
			}

			for _, id := range []string{"north", "south"} {
				if got, want := mustLoad(t, dst, id), mustLoad(t, src, id); !reflect.DeepEqual(got, want) {
					t.Errorf("garden %s differs after restore", id)
				}
			}
		})
	}
}

func TestRestore_MergeSkipsExisting(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t, "north", "south")
	path := filepath.Join(t.TempDir(), "b.json")
	if _, err := Backup(ctx, src, path, Options{Now: backupNow}); err != nil {
		t.Fatal(err)
	}

	dst := seededStore(t, "north")
	before := mustLoad(t, dst, "north")
	before.Resources.Fertilizer = 99
	if err := dst.Save(ctx, before); err != nil {
		t.Fatal(err)
	}

	res, err := Restore(ctx, dst, path, RestoreMerge)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if res.GardensRestored != 1 || res.GardensSkipped != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if got := mustLoad(t, dst, "north").Resources.Fertilizer; got != 99 {
		t.Errorf("merge overwrote existing garden, fertilizer = %d", got)
	}
}

func TestRestore_ReplaceClearsStore(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t, "north")
	path := filepath.Join(t.TempDir(), "b.json.gz")
	if _, err := Backup(ctx, src, path, Options{Compress: true, Now: backupNow}); err != nil {
		t.Fatal(err)
	}

	dst := seededStore(t, "east", "north")
	res, err := Restore(ctx, dst, path, RestoreReplace)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if res.GardensRemoved != 2 || res.GardensRestored != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	ids, _ := dst.List(ctx)
	if !reflect.DeepEqual(ids, []string{"north"}) {
		t.Errorf("store holds %v after replace, want [north]", ids)
	}
}

func TestRestore_BadRecordLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "b.json")
	bad := `{"version":1,"created_at":"2026-03-01T12:00:00Z","gardens":[{"version":1,"id":"x","created_at":"yesterday"}]}`
	if err := os.WriteFile(path, []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}

	dst := seededStore(t, "north")
	if _, err := Restore(ctx, dst, path, RestoreReplace); err == nil {
		t.Fatal("Restore() should fail on an undecodable record")
	}
	if ids, _ := dst.List(ctx); len(ids) != 1 {
		t.Errorf("store changed after failed restore: %v", ids)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t, "north", "south")
	path := filepath.Join(t.TempDir(), "b.json.gz")
	if _, err := Backup(ctx, src, path, Options{Compress: true, Now: backupNow}); err != nil {
		t.Fatal(err)
	}

	res, err := Verify(path)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.Version != FormatV2 || !reflect.DeepEqual(res.Gardens, []string{"north", "south"}) {
		t.Errorf("unexpected verify result %+v", res)
	}
	if !strings.HasPrefix(res.CreatedAt, "2026-03-01T12:00:00") {
		t.Errorf("CreatedAt = %q", res.CreatedAt)
	}
}

func TestDecode_DuplicateGarden(t *testing.T) {
	src := seededStore(t, "north")
	b, err := Collect(context.Background(), src, backupNow)
	if err != nil {
		t.Fatal(err)
	}
	b.Gardens = append(b.Gardens, b.Gardens[0])
	if _, err := b.Decode(); err == nil {
		t.Error("Decode() should reject duplicate garden ids")
	}
}

func TestParseRestoreMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RestoreMode
		wantErr bool
	}{
		{"", RestoreMerge, false},
		{"merge", RestoreMerge, false},
		{" Replace ", RestoreReplace, false},
		{"overwrite", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRestoreMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRestoreMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestGenerateBackupPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		compressed bool
		want       string
	}{
		{false, "verdant-backup-20260301-120000.json"},
		{true, "verdant-backup-20260301-120000.json.gz"},
	}
	for _, tt := range tests {
		got := GenerateBackupPath(dir, tt.compressed, backupNow)
		if got != filepath.Join(dir, tt.want) {
			t.Errorf("GenerateBackupPath(%v) = %s, want %s", tt.compressed, got, tt.want)
		}
		if !isBackupFile(filepath.Base(got)) {
			t.Errorf("%s not recognized as a backup file", got)
		}
	}
}

func TestDefaultBackupDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir, err := DefaultBackupDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(home, ".verdant", "backups") {
		t.Errorf("DefaultBackupDir() = %s", dir)
	}
}
