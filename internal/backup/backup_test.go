package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/sqlite"
)

// setupTestDB creates a record database holding one habit entry.
func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "markease.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := store.Set(constants.HabitsKey, []byte(`{"2024-03-01":{"date":"2024-03-01","durationMinutes":30}}`)); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	return dbPath
}

func readHabits(t *testing.T, dbPath string) string {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	defer store.Close()
	data, err := store.Get(constants.HabitsKey)
	if err != nil && err != storage.ErrNotFound {
		t.Fatalf("failed to read habits: %v", err)
	}
	return string(data)
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if filepath.Dir(backupPath) != mgr.GetBackupDir() {
		t.Errorf("backup written to %s, want dir %s", backupPath, mgr.GetBackupDir())
	}
	name := filepath.Base(backupPath)
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		t.Errorf("unexpected backup name %s", name)
	}
	if got := readHabits(t, backupPath); !strings.Contains(got, "2024-03-01") {
		t.Errorf("backup missing data: %q", got)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestBackupNameCollision(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	first, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}
	second, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("expected distinct backup paths")
	}
	if filepath.Base(second) != "markease-20240301-093000-1.db" {
		t.Errorf("unexpected collision name %s", filepath.Base(second))
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 || backups[0].Path != second {
		t.Errorf("expected counter backup first, got %+v", backups)
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.keep = 3

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		mgr.now = func() time.Time { return at }
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups after rotation, got %d", len(backups))
	}
	if want := start.Add(4 * time.Hour); !backups[0].Timestamp.Equal(want) {
		t.Errorf("newest backup = %v, want %v", backups[0].Timestamp, want)
	}
}

func TestListBackupsIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	if err := os.MkdirAll(mgr.GetBackupDir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "markease-garbage.db", "markease-20240301-093000-x.db"} {
		if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %+v", backups)
	}

	empty := NewManager(filepath.Join(t.TempDir(), "none.db"))
	if backups, err := empty.ListBackups(); err != nil || len(backups) != 0 {
		t.Errorf("missing dir: %v, %v", backups, err)
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local) }

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}

	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(constants.HabitsKey, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	store.Close()

	resolved, err := mgr.Resolve(filepath.Base(backupPath))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	safety, err := mgr.RestoreBackup(resolved)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if safety == "" {
		t.Error("expected a safety backup of the current database")
	}
	if got := readHabits(t, dbPath); !strings.Contains(got, "2024-03-01") {
		t.Errorf("restore did not bring data back: %q", got)
	}
	if got := readHabits(t, safety); got != "{}" {
		t.Errorf("safety backup = %q, want {}", got)
	}
}

func TestRestoreRejectsInvalidFile(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("definitely not sqlite"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RestoreBackup(bogus); err == nil {
		t.Error("expected error restoring an invalid file")
	}
	if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error restoring a missing file")
	}
	if _, err := mgr.Resolve("markease-nope.db"); err == nil {
		t.Error("expected error resolving a missing backup")
	}
}
