package system

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/sqlite"
)

func setupDoctor(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "markease.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	out := &bytes.Buffer{}
	ctx := cli.NewContext(store, nil)
	ctx.Out = out
	return ctx, out
}

func TestDoctorCmd_Healthy(t *testing.T) {
	ctx, out := setupDoctor(t)

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Fatalf("doctor failed on a fresh database: %v\n%s", err, out.String())
	}
	// a fresh database has no backups yet
	if !strings.Contains(out.String(), "⚠ Backups present: WARNING") {
		t.Errorf("expected backup warning:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "✓ Schema version: OK") {
		t.Errorf("expected schema check to pass:\n%s", out.String())
	}
}

func TestDoctorCmd_CorruptRecords(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check string
	}{
		{"notes not JSON", constants.NotesKey, "{oops", "Notes"},
		{"duplicate note ids", constants.NotesKey, `[{"id":"a"},{"id":"a"}]`, "Notes"},
		{"bad habit key", constants.HabitsKey, `{"03/04":{"date":"03/04","durationMinutes":5}}`, "Focus records"},
		{"mismatched health date", constants.HealthKey, `{"2024-03-04":{"date":"2024-03-05"}}`, "Body records"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := setupDoctor(t)
			if err := ctx.Store.Set(tt.key, []byte(tt.value)); err != nil {
				t.Fatal(err)
			}

			if err := (&DoctorCmd{}).Run(ctx); err == nil {
				t.Fatal("doctor should fail")
			}
			if want := "❌ " + tt.check + ": FAIL"; !strings.Contains(out.String(), want) {
				t.Errorf("missing %q in:\n%s", want, out.String())
			}
		})
	}
}

func TestDoctorCmd_Unreachable(t *testing.T) {
	out := &bytes.Buffer{}
	ctx := cli.NewContext(storage.NewJSONStore(filepath.Join(t.TempDir(), "missing.json")), nil)
	ctx.Out = out

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Fatal("doctor should fail when storage is missing")
	}
	if !strings.Contains(out.String(), "⊘ Notes: SKIPPED") {
		t.Errorf("dependent checks should be skipped:\n%s", out.String())
	}
}
