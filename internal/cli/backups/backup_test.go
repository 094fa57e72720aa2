package backups

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })

	out := &bytes.Buffer{}
	ctx := cli.NewContext(store, nil)
	ctx.Out = out
	return ctx, out, dbPath
}

func TestCreateAndList(t *testing.T) {
	ctx, out, dbPath := setupTestDB(t)

	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Backup created: markease-")

	out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "1 total")
	assert.Contains(t, out.String(), filepath.Join(filepath.Dir(dbPath), "backups"))
}

func TestListEmpty(t *testing.T) {
	ctx, out, _ := setupTestDB(t)
	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No backups found.")
}

func TestRestoreCancelled(t *testing.T) {
	ctx, out, _ := setupTestDB(t)
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	backups, err := ctx.BackupManager().ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	ctx.In = strings.NewReader("n\n")
	require.NoError(t, (&BackupRestoreCmd{BackupFile: backups[0].Name()}).Run(ctx))
	assert.Contains(t, out.String(), "Restore cancelled.")
}

func TestRestore(t *testing.T) {
	ctx, out, dbPath := setupTestDB(t)
	require.NoError(t, ctx.Records().SetLanguage(models.LanguageChinese))
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	backups, err := ctx.BackupManager().ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	require.NoError(t, ctx.Records().SetLanguage(models.LanguageEnglish))

	require.NoError(t, (&BackupRestoreCmd{BackupFile: backups[0].Path, Yes: true}).Run(ctx))
	assert.Contains(t, out.String(), "Database restored successfully")
	assert.Contains(t, out.String(), "Previous database saved as")

	reopened := sqlite.NewStore(dbPath)
	require.NoError(t, reopened.Load())
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, models.LanguageChinese, storage.NewRecordStore(reopened).Language())
}

func TestRestoreMissingFile(t *testing.T) {
	ctx, _, _ := setupTestDB(t)
	err := (&BackupRestoreCmd{BackupFile: "nope.db", Yes: true}).Run(ctx)
	assert.ErrorContains(t, err, "does not exist")
}

func TestJSONStoreHasNoBackups(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, store.Init())
	ctx := cli.NewContext(store, nil)
	ctx.Out = &bytes.Buffer{}

	assert.ErrorIs(t, (&BackupCreateCmd{}).Run(ctx), errNoBackups)
	assert.ErrorIs(t, (&BackupListCmd{}).Run(ctx), errNoBackups)
}
