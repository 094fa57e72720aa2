package cli

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/markease/internal/ai"
	"github.com/julianstephens/markease/internal/backup"
	"github.com/julianstephens/markease/internal/config"
	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/habit"
	"github.com/julianstephens/markease/internal/health"
	"github.com/julianstephens/markease/internal/keyring"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/notes"
	"github.com/julianstephens/markease/internal/notifier"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/sqlite"
)

// Context is shared by every command. Services are built on first use so
// commands that never touch them pay nothing.
type Context struct {
	Store  storage.Provider
	Config *config.Config
	Out    io.Writer
	In     io.Reader
	Now    func() time.Time

	records *storage.RecordStore
	tracker *habit.Tracker
}

func NewContext(store storage.Provider, cfg *config.Config) *Context {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Context{
		Store:  store,
		Config: cfg,
		Out:    os.Stdout,
		In:     os.Stdin,
		Now:    time.Now,
	}
}

func (c *Context) Records() *storage.RecordStore {
	if c.records == nil {
		c.records = storage.NewRecordStore(c.Store)
	}
	return c.records
}

// Lang is the stored UI language.
func (c *Context) Lang() models.Language {
	return c.Records().Language()
}

// Today is the local calendar date.
func (c *Context) Today() string {
	return c.Now().Format(constants.DateFormat)
}

func (c *Context) Tracker() *habit.Tracker {
	if c.tracker == nil {
		opts := []habit.Option{habit.WithClock(c.Now)}
		if c.Config.Habit.Notify {
			opts = append(opts, habit.WithNotifier(notifier.New()))
		}
		c.tracker = habit.New(c.Records(), opts...)
	}
	return c.tracker
}

func (c *Context) Merger() *health.Merger {
	return health.NewMerger(c.Records())
}

func (c *Context) Notes() *notes.Service {
	return notes.NewService(c.Records(), notes.WithClock(c.Now))
}

// AI builds the writing assistant. The key comes from config or the
// environment first, then the OS keyring.
func (c *Context) AI() (*ai.Service, error) {
	key := strings.TrimSpace(c.Config.AI.APIKey)
	if key == "" {
		k, err := keyring.GetAIKey()
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup failed", "error", err)
		}
		key = k
	}
	return ai.New(ai.Config{
		BaseURL: c.Config.AI.BaseURL,
		Model:   c.Config.AI.Model,
		APIKey:  key,
		Timeout: c.Config.AI.Timeout,
	})
}

// BackupManager returns a manager for SQLite stores, or nil for backends
// that cannot be snapshotted.
func (c *Context) BackupManager() *backup.Manager {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil
	}
	return backup.NewManager(c.Store.GetConfigPath())
}

// PerformAutomaticBackup creates a backup and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr := c.BackupManager()
	if mgr == nil {
		logger.Debug("Skipping automatic backup for non-SQLite store")
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}
