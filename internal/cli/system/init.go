package system

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/config"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing data before initialization."`
	Source string `help:"Source store (SQLite file, .json file or PostgreSQL URL) to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	dest := ctx.Store.GetConfigPath()
	if c.Source != "" && samePath(c.Source, dest) {
		return fmt.Errorf("source and destination are the same: %s", dest)
	}

	_, isPostgres := ctx.Store.(*postgres.Store)
	if c.Force && !isPostgres {
		if _, err := os.Stat(dest); err == nil {
			// close first so SQLite releases its file handle
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dest); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Fprintf(ctx.Out, "Deleted existing database at: %s\n", dest)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}

	if c.Force && isPostgres {
		n, err := clearAll(ctx.Store)
		if err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Deleted %d existing record(s)\n", n)
	}
	fmt.Fprintf(ctx.Out, "Initialized markease storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Fprintf(ctx.Out, "Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(ctx.Out, "Migration completed successfully!")
	}
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context) error {
	src, err := cli.OpenProvider(c.Source)
	if err != nil {
		return err
	}
	if err := src.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	snapshot, err := storage.NewRecordStore(src).Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	if err := ctx.Records().Restore(snapshot); err != nil {
		return fmt.Errorf("failed to write destination: %w", err)
	}

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(ctx.Out, "  Migrated %s (%d bytes)\n", k, len(snapshot[k]))
	}
	return nil
}

func clearAll(p storage.Provider) (int, error) {
	keys, err := p.Keys()
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := p.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func samePath(a, b string) bool {
	if config.IsPostgres(a) || config.IsPostgres(b) {
		return a == b
	}
	absA, errA := filepath.Abs(config.ExpandHome(a))
	absB, errB := filepath.Abs(config.ExpandHome(b))
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
