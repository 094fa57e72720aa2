package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/sqlite"
)

type schemaVersioner interface {
	SchemaVersion() (current, latest int, err error)
}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(*cli.Context) error
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Notes", needsDB: true, run: checkNotes},
	{name: "Focus records", needsDB: true, run: checkHabits},
	{name: "Body records", needsDB: true, run: checkHealth},
	{name: "Active session", needsDB: true, run: checkActiveSession},
	{name: "Clock/timezone", run: func(*cli.Context) error { return checkClockTimezone() }},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	hasError := false
	dbReachable := false

	for i, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(ctx.Out, "✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Fprintf(ctx.Out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(ctx.Out, "   %v\n", err)
		default:
			fmt.Fprintf(ctx.Out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
			hasError = true
		}
		if i == 0 {
			dbReachable = err == nil
		}
	}

	fmt.Fprintln(ctx.Out)
	if hasError {
		fmt.Fprintln(ctx.Out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(ctx.Out, "All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sv, ok := ctx.Store.(schemaVersioner)
	if !ok {
		// JSON store has no schema
		return nil
	}
	current, latest, err := sv.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := ctx.BackupManager()
	if mgr == nil {
		return nil
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'markease backup create'")
	}
	return nil
}

// readRaw decodes key strictly. The record store degrades corrupt data to
// empty, so this is the only place a parse error becomes visible.
func readRaw(ctx *cli.Context, key string, v any) (bool, error) {
	data, err := ctx.Store.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%s is not valid JSON: %w", key, err)
	}
	return true, nil
}

func checkNotes(ctx *cli.Context) error {
	var notes []models.Note
	if _, err := readRaw(ctx, constants.NotesKey, &notes); err != nil {
		return err
	}
	seen := make(map[string]bool, len(notes))
	for _, n := range notes {
		if n.ID == "" {
			return fmt.Errorf("found a note without an id")
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate note ID found: %s", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}

func checkHabits(ctx *cli.Context) error {
	var habits models.HabitMap
	if _, err := readRaw(ctx, constants.HabitsKey, &habits); err != nil {
		return err
	}
	for key, r := range habits {
		if err := checkDateKey(key, r.Date); err != nil {
			return err
		}
		if r.DurationMinutes < 0 {
			return fmt.Errorf("record %s has a negative duration", key)
		}
		if r.HasFocus() && r.EndTime < r.StartTime {
			return fmt.Errorf("record %s ends before it starts", key)
		}
	}
	return nil
}

func checkHealth(ctx *cli.Context) error {
	var health models.HealthMap
	if _, err := readRaw(ctx, constants.HealthKey, &health); err != nil {
		return err
	}
	for key, r := range health {
		if err := checkDateKey(key, r.Date); err != nil {
			return err
		}
	}
	return nil
}

func checkDateKey(key, date string) error {
	if _, err := time.Parse(constants.DateFormat, key); err != nil {
		return fmt.Errorf("invalid date key %q", key)
	}
	if date != key {
		return fmt.Errorf("record %s carries mismatched date %q", key, date)
	}
	return nil
}

func checkActiveSession(ctx *cli.Context) error {
	ms, ok := ctx.Records().ActiveSession()
	if !ok {
		return nil
	}
	if start := models.FromMillis(ms); start.After(ctx.Now()) {
		return fmt.Errorf("running session starts in the future (%s)", start.Format(time.RFC3339))
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
