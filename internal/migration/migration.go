// Package migration applies the numbered SQL files embedded under
// migrations/ and records each applied file in a history table.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

const historyTable = "applied_migrations"

// ErrSchemaTooNew is returned when the database was migrated by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build of markease")

type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status compares the history table with the embedded files.
type Status struct {
	Current int
	Latest  int
	Pending []Migration
}

func (s Status) UpToDate() bool { return len(s.Pending) == 0 && s.Current == s.Latest }

type LogFunc func(msg string, keyvals ...any)

type Runner struct {
	db    *sql.DB
	files fs.FS
	bind  string
	log   LogFunc
	now   func() time.Time
}

type Option func(*Runner)

// WithPlaceholder sets the first bind parameter ("?" or "$1").
func WithPlaceholder(p string) Option {
	return func(r *Runner) { r.bind = p }
}

func WithLogger(fn LogFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.log = fn
		}
	}
}

func NewRunner(db *sql.DB, files fs.FS, opts ...Option) *Runner {
	r := &Runner{
		db:    db,
		files: files,
		bind:  "?",
		log:   func(string, ...any) {},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// bindN renders the nth bind parameter in the runner's dialect.
func (r *Runner) bindN(n int) string {
	if strings.HasPrefix(r.bind, "$") {
		return "$" + strconv.Itoa(n)
	}
	return r.bind
}

func (r *Runner) recordSQL() string {
	return fmt.Sprintf("INSERT INTO %s (version, name, applied_at) VALUES (%s, %s, %s)",
		historyTable, r.bindN(1), r.bindN(2), r.bindN(3))
}

func (r *Runner) ensureHistory() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", historyTable, err)
	}
	return nil
}

// Current returns the highest applied version, 0 for a fresh database.
func (r *Runner) Current() (int, error) {
	if err := r.ensureHistory(); err != nil {
		return 0, err
	}
	var v sql.NullInt64
	if err := r.db.QueryRow("SELECT MAX(version) FROM " + historyTable).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func parseName(file string) (int, string, error) {
	num, name, ok := strings.Cut(strings.TrimSuffix(file, ".sql"), "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("migration %s: expected NNN_name.sql", file)
	}
	v, err := strconv.Atoi(num)
	if err != nil || v < 1 {
		return 0, "", fmt.Errorf("migration %s: version must be a positive number", file)
	}
	return v, name, nil
}

// Migrations lists the embedded files in version order.
func (r *Runner) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		v, name, err := parseName(e.Name())
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(r.files, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: v, Name: name, SQL: string(body)})
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", out[i].Version, out[i-1].Name, out[i].Name)
		}
	}
	return out, nil
}

func (r *Runner) Status() (Status, error) {
	current, err := r.Current()
	if err != nil {
		return Status{}, err
	}
	all, err := r.Migrations()
	if err != nil {
		return Status{}, err
	}

	st := Status{Current: current}
	if n := len(all); n > 0 {
		st.Latest = all[n-1].Version
	}
	for _, m := range all {
		if m.Version > current {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

// Check fails with ErrSchemaTooNew when the database is ahead of the files.
func (r *Runner) Check() (Status, error) {
	st, err := r.Status()
	if err != nil {
		return st, err
	}
	if st.Current > st.Latest {
		return st, fmt.Errorf("%w (database %d, supported %d)", ErrSchemaTooNew, st.Current, st.Latest)
	}
	return st, nil
}

// Up applies pending migrations, one transaction each, and returns how many ran.
func (r *Runner) Up() (int, error) {
	st, err := r.Check()
	if err != nil {
		return 0, err
	}
	if len(st.Pending) == 0 {
		r.log("Schema up to date", "version", st.Current)
		return 0, nil
	}

	r.log("Migrating schema", "from", st.Current, "to", st.Latest, "pending", len(st.Pending))
	start := r.now()
	for i, m := range st.Pending {
		if err := r.apply(m); err != nil {
			return i, err
		}
		r.log("Applied migration", "version", m.Version, "name", m.Name)
	}
	r.log("Schema migrated", "applied", len(st.Pending), "took", r.now().Sub(start))
	return len(st.Pending), nil
}

func (r *Runner) apply(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.Exec(r.recordSQL(), m.Version, m.Name, r.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("migration %d: failed to record: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: failed to commit: %w", m.Version, err)
	}
	return nil
}
