// Package habit tracks daily focus sessions and the journal notes attached
// to each day.
package habit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/storage"
)

var (
	ErrAlreadyRunning = errors.New("a focus session is already running")
	ErrNotRunning     = errors.New("no focus session is running")
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Notifier is told about every completed session.
type Notifier interface {
	SessionLogged(ctx context.Context, rec models.HabitRecord, minutes int) error
}

// Summary totals the days that have focus time.
type Summary struct {
	TotalMinutes int
	Hours        float64 // one decimal
	Days         int
}

type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// WithTickInterval sets the period of Ticks.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) { t.tickInterval = d }
}

// Tracker is the Idle/Running session state machine. The running session's
// start is persisted so it survives restarts.
type Tracker struct {
	mu           sync.Mutex
	store        *storage.RecordStore
	habits       storage.Collection[models.HabitRecord]
	now          func() time.Time
	notifier     Notifier
	tickInterval time.Duration

	start   time.Time
	running bool
	stopped chan struct{} // closed when the current session ends
}

// New creates a tracker and resumes a persisted session, if any.
func New(store *storage.RecordStore, opts ...Option) *Tracker {
	t := &Tracker{
		store:        store,
		habits:       store.Habits(),
		now:          time.Now,
		tickInterval: constants.TickInterval,
	}
	for _, opt := range opts {
		opt(t)
	}

	if ms, ok := store.ActiveSession(); ok {
		t.start = models.FromMillis(ms)
		t.running = true
		t.stopped = make(chan struct{})
		logger.Info("Resumed focus session", "start", t.start.Format(time.RFC3339))
	}
	return t
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return Running
	}
	return Idle
}

// Elapsed is the time since the running session started, or 0 when idle.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Tracker) elapsedLocked() time.Duration {
	if !t.running {
		return 0
	}
	if d := t.now().Sub(t.start); d > 0 {
		return d
	}
	return 0
}

// StartedAt returns the running session's start.
func (t *Tracker) StartedAt() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.start, t.running
}

// Start begins a session and persists its start.
func (t *Tracker) Start() (time.Time, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return time.Time{}, ErrAlreadyRunning
	}

	start := t.now()
	if err := t.store.SetActiveSession(models.ToMillis(start)); err != nil {
		return time.Time{}, err
	}
	t.start = start
	t.running = true
	t.stopped = make(chan struct{})

	logger.Info("Focus session started", "start", start.Format(time.RFC3339))
	return start, nil
}

// Stop ends the session and credits it to today's record. Every session
// counts for at least one minute.
func (t *Tracker) Stop() (models.HabitRecord, error) {
	t.mu.Lock()

	if !t.running {
		t.mu.Unlock()
		return models.HabitRecord{}, ErrNotRunning
	}

	end := t.now()
	startMs := models.ToMillis(t.start)
	endMs := models.ToMillis(end)
	minutes := int(math.Max(constants.MinSessionMinutes, math.Floor(float64(endMs-startMs)/60000)))
	date := end.Format(constants.DateFormat)

	all, err := t.habits.Load()
	if err != nil {
		t.mu.Unlock()
		return models.HabitRecord{}, fmt.Errorf("failed to save session: %w", err)
	}
	rec := models.HabitRecord{
		Date:            date,
		StartTime:       startMs,
		EndTime:         endMs,
		DurationMinutes: minutes,
	}
	if existing, ok := all[date]; ok {
		rec.Note = existing.Note
		rec.DurationMinutes += existing.DurationMinutes
		if existing.HasFocus() {
			rec.StartTime = existing.StartTime
		}
	}

	// The session stays running until its minutes are stored.
	if _, err := t.habits.Put(date, rec); err != nil {
		t.mu.Unlock()
		return models.HabitRecord{}, fmt.Errorf("failed to save session: %w", err)
	}
	if err := t.store.ClearActiveSession(); err != nil {
		logger.Warn("Session saved but its start marker remains", "error", err)
	}
	t.running = false
	t.start = time.Time{}
	close(t.stopped)
	notifier := t.notifier
	t.mu.Unlock()

	logger.Info("Focus session stopped", "date", date, "minutes", minutes, "total", rec.DurationMinutes)

	if notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := notifier.SessionLogged(ctx, rec, minutes); err != nil {
			logger.Warn("Failed to send session notification", "error", err)
		}
	}
	return rec, nil
}

// Ticks emits the elapsed time once per tick interval while a session is
// running. The channel closes when ctx is done or the session stops.
func (t *Tracker) Ticks(ctx context.Context) <-chan time.Duration {
	out := make(chan time.Duration)

	t.mu.Lock()
	running, stopped, interval := t.running, t.stopped, t.tickInterval
	t.mu.Unlock()

	if !running {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopped:
				return
			case <-ticker.C:
				select {
				case out <- t.Elapsed():
				case <-ctx.Done():
					return
				case <-stopped:
					return
				}
			}
		}
	}()
	return out
}

// SetNote attaches a journal note to date without touching its duration.
func (t *Tracker) SetNote(date, note string) (models.HabitRecord, error) {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return models.HabitRecord{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.habits.Load()
	if err != nil {
		return models.HabitRecord{}, fmt.Errorf("failed to save note: %w", err)
	}
	rec, ok := all[date]
	if !ok {
		rec = models.HabitRecord{Date: date}
	}
	rec.Note = note

	if _, err := t.habits.Put(date, rec); err != nil {
		return models.HabitRecord{}, fmt.Errorf("failed to save note: %w", err)
	}
	return rec, nil
}

// Today returns today's record, which may be empty.
func (t *Tracker) Today() models.HabitRecord {
	date := t.now().Format(constants.DateFormat)
	if rec, ok := t.habits.Get()[date]; ok {
		return rec
	}
	return models.HabitRecord{Date: date}
}

// Records returns every stored record sorted by date.
func (t *Tracker) Records() []models.HabitRecord {
	all := t.habits.Get()
	out := make([]models.HabitRecord, 0, len(all))
	for _, r := range all {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ValidRecords returns the records with focus time.
func (t *Tracker) ValidRecords() []models.HabitRecord {
	var out []models.HabitRecord
	for _, r := range t.Records() {
		if r.HasFocus() {
			out = append(out, r)
		}
	}
	return out
}

func (t *Tracker) Summary() Summary {
	var s Summary
	for _, r := range t.ValidRecords() {
		s.TotalMinutes += r.DurationMinutes
		s.Days++
	}
	s.Hours = math.Round(float64(s.TotalMinutes)/60*10) / 10
	return s
}

// Journal lists days entries ending at anchor, newest first. Days without
// a record are returned as empty records.
func (t *Tracker) Journal(anchor time.Time, days int) []models.HabitRecord {
	if days <= 0 {
		days = constants.DefaultJournalDays
	}
	all := t.habits.Get()
	out := make([]models.HabitRecord, 0, days)
	for i := 0; i < days; i++ {
		date := anchor.AddDate(0, 0, -i).Format(constants.DateFormat)
		if rec, ok := all[date]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, models.HabitRecord{Date: date})
	}
	return out
}

// FormatElapsed renders d as [h:]mm:ss.
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatMinutes renders minutes as "45m" or "1.5h".
func FormatMinutes(mins int) string {
	if mins >= 60 {
		return fmt.Sprintf("%.1fh", float64(mins)/60)
	}
	return fmt.Sprintf("%dm", mins)
}
