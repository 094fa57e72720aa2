package habit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/sqlite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	minutes []int
	err     error
}

func (n *recordingNotifier) SessionLogged(_ context.Context, _ models.HabitRecord, minutes int) error {
	n.minutes = append(n.minutes, minutes)
	return n.err
}

func setupStore(t *testing.T) *storage.RecordStore {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return storage.NewRecordStore(store)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)}
}

func TestShortSessionCreditsOneMinute(t *testing.T) {
	rs := setupStore(t)
	clock := newClock()
	tr := New(rs, WithClock(clock.Now))

	start, err := tr.Start()
	require.NoError(t, err)
	assert.Equal(t, Running, tr.State())

	clock.Advance(90 * time.Second)
	rec, err := tr.Stop()
	require.NoError(t, err)
	assert.Equal(t, Idle, tr.State())

	assert.Equal(t, "2024-03-01", rec.Date)
	assert.Equal(t, 1, rec.DurationMinutes)
	assert.Equal(t, models.ToMillis(start), rec.StartTime)
	assert.Equal(t, models.ToMillis(start)+90000, rec.EndTime)

	_, ok := rs.ActiveSession()
	assert.False(t, ok, "stop clears the persisted session")
	assert.Equal(t, rec, rs.Habits().Get()["2024-03-01"])
}

func TestSecondSessionAccumulates(t *testing.T) {
	rs := setupStore(t)
	clock := newClock()
	tr := New(rs, WithClock(clock.Now))

	first, err := tr.Start()
	require.NoError(t, err)
	clock.Advance(90 * time.Second)
	_, err = tr.Stop()
	require.NoError(t, err)

	_, err = tr.SetNote("2024-03-01", "deep work")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = tr.Start()
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	rec, err := tr.Stop()
	require.NoError(t, err)

	assert.Equal(t, 11, rec.DurationMinutes)
	assert.Equal(t, models.ToMillis(first), rec.StartTime, "first start is kept")
	assert.Equal(t, models.ToMillis(clock.Now()), rec.EndTime)
	assert.Equal(t, "deep work", rec.Note)
}

func TestStopOnNoteOnlyDay(t *testing.T) {
	rs := setupStore(t)
	clock := newClock()
	tr := New(rs, WithClock(clock.Now))

	_, err := tr.SetNote("2024-03-01", "plan")
	require.NoError(t, err)

	start, err := tr.Start()
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	rec, err := tr.Stop()
	require.NoError(t, err)

	assert.Equal(t, 5, rec.DurationMinutes)
	assert.Equal(t, models.ToMillis(start), rec.StartTime)
	assert.Equal(t, "plan", rec.Note)
}

// failingWrites rejects writes to the habits key while fail is set.
type failingWrites struct {
	storage.Provider
	fail bool
}

var errDiskFull = errors.New("disk full")

func (p *failingWrites) Set(key string, value []byte) error {
	if p.fail && key == constants.HabitsKey {
		return errDiskFull
	}
	return p.Provider.Set(key, value)
}

func TestStopKeepsSessionWhenSaveFails(t *testing.T) {
	sq := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, sq.Init())
	t.Cleanup(func() { sq.Close() })
	p := &failingWrites{Provider: sq}
	rs := storage.NewRecordStore(p)

	clock := newClock()
	tr := New(rs, WithClock(clock.Now))
	start, err := tr.Start()
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)

	p.fail = true
	_, err = tr.Stop()
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, Running, tr.State())
	ms, ok := rs.ActiveSession()
	require.True(t, ok, "start marker survives a failed save")
	assert.Equal(t, models.ToMillis(start), ms)
	assert.Empty(t, rs.Habits().Get())

	p.fail = false
	clock.Advance(5 * time.Minute)
	rec, err := tr.Stop()
	require.NoError(t, err)
	assert.Equal(t, 25, rec.DurationMinutes)
	assert.Equal(t, Idle, tr.State())
	_, ok = rs.ActiveSession()
	assert.False(t, ok)
}

func TestStateErrors(t *testing.T) {
	rs := setupStore(t)
	tr := New(rs, WithClock(newClock().Now))

	_, err := tr.Stop()
	assert.True(t, errors.Is(err, ErrNotRunning))

	_, err = tr.Start()
	require.NoError(t, err)
	_, err = tr.Start()
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
}

func TestResumeAfterRestart(t *testing.T) {
	rs := setupStore(t)
	clock := newClock()

	_, err := New(rs, WithClock(clock.Now)).Start()
	require.NoError(t, err)

	clock.Advance(25 * time.Minute)
	resumed := New(rs, WithClock(clock.Now))
	assert.Equal(t, Running, resumed.State())
	assert.Equal(t, 25*time.Minute, resumed.Elapsed())

	rec, err := resumed.Stop()
	require.NoError(t, err)
	assert.Equal(t, 25, rec.DurationMinutes)
}

func TestElapsedIdle(t *testing.T) {
	tr := New(setupStore(t))
	assert.Zero(t, tr.Elapsed())
	assert.Equal(t, Idle, tr.State())
}

func TestTicksStopWithSession(t *testing.T) {
	rs := setupStore(t)
	tr := New(rs, WithTickInterval(5*time.Millisecond))

	idle := tr.Ticks(context.Background())
	_, open := <-idle
	assert.False(t, open, "idle tracker yields a closed channel")

	_, err := tr.Start()
	require.NoError(t, err)

	ticks := tr.Ticks(context.Background())
	select {
	case d, ok := <-ticks:
		require.True(t, ok)
		assert.GreaterOrEqual(t, d, time.Duration(0))
	case <-time.After(time.Second):
		t.Fatal("no tick while running")
	}

	_, err = tr.Stop()
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("ticks not closed after stop")
		}
	}
}

func TestTicksStopWithContext(t *testing.T) {
	tr := New(setupStore(t), WithTickInterval(5*time.Millisecond))
	_, err := tr.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ticks := tr.Ticks(ctx)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				assert.Equal(t, Running, tr.State(), "cancel does not touch the session")
				return
			}
		case <-deadline:
			t.Fatal("ticks not closed after cancel")
		}
	}
}

func TestSetNote(t *testing.T) {
	rs := setupStore(t)
	tr := New(rs)

	rec, err := tr.SetNote("2024-02-10", "rest day")
	require.NoError(t, err)
	assert.Equal(t, models.HabitRecord{Date: "2024-02-10", Note: "rest day"}, rec)

	_, err = rs.Habits().Put("2024-02-11", models.HabitRecord{Date: "2024-02-11", StartTime: 1, EndTime: 2, DurationMinutes: 30})
	require.NoError(t, err)
	rec, err = tr.SetNote("2024-02-11", "good")
	require.NoError(t, err)
	assert.Equal(t, 30, rec.DurationMinutes)
	assert.Equal(t, int64(1), rec.StartTime)

	_, err = tr.SetNote("yesterday", "x")
	assert.Error(t, err)
}

func TestSummaryAndValidRecords(t *testing.T) {
	rs := setupStore(t)
	tr := New(rs)

	for _, r := range []models.HabitRecord{
		{Date: "2024-03-02", DurationMinutes: 45},
		{Date: "2024-03-01", DurationMinutes: 60},
		{Date: "2024-03-03", Note: "note only"},
	} {
		_, err := rs.Habits().Put(r.Date, r)
		require.NoError(t, err)
	}

	valid := tr.ValidRecords()
	require.Len(t, valid, 2)
	assert.Equal(t, "2024-03-01", valid[0].Date)
	assert.Len(t, tr.Records(), 3)

	assert.Equal(t, Summary{TotalMinutes: 105, Hours: 1.8, Days: 2}, tr.Summary())
}

func TestJournal(t *testing.T) {
	rs := setupStore(t)
	tr := New(rs)
	_, err := tr.SetNote("2024-02-28", "leap prep")
	require.NoError(t, err)

	anchor := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	got := tr.Journal(anchor, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-01", got[0].Date)
	assert.Equal(t, "2024-02-29", got[1].Date)
	assert.Equal(t, "leap prep", got[2].Note)

	assert.Len(t, tr.Journal(anchor, 0), 14)
}

func TestNotifierCalledOnStop(t *testing.T) {
	clock := newClock()
	n := &recordingNotifier{err: errors.New("tray offline")}
	tr := New(setupStore(t), WithClock(clock.Now), WithNotifier(n))

	_, err := tr.Start()
	require.NoError(t, err)
	clock.Advance(3 * time.Minute)
	_, err = tr.Stop()
	require.NoError(t, err, "notifier failures are not returned")
	assert.Equal(t, []int{3}, n.minutes)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "01:05", FormatElapsed(65*time.Second))
	assert.Equal(t, "1:01:05", FormatElapsed(time.Hour+65*time.Second))
	assert.Equal(t, "45m", FormatMinutes(45))
	assert.Equal(t, "1.5h", FormatMinutes(90))
}
