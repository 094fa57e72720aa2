package notes

import (
	"sync"
	"time"

	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
)

// AutoSaver debounces note writes: only the last note scheduled within a
// quiet window of delay is persisted.
type AutoSaver struct {
	mu      sync.Mutex
	svc     *Service
	delay   time.Duration
	timer   *time.Timer
	pending *models.Note
	gen     uint64
	onSave  func(models.Note, error)
}

func NewAutoSaver(svc *Service, delay time.Duration) *AutoSaver {
	return &AutoSaver{svc: svc, delay: delay}
}

// OnSave registers a callback run after every write, on the writer's
// goroutine and with the saver locked. fn must not call back into a.
func (a *AutoSaver) OnSave(fn func(models.Note, error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSave = fn
}

// Schedule replaces the pending note and restarts the timer.
func (a *AutoSaver) Schedule(note models.Note) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending = &note
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

func (a *AutoSaver) fire(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	a.saveLocked()
}

// Flush writes the pending note now, if any.
func (a *AutoSaver) Flush() (models.Note, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	return a.saveLocked()
}

// Pending reports whether a write is waiting.
func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Stop drops the pending note without writing it.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	a.pending = nil
}

func (a *AutoSaver) saveLocked() (models.Note, error) {
	if a.pending == nil {
		return models.Note{}, nil
	}
	note := *a.pending
	a.pending = nil

	saved, err := a.svc.Save(note)
	if err != nil {
		logger.Error("Autosave failed", "id", note.ID, "error", err)
	}
	if a.onSave != nil {
		a.onSave(saved, err)
	}
	return saved, err
}
