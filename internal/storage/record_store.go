package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
)

// RecordStore layers typed, fail-soft collections over a Provider.
//
// Reads never fail: a missing key, an unreadable backend or malformed JSON
// all degrade to an empty collection and a log line. Writes overwrite the
// whole collection, so they read strictly first and abort on a backend
// error rather than replace stored records with an empty collection.
type RecordStore struct {
	provider Provider
}

func NewRecordStore(p Provider) *RecordStore {
	return &RecordStore{provider: p}
}

// Provider returns the underlying backend.
func (s *RecordStore) Provider() Provider {
	return s.provider
}

// loadJSON decodes key into v. A missing key or malformed JSON leaves v
// untouched and returns found=false; backend failures are returned.
func (s *RecordStore) loadJSON(key string, v any) (found bool, err error) {
	data, err := s.provider.Get(key)
	if errors.Is(err, ErrNotFound) {
		logger.Debug("No stored records", "key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("Failed to parse records", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// readJSON is the fail-soft form of loadJSON.
func (s *RecordStore) readJSON(key string, v any) bool {
	found, err := s.loadJSON(key, v)
	if err != nil {
		logger.Warn("Failed to load records", "key", key, "error", err)
		return false
	}
	return found
}

func (s *RecordStore) writeJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	if err := s.provider.Set(key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Collection is a namespaced mapping from id (usually a date) to record.
type Collection[T any] struct {
	store *RecordStore
	key   string
}

// NewCollection binds a collection to a store key.
func NewCollection[T any](s *RecordStore, key string) Collection[T] {
	return Collection[T]{store: s, key: key}
}

// Key returns the store key backing the collection.
func (c Collection[T]) Key() string {
	return c.key
}

// Get returns the whole mapping, or an empty one if it cannot be read.
func (c Collection[T]) Get() map[string]T {
	m := make(map[string]T)
	if !c.store.readJSON(c.key, &m) || m == nil {
		return make(map[string]T)
	}
	return m
}

// Load is Get for read-modify-write callers: a missing or malformed value
// is still an empty mapping, but backend errors are reported.
func (c Collection[T]) Load() (map[string]T, error) {
	m := make(map[string]T)
	found, err := c.store.loadJSON(c.key, &m)
	if err != nil {
		return nil, err
	}
	if !found || m == nil {
		return make(map[string]T), nil
	}
	return m, nil
}

// Put stores rec under id and returns the updated mapping.
func (c Collection[T]) Put(id string, rec T) (map[string]T, error) {
	m, err := c.Load()
	if err != nil {
		return nil, err
	}
	m[id] = rec
	if err := c.store.writeJSON(c.key, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes id and returns the updated mapping.
func (c Collection[T]) Delete(id string) (map[string]T, error) {
	m, err := c.Load()
	if err != nil {
		return nil, err
	}
	if _, ok := m[id]; !ok {
		return m, nil
	}
	delete(m, id)
	if err := c.store.writeJSON(c.key, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Replace overwrites the whole mapping.
func (c Collection[T]) Replace(m map[string]T) error {
	return c.store.writeJSON(c.key, m)
}

// Habits returns the per-date focus records.
func (s *RecordStore) Habits() Collection[models.HabitRecord] {
	return NewCollection[models.HabitRecord](s, constants.HabitsKey)
}

// Health returns the per-date body measurement records.
func (s *RecordStore) Health() Collection[models.HealthRecord] {
	return NewCollection[models.HealthRecord](s, constants.HealthKey)
}

// Notes returns the notes collection, newest first by insertion.
func (s *RecordStore) Notes() []models.Note {
	var notes []models.Note
	if !s.readJSON(constants.NotesKey, &notes) || notes == nil {
		return []models.Note{}
	}
	return notes
}

func (s *RecordStore) loadNotes() ([]models.Note, error) {
	var notes []models.Note
	found, err := s.loadJSON(constants.NotesKey, &notes)
	if err != nil {
		return nil, err
	}
	if !found || notes == nil {
		return []models.Note{}, nil
	}
	return notes, nil
}

// SaveNote replaces the note with the same id in place, or prepends it.
func (s *RecordStore) SaveNote(note models.Note) ([]models.Note, error) {
	notes, err := s.loadNotes()
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range notes {
		if notes[i].ID == note.ID {
			notes[i] = note
			replaced = true
			break
		}
	}
	if !replaced {
		notes = append([]models.Note{note}, notes...)
	}

	if err := s.writeJSON(constants.NotesKey, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// DeleteNote removes the note with the given id.
func (s *RecordStore) DeleteNote(id string) ([]models.Note, error) {
	notes, err := s.loadNotes()
	if err != nil {
		return nil, err
	}
	kept := notes[:0]
	for _, n := range notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if err := s.writeJSON(constants.NotesKey, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// ActiveSession returns the persisted timer start in ms, if any.
func (s *RecordStore) ActiveSession() (int64, bool) {
	data, err := s.provider.Get(constants.ActiveSessionKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("Failed to load active session", "error", err)
		}
		return 0, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || ms <= 0 {
		logger.Warn("Ignoring malformed active session", "value", string(data))
		return 0, false
	}
	return ms, true
}

// SetActiveSession persists the timer start in ms.
func (s *RecordStore) SetActiveSession(startMs int64) error {
	if err := s.provider.Set(constants.ActiveSessionKey, []byte(strconv.FormatInt(startMs, 10))); err != nil {
		return fmt.Errorf("failed to persist active session: %w", err)
	}
	return nil
}

// ClearActiveSession removes the persisted timer start.
func (s *RecordStore) ClearActiveSession() error {
	if err := s.provider.Delete(constants.ActiveSessionKey); err != nil {
		return fmt.Errorf("failed to clear active session: %w", err)
	}
	return nil
}

// Language returns the stored locale, or the default.
func (s *RecordStore) Language() models.Language {
	data, err := s.provider.Get(constants.LanguageKey)
	if err != nil {
		return models.DefaultLanguage
	}
	lang, err := models.ParseLanguage(strings.TrimSpace(string(data)))
	if err != nil {
		logger.Warn("Ignoring stored language", "value", string(data), "error", err)
		return models.DefaultLanguage
	}
	return lang
}

// SetLanguage stores the locale preference.
func (s *RecordStore) SetLanguage(lang models.Language) error {
	if err := s.provider.Set(constants.LanguageKey, []byte(lang)); err != nil {
		return fmt.Errorf("failed to save language: %w", err)
	}
	return nil
}

// Snapshot returns every raw record keyed by store key.
func (s *RecordStore) Snapshot() (map[string][]byte, error) {
	keys, err := s.provider.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, err := s.provider.Get(k)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Restore writes every record from a snapshot.
func (s *RecordStore) Restore(snapshot map[string][]byte) error {
	for k, v := range snapshot {
		if err := s.provider.Set(k, v); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}
	return nil
}
