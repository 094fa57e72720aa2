// Package notes manages the markdown notes collection.
package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/i18n"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/storage"
)

var ErrNotFound = errors.New("note not found")

type Service struct {
	store *storage.RecordStore
	now   func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store *storage.RecordStore, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a note at the top of the list. Empty title or content use
// the localized defaults.
func (s *Service) Create(title, content string) (models.Note, error) {
	lang := s.store.Language()
	if strings.TrimSpace(title) == "" {
		title = i18n.T(lang, i18n.NewNoteTitle)
	}
	if content == "" {
		content = i18n.T(lang, i18n.NewNoteContent)
	}

	note := models.Note{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		UpdatedAt: models.ToMillis(s.now()),
	}
	if _, err := s.store.SaveNote(note); err != nil {
		return models.Note{}, err
	}
	logger.Debug("Note created", "id", note.ID)
	return note, nil
}

// List returns the notes in stored order, newest insertion first.
func (s *Service) List() []models.Note {
	return s.store.Notes()
}

// Get finds a note by id or unique id prefix.
func (s *Service) Get(id string) (models.Note, error) {
	var match *models.Note
	for _, n := range s.store.Notes() {
		if n.ID == id {
			return n, nil
		}
		if id != "" && strings.HasPrefix(n.ID, id) {
			if match != nil {
				return models.Note{}, fmt.Errorf("ambiguous note id prefix %q", id)
			}
			n := n
			match = &n
		}
	}
	if match == nil {
		return models.Note{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *match, nil
}

// Save stores note and bumps its UpdatedAt.
func (s *Service) Save(note models.Note) (models.Note, error) {
	if note.ID == "" {
		return models.Note{}, errors.New("note id is required")
	}
	note.UpdatedAt = models.ToMillis(s.now())
	if _, err := s.store.SaveNote(note); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Service) Rename(id, title string) (models.Note, error) {
	note, err := s.Get(id)
	if err != nil {
		return models.Note{}, err
	}
	note.Title = title
	return s.Save(note)
}

func (s *Service) Delete(id string) error {
	note, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.store.DeleteNote(note.ID); err != nil {
		return err
	}
	logger.Debug("Note deleted", "id", note.ID)
	return nil
}

// Export writes the note content to dir and returns the file path.
func (s *Service) Export(id, dir string) (string, error) {
	note, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, ExportFilename(note.Title))
	if err := os.WriteFile(path, []byte(note.Content), 0644); err != nil {
		return "", fmt.Errorf("failed to export note: %w", err)
	}
	return path, nil
}

// ExportFilename maps a title to "<title with whitespace runs as _>.md".
func ExportFilename(title string) string {
	name := strings.Join(strings.Fields(title), "_")
	if name == "" {
		return "note.md"
	}
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	return name + ".md"
}

// ApplySuggestion merges an AI suggestion into content. Short suggestions
// for long content are appended on a new line; anything else replaces it.
func ApplySuggestion(content, suggestion string) string {
	n := utf8.RuneCountInString(content)
	if utf8.RuneCountInString(suggestion) < n && n > constants.AppendThreshold {
		return content + "\n" + suggestion
	}
	return suggestion
}
