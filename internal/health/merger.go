// Package health merges partial body-measurement updates into per-day
// records and keeps the derived body-fat estimate in step with its inputs.
package health

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/markease/internal/bodyfat"
	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/storage"
)

var ErrInvalidUpdate = errors.New("invalid health update")

// Merger owns the health collection.
type Merger struct {
	records storage.Collection[models.HealthRecord]
}

func NewMerger(store *storage.RecordStore) *Merger {
	return &Merger{records: store.Health()}
}

// Upsert merges update into the record for update.Date and returns the
// full mapping after persisting it.
//
// Top-level fields are overwritten when set on the update; dimensions are
// merged per body part. The body-fat estimate is refreshed afterwards.
func (m *Merger) Upsert(update models.HealthUpdate) (map[string]models.HealthRecord, error) {
	if err := validate(update); err != nil {
		return nil, err
	}

	all, err := m.records.Load()
	if err != nil {
		return nil, err
	}
	prev, exists := all[update.Date]
	if !exists {
		prev = models.HealthRecord{Date: update.Date}
	}

	merged := merge(prev, update)
	refreshBodyFat(prev, &merged)

	out, err := m.records.Put(update.Date, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to save health record for %s: %w", update.Date, err)
	}
	logger.Debug("Health record saved", "date", update.Date, "bodyFat", models.Value(merged.BodyFat))
	return out, nil
}

// Get returns the record for date.
func (m *Merger) Get(date string) (models.HealthRecord, bool) {
	rec, ok := m.records.Get()[date]
	return rec, ok
}

// Records returns every record sorted by date ascending.
func (m *Merger) Records() []models.HealthRecord {
	all := m.records.Get()
	out := make([]models.HealthRecord, 0, len(all))
	for _, r := range all {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Delete removes the record for date. Deleting a missing date is a no-op.
func (m *Merger) Delete(date string) error {
	if _, err := m.records.Delete(date); err != nil {
		return fmt.Errorf("failed to delete health record for %s: %w", date, err)
	}
	return nil
}

func validate(u models.HealthUpdate) error {
	if _, err := time.Parse(constants.DateFormat, u.Date); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidUpdate, u.Date)
	}
	if u.Gender != nil && *u.Gender != models.GenderMale && *u.Gender != models.GenderFemale {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidUpdate, *u.Gender)
	}
	if u.Height != nil && *u.Height <= 0 {
		return fmt.Errorf("%w: height must be positive", ErrInvalidUpdate)
	}
	if u.Weight != nil && *u.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrInvalidUpdate)
	}
	for part, v := range u.Dimensions {
		if _, err := models.ParseBodyPart(string(part)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
		}
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidUpdate, part)
		}
	}
	return nil
}

// merge applies u onto prev in two levels. prev is not modified.
func merge(prev models.HealthRecord, u models.HealthUpdate) models.HealthRecord {
	out := prev
	if u.Gender != nil {
		out.Gender = *u.Gender
	}
	if u.Height != nil {
		out.Height = models.Float(*u.Height)
	}
	if u.Weight != nil {
		out.Weight = models.Float(*u.Weight)
	}

	dims := make(models.Dimensions, len(prev.Dimensions)+len(u.Dimensions))
	for k, v := range prev.Dimensions {
		dims[k] = v
	}
	for k, v := range u.Dimensions {
		dims[k] = v
	}
	if len(dims) > 0 {
		out.Dimensions = dims
	} else {
		out.Dimensions = nil
	}

	if out.Gender == "" {
		out.Gender = models.GenderMale
	}
	return out
}

// refreshBodyFat runs after every merge. An accepted estimate replaces the
// stored one when its inputs changed or nothing is stored yet; a rejected
// estimate never clears a stored value.
func refreshBodyFat(prev models.HealthRecord, merged *models.HealthRecord) {
	v, ok := bodyfat.ForRecord(*merged)
	if !ok {
		return
	}
	if merged.BodyFat != nil && !inputsChanged(prev, *merged) {
		return
	}
	merged.BodyFat = models.Float(v)
}

func inputsChanged(a, b models.HealthRecord) bool {
	gender := func(g models.Gender) models.Gender {
		if g == "" {
			return models.GenderMale
		}
		return g
	}
	if gender(a.Gender) != gender(b.Gender) || models.Value(a.Height) != models.Value(b.Height) {
		return true
	}
	for _, p := range []models.BodyPart{models.Neck, models.Waist, models.Hips} {
		av, _ := a.Dimension(p)
		bv, _ := b.Dimension(p)
		if av != bv {
			return true
		}
	}
	return false
}
