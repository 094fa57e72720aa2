package models

// HabitRecord is the focus-time record for one calendar day
type HabitRecord struct {
	Date            string `json:"date"`      // YYYY-MM-DD format
	StartTime       int64  `json:"startTime"` // first session start of the day, ms
	EndTime         int64  `json:"endTime"`   // most recent session end, ms
	DurationMinutes int    `json:"durationMinutes"`
	Note            string `json:"note,omitempty"`
}

// HabitMap maps a date to its record
type HabitMap map[string]HabitRecord

// HasFocus reports whether any timed session contributed to the day.
func (r HabitRecord) HasFocus() bool {
	return r.DurationMinutes > 0
}

// HasNote reports whether the day has journal text.
func (r HabitRecord) HasNote() bool {
	return r.Note != ""
}

// IsEmpty reports whether the record carries neither focus time nor a note.
func (r HabitRecord) IsEmpty() bool {
	return !r.HasFocus() && !r.HasNote()
}
