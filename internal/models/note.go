package models

import "time"

// Note is a markdown document in the notes collection
type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedAt int64  `json:"updatedAt"` // ms since epoch
}

// Updated returns UpdatedAt as a time.
func (n Note) Updated() time.Time {
	return FromMillis(n.UpdatedAt)
}

// ToMillis converts t to milliseconds since the Unix epoch.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts milliseconds since the Unix epoch to a local time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
