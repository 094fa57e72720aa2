package models

import (
	"fmt"
	"strings"
)

// Gender selects the body-fat formula
type Gender string

// BodyPart is a circumference measurement site
type BodyPart string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"

	Neck  BodyPart = "neck"
	Chest BodyPart = "chest"
	Waist BodyPart = "waist"
	Hips  BodyPart = "hips"
	Arm   BodyPart = "arm"
	Thigh BodyPart = "thigh"
)

// BodyParts lists the measurement sites in display order.
var BodyParts = []BodyPart{Neck, Chest, Waist, Hips, Arm, Thigh}

// Dimensions maps a body part to its circumference in centimeters
type Dimensions map[BodyPart]float64

// HealthRecord holds one day's body measurements
type HealthRecord struct {
	Date       string     `json:"date"` // YYYY-MM-DD format
	Gender     Gender     `json:"gender,omitempty"`
	Height     *float64   `json:"height,omitempty"`  // cm
	Weight     *float64   `json:"weight,omitempty"`  // kg
	BodyFat    *float64   `json:"bodyFat,omitempty"` // %, derived
	Dimensions Dimensions `json:"dimensions,omitempty"`
}

// HealthMap maps a date to its record
type HealthMap map[string]HealthRecord

// HealthUpdate is a partial update for one day. Nil fields and absent
// dimension keys leave the stored values alone. Body fat is derived and
// therefore not settable here.
type HealthUpdate struct {
	Date       string
	Gender     *Gender
	Height     *float64
	Weight     *float64
	Dimensions Dimensions
}

// Dimension returns the measurement for part if present.
func (r HealthRecord) Dimension(part BodyPart) (float64, bool) {
	v, ok := r.Dimensions[part]
	return v, ok
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Value dereferences p, returning 0 for nil.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ParseGender parses "male"/"female" (case-insensitive, "m"/"f" accepted).
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("invalid gender: %q (expected male or female)", s)
	}
}

// ParseBodyPart validates a body part key.
func ParseBodyPart(s string) (BodyPart, error) {
	p := BodyPart(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range BodyParts {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown body part: %q", s)
}
