// Package bodyfat estimates body-fat percentage with the U.S. Navy
// circumference method.
package bodyfat

import (
	"math"

	"github.com/julianstephens/markease/internal/models"
)

const (
	minPlausible = 2.0
	maxPlausible = 70.0
)

// Estimate returns the body-fat percentage for the given measurements in
// centimeters, rounded to one decimal. A hip of 0 means not measured.
//
// The second return value is false when the inputs are insufficient, the
// logarithm would be undefined, or the result falls outside (2, 70).
func Estimate(gender models.Gender, height, neck, waist, hip float64) (float64, bool) {
	if height <= 0 || neck <= 0 || waist <= 0 {
		return 0, false
	}

	var raw float64
	switch gender {
	case models.GenderFemale:
		if hip <= 0 || waist+hip-neck <= 0 {
			return 0, false
		}
		raw = 495/(1.29579-0.35004*math.Log10(waist+hip-neck)+0.22100*math.Log10(height)) - 450
	default:
		if waist <= neck {
			return 0, false
		}
		raw = 495/(1.0324-0.19077*math.Log10(waist-neck)+0.15456*math.Log10(height)) - 450
	}

	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= minPlausible || raw >= maxPlausible {
		return 0, false
	}
	return Round1(raw), true
}

// ForRecord runs Estimate against a health record's stored inputs.
func ForRecord(r models.HealthRecord) (float64, bool) {
	neck, _ := r.Dimension(models.Neck)
	waist, _ := r.Dimension(models.Waist)
	hip, _ := r.Dimension(models.Hips)
	return Estimate(r.Gender, models.Value(r.Height), neck, waist, hip)
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
