package bodyfat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/markease/internal/models"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name                     string
		gender                   models.Gender
		height, neck, waist, hip float64
		want                     float64
		ok                       bool
	}{
		{"male typical", models.GenderMale, 180, 38, 90, 0, 19.8, true},
		{"male lean", models.GenderMale, 180, 38, 80, 0, 12.1, true},
		{"male ignores hip", models.GenderMale, 175, 37, 85, 110, 17.7, true},
		{"female typical", models.GenderFemale, 165, 32, 75, 100, 29.9, true},
		{"female lean", models.GenderFemale, 170, 34, 60, 90, 14.3, true},
		{"empty gender uses male formula", "", 180, 38, 90, 0, 19.8, true},
		{"male waist equals neck", models.GenderMale, 180, 38, 38, 0, 0, false},
		{"male waist below neck", models.GenderMale, 180, 38, 30, 0, 0, false},
		{"male result below range", models.GenderMale, 180, 38, 39, 0, 0, false},
		{"male result above range", models.GenderMale, 150, 30, 200, 0, 0, false},
		{"female without hip", models.GenderFemale, 165, 32, 75, 0, 0, false},
		{"missing height", models.GenderMale, 0, 38, 90, 0, 0, false},
		{"missing neck", models.GenderMale, 180, 0, 90, 0, 0, false},
		{"negative waist", models.GenderMale, 180, 38, -90, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Estimate(tt.gender, tt.height, tt.neck, tt.waist, tt.hip)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEstimateRangeProperty(t *testing.T) {
	for height := 140.0; height <= 210; height += 5 {
		for neck := 28.0; neck <= 48; neck += 2 {
			for waist := neck + 1; waist <= 150; waist += 3 {
				v, ok := Estimate(models.GenderMale, height, neck, waist, 0)
				if !ok {
					assert.Zero(t, v)
					continue
				}
				assert.Greater(t, v, 2.0)
				assert.Less(t, v, 70.0)
				assert.Equal(t, Round1(v), v)
			}
		}
	}
}

func TestForRecord(t *testing.T) {
	rec := models.HealthRecord{
		Date:       "2024-03-01",
		Gender:     models.GenderMale,
		Height:     models.Float(180),
		Dimensions: models.Dimensions{models.Neck: 38, models.Waist: 90},
	}
	v, ok := ForRecord(rec)
	assert.True(t, ok)
	assert.Equal(t, 19.8, v)

	rec.Height = nil
	_, ok = ForRecord(rec)
	assert.False(t, ok)
}
