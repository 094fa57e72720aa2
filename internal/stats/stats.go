// Package stats groups daily records into week buckets for charting.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
)

// Window is the number of trailing weeks returned by the aggregators.
const Window = 8

// WeekBucket is one week of body measurements. Metrics with no data are 0.
type WeekBucket struct {
	Key     string
	Label   string
	BodyFat float64 // mean, 1 dp
	Weight  float64 // mean, 1 dp
	Height  float64 // latest
	Waist   float64 // latest snapshot with a waist
}

// FocusWeek is one week of habit totals.
type FocusWeek struct {
	Key     string
	Label   string
	Minutes int
	Days    int
}

// WeekKey returns the bucket key ("2024-W9") and short label ("W9") for a
// YYYY-MM-DD date.
//
// The week number is ceil((dayOfYear + jan1Weekday + 1) / 7) with a 1-based
// day of year and Sunday = 0. This is not ISO-8601 and days near the turn
// of the year can land in different buckets than ISO would put them.
func WeekKey(date string) (string, string, error) {
	d, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return "", "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	jan1 := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	n := (d.YearDay() + int(jan1.Weekday()) + 1 + 6) / 7
	return fmt.Sprintf("%d-W%d", d.Year(), n), fmt.Sprintf("W%d", n), nil
}

type healthAcc struct {
	key, label string
	bodyFat    []float64
	weight     []float64
	height     []float64
	dims       []models.Dimensions
}

// WeeklyHealth buckets records by week and reduces each bucket. Only the
// last Window buckets are returned, oldest first.
func WeeklyHealth(records []models.HealthRecord) []WeekBucket {
	sorted := append([]models.HealthRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var order []*healthAcc
	byKey := make(map[string]*healthAcc)
	for _, r := range sorted {
		key, label, err := WeekKey(r.Date)
		if err != nil {
			logger.Warn("Skipping health record", "date", r.Date, "error", err)
			continue
		}
		acc, ok := byKey[key]
		if !ok {
			acc = &healthAcc{key: key, label: label}
			byKey[key] = acc
			order = append(order, acc)
		}
		if v := models.Value(r.BodyFat); v > 0 {
			acc.bodyFat = append(acc.bodyFat, v)
		}
		if v := models.Value(r.Weight); v > 0 {
			acc.weight = append(acc.weight, v)
		}
		if v := models.Value(r.Height); v > 0 {
			acc.height = append(acc.height, v)
		}
		if len(r.Dimensions) > 0 {
			acc.dims = append(acc.dims, r.Dimensions)
		}
	}

	out := make([]WeekBucket, 0, len(order))
	for _, acc := range order {
		b := WeekBucket{
			Key:     acc.key,
			Label:   acc.label,
			BodyFat: round1(mean(acc.bodyFat)),
			Weight:  round1(mean(acc.weight)),
		}
		if n := len(acc.height); n > 0 {
			b.Height = acc.height[n-1]
		}
		for i := len(acc.dims) - 1; i >= 0; i-- {
			if w, ok := acc.dims[i][models.Waist]; ok && w > 0 {
				b.Waist = w
				break
			}
		}
		out = append(out, b)
	}
	return trailing(out)
}

// WeeklyFocus sums focus minutes and active days per week over records
// with a positive duration.
func WeeklyFocus(records []models.HabitRecord) []FocusWeek {
	sorted := append([]models.HabitRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var out []FocusWeek
	index := make(map[string]int)
	for _, r := range sorted {
		if !r.HasFocus() {
			continue
		}
		key, label, err := WeekKey(r.Date)
		if err != nil {
			logger.Warn("Skipping habit record", "date", r.Date, "error", err)
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, FocusWeek{Key: key, Label: label})
		}
		out[i].Minutes += r.DurationMinutes
		out[i].Days++
	}
	return trailing(out)
}

func trailing[T any](s []T) []T {
	if len(s) > Window {
		return s[len(s)-Window:]
	}
	return s
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
