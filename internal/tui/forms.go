package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/markease/internal/ai"
	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/markdown"
	"github.com/julianstephens/markease/internal/models"
)

func validateDate(s string) error {
	if _, err := time.Parse(constants.DateFormat, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalPositive(s string) error {
	_, err := parseOptional(s)
	return err
}

// parseOptional reads a positive number; blank means "leave unchanged".
func parseOptional(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("must be a number")
	}
	if v <= 0 {
		return nil, fmt.Errorf("must be positive")
	}
	return &v, nil
}

func formatOptional(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// NewJournalForm edits the journal note for one day
func NewJournalForm(fm *JournalFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Journal · "+fm.Date).
				CharLimit(2000).
				Value(&fm.Note),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewBodyForm records one day's measurements
func NewBodyForm(fm *BodyFormModel) *huh.Form {
	measure := func(title string, v *string) huh.Field {
		return huh.NewInput().
			Title(title).
			Placeholder("unchanged").
			Value(v).
			Validate(validateOptionalPositive)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Value(&fm.Date).
				Validate(validateDate),
			huh.NewSelect[models.Gender]().
				Title("Gender").
				Options(
					huh.NewOption("Unchanged", models.Gender("")),
					huh.NewOption("Male", models.GenderMale),
					huh.NewOption("Female", models.GenderFemale),
				).
				Value(&fm.Gender),
			measure("Height (cm)", &fm.Height),
			measure("Weight (kg)", &fm.Weight),
		),
		huh.NewGroup(
			measure("Neck (cm)", &fm.Neck),
			measure("Chest (cm)", &fm.Chest),
			measure("Waist (cm)", &fm.Waist),
			measure("Hips (cm)", &fm.Hips),
			measure("Arm (cm)", &fm.Arm),
			measure("Thigh (cm)", &fm.Thigh),
		),
	).WithTheme(huh.ThemeDracula())
}

// HealthUpdate converts the form into a partial update. At least one
// measurement is required.
func (fm *BodyFormModel) HealthUpdate() (models.HealthUpdate, error) {
	u := models.HealthUpdate{Date: strings.TrimSpace(fm.Date)}
	if fm.Gender != "" {
		g := fm.Gender
		u.Gender = &g
	}

	var err error
	if u.Height, err = parseOptional(fm.Height); err != nil {
		return u, fmt.Errorf("height %w", err)
	}
	if u.Weight, err = parseOptional(fm.Weight); err != nil {
		return u, fmt.Errorf("weight %w", err)
	}

	fields := []struct {
		part models.BodyPart
		raw  string
	}{
		{models.Neck, fm.Neck},
		{models.Chest, fm.Chest},
		{models.Waist, fm.Waist},
		{models.Hips, fm.Hips},
		{models.Arm, fm.Arm},
		{models.Thigh, fm.Thigh},
	}
	for _, f := range fields {
		v, err := parseOptional(f.raw)
		if err != nil {
			return u, fmt.Errorf("%s %w", f.part, err)
		}
		if v == nil {
			continue
		}
		if u.Dimensions == nil {
			u.Dimensions = models.Dimensions{}
		}
		u.Dimensions[f.part] = *v
	}

	if u.Height == nil && u.Weight == nil && len(u.Dimensions) == 0 {
		return u, fmt.Errorf("enter at least one measurement")
	}
	return u, nil
}

// NewTitleForm names a note
func NewTitleForm(fm *TitleFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewSnippetForm picks a formatting pair for the editor cursor.
func NewSnippetForm(fm *SnippetFormModel, title string) *huh.Form {
	options := make([]huh.Option[markdown.Snippet], 0, len(markdown.Snippets))
	for _, s := range markdown.Snippets {
		options = append(options, huh.NewOption(s.Name, s))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[markdown.Snippet]().
				Title(title).
				Options(options...).
				Value(&fm.Snippet),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewAIForm picks how the assistant should rewrite the note
func NewAIForm(fm *AIFormModel, lang models.Language) *huh.Form {
	options := make([]huh.Option[ai.Preset], 0, len(ai.Presets))
	for _, p := range ai.Presets {
		options = append(options, huh.NewOption(p.Instruction(lang), p))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ai.Preset]().
				Title("Improve").
				Options(options...).
				Value(&fm.Preset),
			huh.NewInput().
				Title("Custom instruction").
				Description("Optional. Replaces the preset when set.").
				Value(&fm.Instruction),
		),
	).WithTheme(huh.ThemeDracula())
}

// instruction is the custom text when given, else the preset's.
func (fm *AIFormModel) instruction(lang models.Language) string {
	if s := strings.TrimSpace(fm.Instruction); s != "" {
		return s
	}
	return fm.Preset.Instruction(lang)
}
