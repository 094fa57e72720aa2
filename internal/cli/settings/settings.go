package settings

import (
	"fmt"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
)

type SettingsCmd struct {
	List bool   `help:"List current settings."`
	Lang string `help:"Set the interface language (en, zh)."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	if c.Lang != "" {
		lang, err := models.ParseLanguage(c.Lang)
		if err != nil {
			return err
		}
		if err := ctx.Records().SetLanguage(lang); err != nil {
			return fmt.Errorf("failed to save language: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Language set to %s.\n", lang)
		return nil
	}

	if !c.List {
		fmt.Fprintln(ctx.Out, "No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	cfg := ctx.Config
	fmt.Fprintln(ctx.Out, "Current Settings:")
	fmt.Fprintf(ctx.Out, "  Language:        %s\n", ctx.Lang())
	fmt.Fprintf(ctx.Out, "  Storage:         %s\n", ctx.Store.GetConfigPath())
	if path := logger.Path(); path != "" {
		fmt.Fprintf(ctx.Out, "  Log file:        %s\n", path)
	}
	fmt.Fprintln(ctx.Out, "\nAssistant:")
	fmt.Fprintf(ctx.Out, "  Model:           %s\n", cfg.AI.Model)
	fmt.Fprintf(ctx.Out, "  Base URL:        %s\n", cfg.AI.BaseURL)
	fmt.Fprintf(ctx.Out, "  Timeout:         %s\n", cfg.AI.Timeout)
	fmt.Fprintln(ctx.Out, "\nNotes:")
	fmt.Fprintf(ctx.Out, "  Autosave delay:  %s\n", cfg.Notes.AutosaveDelay)
	fmt.Fprintf(ctx.Out, "  Export dir:      %s\n", cfg.Notes.ExportDir)
	fmt.Fprintln(ctx.Out, "\nFocus:")
	fmt.Fprintf(ctx.Out, "  Notifications:   %v\n", cfg.Habit.Notify)
	return nil
}
