package habits

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/constants"
	merrors "github.com/julianstephens/markease/internal/errors"
	"github.com/julianstephens/markease/internal/habit"
	"github.com/julianstephens/markease/internal/stats"
)

type HabitCmd struct {
	Start   HabitStartCmd   `cmd:"" help:"Start a focus session."`
	Stop    HabitStopCmd    `cmd:"" help:"Stop the running session and log it."`
	Status  HabitStatusCmd  `cmd:"" help:"Show the timer and today's total."`
	Note    HabitNoteCmd    `cmd:"" help:"Write the journal note for a day."`
	Journal HabitJournalCmd `cmd:"" help:"Show the journal timeline."`
	Stats   HabitStatsCmd   `cmd:"" help:"Show focus totals."`
	Weekly  HabitWeeklyCmd  `cmd:"" help:"Show weekly focus minutes."`
}

type HabitStartCmd struct{}

func (c *HabitStartCmd) Run(ctx *cli.Context) error {
	start, err := ctx.Tracker().Start()
	if errors.Is(err, habit.ErrAlreadyRunning) {
		return merrors.WithHint(err, "use 'markease habit stop' first")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Focus session started at %s\n", start.Format("15:04"))
	return nil
}

type HabitStopCmd struct{}

func (c *HabitStopCmd) Run(ctx *cli.Context) error {
	tr := ctx.Tracker()
	elapsed := tr.Elapsed()
	rec, err := tr.Stop()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Session logged (%s). Today: %s\n",
		habit.FormatElapsed(elapsed), habit.FormatMinutes(rec.DurationMinutes))
	return nil
}

type HabitStatusCmd struct{}

func (c *HabitStatusCmd) Run(ctx *cli.Context) error {
	tr := ctx.Tracker()
	if start, ok := tr.StartedAt(); ok {
		fmt.Fprintf(ctx.Out, "Running since %s (%s)\n", start.Format("15:04"), habit.FormatElapsed(tr.Elapsed()))
	} else {
		fmt.Fprintln(ctx.Out, "Idle")
	}

	today := tr.Today()
	fmt.Fprintf(ctx.Out, "Today (%s): %s\n", today.Date, habit.FormatMinutes(today.DurationMinutes))
	if today.HasNote() {
		fmt.Fprintf(ctx.Out, "Note: %s\n", today.Note)
	}
	return nil
}

type HabitNoteCmd struct {
	Text string `arg:"" help:"Journal text. Pass an empty string to clear."`
	Date string `help:"Day in YYYY-MM-DD (defaults to today)."`
}

func (c *HabitNoteCmd) Run(ctx *cli.Context) error {
	date := c.Date
	if date == "" {
		date = ctx.Today()
	}
	if _, err := ctx.Tracker().SetNote(date, c.Text); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Note saved for %s\n", date)
	return nil
}

type HabitJournalCmd struct {
	Anchor string `help:"Newest day to show in YYYY-MM-DD (defaults to today)."`
	Days   int    `help:"Number of days to show." default:"14"`
}

func (c *HabitJournalCmd) Run(ctx *cli.Context) error {
	anchor := ctx.Now()
	if c.Anchor != "" {
		t, err := time.ParseInLocation(constants.DateFormat, c.Anchor, time.Local)
		if err != nil {
			return fmt.Errorf("invalid anchor date %q: expected YYYY-MM-DD", c.Anchor)
		}
		anchor = t
	}

	today := ctx.Today()
	for _, rec := range ctx.Tracker().Journal(anchor, c.Days) {
		marker := " "
		if rec.Date == today {
			marker = "*"
		}
		duration := "-"
		if rec.HasFocus() {
			duration = habit.FormatMinutes(rec.DurationMinutes)
		}
		note := rec.Note
		if note == "" {
			note = "..."
		}
		fmt.Fprintf(ctx.Out, "%s %s  %6s  %s\n", marker, rec.Date, duration, strings.ReplaceAll(note, "\n", " "))
	}
	return nil
}

type HabitStatsCmd struct{}

func (c *HabitStatsCmd) Run(ctx *cli.Context) error {
	s := ctx.Tracker().Summary()
	fmt.Fprintf(ctx.Out, "Days focused: %d\n", s.Days)
	fmt.Fprintf(ctx.Out, "Total time:   %.1fh (%d min)\n", s.Hours, s.TotalMinutes)
	return nil
}

type HabitWeeklyCmd struct{}

func (c *HabitWeeklyCmd) Run(ctx *cli.Context) error {
	weeks := stats.WeeklyFocus(ctx.Tracker().Records())
	if len(weeks) == 0 {
		fmt.Fprintln(ctx.Out, "No focus sessions logged yet.")
		return nil
	}

	peak := 0
	for _, w := range weeks {
		peak = max(peak, w.Minutes)
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	for _, w := range weeks {
		fmt.Fprintf(tw, "%s\t%s\t%d min\t%d days\n", w.Key, bar(w.Minutes, peak, 30), w.Minutes, w.Days)
	}
	return tw.Flush()
}

func bar(v, peak, width int) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := v * width / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
