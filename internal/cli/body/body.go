package body

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/stats"
)

type BodyCmd struct {
	Set    BodySetCmd    `cmd:"" help:"Record measurements for a day."`
	Show   BodyShowCmd   `cmd:"" help:"Show one day's measurements."`
	List   BodyListCmd   `cmd:"" help:"List all measurement days."`
	Rm     BodyRmCmd     `cmd:"" help:"Delete a day's measurements."`
	Weekly BodyWeeklyCmd `cmd:"" help:"Show weekly averages."`
}

type BodySetCmd struct {
	Date   string   `help:"Day in YYYY-MM-DD (defaults to today)."`
	Gender string   `help:"male or female."`
	Height *float64 `help:"Height in cm."`
	Weight *float64 `help:"Weight in kg."`
	Neck   *float64 `help:"Neck circumference in cm."`
	Chest  *float64 `help:"Chest circumference in cm."`
	Waist  *float64 `help:"Waist circumference in cm."`
	Hips   *float64 `help:"Hip circumference in cm."`
	Arm    *float64 `help:"Arm circumference in cm."`
	Thigh  *float64 `help:"Thigh circumference in cm."`
}

func (c *BodySetCmd) update(today string) (models.HealthUpdate, error) {
	u := models.HealthUpdate{
		Date:   c.Date,
		Height: c.Height,
		Weight: c.Weight,
	}
	if u.Date == "" {
		u.Date = today
	}
	if c.Gender != "" {
		g, err := models.ParseGender(c.Gender)
		if err != nil {
			return u, err
		}
		u.Gender = &g
	}

	dims := map[models.BodyPart]*float64{
		models.Neck:  c.Neck,
		models.Chest: c.Chest,
		models.Waist: c.Waist,
		models.Hips:  c.Hips,
		models.Arm:   c.Arm,
		models.Thigh: c.Thigh,
	}
	for part, v := range dims {
		if v == nil {
			continue
		}
		if u.Dimensions == nil {
			u.Dimensions = models.Dimensions{}
		}
		u.Dimensions[part] = *v
	}
	return u, nil
}

func (c *BodySetCmd) Run(ctx *cli.Context) error {
	u, err := c.update(ctx.Today())
	if err != nil {
		return err
	}
	if u.Gender == nil && u.Height == nil && u.Weight == nil && len(u.Dimensions) == 0 {
		return fmt.Errorf("nothing to record: pass at least one measurement flag")
	}

	all, err := ctx.Merger().Upsert(u)
	if err != nil {
		return err
	}
	printRecord(ctx, all[u.Date])
	return nil
}

type BodyShowCmd struct {
	Date string `arg:"" optional:"" help:"Day in YYYY-MM-DD (defaults to today)."`
}

func (c *BodyShowCmd) Run(ctx *cli.Context) error {
	date := c.Date
	if date == "" {
		date = ctx.Today()
	}
	rec, ok := ctx.Merger().Get(date)
	if !ok {
		return fmt.Errorf("no measurements recorded for %s", date)
	}
	printRecord(ctx, rec)
	return nil
}

type BodyListCmd struct{}

func (c *BodyListCmd) Run(ctx *cli.Context) error {
	records := ctx.Merger().Records()
	if len(records) == 0 {
		fmt.Fprintln(ctx.Out, "No measurements recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tWEIGHT\tBODY FAT\tWAIST")
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		waist, _ := r.Dimension(models.Waist)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Date, orDash(r.Weight, "kg"), orDash(r.BodyFat, "%"), orDash(nonZero(waist), "cm"))
	}
	return tw.Flush()
}

type BodyRmCmd struct {
	Date string `arg:"" help:"Day in YYYY-MM-DD."`
}

func (c *BodyRmCmd) Run(ctx *cli.Context) error {
	if err := ctx.Merger().Delete(c.Date); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Deleted measurements for %s\n", c.Date)
	return nil
}

type BodyWeeklyCmd struct{}

func (c *BodyWeeklyCmd) Run(ctx *cli.Context) error {
	weeks := stats.WeeklyHealth(ctx.Merger().Records())
	if len(weeks) == 0 {
		fmt.Fprintln(ctx.Out, "No measurements recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tWEIGHT\tBODY FAT\tWAIST\tHEIGHT")
	for _, w := range weeks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", w.Key,
			orDash(nonZero(w.Weight), "kg"), orDash(nonZero(w.BodyFat), "%"),
			orDash(nonZero(w.Waist), "cm"), orDash(nonZero(w.Height), "cm"))
	}
	return tw.Flush()
}

func printRecord(ctx *cli.Context, r models.HealthRecord) {
	fmt.Fprintf(ctx.Out, "Date:      %s\n", r.Date)
	if r.Gender != "" {
		fmt.Fprintf(ctx.Out, "Gender:    %s\n", r.Gender)
	}
	fmt.Fprintf(ctx.Out, "Height:    %s\n", orDash(r.Height, "cm"))
	fmt.Fprintf(ctx.Out, "Weight:    %s\n", orDash(r.Weight, "kg"))
	fmt.Fprintf(ctx.Out, "Body fat:  %s\n", orDash(r.BodyFat, "%"))
	if len(r.Dimensions) == 0 {
		return
	}
	var parts []string
	for _, p := range models.BodyParts {
		if v, ok := r.Dimension(p); ok {
			parts = append(parts, fmt.Sprintf("%s %.1f", p, v))
		}
	}
	fmt.Fprintf(ctx.Out, "Measures:  %s\n", strings.Join(parts, ", "))
}

func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func orDash(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%s", *v, unit)
}
