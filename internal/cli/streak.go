package cli

import (
	"fmt"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/logger"
	"github.com/julianstephens/brahmacharya/internal/models"
	"github.com/julianstephens/brahmacharya/internal/streak"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

type StreakShowCmd struct{}

func (c *StreakShowCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	data, err := ctx.Tracker.GetStreakData(cctx)
	if err != nil {
		logger.Warn("Showing default streak after read failure", "error", err)
	}
	ctx.println(renderStreak(data, ctx.Tracker.StreakStatus(data)))
	return nil
}

type StreakSetCmd struct {
	Current *int `help:"Current streak in days."`
	Longest *int `help:"Longest streak in days."`
}

func (c *StreakSetCmd) Run(ctx *Context) error {
	if c.Current == nil && c.Longest == nil {
		return fmt.Errorf("nothing to set; pass --current and/or --longest")
	}

	cctx, cancel := ctx.Ctx()
	defer cancel()

	data, err := ctx.Tracker.GetStreakData(cctx)
	if err != nil {
		return err
	}
	if c.Current != nil {
		data.CurrentStreak = *c.Current
	}
	if c.Longest != nil {
		data.LongestStreak = *c.Longest
	}
	if err := ctx.Tracker.UpdateStreakData(cctx, data); err != nil {
		return err
	}
	ctx.println(renderStreak(data, ctx.Tracker.StreakStatus(data)))
	return nil
}

type CheckinCmd struct{}

func (c *CheckinCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	before, err := ctx.Tracker.GetStreakData(cctx)
	if err != nil {
		return err
	}
	after, err := ctx.Tracker.CheckIn(cctx)
	if err != nil {
		return err
	}

	if after == before {
		ctx.printf("%s Already checked in today.\n", theme.MutedStyle.Render("•"))
	} else {
		ctx.printf("%s Checked in.\n", theme.SuccessStyle.Render("✓"))
	}
	ctx.println(renderStreak(after, ctx.Tracker.StreakStatus(after)))
	return nil
}

func renderStreak(data models.StreakData, status streak.Status) string {
	statusStyle := theme.SuccessStyle
	switch status {
	case streak.StatusDue:
		statusStyle = theme.WarningStyle
	case streak.StatusLapsed:
		statusStyle = theme.MutedStyle
	}

	lines := fmt.Sprintf("%s\n%s %s\n%s %s\n%s %s\n%s %s (%s)",
		theme.TitleStyle.Render("Streak"),
		label("Current:"), theme.ValueStyle.Render(days(data.CurrentStreak)),
		label("Longest:"), theme.ValueStyle.Render(days(data.LongestStreak)),
		label("Since:"), data.StartDate.Local().Format(constants.DateFormat),
		label("Last check-in:"), data.LastCheckIn.Local().Format(constants.DateFormat), statusStyle.Render(string(status)),
	)
	return theme.BoxStyle.Render(lines)
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func label(s string) string {
	return theme.LabelStyle.Render(fmt.Sprintf("%-14s", s))
}
