package cli

import (
	"fmt"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/logger"
	"github.com/julianstephens/brahmacharya/internal/models"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

type PracticeLogCmd struct {
	Type    string `arg:"" optional:"" help:"meditation, breathing, yoga or reading. Prompts when omitted."`
	Minutes int    `short:"m" help:"Duration in minutes."`
	Notes   string `short:"n" help:"Optional notes."`
}

func (c *PracticeLogCmd) Validate() error {
	if c.Minutes < 0 {
		return fmt.Errorf("--minutes cannot be negative")
	}
	return nil
}

func (c *PracticeLogCmd) Run(ctx *Context) error {
	var practice constants.PracticeType
	minutes, notes := c.Minutes, c.Notes

	if c.Type == "" {
		fm := practiceFormModel{Minutes: fmt.Sprint(c.Minutes), Notes: c.Notes}
		if err := runForm(newPracticeForm(&fm)); err != nil {
			return fmt.Errorf("practice entry cancelled: %w", err)
		}
		m, err := parseMinutes(fm.Minutes)
		if err != nil {
			return err
		}
		practice, minutes, notes = fm.Type, m, fm.Notes
	} else {
		p, err := models.ParsePracticeType(c.Type)
		if err != nil {
			return err
		}
		practice = p
	}

	cctx, cancel := ctx.Ctx()
	defer cancel()

	entry := ctx.Tracker.NewPracticeLog(practice, minutes, notes)
	if err := ctx.Tracker.AddPracticeLog(cctx, entry); err != nil {
		return err
	}
	ctx.printf("%s Logged %s (%d min)\n", theme.SuccessStyle.Render("✓"), theme.Label(string(entry.Type)), entry.Duration)
	return nil
}

type PracticeListCmd struct {
	Limit int  `default:"10" help:"Number of entries to show."`
	All   bool `help:"Show every entry."`
}

func (c *PracticeListCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	limit := c.Limit
	if c.All {
		limit = 0
	}
	logs, err := ctx.Tracker.RecentPracticeLogs(cctx, limit)
	if err != nil {
		logger.Warn("Listing no practice logs after read failure", "error", err)
		ctx.println(theme.WarningStyle.Render("⚠ Could not read practice logs; showing none."))
	}

	if len(logs) == 0 {
		ctx.println(theme.MutedStyle.Render("No practice logs yet."))
		return nil
	}

	total := 0
	ctx.println(theme.TitleStyle.Render("Practice logs"))
	for _, l := range logs {
		total += l.Duration
		ctx.printf("  %s  %-10s %4d min", l.Date.Local().Format(constants.DateFormat+" 15:04"), theme.Label(string(l.Type)), l.Duration)
		if l.Notes != "" {
			ctx.printf("  %s", theme.MutedStyle.Render(l.Notes))
		}
		ctx.println()
	}
	ctx.printf("%s %d min across %d sessions\n", theme.LabelStyle.Render("Total:"), total, len(logs))
	return nil
}
