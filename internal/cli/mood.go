package cli

import (
	"fmt"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/logger"
	"github.com/julianstephens/brahmacharya/internal/models"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

type MoodLogCmd struct {
	Mood  string `arg:"" optional:"" help:"excellent, good, neutral, difficult or struggling. Prompts when omitted."`
	Notes string `short:"n" help:"Optional notes."`
}

func (c *MoodLogCmd) Run(ctx *Context) error {
	fm := moodFormModel{Notes: c.Notes}
	if c.Mood == "" {
		if err := runForm(newMoodForm(&fm)); err != nil {
			return fmt.Errorf("mood entry cancelled: %w", err)
		}
	} else {
		mood, err := models.ParseMood(c.Mood)
		if err != nil {
			return err
		}
		fm.Mood = mood
	}

	cctx, cancel := ctx.Ctx()
	defer cancel()

	entry := ctx.Tracker.NewMoodLog(fm.Mood, fm.Notes)
	if err := ctx.Tracker.AddMoodLog(cctx, entry); err != nil {
		return err
	}
	ctx.printf("%s Logged mood: %s\n", theme.SuccessStyle.Render("✓"), theme.Mood(entry.Mood))
	return nil
}

type MoodListCmd struct {
	Limit int  `default:"10" help:"Number of entries to show."`
	All   bool `help:"Show every entry."`
}

func (c *MoodListCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	limit := c.Limit
	if c.All {
		limit = 0
	}
	logs, err := ctx.Tracker.RecentMoodLogs(cctx, limit)
	if err != nil {
		logger.Warn("Listing no mood logs after read failure", "error", err)
		ctx.println(theme.WarningStyle.Render("⚠ Could not read mood logs; showing none."))
	}

	if len(logs) == 0 {
		ctx.println(theme.MutedStyle.Render("No mood logs yet."))
		return nil
	}

	ctx.println(theme.TitleStyle.Render("Mood logs"))
	for _, l := range logs {
		ctx.printf("  %s  %-10s", l.Date.Local().Format(constants.DateFormat+" 15:04"), theme.Mood(l.Mood))
		if l.Notes != "" {
			ctx.printf("  %s", theme.MutedStyle.Render(l.Notes))
		}
		ctx.println()
	}
	return nil
}
