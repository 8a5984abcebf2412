package cli

import (
	"github.com/julianstephens/brahmacharya/internal/theme"
)

type OnboardingStatusCmd struct{}

func (c *OnboardingStatusCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	done, err := ctx.Tracker.IsOnboardingComplete(cctx)
	if err != nil {
		return err
	}
	if done {
		ctx.println(theme.SuccessStyle.Render("Onboarding complete"))
	} else {
		ctx.println(theme.WarningStyle.Render("Onboarding not complete"))
	}
	return nil
}

type OnboardingCompleteCmd struct{}

func (c *OnboardingCompleteCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	if err := ctx.Tracker.SetOnboardingComplete(cctx); err != nil {
		return err
	}
	ctx.printf("%s Onboarding marked complete\n", theme.SuccessStyle.Render("✓"))
	return nil
}

type OnboardingResetCmd struct{}

func (c *OnboardingResetCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	if err := ctx.Tracker.ResetOnboarding(cctx); err != nil {
		return err
	}
	ctx.printf("%s Onboarding reset\n", theme.SuccessStyle.Render("✓"))
	return nil
}
