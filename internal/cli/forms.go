package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

// runForm is swapped out in tests, which have no terminal
var runForm = func(f *huh.Form) error {
	return f.Run()
}

type moodFormModel struct {
	Mood  constants.MoodType
	Notes string
}

func newMoodForm(fm *moodFormModel) *huh.Form {
	options := make([]huh.Option[constants.MoodType], 0, len(constants.Moods))
	for _, m := range constants.Moods {
		options = append(options, huh.NewOption(theme.Label(string(m)), m))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[constants.MoodType]().
				Title("How are you feeling?").
				Options(options...).
				Value(&fm.Mood),
			huh.NewText().
				Title("Notes (optional)").
				Value(&fm.Notes),
		),
	).WithTheme(huh.ThemeDracula())
}

type practiceFormModel struct {
	Type    constants.PracticeType
	Minutes string
	Notes   string
}

func newPracticeForm(fm *practiceFormModel) *huh.Form {
	options := make([]huh.Option[constants.PracticeType], 0, len(constants.PracticeTypes))
	for _, p := range constants.PracticeTypes {
		options = append(options, huh.NewOption(theme.Label(string(p)), p))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[constants.PracticeType]().
				Title("Practice").
				Options(options...).
				Value(&fm.Type),
			huh.NewInput().
				Title("Duration (min)").
				Value(&fm.Minutes).
				Validate(func(s string) error {
					_, err := parseMinutes(s)
					return err
				}),
			huh.NewText().
				Title("Notes (optional)").
				Value(&fm.Notes),
		),
	).WithTheme(huh.ThemeDracula())
}

func parseMinutes(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("duration must be a whole number of minutes")
	}
	if i < 0 {
		return 0, fmt.Errorf("duration cannot be negative")
	}
	return i, nil
}
