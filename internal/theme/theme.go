// Package theme holds the terminal palette and the styles CLI output uses.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/brahmacharya/internal/constants"
)

var (
	Accent      = lipgloss.Color("#1E3A8A")
	AccentLight = lipgloss.Color("#3B82F6")
	Success     = lipgloss.Color("#22C55E")
	Warning     = lipgloss.Color("#F59E0B")
	Error       = lipgloss.Color("#EF4444")
	Gray400     = lipgloss.Color("#A3A3A3")
	Gray500     = lipgloss.Color("#737373")
	Gray700     = lipgloss.Color("#404040")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(AccentLight).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Gray500)

	ValueStyle = lipgloss.NewStyle().
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Gray400).
			Italic(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent).
			Padding(0, 1)
)

var moodColors = map[constants.MoodType]lipgloss.Color{
	constants.MoodExcellent:  Success,
	constants.MoodGood:       AccentLight,
	constants.MoodNeutral:    Gray500,
	constants.MoodDifficult:  Warning,
	constants.MoodStruggling: Error,
}

// MoodColor returns the display color for mood
func MoodColor(mood constants.MoodType) lipgloss.Color {
	if c, ok := moodColors[mood]; ok {
		return c
	}
	return Gray500
}

// Label capitalizes an enum value for display
func Label(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Mood renders a mood name in its color
func Mood(mood constants.MoodType) string {
	return lipgloss.NewStyle().Foreground(MoodColor(mood)).Render(Label(string(mood)))
}
