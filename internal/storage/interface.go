package storage

import (
	"context"

	"github.com/julianstephens/brahmacharya/internal/models"
)

// Provider is the typed persistence adapter the tracker works against.
// Reads that fail return the record's safe default together with the error.
type Provider interface {
	// Streak
	Streak(ctx context.Context) (models.StreakData, bool, error)
	SaveStreak(ctx context.Context, data models.StreakData) error

	// Mood logs, newest first
	MoodLogs(ctx context.Context) ([]models.MoodLog, error)
	SaveMoodLogs(ctx context.Context, logs []models.MoodLog) error
	UpdateMoodLogs(ctx context.Context, fn func([]models.MoodLog) []models.MoodLog) error

	// Practice logs, newest first
	PracticeLogs(ctx context.Context) ([]models.PracticeLog, error)
	SavePracticeLogs(ctx context.Context, logs []models.PracticeLog) error
	UpdatePracticeLogs(ctx context.Context, fn func([]models.PracticeLog) []models.PracticeLog) error

	// Onboarding
	OnboardingComplete(ctx context.Context) (bool, error)
	SetOnboardingComplete(ctx context.Context) error
	ResetOnboarding(ctx context.Context) error

	// Utils
	Keys() []string
}
