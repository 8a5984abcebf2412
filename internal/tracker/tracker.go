// Package tracker is the domain layer over the persistence adapter: streak
// data, mood and practice logs, and the onboarding flag.
package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/models"
	"github.com/julianstephens/brahmacharya/internal/storage"
	"github.com/julianstephens/brahmacharya/internal/streak"
)

// Service serializes read-modify-write cycles on one storage.Provider.
// Log appends are also atomic across processes on backends implementing
// kv.Updater; elsewhere another process can still lose an update.
type Service struct {
	mu        sync.Mutex
	store     storage.Provider
	now       func() time.Time
	loc       *time.Location
	retention int
	idScheme  constants.IDScheme
}

type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone calendar days are counted in for check-ins
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithRetention keeps at most n entries per log list on append; 0 keeps all
func WithRetention(n int) Option {
	return func(s *Service) {
		if n < 0 {
			n = 0
		}
		s.retention = n
	}
}

// WithIDScheme selects how NewMoodLog and NewPracticeLog generate ids
func WithIDScheme(scheme constants.IDScheme) Option {
	return func(s *Service) { s.idScheme = scheme }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		now:       time.Now,
		loc:       time.Local,
		retention: constants.DefaultRetention,
		idScheme:  constants.IDSchemeTimestamp,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStreakData returns the stored record, or a zeroed one stamped now when
// nothing is stored. It never recomputes the streak.
func (s *Service) GetStreakData(ctx context.Context) (models.StreakData, error) {
	data, found, err := s.store.Streak(ctx)
	if err != nil {
		return models.NewStreakData(s.now()), err
	}
	if !found {
		return models.NewStreakData(s.now()), nil
	}
	return data, nil
}

// UpdateStreakData replaces the stored record
func (s *Service) UpdateStreakData(ctx context.Context, data models.StreakData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("invalid streak data: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SaveStreak(ctx, data)
}

// CheckIn advances the streak for today and persists it. A repeat check-in
// on the same day returns the stored record without writing.
func (s *Service) CheckIn(ctx context.Context) (models.StreakData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.GetStreakData(ctx)
	if err != nil {
		return current, err
	}

	next := streak.Advance(current, s.now(), s.loc)
	if next == current {
		return current, nil
	}
	if err := s.store.SaveStreak(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// StreakStatus reports whether today's check-in is done, due or lapsed
func (s *Service) StreakStatus(data models.StreakData) streak.Status {
	return streak.StatusAt(data, s.now(), s.loc)
}

// GetMoodLogs returns every mood log, newest first. On error the slice is
// empty, never nil.
func (s *Service) GetMoodLogs(ctx context.Context) ([]models.MoodLog, error) {
	return s.store.MoodLogs(ctx)
}

// RecentMoodLogs returns at most n mood logs, newest first
func (s *Service) RecentMoodLogs(ctx context.Context, n int) ([]models.MoodLog, error) {
	logs, err := s.store.MoodLogs(ctx)
	return head(logs, n), err
}

// AddMoodLog prepends log and persists the list. If the read or write
// fails nothing is stored.
func (s *Service) AddMoodLog(ctx context.Context, log models.MoodLog) error {
	if err := log.Validate(); err != nil {
		return fmt.Errorf("invalid mood log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.UpdateMoodLogs(ctx, func(logs []models.MoodLog) []models.MoodLog {
		return prepend(logs, log, s.retention)
	})
}

// GetPracticeLogs returns every practice log, newest first. On error the
// slice is empty, never nil.
func (s *Service) GetPracticeLogs(ctx context.Context) ([]models.PracticeLog, error) {
	return s.store.PracticeLogs(ctx)
}

// RecentPracticeLogs returns at most n practice logs, newest first
func (s *Service) RecentPracticeLogs(ctx context.Context, n int) ([]models.PracticeLog, error) {
	logs, err := s.store.PracticeLogs(ctx)
	return head(logs, n), err
}

// AddPracticeLog prepends log and persists the list. If the read or write
// fails nothing is stored.
func (s *Service) AddPracticeLog(ctx context.Context, log models.PracticeLog) error {
	if err := log.Validate(); err != nil {
		return fmt.Errorf("invalid practice log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.UpdatePracticeLogs(ctx, func(logs []models.PracticeLog) []models.PracticeLog {
		return prepend(logs, log, s.retention)
	})
}

func (s *Service) IsOnboardingComplete(ctx context.Context) (bool, error) {
	return s.store.OnboardingComplete(ctx)
}

func (s *Service) SetOnboardingComplete(ctx context.Context) error {
	return s.store.SetOnboardingComplete(ctx)
}

func (s *Service) ResetOnboarding(ctx context.Context) error {
	return s.store.ResetOnboarding(ctx)
}

// NewMoodLog builds an entry stamped now with a fresh id
func (s *Service) NewMoodLog(mood constants.MoodType, notes string) models.MoodLog {
	now := s.now()
	return models.MoodLog{
		ID:    s.newID(now),
		Date:  models.NewTimestamp(now),
		Mood:  mood,
		Notes: strings.TrimSpace(notes),
	}
}

// NewPracticeLog builds an entry stamped now with a fresh id
func (s *Service) NewPracticeLog(practice constants.PracticeType, minutes int, notes string) models.PracticeLog {
	now := s.now()
	return models.PracticeLog{
		ID:       s.newID(now),
		Date:     models.NewTimestamp(now),
		Type:     practice,
		Duration: minutes,
		Notes:    strings.TrimSpace(notes),
	}
}

func (s *Service) newID(now time.Time) string {
	if s.idScheme == constants.IDSchemeUUID {
		return uuid.NewString()
	}
	return strconv.FormatInt(now.UnixMilli(), 10)
}

func prepend[T any](logs []T, entry T, limit int) []T {
	out := make([]T, 0, len(logs)+1)
	out = append(out, entry)
	out = append(out, logs...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func head[T any](logs []T, n int) []T {
	if n > 0 && len(logs) > n {
		return logs[:n]
	}
	return logs
}
