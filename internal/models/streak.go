package models

import (
	"fmt"
	"time"
)

// StreakData is the singleton streak record
type StreakData struct {
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	LastCheckIn   Timestamp `json:"lastCheckIn"`
	StartDate     Timestamp `json:"startDate"`
}

// NewStreakData returns the zeroed record used when nothing is stored yet
func NewStreakData(now time.Time) StreakData {
	ts := NewTimestamp(now)
	return StreakData{
		LastCheckIn: ts,
		StartDate:   ts,
	}
}

func (s StreakData) Validate() error {
	if s.CurrentStreak < 0 {
		return fmt.Errorf("current streak must be non-negative, got %d", s.CurrentStreak)
	}
	if s.LongestStreak < 0 {
		return fmt.Errorf("longest streak must be non-negative, got %d", s.LongestStreak)
	}
	return nil
}
