// Package streak holds the check-in policy. Reads never run it; only an
// explicit check-in advances a streak.
package streak

import (
	"time"

	"github.com/julianstephens/brahmacharya/internal/models"
)

// Status describes a streak relative to today
type Status string

const (
	// StatusActive means the user already checked in today
	StatusActive Status = "active"
	// StatusDue means the last check-in was yesterday, so today keeps the streak
	StatusDue Status = "due"
	// StatusLapsed means the next check-in starts a new streak
	StatusLapsed Status = "lapsed"
)

// DaysBetween counts calendar days from a to b in loc. It is negative when b
// falls on an earlier day than a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// Advance applies a check-in at now. A second check-in on the same day (or a
// clock that moved backwards) leaves data unchanged.
func Advance(data models.StreakData, now time.Time, loc *time.Location) models.StreakData {
	days := DaysBetween(data.LastCheckIn.Time, now, loc)

	if data.CurrentStreak > 0 && days <= 0 {
		return data
	}

	next := data
	if data.CurrentStreak > 0 && days == 1 {
		next.CurrentStreak++
	} else {
		next.CurrentStreak = 1
		next.StartDate = models.NewTimestamp(now)
	}
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastCheckIn = models.NewTimestamp(now)
	return next
}

// StatusAt reports where data stands at now without changing it
func StatusAt(data models.StreakData, now time.Time, loc *time.Location) Status {
	if data.CurrentStreak == 0 {
		return StatusLapsed
	}
	switch days := DaysBetween(data.LastCheckIn.Time, now, loc); {
	case days <= 0:
		return StatusActive
	case days == 1:
		return StatusDue
	default:
		return StatusLapsed
	}
}
