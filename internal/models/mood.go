package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/brahmacharya/internal/constants"
)

// MoodLog is a timestamped self-reported emotional state
type MoodLog struct {
	ID    string             `json:"id"`
	Date  Timestamp          `json:"date"`
	Mood  constants.MoodType `json:"mood"`
	Notes string             `json:"notes,omitempty"`
}

func (m MoodLog) Validate() error {
	if m.ID == "" {
		return errors.New("mood log id cannot be empty")
	}
	if _, err := ParseMood(string(m.Mood)); err != nil {
		return err
	}
	return nil
}

// ParseMood resolves a mood name, ignoring case and surrounding space
func ParseMood(s string) (constants.MoodType, error) {
	v := constants.MoodType(strings.ToLower(strings.TrimSpace(s)))
	for _, mood := range constants.Moods {
		if v == mood {
			return mood, nil
		}
	}
	return "", fmt.Errorf("invalid mood %q (expected one of %s)", s, joinMoods())
}

func joinMoods() string {
	names := make([]string, len(constants.Moods))
	for i, m := range constants.Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
