package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/brahmacharya/internal/constants"
)

// PracticeLog records a completed wellness activity
type PracticeLog struct {
	ID       string                 `json:"id"`
	Date     Timestamp              `json:"date"`
	Type     constants.PracticeType `json:"type"`
	Duration int                    `json:"duration"` // minutes
	Notes    string                 `json:"notes,omitempty"`
}

func (p PracticeLog) Validate() error {
	if p.ID == "" {
		return errors.New("practice log id cannot be empty")
	}
	if _, err := ParsePracticeType(string(p.Type)); err != nil {
		return err
	}
	if p.Duration < 0 {
		return fmt.Errorf("practice duration must be non-negative, got %d", p.Duration)
	}
	return nil
}

// ParsePracticeType resolves a practice name, ignoring case and surrounding space
func ParsePracticeType(s string) (constants.PracticeType, error) {
	v := constants.PracticeType(strings.ToLower(strings.TrimSpace(s)))
	for _, pt := range constants.PracticeTypes {
		if v == pt {
			return pt, nil
		}
	}
	names := make([]string, len(constants.PracticeTypes))
	for i, pt := range constants.PracticeTypes {
		names[i] = string(pt)
	}
	return "", fmt.Errorf("invalid practice type %q (expected one of %s)", s, strings.Join(names, ", "))
}
