package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/brahmacharya/internal/constants"
)

// Timestamp is an instant persisted as an ISO-8601 string in UTC with
// millisecond precision, the layout the mobile app wrote.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to the precision that survives persistence
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// Equal reports whether both timestamps denote the same instant
func (t Timestamp) Equal(u Timestamp) bool {
	return t.Time.Equal(u.Time)
}

func (t Timestamp) String() string {
	return t.UTC().Format(constants.TimestampFormat)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 timestamp
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*t = Timestamp{}
		return nil
	}
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return fmt.Errorf("timestamp must be a JSON string, got %s", s)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", s, err)
	}
	*t = Timestamp{parsed.UTC()}
	return nil
}
