package constants

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat matches the ISO-8601 strings the mobile app persisted (UTC, millisecond precision)
	TimestampFormat = "2006-01-02T15:04:05.000Z"
)
