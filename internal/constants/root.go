package constants

import "time"

// MoodType is a self-reported emotional state
type MoodType string

// PracticeType is a kind of wellness activity
type PracticeType string

// Backend names a key-value storage implementation
type Backend string

// IDScheme selects how log entry ids are generated
type IDScheme string

const (
	AppName            = "brahmacharya"
	Version            = "v0.3.0"
	DefaultNamespace   = "@brahmacharya"
	DefaultConfigDir   = "~/.config/brahmacharya"
	DefaultConfigFile  = "~/.config/brahmacharya/config.yaml"
	DefaultDataPath    = "~/.config/brahmacharya/brahmacharya.db"
	DefaultKeyringUser = "backend-secret"
	EnvPrefix          = "BRAHMACHARYA_"

	// Record keys, joined to the namespace with KeySeparator
	KeySeparator          = ":"
	KeyStreakData         = "streak_data"
	KeyMoodLogs           = "mood_logs"
	KeyPracticeLogs       = "practice_logs"
	KeyOnboardingComplete = "onboarding_complete"

	// OnboardingCompleteValue is the literal stored for a completed onboarding
	OnboardingCompleteValue = "true"

	// RecentLogLimit is how many entries list views show by default
	RecentLogLimit = 10

	// DefaultRetention of 0 keeps every log entry
	DefaultRetention = 0

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "brahmacharya-"

	// Lockfile constants
	LockfileSuffix    = ".lock"
	LockRetryAttempts = 50
	LockRetryDelay    = 20 * time.Millisecond
	// A lock file without a readable owner younger than this is still being written
	LockStaleGrace    = 10 * time.Second

	// Mood constants
	MoodExcellent  MoodType = "excellent"
	MoodGood       MoodType = "good"
	MoodNeutral    MoodType = "neutral"
	MoodDifficult  MoodType = "difficult"
	MoodStruggling MoodType = "struggling"

	// Practice constants
	PracticeMeditation PracticeType = "meditation"
	PracticeBreathing  PracticeType = "breathing"
	PracticeYoga       PracticeType = "yoga"
	PracticeReading    PracticeType = "reading"

	// Backend constants
	BackendMemory   Backend = "memory"
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"

	// ID scheme constants
	IDSchemeTimestamp IDScheme = "timestamp"
	IDSchemeUUID      IDScheme = "uuid"
)

// Moods lists mood values from best to worst
var Moods = []MoodType{MoodExcellent, MoodGood, MoodNeutral, MoodDifficult, MoodStruggling}

// PracticeTypes lists the supported practice kinds
var PracticeTypes = []PracticeType{PracticeMeditation, PracticeBreathing, PracticeYoga, PracticeReading}
