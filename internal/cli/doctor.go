package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/brahmacharya/internal/backup"
	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/keyring"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

// schemaReporter is implemented by the SQL backends
type schemaReporter interface {
	SchemaVersion() (current, latest int, err error)
}

type checkLevel int

const (
	levelFail checkLevel = iota
	levelWarn
)

type doctorCheck struct {
	name  string
	level checkLevel
	run   func(*Context) error
	// skip reports a reason the check does not apply, or ""
	skip func(*Context) string
}

var doctorChecks = []doctorCheck{
	{name: "Store reachable", level: levelFail, run: checkStoreReachable},
	{name: "Schema version", level: levelFail, run: checkSchemaVersion, skip: skipUnlessSQL},
	{name: "Streak data", level: levelFail, run: checkStreakData},
	{name: "Mood logs", level: levelFail, run: checkMoodLogs},
	{name: "Practice logs", level: levelFail, run: checkPracticeLogs},
	{name: "Unknown keys", level: levelWarn, run: checkUnknownKeys, skip: skipUnlessLister},
	{name: "Backups present", level: levelWarn, run: checkBackupsPresent, skip: skipUnlessFileBackend},
	{name: "OS keyring", level: levelWarn, run: checkKeyring, skip: skipUnlessRemoteBackend},
	{name: "Clock/timezone", level: levelFail, run: checkClockTimezone},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	for _, check := range doctorChecks {
		if check.skip != nil {
			if reason := check.skip(ctx); reason != "" {
				ctx.printf("%s %s: SKIPPED (%s)\n", theme.MutedStyle.Render("⊘"), check.name, reason)
				continue
			}
		}

		err := check.run(ctx)
		switch {
		case err == nil:
			ctx.printf("%s %s: OK\n", theme.SuccessStyle.Render("✓"), check.name)
		case check.level == levelWarn:
			ctx.printf("%s %s: WARNING\n   %v\n", theme.WarningStyle.Render("⚠"), check.name, err)
		default:
			ctx.printf("%s %s: FAIL\n   Error: %v\n", theme.ErrorStyle.Render("❌"), check.name, err)
			hasError = true
		}
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()
	_, _, err := ctx.Store.Raw(cctx, constants.KeyOnboardingComplete)
	return err
}

func skipUnlessSQL(ctx *Context) string {
	if _, ok := ctx.KV.(schemaReporter); !ok {
		return "backend has no schema"
	}
	return ""
}

func checkSchemaVersion(ctx *Context) error {
	current, latest, err := ctx.KV.(schemaReporter).SchemaVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d; run '%s init'", current, latest, constants.AppName)
	}
	return nil
}

func checkStreakData(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	data, found, err := ctx.Store.Streak(cctx)
	if err != nil || !found {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if data.CurrentStreak > data.LongestStreak {
		return fmt.Errorf("current streak %d exceeds longest streak %d", data.CurrentStreak, data.LongestStreak)
	}
	return nil
}

func checkMoodLogs(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	logs, err := ctx.Store.MoodLogs(cctx)
	if err != nil {
		return err
	}
	var errs []error
	for i, l := range logs {
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func checkPracticeLogs(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	logs, err := ctx.Store.PracticeLogs(cctx)
	if err != nil {
		return err
	}
	var errs []error
	for i, l := range logs {
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func skipUnlessLister(ctx *Context) string {
	if _, ok := ctx.KV.(kv.Lister); !ok {
		return "backend cannot list keys"
	}
	return ""
}

func checkUnknownKeys(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	keys, err := ctx.KV.(kv.Lister).Keys(cctx, ctx.Store.Namespace()+constants.KeySeparator)
	if err != nil {
		return err
	}
	known := make(map[string]bool)
	for _, k := range ctx.Store.Keys() {
		known[k] = true
	}
	var unknown []string
	for _, k := range keys {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unrecognized keys in namespace: %v", unknown)
	}
	return nil
}

func skipUnlessFileBackend(ctx *Context) string {
	if ctx.Config.Backend != constants.BackendSQLite && ctx.Config.Backend != constants.BackendJSON {
		return "backend is not a local file"
	}
	return ""
}

func checkBackupsPresent(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func skipUnlessRemoteBackend(ctx *Context) string {
	if ctx.Config.Backend != constants.BackendPostgres && ctx.Config.Backend != constants.BackendRedis {
		return "backend needs no secret"
	}
	return ""
}

func checkKeyring(ctx *Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}
