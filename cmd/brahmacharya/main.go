package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/brahmacharya/internal/cli"
	"github.com/julianstephens/brahmacharya/internal/config"
	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/errors"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	Config    string            `help:"Config file path." type:"path" default:"~/.config/brahmacharya/config.yaml"`
	Backend   constants.Backend `help:"Storage backend (memory, json, sqlite, postgres, redis). Overrides the config file." enum:",memory,json,sqlite,postgres,redis" default:""`
	DataPath  string            `help:"Data file for the json and sqlite backends." type:"path"`
	DSN       string            `help:"PostgreSQL connection string. Credentials must NOT be embedded; use the OS keyring or .pgpass instead."`
	Namespace string            `help:"Key namespace for stored records."`
	Retention *int              `help:"Keep at most this many mood and practice entries (0 keeps all)."`
	LogDebug  bool              `name:"debug" help:"Log debug output to stderr as well as the log file."`
	Timeout   time.Duration     `help:"Timeout for each storage operation." default:"10s"`

	Init    cli.InitCmd    `cmd:"" help:"Initialize brahmacharya storage."`
	Checkin cli.CheckinCmd `cmd:"" help:"Record today's check-in and advance the streak."`
	Streak  struct {
		Show cli.StreakShowCmd `cmd:"" help:"Show the current streak." default:"1"`
		Set  cli.StreakSetCmd  `cmd:"" help:"Overwrite streak counters."`
	} `cmd:"" help:"View or edit the streak."`
	Mood struct {
		Log  cli.MoodLogCmd  `cmd:"" help:"Log a mood."`
		List cli.MoodListCmd `cmd:"" help:"List mood logs, newest first."`
	} `cmd:"" help:"Track moods."`
	Practice struct {
		Log  cli.PracticeLogCmd  `cmd:"" help:"Log a practice session."`
		List cli.PracticeListCmd `cmd:"" help:"List practice logs, newest first."`
	} `cmd:"" help:"Track practice sessions."`
	Onboarding struct {
		Status   cli.OnboardingStatusCmd   `cmd:"" help:"Show whether onboarding is complete." default:"1"`
		Complete cli.OnboardingCompleteCmd `cmd:"" help:"Mark onboarding complete."`
		Reset    cli.OnboardingResetCmd    `cmd:"" help:"Clear the onboarding flag."`
	} `cmd:"" help:"Manage the onboarding flag."`
	Export cli.ExportCmd `cmd:"" help:"Export all records as JSON."`
	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage data file backups."`
	Doctor  cli.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Debug   cli.DebugCmd  `cmd:"" help:"Debug commands for troubleshooting."`
	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store a backend secret in the OS keyring."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Delete a backend secret from the OS keyring."`
		Status cli.KeyringStatusCmd `cmd:"" help:"Show keyring availability and stored secrets."`
	} `cmd:"" help:"Manage backend secrets in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Streak, mood and practice tracker for a daily discipline"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := loadConfig()
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.LogDebug,
		ConfigDir: filepath.Dir(CLI.Config),
	}); err != nil {
		errors.Fatal(fmt.Errorf("failed to initialize logger: %w", err))
	}

	command := ctx.Command()
	logger.Debug("Starting", "command", command, "backend", cfg.Backend)

	// Keyring commands must work before any backend is reachable
	var store kv.Store
	if !strings.HasPrefix(command, "keyring") {
		store, err = cli.OpenBackend(cfg)
		if err != nil {
			errors.Fatal(err)
		}
	}

	// Init provisions the store itself
	if p, ok := store.(kv.Provisioner); ok && !strings.HasPrefix(command, "init") {
		lctx, cancel := context.WithTimeout(context.Background(), CLI.Timeout)
		err := p.Load(lctx)
		cancel()
		if err != nil {
			store.Close()
			errors.Fatal(err)
		}
	}

	appCtx, err := cli.NewContext(cfg, store, CLI.Timeout)
	if err != nil {
		errors.Fatal(err)
	}

	err = ctx.Run(appCtx)
	if store != nil {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("Failed to close store", "error", cerr)
		}
	}
	errors.Fatal(err)
}

// loadConfig layers the config file, BRAHMACHARYA_* variables and flags
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return cfg, err
	}

	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
	}
	if CLI.DataPath != "" {
		cfg.DataPath = CLI.DataPath
	}
	if CLI.DSN != "" {
		cfg.DSN = CLI.DSN
	}
	if CLI.Namespace != "" {
		cfg.Namespace = CLI.Namespace
	}
	if CLI.Retention != nil {
		cfg.Retention = *CLI.Retention
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
