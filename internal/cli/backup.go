package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/brahmacharya/internal/backup"
	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/logger"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

func (c *Context) backupManager() (*backup.Manager, error) {
	l, ok := c.KV.(kv.Locator)
	if !ok {
		return nil, backup.ErrUnsupportedBackend
	}
	return backup.NewManager(l.Path(), c.Config.Backend)
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.printf("%s Backup created: %s\n", theme.SuccessStyle.Render("✓"), filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.println("No backups found.")
		ctx.printf("Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	ctx.printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		ctx.printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	ctx.printf("\nBackup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}

	backupPath, err := resolveBackupPath(c.BackupFile, mgr.GetBackupDir())
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Replace your current data with this backup?").
				Description(fmt.Sprintf("Restore from: %s\nA backup of the current data is taken first. Stop other %s processes before continuing.", backupPath, constants.AppName)).
				Affirmative("Restore").
				Negative("Cancel").
				Value(&confirmed),
		)).WithTheme(huh.ThemeDracula())
		if err := runForm(confirm); err != nil {
			return err
		}
		if !confirmed {
			ctx.println("Restore cancelled.")
			return nil
		}
	}

	// The data file is replaced underneath the open store
	if err := ctx.KV.Close(); err != nil {
		logger.Warn("Failed to close store before restore", "error", err)
	}

	previous, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	if previous != "" {
		ctx.printf("Created backup of current data: %s\n", filepath.Base(previous))
	}
	ctx.printf("%s Restored from %s\n", theme.SuccessStyle.Render("✓"), filepath.Base(backupPath))
	return nil
}

// resolveBackupPath accepts an absolute path, a path relative to the working
// directory, or a bare name inside the backup directory
func resolveBackupPath(name, backupDir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}

	if _, err := os.Stat(name); err == nil {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve backup path: %w", err)
		}
		return abs, nil
	}

	candidate := filepath.Join(backupDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}
