package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/keyring"
	"github.com/julianstephens/brahmacharya/internal/kv/postgres"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

// KeyringSetCmd stores a backend secret in the OS keyring
type KeyringSetCmd struct {
	Backend constants.Backend `arg:"" enum:"postgres,redis" help:"Backend the secret belongs to (postgres or redis)."`
	Secret  string            `arg:"" help:"PostgreSQL connection string or Redis password."`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	if cmd.Backend == constants.BackendPostgres {
		if _, err := postgres.ValidateConnString(cmd.Secret); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			// The keyring is encrypted, so an embedded password is acceptable here
			ctx.println(theme.WarningStyle.Render("⚠ Connection string contains embedded credentials; storing it in the encrypted OS keyring."))
		}
	}

	if err := keyring.SetSecret(cmd.Backend, cmd.Secret); err != nil {
		return err
	}
	ctx.printf("%s %s secret stored in OS keyring\n", theme.SuccessStyle.Render("✓"), cmd.Backend)
	return nil
}

// KeyringDeleteCmd removes a backend secret from the OS keyring
type KeyringDeleteCmd struct {
	Backend constants.Backend `arg:"" enum:"postgres,redis" help:"Backend whose secret to delete."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteSecret(cmd.Backend); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s secret found in keyring", cmd.Backend)
		}
		return err
	}
	ctx.printf("%s %s secret deleted from OS keyring\n", theme.SuccessStyle.Render("✓"), cmd.Backend)
	return nil
}

// KeyringStatusCmd reports keyring availability and which secrets are stored
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		ctx.println(theme.ErrorStyle.Render("❌ OS keyring is not available on this system"))
		return keyring.ErrKeyringUnavailable
	}
	ctx.printf("%s OS keyring is available\n", theme.SuccessStyle.Render("✓"))

	for _, backend := range []constants.Backend{constants.BackendPostgres, constants.BackendRedis} {
		secret, err := keyring.GetSecret(backend)
		switch {
		case err == nil:
			ctx.printf("%s %s secret stored: %s\n", theme.SuccessStyle.Render("✓"), backend, maskSecret(backend, secret))
		case errors.Is(err, keyring.ErrNotFound):
			ctx.printf("ℹ No %s secret stored\n", backend)
		default:
			return err
		}
	}
	return nil
}

// maskSecret hides passwords: a Redis secret entirely, a connection string's
// password component
func maskSecret(backend constants.Backend, secret string) string {
	if backend != constants.BackendPostgres {
		return "****"
	}

	if strings.HasPrefix(secret, "postgres://") || strings.HasPrefix(secret, "postgresql://") {
		idx := strings.Index(secret, "://")
		remaining := secret[idx+3:]
		if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
			userInfo := remaining[:atIdx]
			if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
				return secret[:idx+3] + userInfo[:colonIdx] + ":****" + secret[idx+3+atIdx:]
			}
		}
		return secret
	}

	parts := strings.Fields(secret)
	for i, part := range parts {
		if strings.HasPrefix(strings.ToLower(part), "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
