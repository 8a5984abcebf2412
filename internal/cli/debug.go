package cli

import (
	"encoding/json"
	"fmt"
)

type DebugCmd struct {
	Path DebugPathCmd `cmd:"" help:"Show where the store lives."`
	Dump DebugDumpCmd `cmd:"" help:"Dump one stored record as it is persisted."`
}

type DebugPathCmd struct{}

func (cmd *DebugPathCmd) Run(ctx *Context) error {
	output := map[string]string{
		"backend":   string(ctx.Config.Backend),
		"location":  ctx.Location(),
		"namespace": ctx.Store.Namespace(),
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.println(string(jsonBytes))
	return nil
}

type DebugDumpCmd struct {
	Record string `arg:"" enum:"streak_data,mood_logs,practice_logs,onboarding_complete" help:"Record to dump (streak_data, mood_logs, practice_logs, onboarding_complete)."`
}

func (cmd *DebugDumpCmd) Run(ctx *Context) error {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	raw, ok, err := ctx.Store.Raw(cctx, cmd.Record)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no value stored at %s", ctx.Store.Key(cmd.Record))
	}
	ctx.println(raw)
	return nil
}
