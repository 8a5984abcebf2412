package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/models"
)

// exportDocument is the shape written by export: each record's stored JSON
// under its full store key, null when absent
type exportDocument struct {
	App        string                     `json:"app"`
	Version    string                     `json:"version"`
	Namespace  string                     `json:"namespace"`
	ExportedAt models.Timestamp           `json:"exportedAt"`
	Records    map[string]json.RawMessage `json:"records"`
}

type ExportCmd struct {
	Output string `short:"o" type:"path" help:"Write to this file instead of stdout."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	doc, err := buildExport(ctx, time.Now())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	data = append(data, '\n')

	if c.Output == "" {
		_, err := ctx.Out.Write(data)
		return err
	}
	if err := os.WriteFile(c.Output, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	ctx.printf("Exported %d records to %s\n", len(doc.Records), c.Output)
	return nil
}

func buildExport(ctx *Context, now time.Time) (*exportDocument, error) {
	cctx, cancel := ctx.Ctx()
	defer cancel()

	doc := &exportDocument{
		App:        constants.AppName,
		Version:    constants.Version,
		Namespace:  ctx.Store.Namespace(),
		ExportedAt: models.NewTimestamp(now),
		Records:    make(map[string]json.RawMessage),
	}

	names := []string{
		constants.KeyStreakData,
		constants.KeyMoodLogs,
		constants.KeyPracticeLogs,
		constants.KeyOnboardingComplete,
	}
	for _, name := range names {
		raw, ok, err := ctx.Store.Raw(cctx, name)
		if err != nil {
			return nil, err
		}
		key := ctx.Store.Key(name)
		switch {
		case !ok:
			doc.Records[key] = json.RawMessage("null")
		case json.Valid([]byte(raw)):
			doc.Records[key] = json.RawMessage(raw)
		default:
			// Keep undecodable values verbatim as a string
			quoted, _ := json.Marshal(raw)
			doc.Records[key] = quoted
		}
	}
	return doc, nil
}
