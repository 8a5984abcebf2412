package cli

import (
	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/theme"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if p, ok := ctx.KV.(kv.Provisioner); ok {
		cctx, cancel := ctx.Ctx()
		defer cancel()
		if err := p.Init(cctx); err != nil {
			return err
		}
	}
	ctx.printf("%s Initialized %s storage at: %s\n", theme.SuccessStyle.Render("✓"), constants.AppName, ctx.Location())
	return nil
}
