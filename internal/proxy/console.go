package proxy

import (
	"bufio"
	"context"
	"io"
	"strings"

	"streamcast/internal/minimsg"
	"streamcast/pkg/logx"
)

// Console is the non-player command source. Every permission check passes;
// components are rendered flat into the log.
type Console struct {
	log logx.Logger
}

func NewConsole(log logx.Logger) *Console {
	return &Console{log: log}
}

func (c *Console) ID() string                     { return "console" }
func (c *Console) Name() string                   { return "CONSOLE" }
func (c *Console) IsPlayer() bool                 { return false }
func (c *Console) HasPermission(node string) bool { return true }

func (c *Console) SendComponent(comp *minimsg.Component) error {
	c.log.Info(comp.PlainText())
	return nil
}

// Run reads command lines from r (normally stdin) until EOF or ctx is
// done, dispatching each through the command manager. Console input does
// not need a leading slash.
func (c *Console) Run(ctx context.Context, r io.Reader, cmds *CommandManager) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cmds.Dispatch(ctx, c, line)
	}
}
