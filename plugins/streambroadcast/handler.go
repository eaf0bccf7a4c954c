package streambroadcast

import (
	"context"
	"fmt"
	"time"

	"streamcast/internal/minimsg"
	"streamcast/internal/proxy"
	"streamcast/internal/storage"
	"streamcast/pkg/logx"
)

// handleBroadcast is the command body behind every alias. The host has
// already enforced the permission node before this runs. Check order is
// normative: source, cooldown, arity, link. The ledger is marked only
// after a successful broadcast, so failed invocations never consume the
// cooldown window.
func (p *Plugin) handleBroadcast(ctx context.Context, src proxy.CommandSource, args []string) error {
	cfg := p.config()

	// Sampled once and reused for both the check and the mark, so rapid
	// invocations cannot slip past on clock drift during the handler.
	now := p.clock()

	if !src.IsPlayer() {
		return p.reply(src, cfg.Messages.InvalidCommand)
	}
	if now.Sub(p.ledger.Last(src.ID())) < cfg.Cooldown {
		return p.reply(src, cfg.Messages.CooldownMessage)
	}
	if len(args) != 1 {
		return p.reply(src, cfg.Messages.InvalidCommand)
	}
	streamURL := args[0]
	if !validStreamLink(streamURL) {
		return p.reply(src, cfg.Messages.InvalidLink)
	}

	l, err := formatLines(cfg.Messages, src.Name(), streamURL)
	if err != nil {
		return fmt.Errorf("format announcement: %w", err)
	}

	sent, failed := dispatch(p.log, p.online(), l)
	p.ledger.Mark(src.ID(), now)

	p.audit(ctx, src, streamURL, now, sent, failed)
	p.log.Info("stream link broadcast",
		logx.String("player", src.Name()),
		logx.String("url", streamURL),
		logx.Int("recipients", sent),
		logx.Int("failed", failed),
	)
	return nil
}

// reply renders one centered template back to the invoker. A template the
// parser rejects is an operator problem: it surfaces as a returned error
// (logged by the command manager) and the invoker gets no feedback.
func (p *Plugin) reply(src proxy.CommandSource, template string) error {
	c, err := minimsg.Parse(centerText(template))
	if err != nil {
		return fmt.Errorf("parse reply template: %w", err)
	}
	if err := src.SendComponent(c); err != nil {
		p.log.Warn("reply send failed", logx.String("to", src.Name()), logx.Err(err))
	}
	return nil
}

func (p *Plugin) audit(ctx context.Context, src proxy.CommandSource, streamURL string, at time.Time, sent, failed int) {
	if p.deps.Store == nil {
		return
	}
	actx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := p.deps.Store.AppendBroadcast(actx, storage.BroadcastEntry{
		At:         at,
		PlayerID:   src.ID(),
		PlayerName: src.Name(),
		URL:        streamURL,
		Recipients: sent,
		Failed:     failed,
	})
	if err != nil {
		p.log.Warn("audit append failed", logx.Err(err))
	}
}
