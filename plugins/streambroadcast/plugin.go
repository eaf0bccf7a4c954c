// Package streambroadcast lets a permitted player announce a live-stream
// URL to everyone online. The link is checked against a fixed whitelist
// of streaming hosts, invocations are rate-limited per player, and the
// announcement goes out as centered, clickable rich-text chat lines.
package streambroadcast

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"streamcast/internal/config"
	"streamcast/internal/plugin"
	"streamcast/internal/proxy"
	"streamcast/pkg/logx"
)

const (
	pluginName     = "streambroadcast"
	permissionNode = "livebroadcast.use"
	sweepJobName   = pluginName + ":ledger-sweep"
)

type Plugin struct {
	log  logx.Logger
	deps plugin.Deps

	cfg    atomic.Pointer[Config]
	ledger *ledger

	// online snapshots the current recipients; swapped in tests.
	online func() []Recipient
	// clock is time.Now outside tests.
	clock func() time.Time

	configPath  string
	cancelWatch context.CancelFunc
	watchWG     sync.WaitGroup
}

func New() *Plugin {
	return &Plugin{
		ledger: newLedger(),
		clock:  time.Now,
	}
}

func (p *Plugin) Name() string { return pluginName }

func (p *Plugin) Init(ctx context.Context, deps plugin.Deps) error {
	p.deps = deps
	p.log = deps.Logger

	p.configPath = filepath.Join(deps.DataDir, dataDirName, configFileName)
	cfg := loadConfig(p.configPath, p.log)
	p.cfg.Store(&cfg)

	p.online = func() []Recipient {
		players := deps.Host.Players()
		out := make([]Recipient, len(players))
		for i, pl := range players {
			out[i] = pl
		}
		return out
	}
	return nil
}

func (p *Plugin) Start(ctx context.Context) error {
	cfg := p.config()

	if p.deps.Scheduler != nil && cfg.Cooldown > 0 {
		err := p.deps.Scheduler.AddInterval(sweepJobName, cfg.Cooldown, func(ctx context.Context) error {
			if n := p.ledger.Sweep(cfg.Cooldown, p.clock()); n > 0 {
				p.log.Debug("cooldown ledger swept", logx.Int("removed", n))
			}
			return nil
		})
		if err != nil {
			p.log.Warn("ledger sweep not scheduled", logx.Err(err))
		}
	}

	// Hot-reload messages and cooldown when the operator edits config.yml.
	wctx, cancel := context.WithCancel(context.Background())
	p.cancelWatch = cancel
	p.watchWG.Add(1)
	go func() {
		defer p.watchWG.Done()
		_ = config.WatchFile(wctx, p.configPath, p.log, p.reloadConfig)
	}()

	p.log.Info("ready",
		logx.Duration("cooldown", cfg.Cooldown),
		logx.Any("aliases", cfg.Aliases),
	)
	return nil
}

func (p *Plugin) Stop(ctx context.Context) error {
	if p.cancelWatch != nil {
		p.cancelWatch()
	}
	p.watchWG.Wait()
	if p.deps.Scheduler != nil {
		p.deps.Scheduler.Remove(sweepJobName)
	}
	return nil
}

// Commands registers one logical command reachable under every alias.
func (p *Plugin) Commands() []proxy.Command {
	aliases := p.config().Aliases
	return []proxy.Command{{
		Name:       aliases[0],
		Aliases:    aliases[1:],
		Permission: permissionNode,
		Handle:     p.handleBroadcast,
	}}
}

func (p *Plugin) config() Config { return *p.cfg.Load() }

// reloadConfig swaps in a fresh immutable snapshot. Command aliases are
// bound at registration, so an alias change only takes effect on restart.
func (p *Plugin) reloadConfig() {
	old := p.config()
	cfg := loadConfig(p.configPath, p.log)
	if !slices.Equal(old.Aliases, cfg.Aliases) {
		p.log.Warn("command aliases changed; restart required to re-register")
		cfg.Aliases = old.Aliases
	}
	p.cfg.Store(&cfg)
	p.log.Info("config reloaded", logx.Duration("cooldown", cfg.Cooldown))
}
