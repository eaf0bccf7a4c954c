// Package app assembles the proxy host: config, logging, storage,
// scheduler, the player registry, the WebSocket transport, and the
// plugin manager. cmd/streamcast is a thin shell around it.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"streamcast/internal/config"
	"streamcast/internal/plugin"
	"streamcast/internal/proxy"
	"streamcast/internal/scheduler"
	"streamcast/internal/storage"
	"streamcast/internal/transport/ws"
	"streamcast/pkg/logx"
)

const (
	pruneJobName = "host:audit-prune"
	// Daily, off-peak for a game server.
	pruneCronSpec  = "30 5 * * *"
	auditRetention = 30 * 24 * time.Hour
)

type App struct {
	log    logx.Logger
	logSvc *logx.Service

	cfgMgr  *config.Manager
	store   storage.Store
	sched   *scheduler.Scheduler
	host    *proxy.Proxy
	server  *ws.Server
	plugins *plugin.Manager
	console *proxy.Console

	cancel context.CancelFunc
	wg     sync.WaitGroup
	cfgSub chan *config.Config
}

// New loads the host config and builds every component, but starts
// nothing. Register plugins via Plugins() before calling Start.
func New(configPath string) (*App, error) {
	boot := logx.NewConsole("info")

	cfgMgr := config.NewManager(configPath, boot.With(logx.String("comp", "config")))
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	store, err := storage.Open(storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sched := scheduler.New(log.With(logx.String("comp", "scheduler")))
	host := proxy.New(log.With(logx.String("comp", "proxy")))

	server := ws.NewServer(ws.Config{
		Listen:     cfg.Listen,
		RatePerSec: cfg.Chat.RatePerSec,
		Burst:      cfg.Chat.Burst,
	}, host, cfg.Permissions.Default, log.With(logx.String("comp", "ws")))

	plugins := plugin.NewManager(log.With(logx.String("comp", "plugins")), plugin.Deps{
		Logger:    log,
		Host:      host,
		Scheduler: sched,
		Store:     store,
		DataDir:   cfg.PluginDir,
	})

	a := &App{
		log:     log,
		logSvc:  logSvc,
		cfgMgr:  cfgMgr,
		store:   store,
		sched:   sched,
		host:    host,
		server:  server,
		plugins: plugins,
		console: proxy.NewConsole(log.With(logx.String("comp", "console"))),
	}
	return a, nil
}

func (a *App) Plugins() *plugin.Manager { return a.plugins }

// Start brings the host up: scheduler, plugins, transport, the console
// command loop, and the config watcher. Returns once the listener is
// bound; a bind failure tears everything back down.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.sched.Start(runCtx)
	a.schedulePrune()

	a.plugins.StartAll(runCtx)

	if err := a.server.Start(runCtx); err != nil {
		a.plugins.StopAll(runCtx)
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.sched.Stop(stopCtx)
		stopCancel()
		cancel()
		return fmt.Errorf("start transport: %w", err)
	}

	// Console commands share the dispatch path with player commands.
	// The goroutine blocks on stdin and is abandoned at shutdown.
	go a.console.Run(runCtx, os.Stdin, a.host.Commands())

	a.cfgSub = a.cfgMgr.Subscribe(1)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(runCtx)
	}()
	go func() {
		defer a.wg.Done()
		for cfg := range a.cfgSub {
			a.applyConfig(cfg)
		}
	}()

	a.log.Info("host started", logx.Int("players", a.host.PlayerCount()))
	return nil
}

// Stop shuts components down in reverse start order, bounded by ctx.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	a.plugins.StopAll(ctx)

	if err := a.server.Stop(ctx); err != nil {
		a.log.Warn("transport stop failed", logx.Err(err))
	}
	if err := a.sched.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop failed", logx.Err(err))
	}

	a.cfgMgr.Unsubscribe(a.cfgSub)
	a.wg.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}

	a.log.Info("host stopped")
	_ = a.logSvc.Close()
}

// applyConfig pushes a reloaded snapshot into the running components.
// Only what can change live is applied here; the ws server logs when a
// listen change needs a restart.
func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.server.Apply(ws.Config{
		Listen:     cfg.Listen,
		RatePerSec: cfg.Chat.RatePerSec,
		Burst:      cfg.Chat.Burst,
	}, cfg.Permissions.Default)
	a.log.Info("config applied",
		logx.String("level", cfg.Logging.Level),
		logx.Any("default_perms", cfg.Permissions.Default),
	)
}

func (a *App) schedulePrune() {
	if a.store == nil {
		return
	}
	err := a.sched.AddCron(pruneJobName, pruneCronSpec, func(ctx context.Context) error {
		cutoff := time.Now().Add(-auditRetention)
		removed, err := a.store.PruneBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		if removed > 0 {
			a.log.Info("audit log pruned",
				logx.Int64("removed", removed),
				logx.Time("cutoff", cutoff),
			)
		}
		return nil
	})
	if err != nil {
		a.log.Warn("audit prune not scheduled", logx.Err(err))
	}
}
