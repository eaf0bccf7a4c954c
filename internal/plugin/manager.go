package plugin

import (
	"context"
	"sync"

	"streamcast/pkg/logx"
)

// Manager owns plugin registration and lifecycle. One plugin failing to
// init or start is logged and skipped; it never brings the host down.
type Manager struct {
	mu      sync.Mutex
	log     logx.Logger
	deps    Deps
	plugins []Plugin
	started []Plugin
}

func NewManager(log logx.Logger, deps Deps) *Manager {
	return &Manager{log: log, deps: deps}
}

func (m *Manager) Register(ps ...Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = append(m.plugins, ps...)
}

// StartAll inits and starts every registered plugin, then registers its
// commands with the host.
func (m *Manager) StartAll(ctx context.Context) {
	m.mu.Lock()
	plugins := append([]Plugin(nil), m.plugins...)
	m.mu.Unlock()

	for _, p := range plugins {
		log := m.log.With(logx.String("plugin", p.Name()))
		deps := m.deps
		deps.Logger = deps.Logger.With(logx.String("plugin", p.Name()))

		if err := p.Init(ctx, deps); err != nil {
			log.Error("plugin init failed; skipping", logx.Err(err))
			continue
		}
		if err := p.Start(ctx); err != nil {
			log.Error("plugin start failed; skipping", logx.Err(err))
			continue
		}

		registered := 0
		for _, cmd := range p.Commands() {
			if err := m.deps.Host.Commands().Register(cmd); err != nil {
				log.Error("command registration failed", logx.String("command", cmd.Name), logx.Err(err))
				continue
			}
			registered++
		}

		m.mu.Lock()
		m.started = append(m.started, p)
		m.mu.Unlock()
		log.Info("plugin started", logx.Int("commands", registered))
	}
}

// StopAll stops started plugins in reverse start order.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	started := append([]Plugin(nil), m.started...)
	m.started = nil
	m.mu.Unlock()

	for i := len(started) - 1; i >= 0; i-- {
		p := started[i]
		if err := p.Stop(ctx); err != nil {
			m.log.Warn("plugin stop failed", logx.String("plugin", p.Name()), logx.Err(err))
		}
	}
}
