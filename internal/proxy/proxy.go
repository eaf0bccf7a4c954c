package proxy

import (
	"fmt"
	"strings"
	"sync"

	"streamcast/internal/minimsg"
	"streamcast/pkg/logx"
)

// Proxy is the host runtime: the set of online players plus the command
// manager. Plugins see it through plugin.Deps.
type Proxy struct {
	mu      sync.RWMutex
	players map[string]*Player // keyed by session ID
	names   map[string]string  // lowercased name -> session ID

	cmds *CommandManager
	log  logx.Logger
}

func New(log logx.Logger) *Proxy {
	return &Proxy{
		players: map[string]*Player{},
		names:   map[string]string{},
		cmds:    NewCommandManager(log.With(logx.String("comp", "commands"))),
		log:     log,
	}
}

func (px *Proxy) Commands() *CommandManager { return px.cmds }

func (px *Proxy) Register(p *Player) error {
	key := strings.ToLower(p.Name())

	px.mu.Lock()
	defer px.mu.Unlock()
	if _, taken := px.names[key]; taken {
		return fmt.Errorf("player name %q already online", p.Name())
	}
	px.players[p.ID()] = p
	px.names[key] = p.ID()

	px.log.Info("player joined", logx.String("player", p.Name()), logx.String("session", p.ID()))
	return nil
}

func (px *Proxy) Unregister(id string) {
	px.mu.Lock()
	p, ok := px.players[id]
	if ok {
		delete(px.players, id)
		delete(px.names, strings.ToLower(p.Name()))
	}
	px.mu.Unlock()

	if ok {
		p.Close()
		px.log.Info("player left", logx.String("player", p.Name()), logx.String("session", id))
	}
}

// Players returns a snapshot of the currently online players.
func (px *Proxy) Players() []*Player {
	px.mu.RLock()
	defer px.mu.RUnlock()
	out := make([]*Player, 0, len(px.players))
	for _, p := range px.players {
		out = append(out, p)
	}
	return out
}

func (px *Proxy) PlayerCount() int {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return len(px.players)
}

// Chat relays a plain (non-command) chat line from one player to everyone.
func (px *Proxy) Chat(from *Player, text string) {
	line := minimsg.Plain("<" + from.Name() + "> " + text)
	for _, p := range px.Players() {
		if err := p.SendComponent(line); err != nil {
			px.log.Warn("chat relay failed",
				logx.String("to", p.Name()),
				logx.Err(err),
			)
		}
	}
}
