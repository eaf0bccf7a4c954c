package proxy

import (
	"encoding/json"
	"errors"
	"sync"

	"streamcast/internal/minimsg"
)

var errSessionClosed = errors.New("session closed")

// Player is one connected session. Outbound chat goes through a buffered
// queue drained by the transport's write pump, so lines sent to a single
// recipient stay ordered.
type Player struct {
	id    string
	name  string
	perms map[string]struct{}

	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func NewPlayer(id, name string, perms []string, buffer int) *Player {
	if buffer <= 0 {
		buffer = 64
	}
	pm := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		pm[p] = struct{}{}
	}
	return &Player{
		id:    id,
		name:  name,
		perms: pm,
		out:   make(chan []byte, buffer),
	}
}

func (p *Player) ID() string     { return p.id }
func (p *Player) Name() string   { return p.name }
func (p *Player) IsPlayer() bool { return true }

func (p *Player) HasPermission(node string) bool {
	_, ok := p.perms[node]
	return ok
}

// SendComponent enqueues one chat line. It never blocks: a full queue
// means the client has stalled and the line is refused.
func (p *Player) SendComponent(c *minimsg.Component) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errSessionClosed
	}
	select {
	case p.out <- b:
		return nil
	default:
		return errors.New("send queue full")
	}
}

// Outbound is drained by the transport write pump. The channel is closed
// when the session closes.
func (p *Player) Outbound() <-chan []byte { return p.out }

// Close marks the session dead and closes the outbound queue.
// Safe to call more than once.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.out)
}
