package ws

import (
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"streamcast/internal/proxy"
	"streamcast/pkg/logx"
)

// readPump owns inbound traffic for one session. It applies the per-session
// flood limiter before any line reaches chat or a command handler.
func (s *Server) readPump(conn *websocket.Conn, p *proxy.Player, limits Config) {
	defer s.wg.Done()
	defer func() {
		s.px.Unregister(p.ID())
		_ = conn.Close()
	}()

	limiter := rate.NewLimiter(rate.Limit(limits.RatePerSec), limits.Burst)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("session read error", logx.String("player", p.Name()), logx.Err(err))
			}
			return
		}
		line := strings.TrimSpace(string(msg))
		if line == "" {
			continue
		}
		if !limiter.Allow() {
			s.log.Debug("chat flood dropped", logx.String("player", p.Name()))
			continue
		}
		if strings.HasPrefix(line, "/") {
			s.px.Commands().Dispatch(s.ctx, p, line)
			continue
		}
		s.px.Chat(p, line)
	}
}

// writePump drains the player's outbound queue onto the socket, so lines
// sent to a single recipient arrive in order.
func (s *Server) writePump(conn *websocket.Conn, p *proxy.Player) {
	defer s.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Debug("session write error", logx.String("player", p.Name()), logx.Err(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
