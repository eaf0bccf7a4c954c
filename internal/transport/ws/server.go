// Package ws exposes the proxy over WebSocket: one connection per player
// session. Inbound lines starting with '/' go to the command manager;
// everything else is relayed as plain chat. Outbound lines are JSON chat
// component trees.
package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"streamcast/internal/proxy"
	"streamcast/pkg/logx"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	maxNameLen     = 16
)

type Config struct {
	Listen string
	// Inbound chat flood limits per session (token bucket).
	RatePerSec float64
	Burst      int
}

type Server struct {
	px  *proxy.Proxy
	log logx.Logger

	mu    sync.Mutex
	cfg   Config
	perms []string

	httpSrv  *http.Server
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewServer(cfg Config, px *proxy.Proxy, defaultPerms []string, log logx.Logger) *Server {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Server{
		px:    px,
		log:   log,
		cfg:   cfg,
		perms: append([]string(nil), defaultPerms...),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The proxy speaks to game clients, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Apply updates chat limits and default permissions for sessions opened
// from now on; existing sessions keep the limits they connected with.
func (s *Server) Apply(cfg Config, defaultPerms []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.RatePerSec > 0 {
		s.cfg.RatePerSec = cfg.RatePerSec
	}
	if cfg.Burst > 0 {
		s.cfg.Burst = cfg.Burst
	}
	s.perms = append([]string(nil), defaultPerms...)
	if cfg.Listen != "" && cfg.Listen != s.cfg.Listen {
		s.log.Warn("listen address changed in config; restart required",
			logx.String("current", s.cfg.Listen),
			logx.String("new", cfg.Listen),
		)
	}
}

// Start binds the listener synchronously, then serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	addr := s.cfg.Listen
	s.mu.Unlock()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http serve failed", logx.Err(err))
		}
	}()

	s.log.Info("listening", logx.String("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the listener down and drops every open session.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	// WebSocket connections are hijacked and survive Shutdown; closing the
	// players drains their write pumps, which close the sockets.
	for _, p := range s.px.Players() {
		s.px.Unregister(p.ID())
	}
	s.wg.Wait()
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if !validName(name) {
		http.Error(w, "bad or missing name", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", logx.Err(err))
		return
	}

	s.mu.Lock()
	perms := append([]string(nil), s.perms...)
	limits := s.cfg
	s.mu.Unlock()

	p := proxy.NewPlayer(newSessionID(), name, perms, sendBuffer)
	if err := s.px.Register(p); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	s.wg.Add(2)
	go s.writePump(conn, p)
	go s.readPump(conn, p, limits)
}

func validName(name string) bool {
	if name == "" || len(name) > maxNameLen {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}

func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
