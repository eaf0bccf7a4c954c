package proxy

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"streamcast/internal/minimsg"
	"streamcast/pkg/logx"
)

// HandlerFunc runs one command invocation. A returned error is logged and
// never reaches the source; user feedback is the handler's own business.
type HandlerFunc func(ctx context.Context, src CommandSource, args []string) error

type Command struct {
	Name       string
	Aliases    []string
	Permission string // empty means everyone
	Handle     HandlerFunc
}

// CommandManager resolves chat lines starting with '/' to registered
// handlers and enforces the permission gate before the handler body runs.
type CommandManager struct {
	mu     sync.RWMutex
	byName map[string]*Command

	log logx.Logger
}

func NewCommandManager(log logx.Logger) *CommandManager {
	return &CommandManager{
		byName: map[string]*Command{},
		log:    log,
	}
}

func (m *CommandManager) Register(cmd Command) error {
	if cmd.Handle == nil {
		return fmt.Errorf("command %q has no handler", cmd.Name)
	}
	names := append([]string{cmd.Name}, cmd.Aliases...)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || strings.Contains(n, " ") {
			return fmt.Errorf("bad command name %q", n)
		}
		if _, exists := m.byName[n]; exists {
			return fmt.Errorf("command %q already registered", n)
		}
	}
	cc := cmd
	for _, n := range names {
		m.byName[strings.ToLower(strings.TrimSpace(n))] = &cc
	}
	return nil
}

func (m *CommandManager) lookup(name string) *Command {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byName[strings.ToLower(name)]
}

// Dispatch parses a command line ("/live https://...") and runs it.
// Handler panics and errors stop here; they never take the session down.
func (m *CommandManager) Dispatch(ctx context.Context, src CommandSource, line string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd := m.lookup(fields[0])
	if cmd == nil {
		m.replyPlain(src, "Unknown command.")
		return
	}
	if cmd.Permission != "" && !src.HasPermission(cmd.Permission) {
		m.replyPlain(src, "You do not have permission to use this command.")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in command handler",
				logx.String("command", fields[0]),
				logx.String("source", src.Name()),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := cmd.Handle(ctx, src, fields[1:]); err != nil {
		m.log.Error("command failed",
			logx.String("command", fields[0]),
			logx.String("source", src.Name()),
			logx.Err(err),
		)
	}
}

func (m *CommandManager) replyPlain(src CommandSource, text string) {
	if err := src.SendComponent(minimsg.Plain(text)); err != nil {
		m.log.Warn("reply failed", logx.String("source", src.Name()), logx.Err(err))
	}
}
