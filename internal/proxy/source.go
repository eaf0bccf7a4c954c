package proxy

import "streamcast/internal/minimsg"

// CommandSource is whoever invoked a command: a connected player or the
// server console. Identity is session-scoped; a reconnect yields a new ID.
type CommandSource interface {
	ID() string
	Name() string
	IsPlayer() bool
	HasPermission(node string) bool
	SendComponent(c *minimsg.Component) error
}
