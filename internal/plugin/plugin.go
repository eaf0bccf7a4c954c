package plugin

import (
	"context"

	"streamcast/internal/proxy"
	"streamcast/internal/scheduler"
	"streamcast/internal/storage"
	"streamcast/pkg/logx"
)

// Plugin is one proxy extension. Lifecycle: Init -> Start -> (running) ->
// Stop. Commands() is read after a successful Init and registered with the
// host command manager.
type Plugin interface {
	Name() string
	Init(ctx context.Context, deps Deps) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Commands() []proxy.Command
}

// Deps is everything the host hands a plugin.
type Deps struct {
	Logger    logx.Logger
	Host      *proxy.Proxy
	Scheduler *scheduler.Scheduler
	Store     storage.Store // may be nil when storage is disabled

	// DataDir is the root directory for per-plugin data, e.g. "plugins".
	// A plugin keeps its files under DataDir/<its own subdirectory>.
	DataDir string
}
