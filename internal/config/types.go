package config

// Config is the host (proxy) configuration, loaded from ./config.yml.
// Plugin configuration lives under plugins/<PluginName>/ and is owned by
// each plugin.
type Config struct {
	Listen      string      `json:"listen"`
	Logging     Logging     `json:"logging"`
	Storage     Storage     `json:"storage"`
	Chat        Chat        `json:"chat"`
	Permissions Permissions `json:"permissions"`
	PluginDir   string      `json:"plugin_dir,omitempty"`
}

type Logging struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Storage selects the broadcast audit backend.
// Driver: "sqlite", "file", or ""/"none" to disable.
type Storage struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

// Chat bounds inbound chat per session (token bucket).
type Chat struct {
	RatePerSec float64 `json:"rate_per_sec"`
	Burst      int     `json:"burst"`
}

// Permissions.Default is granted to every player on join.
type Permissions struct {
	Default []string `json:"default"`
}

func Default() *Config {
	return &Config{
		Listen: ":8080",
		Logging: Logging{
			Level:   "info",
			Console: true,
		},
		Storage: Storage{
			Driver: "sqlite",
			Path:   "data/streamcast.db",
		},
		Chat: Chat{
			RatePerSec: 2,
			Burst:      5,
		},
		Permissions: Permissions{
			Default: []string{"livebroadcast.use"},
		},
		PluginDir: "plugins",
	}
}
