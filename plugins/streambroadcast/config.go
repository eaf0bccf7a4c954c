package streambroadcast

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"streamcast/pkg/logx"
)

const (
	dataDirName     = "StreamBroadcast"
	configFileName  = "config.yml"
	defaultCooldown = 600 * time.Second
)

var defaultAliases = []string{"directo", "live", "stream"}

// Messages are the operator-supplied rich-text templates. Each is run
// through the markup parser at send time; announcement and link carry a
// single %s placeholder.
type Messages struct {
	InvalidCommand     string
	CooldownMessage    string
	InvalidLink        string
	AnnouncementFormat string
	Space              string
	LinkPrefix         string
}

func defaultMessages() Messages {
	return Messages{
		InvalidCommand:     "<red>Incorrect command usage. You must specify a valid link.",
		CooldownMessage:    "<red>You must wait 10 minutes before using this command again.",
		InvalidLink:        "<red>The link provided is not valid. Please use a link from Twitch, YouTube, Facebook or Kick.",
		AnnouncementFormat: "<#8bf723> ☄ %s <white>is now live",
		Space:              "",
		LinkPrefix:         "<white>%s",
	}
}

// Config is the immutable snapshot the handler reads. A reload builds a
// fresh snapshot and swaps it atomically.
type Config struct {
	Cooldown time.Duration
	Aliases  []string
	Messages Messages
}

func defaultConfig() Config {
	return Config{
		Cooldown: defaultCooldown,
		Aliases:  append([]string(nil), defaultAliases...),
		Messages: defaultMessages(),
	}
}

// fileConfig mirrors the on-disk YAML shape.
type fileConfig struct {
	Messages map[string]string `yaml:"messages"`
	Commands struct {
		Aliases []string `yaml:"aliases"`
	} `yaml:"commands"`
	Cooldown *int `yaml:"cooldown"`
}

// loadConfig reads the plugin config, creating it with defaults when
// absent. A malformed file never prevents startup: the defaults are used
// in memory and a warning is logged.
func loadConfig(path string, log logx.Logger) Config {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if werr := writeDefaultConfig(path); werr != nil {
			log.Error("could not write default config", logx.String("path", path), logx.Err(werr))
		} else {
			log.Info("default config written", logx.String("path", path))
		}
		return defaultConfig()
	}
	if err != nil {
		log.Warn("config unreadable; using defaults", logx.String("path", path), logx.Err(err))
		return defaultConfig()
	}

	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		log.Warn("config malformed; using defaults", logx.String("path", path), logx.Err(err))
		return defaultConfig()
	}
	return mergeConfig(fc, log)
}

// mergeConfig fills missing or invalid fields from the defaults, key by key.
func mergeConfig(fc fileConfig, log logx.Logger) Config {
	cfg := defaultConfig()

	pick := func(key string, dst *string, wantPlaceholder bool) {
		v, ok := fc.Messages[key]
		if !ok {
			return
		}
		if wantPlaceholder && strings.Count(v, "%s") > 1 {
			log.Warn("message template has more than one %s; using default",
				logx.String("key", key))
			return
		}
		*dst = v
	}
	pick("invalidCommand", &cfg.Messages.InvalidCommand, false)
	pick("cooldownMessage", &cfg.Messages.CooldownMessage, false)
	pick("invalidLink", &cfg.Messages.InvalidLink, false)
	pick("announcementFormat", &cfg.Messages.AnnouncementFormat, true)
	pick("space", &cfg.Messages.Space, false)
	pick("linkPrefix", &cfg.Messages.LinkPrefix, true)

	if fc.Cooldown != nil {
		if *fc.Cooldown < 0 {
			log.Warn("negative cooldown; using default", logx.Int("cooldown", *fc.Cooldown))
		} else {
			cfg.Cooldown = time.Duration(*fc.Cooldown) * time.Second
		}
	}

	var aliases []string
	for _, a := range fc.Commands.Aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			aliases = append(aliases, a)
		}
	}
	if len(aliases) > 0 {
		cfg.Aliases = aliases
	}

	return cfg
}

func writeDefaultConfig(path string) error {
	def := defaultConfig()
	var fc fileConfig
	fc.Messages = map[string]string{
		"invalidCommand":     def.Messages.InvalidCommand,
		"cooldownMessage":    def.Messages.CooldownMessage,
		"invalidLink":        def.Messages.InvalidLink,
		"announcementFormat": def.Messages.AnnouncementFormat,
		"space":              def.Messages.Space,
		"linkPrefix":         def.Messages.LinkPrefix,
	}
	fc.Commands.Aliases = append([]string(nil), def.Aliases...)
	secs := int(def.Cooldown / time.Second)
	fc.Cooldown = &secs

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
