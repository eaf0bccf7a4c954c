package streambroadcast

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"streamcast/pkg/logx"
)

func TestLoadConfigWritesDefaultsWhenAbsent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), dataDirName, configFileName)

	cfg := loadConfig(path, logx.Nop())
	if cfg.Cooldown != 600*time.Second {
		t.Fatalf("Cooldown = %v", cfg.Cooldown)
	}
	if len(cfg.Aliases) != 3 || cfg.Aliases[0] != "directo" {
		t.Fatalf("Aliases = %v", cfg.Aliases)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	for _, want := range []string{"invalidCommand", "announcementFormat", "aliases", "cooldown"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("written defaults missing %q:\n%s", want, b)
		}
	}

	// The written file must load back to the same snapshot.
	again := loadConfig(path, logx.Nop())
	if again.Cooldown != cfg.Cooldown || again.Messages != cfg.Messages {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", cfg, again)
	}
}

func TestLoadConfigMalformedFallsBack(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("messages: [not: a: mapping\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := loadConfig(path, logx.Nop())
	if cfg.Cooldown != defaultCooldown || cfg.Messages != defaultMessages() {
		t.Fatal("malformed config did not fall back to defaults")
	}
}

func TestLoadConfigPartialKeysFallBackPerKey(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), configFileName)
	body := `
messages:
  cooldownMessage: "<red>Espera un poco."
commands:
  aliases: [LIVE, "  ", cast]
cooldown: 120
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := loadConfig(path, logx.Nop())
	if cfg.Messages.CooldownMessage != "<red>Espera un poco." {
		t.Fatalf("CooldownMessage = %q", cfg.Messages.CooldownMessage)
	}
	if cfg.Messages.InvalidLink != defaultMessages().InvalidLink {
		t.Fatal("missing key did not fall back to default")
	}
	if cfg.Cooldown != 120*time.Second {
		t.Fatalf("Cooldown = %v", cfg.Cooldown)
	}
	if len(cfg.Aliases) != 2 || cfg.Aliases[0] != "live" || cfg.Aliases[1] != "cast" {
		t.Fatalf("Aliases = %v", cfg.Aliases)
	}
}

func TestLoadConfigRejectsDoublePlaceholder(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), configFileName)
	body := `
messages:
  announcementFormat: "%s is live at %s"
cooldown: 60
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := loadConfig(path, logx.Nop())
	if cfg.Messages.AnnouncementFormat != defaultMessages().AnnouncementFormat {
		t.Fatalf("double-%%s template accepted: %q", cfg.Messages.AnnouncementFormat)
	}
	if cfg.Cooldown != 60*time.Second {
		t.Fatalf("valid sibling key lost: %v", cfg.Cooldown)
	}
}

func TestLoadConfigNegativeCooldownFallsBack(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("cooldown: -5\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg := loadConfig(path, logx.Nop())
	if cfg.Cooldown != defaultCooldown {
		t.Fatalf("Cooldown = %v", cfg.Cooldown)
	}
}

func TestLoadConfigZeroCooldownDisables(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("cooldown: 0\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg := loadConfig(path, logx.Nop())
	if cfg.Cooldown != 0 {
		t.Fatalf("Cooldown = %v, want 0", cfg.Cooldown)
	}
}
