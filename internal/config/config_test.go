package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roach88/pulse/internal/notify"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Storage.Driver != DriverJSON {
		t.Errorf("expected storage.driver=json, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.Notifications != "./notifications.json" {
		t.Errorf("expected storage.notifications=./notifications.json, got %s", cfg.Storage.Notifications)
	}
	if cfg.Redis.CommandsChannel != "pulse:commands" {
		t.Errorf("expected redis.commands_channel=pulse:commands, got %s", cfg.Redis.CommandsChannel)
	}
	if cfg.LogFormat() != "text" {
		t.Errorf("expected text logs in development, got %s", cfg.LogFormat())
	}

	// No rooms are declared by default.
	if err := cfg.Validate(); err == nil {
		t.Error("expected default config to fail validation")
	}
}

func TestLoad_RequiresPath(t *testing.T) {
	t.Setenv("PULSE_CONFIG", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when no path and PULSE_CONFIG not set, got nil")
	}
	if !strings.Contains(err.Error(), "PULSE_CONFIG") {
		t.Errorf("expected error to mention PULSE_CONFIG, got %q", err.Error())
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	path := writeConfig(t, "rooms: [17]\n")
	t.Setenv("PULSE_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfg.Rooms) != 1 || cfg.Rooms[0] != "17" {
		t.Errorf("expected rooms=[17], got %v", cfg.Rooms)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
environment: production
rooms: [17, "42"]
owners: [181293]
command_prefix: "!!/"
storage:
  driver: sqlite
  database: /var/lib/pulse/pulse.db
redis:
  addr: redis:6379
  db: 2
feeds:
  - name: halflife
    kind: raw
    url: wss://example.invalid/halflife
    rooms: [17]
  - name: deepsmoke
    kind: deepsmoke
    url: wss://example.invalid/deepsmoke
    rooms: [17, 42]
    reconnect: 30s
log:
  level: debug
`)

	t.Setenv("PULSE_REDIS_ADDR", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Production {
		t.Errorf("expected environment=production, got %s", cfg.Environment)
	}
	if want := (RoomList{"17", "42"}); len(cfg.Rooms) != 2 || cfg.Rooms[0] != want[0] || cfg.Rooms[1] != want[1] {
		t.Errorf("expected rooms=%v, got %v", want, cfg.Rooms)
	}
	if len(cfg.Owners) != 1 || cfg.Owners[0] != "181293" {
		t.Errorf("expected owners=[181293], got %v", cfg.Owners)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.Database != "/var/lib/pulse/pulse.db" {
		t.Errorf("unexpected storage: %+v", cfg.Storage)
	}
	// Omitted fields keep their defaults.
	if cfg.Storage.Tags != "./tags.json" {
		t.Errorf("expected default storage.tags, got %s", cfg.Storage.Tags)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Errorf("unexpected redis: %+v", cfg.Redis)
	}
	if cfg.Redis.RoomsChannelPrefix != "pulse:room:" {
		t.Errorf("expected default rooms_channel_prefix, got %s", cfg.Redis.RoomsChannelPrefix)
	}
	if len(cfg.Feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(cfg.Feeds))
	}
	if cfg.Feeds[0].Reconnect != DefaultReconnect {
		t.Errorf("expected default reconnect, got %s", cfg.Feeds[0].Reconnect)
	}
	if cfg.Feeds[1].Reconnect != 30*time.Second {
		t.Errorf("expected reconnect=30s, got %s", cfg.Feeds[1].Reconnect)
	}
	if cfg.LogFormat() != "json" {
		t.Errorf("expected json logs in production, got %s", cfg.LogFormat())
	}
}

func TestRedisAddrOverride(t *testing.T) {
	path := writeConfig(t, "rooms: [17]\nredis:\n  addr: from-file:6379\n")
	t.Setenv("PULSE_REDIS_ADDR", "from-env:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Redis.Addr != "from-env:6379" {
		t.Errorf("expected PULSE_REDIS_ADDR to override, got %s", cfg.Redis.Addr)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "rooms: 17\n")); err == nil {
		t.Error("expected error for scalar rooms")
	}
	if _, err := LoadFile(writeConfig(t, "rooms: [[17]]\n")); err == nil {
		t.Error("expected error for nested rooms")
	}
	if _, err := LoadFile(writeConfig(t, "rooms: [17\n")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Rooms = RoomList{"17", "42"}
		cfg.Feeds = []FeedConfig{{
			Name:  "halflife",
			Kind:  FeedRaw,
			URL:   "wss://example.invalid",
			Rooms: RoomList{"17"},
		}}
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"environment", func(c *Config) { c.Environment = "staging" }, "invalid environment"},
		{"no rooms", func(c *Config) { c.Rooms = nil }, "rooms"},
		{"driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"sqlite path", func(c *Config) { c.Storage.Driver = DriverSQLite; c.Storage.Database = "" }, "storage.database"},
		{"json paths", func(c *Config) { c.Storage.Tags = "" }, "storage.notifications"},
		{"channel", func(c *Config) { c.Redis.CommandsChannel = "" }, "redis.commands_channel"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"feed kind", func(c *Config) { c.Feeds[0].Kind = "rss" }, "feeds[0].kind"},
		{"feed url", func(c *Config) { c.Feeds[0].URL = "" }, "feeds[0].url"},
		{"feed name", func(c *Config) { c.Feeds[0].Name = "" }, "feeds[0].name"},
		{"feed room", func(c *Config) { c.Feeds[0].Rooms = RoomList{notify.RoomID("999")} }, "room 999 is not declared"},
		{"duplicate feed", func(c *Config) { c.Feeds = append(c.Feeds, c.Feeds[0]) }, "duplicate name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}
