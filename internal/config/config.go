// Package config loads pulse configuration.
//
// Configuration is a single YAML file given by:
//   - the --config flag, or
//   - the PULSE_CONFIG environment variable
//
// Defaults fill every field the file omits. The only environment override
// is PULSE_REDIS_ADDR, so the same file works in and out of containers.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pulse/internal/notify"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local runs. Logs are text.
	Development Environment = "development"
	// Production logs JSON unless log.format says otherwise.
	Production Environment = "production"
)

// Storage drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Feed kinds.
const (
	FeedRaw       = "raw"
	FeedDeepSmoke = "deepsmoke"
)

// Config is the pulse configuration.
type Config struct {
	// Environment identifies the deployment type (development, production).
	Environment Environment `yaml:"environment"`

	// Rooms are the declared chat rooms. Numeric ids are accepted.
	Rooms RoomList `yaml:"rooms"`

	// Owners are the user ids allowed to run privileged commands.
	Owners IDList `yaml:"owners"`

	// CommandPrefix marks chat messages addressed to pulse, e.g. "!!/".
	CommandPrefix string `yaml:"command_prefix"`

	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Feeds   []FeedConfig  `yaml:"feeds"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects where registries are persisted.
type StorageConfig struct {
	// Driver is "json" (one file per registry) or "sqlite".
	// Default: json
	Driver string `yaml:"driver"`

	// Notifications is the notification registry file (json driver).
	// Default: ./notifications.json
	Notifications string `yaml:"notifications"`

	// Tags is the tag registry file (json driver).
	// Default: ./tags.json
	Tags string `yaml:"tags"`

	// Database is the SQLite database path (sqlite driver).
	// Default: ./pulse.db
	Database string `yaml:"database"`
}

// RedisConfig configures the chat bridge.
type RedisConfig struct {
	// Addr is host:port. PULSE_REDIS_ADDR overrides it.
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`

	// CommandsChannel carries inbound chat messages.
	// Default: pulse:commands
	CommandsChannel string `yaml:"commands_channel"`

	// RoomsChannelPrefix is prefixed to a room id to name its outbound
	// channel.
	// Default: pulse:room:
	RoomsChannelPrefix string `yaml:"rooms_channel_prefix"`
}

// FeedConfig configures one external websocket feed.
type FeedConfig struct {
	Name string `yaml:"name"`

	// Kind is "raw" or "deepsmoke".
	Kind string `yaml:"kind"`

	URL string `yaml:"url"`

	// Rooms receive the feed's posts. Each must be declared.
	Rooms RoomList `yaml:"rooms"`

	// Reconnect is the delay before redialing a dropped connection.
	// Default: 10s
	Reconnect time.Duration `yaml:"reconnect"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables it.
	// Default: :9090
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json. Empty picks json in production and text
	// otherwise.
	Format string `yaml:"format"`
}

// DefaultReconnect is the feed redial delay when none is configured.
const DefaultReconnect = 10 * time.Second

// Default returns the default configuration. It declares no rooms, so it
// does not validate on its own.
func Default() *Config {
	return &Config{
		Environment:   Development,
		CommandPrefix: "!!/",
		Storage: StorageConfig{
			Driver:        DriverJSON,
			Notifications: "./notifications.json",
			Tags:          "./tags.json",
			Database:      "./pulse.db",
		},
		Redis: RedisConfig{
			Addr:               "localhost:6379",
			CommandsChannel:    "pulse:commands",
			RoomsChannelPrefix: "pulse:room:",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path, or from PULSE_CONFIG when path is
// empty, and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PULSE_CONFIG")
	}
	if path == "" {
		return nil, fmt.Errorf("no configuration file; " +
			"set PULSE_CONFIG to the path of your pulse.yaml or use --config")
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFile reads path over the defaults and applies environment overrides.
// It does not validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyFeedDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if addr := os.Getenv("PULSE_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
}

func (c *Config) applyFeedDefaults() {
	for i := range c.Feeds {
		if c.Feeds[i].Reconnect <= 0 {
			c.Feeds[i].Reconnect = DefaultReconnect
		}
	}
}

// LogFormat resolves the effective log format.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.Environment == Production {
		return "json"
	}
	return "text"
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if len(c.Rooms) == 0 {
		errs = append(errs, errors.New("rooms: at least one room is required"))
	}

	drivers := []string{DriverJSON, DriverSQLite}
	if !slices.Contains(drivers, c.Storage.Driver) {
		errs = append(errs, fmt.Errorf("storage.driver must be one of: %v", drivers))
	}
	switch c.Storage.Driver {
	case DriverJSON:
		if c.Storage.Notifications == "" || c.Storage.Tags == "" {
			errs = append(errs, errors.New("storage.notifications and storage.tags are required for the json driver"))
		}
	case DriverSQLite:
		if c.Storage.Database == "" {
			errs = append(errs, errors.New("storage.database is required for the sqlite driver"))
		}
	}

	if c.Redis.CommandsChannel == "" {
		errs = append(errs, errors.New("redis.commands_channel is required"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"", "text", "json"}
	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be text or json"))
	}

	kinds := []string{FeedRaw, FeedDeepSmoke}
	names := make(map[string]bool)
	for i, feed := range c.Feeds {
		if feed.Name == "" {
			errs = append(errs, fmt.Errorf("feeds[%d].name is required", i))
		} else if names[feed.Name] {
			errs = append(errs, fmt.Errorf("feeds[%d]: duplicate name %q", i, feed.Name))
		}
		names[feed.Name] = true

		if !slices.Contains(kinds, feed.Kind) {
			errs = append(errs, fmt.Errorf("feeds[%d].kind must be one of: %v", i, kinds))
		}
		if feed.URL == "" {
			errs = append(errs, fmt.Errorf("feeds[%d].url is required", i))
		}
		if len(feed.Rooms) == 0 {
			errs = append(errs, fmt.Errorf("feeds[%d].rooms: at least one room is required", i))
		}
		for _, room := range feed.Rooms {
			if !slices.Contains(c.Rooms, room) {
				errs = append(errs, fmt.Errorf("feeds[%d]: room %s is not declared", i, room))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RoomList is a list of room ids. YAML numbers and strings are both
// accepted, so "rooms: [17, 42]" works.
type RoomList []notify.RoomID

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RoomList) UnmarshalYAML(node *yaml.Node) error {
	values, err := scalars(node)
	if err != nil {
		return fmt.Errorf("rooms: %w", err)
	}
	out := make(RoomList, len(values))
	for i, v := range values {
		out[i] = notify.RoomID(v)
	}
	*r = out
	return nil
}

// IDList is a list of user ids. YAML numbers and strings are both accepted.
type IDList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *IDList) UnmarshalYAML(node *yaml.Node) error {
	values, err := scalars(node)
	if err != nil {
		return fmt.Errorf("ids: %w", err)
	}
	*l = values
	return nil
}

// scalars returns the literal text of every item of a YAML sequence.
func scalars(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list", node.Line)
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.Value == "" {
			return nil, fmt.Errorf("line %d: expected a number or string", item.Line)
		}
		values = append(values, item.Value)
	}
	return values, nil
}
