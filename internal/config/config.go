package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	DefaultDataDir        = "data"
	DefaultStorageKey     = "my-todos"

	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

type Keymap struct {
	Quit     string `toml:"quit"`
	Add      string `toml:"add"`
	Up       string `toml:"up"`
	Down     string `toml:"down"`
	Complete string `toml:"complete"`
	Search   string `toml:"search"`
	Category string `toml:"category"`
	Confirm  string `toml:"confirm"`
	Cancel   string `toml:"cancel"`
	Next     string `toml:"next"`
	Prev     string `toml:"prev"`
}

type AlarmConfig struct {
	// ResyncInterval caps how long the alarm engine sleeps between checks.
	ResyncInterval string `toml:"resync_interval"`
}

type WebPushConfig struct {
	Endpoint        string `toml:"endpoint"`
	P256dh          string `toml:"p256dh"`
	Auth            string `toml:"auth"`
	VAPIDPublicKey  string `toml:"vapid_public_key"`
	VAPIDPrivateKey string `toml:"vapid_private_key"`
	Contact         string `toml:"contact"`
}

type NotifyConfig struct {
	// Permission is "granted", "denied" or "default". Only granted sends
	// system notifications; the in-app banner is shown regardless.
	Permission string        `toml:"permission"`
	Command    []string      `toml:"command"`
	WebPush    WebPushConfig `toml:"webpush"`
}

type Config struct {
	Store           string       `toml:"store"`
	DBPath          string       `toml:"db_path"`
	DataDir         string       `toml:"data_dir"`
	StorageKey      string       `toml:"storage_key"`
	DefaultCategory string       `toml:"default_category"`
	LogPath         string       `toml:"log_path"`
	LogLevel        string       `toml:"log_level"`
	Alarm           AlarmConfig  `toml:"alarm"`
	Notify          NotifyConfig `toml:"notify"`
	Keys            Keymap       `toml:"keys"`
}

// LoadOrCreate reads the config at path, writing defaults there first if the
// file does not exist. Relative paths in the file resolve against its directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.Store == "" {
		cfg.Store = StoreSQLite
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreFile:
	default:
		return fmt.Errorf("unknown store %q (want %q or %q)", c.Store, StoreSQLite, StoreFile)
	}
	if _, err := c.ResyncInterval(); err != nil {
		return err
	}
	return nil
}

// ResyncInterval parses Alarm.ResyncInterval; empty means the engine default.
func (c Config) ResyncInterval() (time.Duration, error) {
	if c.Alarm.ResyncInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Alarm.ResyncInterval)
	if err != nil {
		return 0, fmt.Errorf("alarm.resync_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("alarm.resync_interval must be positive, got %s", d)
	}
	return d, nil
}

func (c Config) resolve(base string) Config {
	c.DBPath = resolvePath(base, c.DBPath)
	c.DataDir = resolvePath(base, c.DataDir)
	c.LogPath = resolvePath(base, c.LogPath)
	return c
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the configuration written on first launch.
func Default() Config {
	return Config{
		Store:           StoreSQLite,
		DBPath:          DefaultDBName,
		DataDir:         DefaultDataDir,
		StorageKey:      DefaultStorageKey,
		DefaultCategory: "all",
		LogPath:         "todo.log",
		LogLevel:        "info",
		Alarm: AlarmConfig{
			ResyncInterval: "15s",
		},
		Notify: NotifyConfig{
			Permission: "default",
			Command:    []string{"notify-send", "{title}", "{body}"},
		},
		Keys: Keymap{
			Quit:     "q",
			Add:      "a",
			Up:       "k",
			Down:     "j",
			Complete: " ",
			Search:   "/",
			Category: "tab",
			Confirm:  "enter",
			Cancel:   "esc",
			Next:     "tab",
			Prev:     "shift+tab",
		},
	}
}
