package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const namespace = "NEXTTODO"

// Env holds overrides read from NEXTTODO_* variables.
type Env struct {
	ConfigPath string `envconfig:"CONFIG"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
}

func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return env, fmt.Errorf("failed to load env: %w", err)
	}
	return env, nil
}

// ResolveConfigPath picks the config file: NEXTTODO_CONFIG when set, else
// <user config dir>/nexttodo/config.toml, else ./config.toml.
func ResolveConfigPath(env Env) string {
	if env.ConfigPath != "" {
		return env.ConfigPath
	}
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "nexttodo", DefaultConfigFileName)
}

// Apply layers env overrides on top of cfg.
func (e Env) Apply(cfg Config) Config {
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	return cfg
}
