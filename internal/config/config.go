package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

// Global represents the global ~/.peerchat/config.toml.
type Global struct {
	DefaultProfile string `toml:"default_profile"`
}

// Profile represents a per-profile profile.toml.
type Profile struct {
	Identity Identity `toml:"identity"`
	Relay    Relay    `toml:"relay"`
	Storage  Storage  `toml:"storage"`
	Metrics  Metrics  `toml:"metrics"`
}

// Identity is the local user. The uid is never stored as a contact.
type Identity struct {
	UID  string `toml:"uid" env:"PEERCHAT_UID"`
	Name string `toml:"name" env:"PEERCHAT_NAME"`
}

// Relay configures the websocket relay connection.
type Relay struct {
	URL string `toml:"url" env:"PEERCHAT_RELAY_URL"`
}

// Storage configures the message store. Path overrides the default
// per-profile database location when set.
type Storage struct {
	Path string `toml:"path" env:"PEERCHAT_DB_PATH"`
}

// Metrics configures the daemon's HTTP listener for /metrics and /healthz.
type Metrics struct {
	Addr string `toml:"addr" env:"PEERCHAT_METRICS_ADDR,default=127.0.0.1:9477"`
}

// LoadGlobal reads the global config from the given path.
func LoadGlobal(path string) (*Global, error) {
	var cfg Global
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveGlobal writes the global config to the given path, creating parent dirs as needed.
func SaveGlobal(path string, cfg *Global) error {
	return save(path, cfg)
}

// LoadProfile reads a profile config and applies PEERCHAT_* env overrides.
// A missing file is not an error: env vars alone can configure a profile.
func LoadProfile(path string) (*Profile, error) {
	var cfg Profile
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return &cfg, nil
}

// SaveProfile writes a profile config to the given path.
func SaveProfile(path string, cfg *Profile) error {
	return save(path, cfg)
}

func save(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
