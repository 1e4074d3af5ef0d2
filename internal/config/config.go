// Package config loads the relay's JSON settings document from a
// path overridable by an environment variable, validating it at load
// time.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
)

// Settings is the top-level configuration document for the relay.
type Settings struct {
	Listen string `json:"listen"`
	Log    Log    `json:"log"`

	// LobbyTimeoutSeconds bounds how long a lobby's host waits for a
	// joiner before the lobby is torn down. Zero means the relay's
	// built-in default (relay.DefaultHostWait).
	LobbyTimeoutSeconds int `json:"lobby_timeout_seconds"`
}

// Log configures where and how verbosely the relay logs.
type Log struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

// defaults is used as-is when no config path is given, and supplies
// every field a config document leaves out. A config file that cannot
// be read, parsed, or verified makes Load return an error instead.
var defaults = Settings{
	Listen: "0.0.0.0:5321",
	Log: Log{
		Level: "info",
		Path:  "relay.log",
	},
}

// Global holds the effective configuration, populated by Load at
// startup and optionally replaced later by Reload.
var Global = defaults

// Load reads and validates the config file named by path, or by the
// PONGRELAY_CONFIG environment variable if path is empty, falling
// back to an empty path (and hence defaults) if neither is set.
func Load(path string) error {
	if path == "" {
		path = os.Getenv("PONGRELAY_CONFIG")
	}
	if path == "" {
		Global = defaults
		return nil
	}
	return Reload(path)
}

// Reload reads, parses, and verifies the config file at path,
// replacing Global on success.
func Reload(path string) error {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := defaults
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if err := cfg.verify(); err != nil {
		return fmt.Errorf("config: invalid settings in %s: %w", path, err)
	}

	Global = cfg
	return nil
}

// verify fills in any zero-valued fields left empty by a partial
// config document and rejects the one field the relay truly cannot
// start without: a listen address.
func (s *Settings) verify() error {
	if s.Listen == "" {
		return fmt.Errorf("empty listen address")
	}
	if s.Log.Level == "" {
		s.Log.Level = defaults.Log.Level
	}
	if s.Log.Path == "" {
		s.Log.Path = defaults.Log.Path
	}
	if s.LobbyTimeoutSeconds < 0 {
		return fmt.Errorf("negative lobby_timeout_seconds")
	}
	return nil
}
