// Package config loads blockblast settings from the XDG config directory.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/adrg/xdg"

	"github.com/jaminalder/blockblast/internal/domain"
	"github.com/jaminalder/blockblast/internal/records"
)

var cfgFile = "blockblast/config.json"

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("config error: %s", e.err)
}

type Config struct {
	Addr        string        `json:"addr"`
	LogLevel    string        `json:"log_level"`
	RecordsPath string        `json:"records_path"` // empty: XDG data dir
	RecordLimit int           `json:"record_limit"`
	Seed        uint64        `json:"seed"` // 0: random per process
	Layout      domain.Layout `json:"layout"`
}

var DefaultConfig = Config{
	Addr:        ":8080",
	LogLevel:    "info",
	RecordLimit: records.DefaultLimit,
	Layout:      domain.DefaultLayout,
}

// Load reads the config file if one exists and fills the rest from
// DefaultConfig.
func Load() (*Config, error) {
	cfg := DefaultConfig
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err == nil {
		if err := readFile(absPath, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads the config at path instead of searching XDG directories.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig
	if err := readFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.RecordLimit < 1 {
		return &InvalidConfig{"record_limit must be at least 1"}
	}
	if c.Layout.CellSize < 1 {
		return &InvalidConfig{"layout.CellSize must be positive"}
	}
	if c.Layout.TrayCell < 1 {
		return &InvalidConfig{"layout.TrayCell must be positive"}
	}
	if c.Layout.TrayGap < 0 {
		return &InvalidConfig{"layout.TrayGap must not be negative"}
	}
	if _, ok := ParseLevel(c.LogLevel); !ok {
		return &InvalidConfig{fmt.Sprintf("unknown log_level %q", c.LogLevel)}
	}
	return nil
}

// ResolveRecordsPath returns RecordsPath or the XDG default.
func (c *Config) ResolveRecordsPath() (string, error) {
	if c.RecordsPath != "" {
		return c.RecordsPath, nil
	}
	return records.DefaultPath()
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Save writes c to the user's XDG config file, where Load finds it.
func (c *Config) Save() (string, error) {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return "", err
	}
	return absPath, c.SaveFile(absPath)
}

// SaveFile writes c to path as indented JSON.
func (c *Config) SaveFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
